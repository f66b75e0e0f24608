package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appshared "github.com/storefront/backend/internal/application/shared"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultReturnWindowDays is how long after order creation a return may be
// opened when no window is configured.
const DefaultReturnWindowDays = 30

// Policy holds the return business rules sourced from configuration
type Policy struct {
	WindowDays int
}

// Service handles the return/refund lifecycle. Eligibility is enforced at
// creation, not at transition time; the refund transition reconciles back
// into the order's payment status and the inventory ledger within one
// transaction scope.
type Service struct {
	txScope        appshared.TransactionScope
	ledger         *inventory.LedgerService
	policy         Policy
	eventPublisher shared.EventPublisher
}

// NewService creates a new returns Service
func NewService(txScope appshared.TransactionScope, ledger *inventory.LedgerService, policy Policy) *Service {
	if policy.WindowDays <= 0 {
		policy.WindowDays = DefaultReturnWindowDays
	}
	return &Service{
		txScope: txScope,
		ledger:  ledger,
		policy:  policy,
	}
}

// SetEventPublisher sets the event publisher for notifications
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a return request against a delivered order. Eligibility:
// the order must be delivered, the request must fall within the return
// window counted from order creation, and each line's quantity must not
// exceed what was ordered minus what earlier returns already claimed.
func (s *Service) Create(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	var created *returns.Return

	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		// Lock the order row so two concurrent creations against the same
		// order serialize: the second one sees the first one's claims and
		// cannot over-claim a line.
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}

		if !o.IsDelivered() {
			return shared.ErrReturnIneligible
		}
		window := time.Duration(s.policy.WindowDays) * 24 * time.Hour
		if time.Since(o.CreatedAt) > window {
			return shared.ErrReturnWindowExpired
		}

		claimed, err := s.claimedQuantities(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}

		returnNumber, err := repos.ReturnRepo().GenerateReturnNumber(ctx)
		if err != nil {
			return err
		}

		ret, err := returns.NewReturn(returnNumber, o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail, req.Reason)
		if err != nil {
			return err
		}

		for _, line := range req.Items {
			orderItem := o.GetItem(line.OrderItemID)
			if orderItem == nil {
				return shared.NewDomainError("INVALID_ORDER_ITEM",
					fmt.Sprintf("Order item %s does not belong to order %s", line.OrderItemID, o.OrderNumber))
			}
			remaining := orderItem.Quantity - claimed[line.OrderItemID]
			item, err := returns.NewReturnItem(orderItem.ID, orderItem.ProductID, orderItem.ProductName,
				orderItem.SKU, orderItem.UnitPrice, line.Quantity, remaining, line.Restockable, line.Reason)
			if err != nil {
				return err
			}
			if err := ret.AddItem(item); err != nil {
				return err
			}
		}

		if err := repos.ReturnRepo().Save(ctx, ret); err != nil {
			return err
		}
		created = ret
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)
	response := ToReturnResponse(created)
	return &response, nil
}

// GetByID retrieves a return by ID
func (s *Service) GetByID(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	var response ReturnResponse
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ret, err := repos.ReturnRepo().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		response = ToReturnResponse(ret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves returns with filtering and pagination
func (s *Service) List(ctx context.Context, filter ReturnListFilter) ([]ReturnResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}

	var out []ReturnResponse
	var total int64
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		rets, err := repos.ReturnRepo().FindAll(ctx, domainFilter)
		if err != nil {
			return err
		}
		total, err = repos.ReturnRepo().Count(ctx, domainFilter)
		if err != nil {
			return err
		}
		out = make([]ReturnResponse, len(rets))
		for i, ret := range rets {
			out[i] = ToReturnResponse(ret)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus moves a return to a new status. The refund transition
// reconciles the return into the order and the ledger: the order's payment
// status becomes refunded or partially_refunded depending on whether the
// refund covers the order total, and every restockable line re-enters
// stock as a RETURN ledger row - all in one transaction.
func (s *Service) UpdateStatus(ctx context.Context, returnID uuid.UUID, req UpdateStatusRequest) (*ReturnResponse, error) {
	target := returns.Status(req.Status)
	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	var updated *returns.Return
	var affectedOrder *order.Order
	var stockEvents []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ret, err := repos.ReturnRepo().FindByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}

		if err := ret.TransitionTo(target, actor, req.Notes); err != nil {
			return err
		}

		if target == returns.StatusRefunded {
			o, err := repos.OrderRepo().FindByIDForUpdate(ctx, ret.OrderID)
			if err != nil {
				return err
			}

			if ret.RefundAmount.GreaterThanOrEqual(o.Total) {
				err = o.MarkRefunded()
			} else {
				err = o.MarkPartiallyRefunded()
			}
			if err != nil {
				return err
			}

			for _, item := range ret.RestockableItems() {
				stock, err := s.ledger.ApplyDelta(ctx, repos, item.ProductID, item.Quantity,
					inventory.MovementTypeReturn, "Customer return", ret.ReturnNumber)
				if err != nil {
					return err
				}
				stockEvents = append(stockEvents, stock.GetDomainEvents()...)
				stock.ClearDomainEvents()
			}

			if err := repos.OrderRepo().Save(ctx, o); err != nil {
				return err
			}
			affectedOrder = o
		}

		if err := repos.ReturnRepo().Save(ctx, ret); err != nil {
			return err
		}
		updated = ret
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, updated)
	if affectedOrder != nil {
		s.publishOrderEvents(ctx, affectedOrder)
	}
	if s.eventPublisher != nil && len(stockEvents) > 0 {
		_ = s.eventPublisher.Publish(ctx, stockEvents...)
	}
	response := ToReturnResponse(updated)
	return &response, nil
}

// RecordQC records the quality-control outcome on a received return
func (s *Service) RecordQC(ctx context.Context, returnID uuid.UUID, req RecordQCRequest) (*ReturnResponse, error) {
	var updated *returns.Return
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ret, err := repos.ReturnRepo().FindByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := ret.RecordQCResult(returns.QCStatus(req.Result), req.Notes); err != nil {
			return err
		}
		if err := repos.ReturnRepo().Save(ctx, ret); err != nil {
			return err
		}
		updated = ret
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(updated)
	return &response, nil
}

// SetTracking records the customer's return shipment tracking details
func (s *Service) SetTracking(ctx context.Context, returnID uuid.UUID, req SetTrackingRequest) (*ReturnResponse, error) {
	var updated *returns.Return
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ret, err := repos.ReturnRepo().FindByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := ret.SetTracking(req.TrackingNumber, req.Carrier); err != nil {
			return err
		}
		if err := repos.ReturnRepo().Save(ctx, ret); err != nil {
			return err
		}
		updated = ret
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(updated)
	return &response, nil
}

// GetStatusHistory retrieves a return's audit trail in chronological order
func (s *Service) GetStatusHistory(ctx context.Context, returnID uuid.UUID) ([]StatusHistoryResponse, error) {
	var history []returns.StatusHistory
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.ReturnRepo().FindByID(ctx, returnID); err != nil {
			return err
		}
		var err error
		history, err = repos.ReturnRepo().FindStatusHistory(ctx, returnID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToStatusHistoryResponses(history), nil
}

// claimedQuantities sums, per order item, the quantities already claimed by
// this order's live returns. Rejected and cancelled returns release their
// claim.
func (s *Service) claimedQuantities(ctx context.Context, repos appshared.TransactionalRepositories, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	existing, err := repos.ReturnRepo().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	claimed := make(map[uuid.UUID]int)
	for _, ret := range existing {
		if ret.Status == returns.StatusRejected || ret.Status == returns.StatusCancelled {
			continue
		}
		for _, item := range ret.Items {
			claimed[item.OrderItemID] += item.Quantity
		}
	}
	return claimed, nil
}

func (s *Service) publishEvents(ctx context.Context, ret *returns.Return) {
	if s.eventPublisher == nil || ret == nil {
		return
	}
	events := ret.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	ret.ClearDomainEvents()
}

func (s *Service) publishOrderEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	o.ClearDomainEvents()
}
