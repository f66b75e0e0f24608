package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormReturnRepository implements returns.Repository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// FindByID finds a return by its ID with items and history preloaded
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.Return, error) {
	var ret returns.Return
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindByIDForUpdate finds a return and locks its row until the surrounding
// transaction ends
func (r *GormReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*returns.Return, error) {
	var ret returns.Return
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", id).
		Order("created_at ASC").
		Find(&ret.Items).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", id).
		Order("created_at ASC").
		Find(&ret.History).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindByReturnNumber finds a return by its return number
func (r *GormReturnRepository) FindByReturnNumber(ctx context.Context, returnNumber string) (*returns.Return, error) {
	var ret returns.Return
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("return_number = ?", returnNumber).
		First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindByOrderID finds all returns opened against an order
func (r *GormReturnRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*returns.Return, error) {
	var rets []*returns.Return
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rets).Error; err != nil {
		return nil, err
	}
	return rets, nil
}

// FindAll finds returns matching the filter
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*returns.Return, error) {
	var rets []*returns.Return
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&returns.Return{}).Preload("Items"),
		filter,
	)
	if err := query.Find(&rets).Error; err != nil {
		return nil, err
	}
	return rets, nil
}

// Save creates or updates a return together with its items and history
func (r *GormReturnRepository) Save(ctx context.Context, ret *returns.Return) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "History").Save(ret).Error; err != nil {
			return err
		}
		for i := range ret.Items {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&ret.Items[i]).Error; err != nil {
				return err
			}
		}
		for i := range ret.History {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&ret.History[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts returns matching the filter
func (r *GormReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&returns.Return{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindStatusHistory returns the return's status trail in creation order
func (r *GormReturnRepository) FindStatusHistory(ctx context.Context, returnID uuid.UUID) ([]returns.StatusHistory, error) {
	var history []returns.StatusHistory
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", returnID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// ExistsByReturnNumber checks if a return number is already taken
func (r *GormReturnRepository) ExistsByReturnNumber(ctx context.Context, returnNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&returns.Return{}).
		Where("return_number = ?", returnNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReturnNumber generates a unique return number.
// Format: RET-YYYYMMDD-NNNN (e.g., RET-20250120-0007)
func (r *GormReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("RET-%s-", time.Now().Format("20060102"))

	var lastReturn returns.Return
	err := r.db.WithContext(ctx).
		Model(&returns.Return{}).
		Where("return_number LIKE ?", prefix+"%").
		Order("return_number DESC").
		First(&lastReturn).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastReturn.ReturnNumber != "" {
		parts := strings.Split(lastReturn.ReturnNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	returnNumber := fmt.Sprintf("%s%04d", prefix, nextNum)
	for i := 0; i < 100; i++ {
		exists, err := r.ExistsByReturnNumber(ctx, returnNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return returnNumber, nil
		}
		nextNum++
		returnNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
	}
	return "", fmt.Errorf("could not generate a unique return number with prefix %s", prefix)
}

// applyFilter applies filter options to the query
func (r *GormReturnRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReturnRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("return_number ILIKE ? OR order_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "qc_status":
			query = query.Where("qc_status = ?", value)
		}
	}

	return query
}

// Ensure GormReturnRepository implements returns.Repository
var _ returns.Repository = (*GormReturnRepository)(nil)
