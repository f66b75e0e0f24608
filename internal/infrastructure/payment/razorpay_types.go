package payment

// razorpayPayment is the gateway's payment entity as returned by
// GET /payments/{id}. Only the fields reconciliation needs are mapped.
type razorpayPayment struct {
	ID          string `json:"id"`
	Entity      string `json:"entity"`
	Amount      int64  `json:"amount"` // minor units (paise)
	Currency    string `json:"currency"`
	Status      string `json:"status"` // created, authorized, captured, refunded, failed
	OrderID     string `json:"order_id"`
	Method      string `json:"method"`
	Captured    bool   `json:"captured"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	ErrorCode   string `json:"error_code"`
	ErrorReason string `json:"error_reason"`
}

// razorpayErrorResponse is the error envelope the gateway API returns
// on non-2xx responses
type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}
