package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	CustomerID    string          `json:"customer_id" validate:"required,uuid"`
	TaskerID      string          `json:"tasker_id" validate:"required,uuid"`
	TaskID        string          `json:"task_id" validate:"required,uuid"`
	BidID         *string         `json:"bid_id,omitempty" validate:"omitempty,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,iso4217"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CARD BANK_TRANSFER WALLET"`
	PaymentType   string          `json:"payment_type,omitempty" validate:"omitempty,oneof=TASK_PAYMENT SERVICE_FEE DEPOSIT"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

type CompletePaymentRequest struct {
	ExternalTransactionID string `json:"external_transaction_id" validate:"required,max=128"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CancelPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// RefundRequest refunds the whole remaining amount when Amount is nil.
type RefundRequest struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Reason    string           `json:"reason" validate:"required,min=1,max=500"`
	RefundFee bool             `json:"refund_fee"`
}

type PaymentListRequest struct {
	PaginatedRequest
	CustomerID *string    `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	TaskerID   *string    `json:"tasker_id,omitempty" validate:"omitempty,uuid"`
	TaskID     *string    `json:"task_id,omitempty" validate:"omitempty,uuid"`
	Status     *string    `json:"status,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

type ServiceFeesRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to" validate:"gtfield=From"`
}
