package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusProcessing    PaymentStatus = "PROCESSING"
	PaymentStatusCompleted     PaymentStatus = "COMPLETED"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusRetryPending  PaymentStatus = "RETRY_PENDING"
	PaymentStatusCancelled     PaymentStatus = "CANCELLED"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
	PaymentStatusRefundFailed  PaymentStatus = "REFUND_FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRetryPending, PaymentStatusCancelled,
		PaymentStatusRefundPending, PaymentStatusRefunded, PaymentStatusRefundFailed:
		return true
	}
	return false
}

// IsFinal reports whether the payment has settled. COMPLETED is final for
// cancellation purposes even though it can still be refunded.
func (s PaymentStatus) IsFinal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusRefundFailed:
		return true
	}
	return false
}

// ActivePaymentStatuses block a second charge for the same bid.
var ActivePaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
}

type PaymentType string

const (
	PaymentTypeTaskPayment PaymentType = "TASK_PAYMENT"
	PaymentTypeServiceFee  PaymentType = "SERVICE_FEE"
	PaymentTypeDeposit     PaymentType = "DEPOSIT"
	PaymentTypeRefund      PaymentType = "REFUND"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodWallet       PaymentMethod = "WALLET"
)

// Metadata keys written on refund and cancellation records.
const (
	MetaOriginalPaymentID  = "original_payment_id"
	MetaRefundReason       = "refund_reason"
	MetaCancellationReason = "cancellation_reason"
)

const DefaultMaxRetries = 3

var hundred = decimal.NewFromInt(100)

// Amounts are stored as NUMERIC(14, 2).
const AmountScale = 2

// MaxAmount is the largest value an amount column can hold.
var MaxAmount = decimal.New(1, 12).Sub(decimal.New(1, -AmountScale))

// AmountProblem describes why amount cannot be stored as a positive money
// value, or returns "" when it can.
func AmountProblem(amount decimal.Decimal) string {
	switch {
	case !amount.IsPositive():
		return "Must be greater than 0"
	case !amount.Equal(amount.Truncate(AmountScale)):
		return "Must have at most 2 decimal places"
	case amount.GreaterThan(MaxAmount):
		return "Must not exceed " + MaxAmount.StringFixed(AmountScale)
	}
	return ""
}

type Payment struct {
	Base
	CustomerID            uuid.UUID         `db:"customer_id"`
	TaskerID              uuid.UUID         `db:"tasker_id"`
	TaskID                uuid.UUID         `db:"task_id"`
	BidID                 *uuid.UUID        `db:"bid_id"`
	OriginalPaymentID     *uuid.UUID        `db:"original_payment_id"`
	Amount                decimal.Decimal   `db:"amount"`
	ServiceFee            decimal.Decimal   `db:"service_fee"`
	NetAmount             decimal.Decimal   `db:"net_amount"`
	Currency              string            `db:"currency"`
	PaymentMethod         PaymentMethod     `db:"payment_method"`
	PaymentType           PaymentType       `db:"payment_type"`
	Status                PaymentStatus     `db:"status"`
	ExternalTransactionID *string           `db:"external_transaction_id"`
	RetryCount            int               `db:"retry_count"`
	MaxRetries            int               `db:"max_retries"`
	FailureReason         *string           `db:"failure_reason"`
	Description           *string           `db:"description"`
	Metadata              map[string]string `db:"metadata"`
	ProcessedAt           *time.Time        `db:"processed_at"`
	CompletedAt           *time.Time        `db:"completed_at"`
	FailedAt              *time.Time        `db:"failed_at"`
	RefundedAt            *time.Time        `db:"refunded_at"`
}

// ServiceFeeFor returns amount * percent / 100 rounded to cents.
func ServiceFeeFor(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

// ApplyFee sets the fee and keeps NetAmount = Amount - ServiceFee.
func (p *Payment) ApplyFee(fee decimal.Decimal) {
	p.ServiceFee = fee
	p.NetAmount = p.Amount.Sub(fee)
}

func (p *Payment) CanRetry() bool {
	return p.RetryCount < p.MaxRetries
}

// MoveTo sets the status and stamps the timestamp belonging to it.
func (p *Payment) MoveTo(status PaymentStatus, now time.Time) {
	p.Status = status
	p.UpdatedAt = now

	switch status {
	case PaymentStatusProcessing:
		p.ProcessedAt = &now
	case PaymentStatusCompleted:
		p.CompletedAt = &now
	case PaymentStatusFailed, PaymentStatusRefundFailed:
		p.FailedAt = &now
	case PaymentStatusRefunded:
		p.RefundedAt = &now
	}
}

func (p *Payment) SetMeta(key, value string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata[key] = value
}
