package response

import (
	"time"

	"task-marketplace/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PaymentResponse struct {
	ID                    string               `json:"id"`
	CustomerID            string               `json:"customer_id"`
	TaskerID              string               `json:"tasker_id"`
	TaskID                string               `json:"task_id"`
	BidID                 *string              `json:"bid_id,omitempty"`
	OriginalPaymentID     *string              `json:"original_payment_id,omitempty"`
	Amount                decimal.Decimal      `json:"amount"`
	ServiceFee            decimal.Decimal      `json:"service_fee"`
	NetAmount             decimal.Decimal      `json:"net_amount"`
	Currency              string               `json:"currency"`
	PaymentMethod         entity.PaymentMethod `json:"payment_method"`
	PaymentType           entity.PaymentType   `json:"payment_type"`
	Status                entity.PaymentStatus `json:"status"`
	ExternalTransactionID *string              `json:"external_transaction_id,omitempty"`
	RetryCount            int                  `json:"retry_count"`
	MaxRetries            int                  `json:"max_retries"`
	FailureReason         *string              `json:"failure_reason,omitempty"`
	Description           *string              `json:"description,omitempty"`
	Metadata              map[string]string    `json:"metadata,omitempty"`
	ProcessedAt           *time.Time           `json:"processed_at,omitempty"`
	CompletedAt           *time.Time           `json:"completed_at,omitempty"`
	FailedAt              *time.Time           `json:"failed_at,omitempty"`
	RefundedAt            *time.Time           `json:"refunded_at,omitempty"`
	Version               int                  `json:"version"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type CustomerTotalResponse struct {
	CustomerID string          `json:"customer_id"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}

type TaskerTotalResponse struct {
	TaskerID    string          `json:"tasker_id"`
	TotalEarned decimal.Decimal `json:"total_earned"`
}

type ServiceFeesResponse struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	ServiceFees decimal.Decimal `json:"service_fees"`
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                    p.ID.String(),
		CustomerID:            p.CustomerID.String(),
		TaskerID:              p.TaskerID.String(),
		TaskID:                p.TaskID.String(),
		Amount:                p.Amount,
		ServiceFee:            p.ServiceFee,
		NetAmount:             p.NetAmount,
		Currency:              p.Currency,
		PaymentMethod:         p.PaymentMethod,
		PaymentType:           p.PaymentType,
		Status:                p.Status,
		ExternalTransactionID: p.ExternalTransactionID,
		RetryCount:            p.RetryCount,
		MaxRetries:            p.MaxRetries,
		FailureReason:         p.FailureReason,
		Description:           p.Description,
		Metadata:              p.Metadata,
		ProcessedAt:           p.ProcessedAt,
		CompletedAt:           p.CompletedAt,
		FailedAt:              p.FailedAt,
		RefundedAt:            p.RefundedAt,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}

	if p.BidID != nil {
		id := p.BidID.String()
		resp.BidID = &id
	}
	if p.OriginalPaymentID != nil {
		id := p.OriginalPaymentID.String()
		resp.OriginalPaymentID = &id
	}

	return resp
}
