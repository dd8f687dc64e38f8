package response

import (
	"time"

	"task-marketplace/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BidResponse struct {
	ID                 string           `json:"id"`
	TaskID             string           `json:"task_id"`
	TaskerID           string           `json:"tasker_id"`
	CustomerID         string           `json:"customer_id"`
	Amount             decimal.Decimal  `json:"amount"`
	Message            string           `json:"message"`
	EstimatedHours     int              `json:"estimated_hours"`
	Status             entity.BidStatus `json:"status"`
	CancellationReason *string          `json:"cancellation_reason,omitempty"`
	AcceptedAt         *time.Time       `json:"accepted_at,omitempty"`
	RejectedAt         *time.Time       `json:"rejected_at,omitempty"`
	WithdrawnAt        *time.Time       `json:"withdrawn_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	Version            int              `json:"version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type BidCountResponse struct {
	TaskID string `json:"task_id"`
	Count  int64  `json:"count"`
}

func BidToResponse(bid *entity.Bid) BidResponse {
	return BidResponse{
		ID:                 bid.ID.String(),
		TaskID:             bid.TaskID.String(),
		TaskerID:           bid.TaskerID.String(),
		CustomerID:         bid.CustomerID.String(),
		Amount:             bid.Amount,
		Message:            bid.Message,
		EstimatedHours:     bid.EstimatedHours,
		Status:             bid.Status,
		CancellationReason: bid.CancellationReason,
		AcceptedAt:         bid.AcceptedAt,
		RejectedAt:         bid.RejectedAt,
		WithdrawnAt:        bid.WithdrawnAt,
		CompletedAt:        bid.CompletedAt,
		CancelledAt:        bid.CancelledAt,
		Version:            bid.Version,
		CreatedAt:          bid.CreatedAt,
		UpdatedAt:          bid.UpdatedAt,
	}
}
