package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusWithdrawn BidStatus = "WITHDRAWN"
	BidStatusCompleted BidStatus = "COMPLETED"
	BidStatusCancelled BidStatus = "CANCELLED"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected,
		BidStatusWithdrawn, BidStatusCompleted, BidStatusCancelled:
		return true
	}
	return false
}

type Bid struct {
	Base
	TaskID             uuid.UUID       `db:"task_id"`
	TaskerID           uuid.UUID       `db:"tasker_id"`
	CustomerID         uuid.UUID       `db:"customer_id"`
	Amount             decimal.Decimal `db:"amount"`
	Message            string          `db:"message"`
	EstimatedHours     int             `db:"estimated_hours"`
	Status             BidStatus       `db:"status"`
	CancellationReason *string         `db:"cancellation_reason"`
	AcceptedAt         *time.Time      `db:"accepted_at"`
	RejectedAt         *time.Time      `db:"rejected_at"`
	WithdrawnAt        *time.Time      `db:"withdrawn_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
}

// MoveTo sets the status and stamps the timestamp belonging to it.
func (b *Bid) MoveTo(status BidStatus, now time.Time) {
	b.Status = status
	b.UpdatedAt = now

	switch status {
	case BidStatusAccepted:
		b.AcceptedAt = &now
	case BidStatusRejected:
		b.RejectedAt = &now
	case BidStatusWithdrawn:
		b.WithdrawnAt = &now
	case BidStatusCompleted:
		b.CompletedAt = &now
	case BidStatusCancelled:
		b.CancelledAt = &now
	}
}
