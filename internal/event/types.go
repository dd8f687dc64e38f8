// Package event carries lifecycle notifications from the bid and payment
// services to subscribers that must not be called inline, such as the
// notification fan-out.
package event

import (
	"time"

	"task-marketplace/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types, "entity.action".
const (
	BidCreated   = "bid.created"
	BidAccepted  = "bid.accepted"
	BidRejected  = "bid.rejected"
	BidWithdrawn = "bid.withdrawn"
	BidCompleted = "bid.completed"
	BidCancelled = "bid.cancelled"

	PaymentCreated      = "payment.created"
	PaymentCompleted    = "payment.completed"
	PaymentFailed       = "payment.failed"
	PaymentCancelled    = "payment.cancelled"
	PaymentRefunded     = "payment.refunded"
	PaymentRefundFailed = "payment.refund_failed"
)

type Event interface {
	EventType() string
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, at time.Time) baseEvent {
	return baseEvent{eventType: eventType, timestamp: at}
}

type BidEvent struct {
	baseEvent
	BidID      uuid.UUID
	TaskID     uuid.UUID
	TaskerID   uuid.UUID
	CustomerID uuid.UUID
	Status     entity.BidStatus
	Reason     string
}

func NewBidEvent(eventType string, bid *entity.Bid) BidEvent {
	e := BidEvent{
		baseEvent:  newBaseEvent(eventType, bid.UpdatedAt),
		BidID:      bid.ID,
		TaskID:     bid.TaskID,
		TaskerID:   bid.TaskerID,
		CustomerID: bid.CustomerID,
		Status:     bid.Status,
	}
	if bid.CancellationReason != nil {
		e.Reason = *bid.CancellationReason
	}
	return e
}

type PaymentEvent struct {
	baseEvent
	PaymentID  uuid.UUID
	CustomerID uuid.UUID
	TaskerID   uuid.UUID
	Type       entity.PaymentType
	Amount     decimal.Decimal
	Currency   string
	Status     entity.PaymentStatus
	Reason     string
}

func NewPaymentEvent(eventType string, p *entity.Payment) PaymentEvent {
	e := PaymentEvent{
		baseEvent:  newBaseEvent(eventType, p.UpdatedAt),
		PaymentID:  p.ID,
		CustomerID: p.CustomerID,
		TaskerID:   p.TaskerID,
		Type:       p.PaymentType,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Status:     p.Status,
	}
	if p.FailureReason != nil {
		e.Reason = *p.FailureReason
	}
	return e
}
