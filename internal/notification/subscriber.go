// Package notification turns lifecycle events into notification jobs and
// delivers them through the notification gateway from the worker pool.
package notification

import (
	"context"
	"fmt"
	"time"

	"task-marketplace/internal/event"
	"task-marketplace/internal/gateway"
	"task-marketplace/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const enqueueTimeout = 2 * time.Second

type Subscriber struct {
	queue worker.Enqueuer
	log   *zap.Logger
}

func NewSubscriber(queue worker.Enqueuer, log *zap.Logger) *Subscriber {
	return &Subscriber{
		queue: queue,
		log:   log.With(zap.String("component", "notification")),
	}
}

// Attach subscribes to every event on bus and returns the subscription id.
func (s *Subscriber) Attach(bus *event.Bus) string {
	return bus.SubscribeAll(s.handle)
}

func (s *Subscriber) handle(e event.Event) {
	notes := Build(e)
	if len(notes) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	for _, n := range notes {
		job, err := worker.NewJob(worker.KindSendNotification, n)
		if err == nil {
			err = s.queue.Enqueue(ctx, job)
		}
		if err != nil {
			s.log.Warn("Failed to enqueue notification",
				zap.String("event", n.Event),
				zap.String("recipient_id", n.RecipientID.String()),
				zap.Error(err),
			)
		}
	}
}

// Build maps an event to one notification per interested party.
func Build(e event.Event) []gateway.Notification {
	switch ev := e.(type) {
	case event.BidEvent:
		return bidNotifications(ev)
	case event.PaymentEvent:
		return paymentNotifications(ev)
	}
	return nil
}

func bidNotifications(ev event.BidEvent) []gateway.Notification {
	data := map[string]string{
		"bid_id":  ev.BidID.String(),
		"task_id": ev.TaskID.String(),
		"status":  string(ev.Status),
	}
	if ev.Reason != "" {
		data["reason"] = ev.Reason
	}

	var recipients []uuid.UUID
	var subject string
	switch ev.EventType() {
	case event.BidCreated:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "New bid on your task"
	case event.BidAccepted:
		recipients, subject = []uuid.UUID{ev.TaskerID}, "Your bid was accepted"
	case event.BidRejected:
		recipients, subject = []uuid.UUID{ev.TaskerID}, "Your bid was not selected"
	case event.BidWithdrawn:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "A bid was withdrawn"
	case event.BidCompleted:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "Your task was marked completed"
	case event.BidCancelled:
		recipients, subject = []uuid.UUID{ev.CustomerID, ev.TaskerID}, "Task assignment cancelled"
	default:
		return nil
	}

	return fanOut(ev.EventType(), subject, recipients, data)
}

func paymentNotifications(ev event.PaymentEvent) []gateway.Notification {
	data := map[string]string{
		"payment_id": ev.PaymentID.String(),
		"amount":     ev.Amount.StringFixed(2),
		"currency":   ev.Currency,
		"status":     string(ev.Status),
	}
	if ev.Reason != "" {
		data["reason"] = ev.Reason
	}

	var recipients []uuid.UUID
	var subject string
	switch ev.EventType() {
	case event.PaymentCompleted:
		recipients, subject = []uuid.UUID{ev.CustomerID, ev.TaskerID}, "Payment completed"
	case event.PaymentFailed:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "Payment failed"
	case event.PaymentCancelled:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "Payment cancelled"
	case event.PaymentRefunded:
		recipients, subject = []uuid.UUID{ev.CustomerID, ev.TaskerID}, "Payment refunded"
	case event.PaymentRefundFailed:
		recipients, subject = []uuid.UUID{ev.CustomerID}, "Refund failed"
	default:
		return nil
	}

	return fanOut(ev.EventType(), subject, recipients, data)
}

func fanOut(eventType, subject string, recipients []uuid.UUID, data map[string]string) []gateway.Notification {
	notes := make([]gateway.Notification, 0, len(recipients))
	for _, id := range recipients {
		notes = append(notes, gateway.Notification{
			RecipientID: id,
			Event:       eventType,
			Subject:     subject,
			Data:        data,
		})
	}
	return notes
}

// Deliver is the worker handler for send_notification jobs.
func Deliver(notifier gateway.Notifier) worker.HandlerFunc {
	return func(ctx context.Context, job worker.Job) error {
		var n gateway.Notification
		if err := job.Decode(&n); err != nil {
			return err
		}
		if err := notifier.Notify(ctx, n); err != nil {
			return fmt.Errorf("deliver %s to %s: %w", n.Event, n.RecipientID, err)
		}
		return nil
	}
}
