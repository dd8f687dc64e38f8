package notification

import (
	"context"
	"testing"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/event"
	"task-marketplace/internal/gateway"
	"task-marketplace/internal/worker"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	sent []gateway.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n gateway.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func TestBuildRecipients(t *testing.T) {
	bid := &entity.Bid{
		Base:       entity.Base{ID: uuid.New(), UpdatedAt: time.Now()},
		TaskID:     uuid.New(),
		TaskerID:   uuid.New(),
		CustomerID: uuid.New(),
	}
	payment := &entity.Payment{
		Base:       entity.Base{ID: uuid.New()},
		CustomerID: uuid.New(),
		TaskerID:   uuid.New(),
		Amount:     decimal.NewFromInt(50),
	}

	tests := []struct {
		name string
		e    event.Event
		want []uuid.UUID
	}{
		{"bid created goes to customer", event.NewBidEvent(event.BidCreated, bid), []uuid.UUID{bid.CustomerID}},
		{"bid accepted goes to tasker", event.NewBidEvent(event.BidAccepted, bid), []uuid.UUID{bid.TaskerID}},
		{"bid cancelled goes to both", event.NewBidEvent(event.BidCancelled, bid), []uuid.UUID{bid.CustomerID, bid.TaskerID}},
		{"payment completed goes to both", event.NewPaymentEvent(event.PaymentCompleted, payment), []uuid.UUID{payment.CustomerID, payment.TaskerID}},
		{"payment failed goes to customer", event.NewPaymentEvent(event.PaymentFailed, payment), []uuid.UUID{payment.CustomerID}},
		{"payment created is silent", event.NewPaymentEvent(event.PaymentCreated, payment), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := Build(tt.e)
			var got []uuid.UUID
			for _, n := range notes {
				got = append(got, n.RecipientID)
				assert.Equal(t, n.Event, tt.e.EventType())
			}
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestSubscriberEnqueuesAndDelivers(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	q := worker.NewMemoryQueue(8)
	NewSubscriber(q, zap.NewNop()).Attach(bus)

	bid := &entity.Bid{
		Base:       entity.Base{ID: uuid.New()},
		TaskID:     uuid.New(),
		TaskerID:   uuid.New(),
		CustomerID: uuid.New(),
		Status:     entity.BidStatusAccepted,
	}
	bus.Publish(event.NewBidEvent(event.BidAccepted, bid))

	job, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	assert.Equal(t, err, nil)
	assert.Equal(t, job.Kind, worker.KindSendNotification)

	notifier := &recordingNotifier{}
	assert.Equal(t, Deliver(notifier)(context.Background(), *job), nil)
	assert.Equal(t, len(notifier.sent), 1)
	assert.Equal(t, notifier.sent[0].RecipientID, bid.TaskerID)
	assert.Equal(t, notifier.sent[0].Data["bid_id"], bid.ID.String())
}
