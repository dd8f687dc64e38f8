package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	first, _ := NewJob(KindProcessPayment, ProcessPaymentPayload{PaymentID: uuid.New()})
	second, _ := NewJob(KindSendNotification, map[string]string{"event": "bid.accepted"})

	assert.Equal(t, q.Enqueue(ctx, first), nil)
	assert.Equal(t, q.Enqueue(ctx, second), nil)

	n, _ := q.Len(ctx)
	assert.Equal(t, n, int64(2))

	got, err := q.Dequeue(ctx, 10*time.Millisecond)
	assert.Equal(t, err, nil)
	assert.Equal(t, got.ID, first.ID)

	got, _ = q.Dequeue(ctx, 10*time.Millisecond)
	assert.Equal(t, got.ID, second.ID)

	empty, err := q.Dequeue(ctx, 10*time.Millisecond)
	assert.Equal(t, err, nil)
	assert.Equal(t, empty == nil, true)
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewMemoryQueue(1)
	q.Close()
	q.Close()

	job, _ := NewJob(KindProcessPayment, ProcessPaymentPayload{})
	assert.Equal(t, errors.Is(q.Enqueue(context.Background(), job), ErrQueueClosed), true)

	_, err := q.Dequeue(context.Background(), time.Second)
	assert.Equal(t, errors.Is(err, ErrQueueClosed), true)
}

func TestJobDecode(t *testing.T) {
	id := uuid.New()
	job, err := NewJob(KindProcessPayment, ProcessPaymentPayload{PaymentID: id})
	assert.Equal(t, err, nil)

	var payload ProcessPaymentPayload
	assert.Equal(t, job.Decode(&payload), nil)
	assert.Equal(t, payload.PaymentID, id)
}

func TestPoolDispatchesByKind(t *testing.T) {
	q := NewMemoryQueue(16)
	pool := NewPool(q, 3, zap.NewNop())
	pool.pollWait = 10 * time.Millisecond

	var mu sync.Mutex
	seen := map[uuid.UUID]int{}
	var wg sync.WaitGroup

	pool.Register(KindProcessPayment, func(ctx context.Context, job Job) error {
		defer wg.Done()
		var payload ProcessPaymentPayload
		if err := job.Decode(&payload); err != nil {
			return err
		}
		mu.Lock()
		seen[payload.PaymentID]++
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		wg.Add(1)
		job, _ := NewJob(KindProcessPayment, ProcessPaymentPayload{PaymentID: ids[i]})
		assert.Equal(t, q.Enqueue(ctx, job), nil)
	}

	wg.Wait()
	cancel()
	assert.Equal(t, <-done, nil)

	for _, id := range ids {
		assert.Equal(t, seen[id], 1)
	}
}

func TestPoolHandleSurvivesPanicAndUnknownKind(t *testing.T) {
	pool := NewPool(NewMemoryQueue(1), 1, zap.NewNop())
	pool.Register(KindSendNotification, func(ctx context.Context, job Job) error {
		panic("boom")
	})

	job, _ := NewJob(KindSendNotification, nil)
	pool.Handle(context.Background(), job)

	job.Kind = "unknown"
	pool.Handle(context.Background(), job)
}

func TestPoolStopsWhenQueueCloses(t *testing.T) {
	q := NewMemoryQueue(1)
	pool := NewPool(q, 2, zap.NewNop())
	pool.pollWait = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- pool.Run(context.Background()) }()

	q.Close()

	select {
	case err := <-done:
		assert.Equal(t, err, nil)
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after queue close")
	}
}
