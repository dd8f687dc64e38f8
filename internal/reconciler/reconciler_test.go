package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/event"
	"task-marketplace/internal/testutil"
	"task-marketplace/internal/usecase"
	"task-marketplace/internal/worker"
	"task-marketplace/pkg/utils"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	rec      *Reconciler
	bids     *testutil.BidStore
	payments *testutil.PaymentStore
	tasks    *testutil.FakeTasks
	provider *testutil.FakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo, bids, payments := testutil.NewRepository()
	tasks := testutil.NewFakeTasks()
	provider := testutil.NewFakeProvider()
	queue := worker.NewMemoryQueue(64)
	t.Cleanup(func() { queue.Close() })

	cfg := &utils.Config{
		Bidding: utils.BiddingConfig{
			AutoAcceptEnabled:  true,
			AutoAcceptInterval: time.Hour,
			AutoAcceptAfter:    72 * time.Hour,
		},
		Payment: utils.PaymentConfig{
			ServiceFeePercent:  decimal.NewFromInt(10),
			DefaultCurrency:    "USD",
			MaxRetries:         3,
			RetryInterval:      2 * time.Minute,
			PendingTimeout:     30 * time.Minute,
			StaleSweepInterval: time.Minute,
			SweepBatchSize:     50,
		},
	}

	gw := usecase.Gateways{Tasks: tasks, Provider: provider}
	svc := usecase.NewService(repo, gw, event.NewBus(zap.NewNop()), queue, cfg, zap.NewNop())

	rec := New(repo, svc, cfg.Bidding, cfg.Payment, zap.NewNop())
	rec.now = func() time.Time { return base }

	return &fixture{rec: rec, bids: bids, payments: payments, tasks: tasks, provider: provider}
}

func (f *fixture) bid(taskID, customerID uuid.UUID, age time.Duration) uuid.UUID {
	id := uuid.New()
	created := base.Add(-age)
	f.bids.Put(&entity.Bid{
		Base:       entity.Base{ID: id, CreatedAt: created, UpdatedAt: created},
		TaskID:     taskID,
		TaskerID:   uuid.New(),
		CustomerID: customerID,
		Amount:     decimal.NewFromInt(100),
		Status:     entity.BidStatusPending,
	})
	return id
}

func (f *fixture) payment(status entity.PaymentStatus, retries int, age time.Duration) uuid.UUID {
	id := uuid.New()
	created := base.Add(-age)
	p := &entity.Payment{
		Base:          entity.Base{ID: id, CreatedAt: created, UpdatedAt: created},
		CustomerID:    uuid.New(),
		TaskerID:      uuid.New(),
		TaskID:        uuid.New(),
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
		PaymentMethod: entity.PaymentMethodCard,
		PaymentType:   entity.PaymentTypeTaskPayment,
		Status:        status,
		RetryCount:    retries,
		MaxRetries:    3,
	}
	p.ApplyFee(decimal.NewFromInt(10))
	f.payments.Put(p)
	return id
}

func TestRunAutoAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	taskA, customerA := uuid.New(), uuid.New()
	taskB, customerB := uuid.New(), uuid.New()
	f.tasks.AddTask(taskA, customerA)
	f.tasks.AddTask(taskB, customerB)

	oldest := f.bid(taskA, customerA, 100*time.Hour)
	sibling := f.bid(taskA, customerA, 80*time.Hour)
	fresh := f.bid(taskA, customerA, time.Hour)
	onlyB := f.bid(taskB, customerB, 73*time.Hour)
	young := f.bid(uuid.New(), uuid.New(), 10*time.Hour)

	res, err := f.rec.RunAutoAccept(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 3)
	assert.Equal(t, res.Succeeded, 2)
	assert.Equal(t, res.Skipped, 1)
	assert.Equal(t, res.Failed, 0)

	assert.Equal(t, f.bids.Get(oldest).Status, entity.BidStatusAccepted)
	assert.Equal(t, f.bids.Get(sibling).Status, entity.BidStatusRejected)
	assert.Equal(t, f.bids.Get(fresh).Status, entity.BidStatusRejected)
	assert.Equal(t, f.bids.Get(onlyB).Status, entity.BidStatusAccepted)
	assert.Equal(t, f.bids.Get(young).Status, entity.BidStatusPending)

	// a second pass finds nothing left to do
	res, err = f.rec.RunAutoAccept(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 0)
}

func (f *fixture) markAccepted(id uuid.UUID) {
	stored := f.bids.Get(id)
	stored.Status = entity.BidStatusAccepted
	f.bids.Put(stored)
}

func TestRunAutoAcceptRejectsLeftoverSiblings(t *testing.T) {
	f := newFixture(t)
	taskID, customerID := uuid.New(), uuid.New()
	f.tasks.AddTask(taskID, customerID)

	accepted := f.bid(taskID, customerID, 200*time.Hour)
	f.markAccepted(accepted)
	older := f.bid(taskID, customerID, 100*time.Hour)
	newer := f.bid(taskID, customerID, 90*time.Hour)

	res, err := f.rec.RunAutoAccept(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 2)
	assert.Equal(t, res.Succeeded, 2)
	assert.Equal(t, res.Failed, 0)
	assert.Equal(t, f.bids.Get(accepted).Status, entity.BidStatusAccepted)
	assert.Equal(t, f.bids.Get(older).Status, entity.BidStatusRejected)
	assert.Equal(t, f.bids.Get(newer).Status, entity.BidStatusRejected)
}

func TestRunAutoAcceptLeftoversDoNotStarveOtherTasks(t *testing.T) {
	f := newFixture(t)
	f.rec.payment.SweepBatchSize = 2

	taskA, customerA := uuid.New(), uuid.New()
	taskB, customerB := uuid.New(), uuid.New()
	f.tasks.AddTask(taskA, customerA)
	f.tasks.AddTask(taskB, customerB)

	f.markAccepted(f.bid(taskA, customerA, 200*time.Hour))
	f.bid(taskA, customerA, 150*time.Hour)
	f.bid(taskA, customerA, 149*time.Hour)
	waiting := f.bid(taskB, customerB, 100*time.Hour)

	for i := 0; i < 2; i++ {
		_, err := f.rec.RunAutoAccept(context.Background())
		assert.Equal(t, err, nil)
	}

	assert.Equal(t, f.bids.Get(waiting).Status, entity.BidStatusAccepted)
}

func TestRunRetry(t *testing.T) {
	f := newFixture(t)

	first := f.payment(entity.PaymentStatusFailed, 0, time.Hour)
	last := f.payment(entity.PaymentStatusFailed, 2, time.Hour)
	exhausted := f.payment(entity.PaymentStatusFailed, 3, time.Hour)
	completed := f.payment(entity.PaymentStatusCompleted, 0, time.Hour)

	res, err := f.rec.RunRetry(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 2)
	assert.Equal(t, res.Succeeded, 2)

	assert.Equal(t, f.payments.Get(first).Status, entity.PaymentStatusCompleted)
	assert.Equal(t, f.payments.Get(first).RetryCount, 1)
	assert.Equal(t, f.payments.Get(last).Status, entity.PaymentStatusCompleted)
	assert.Equal(t, f.payments.Get(last).RetryCount, 3)
	assert.Equal(t, f.payments.Get(exhausted).Status, entity.PaymentStatusFailed)
	assert.Equal(t, f.payments.Get(exhausted).RetryCount, 3)
	assert.Equal(t, f.payments.Get(completed).Status, entity.PaymentStatusCompleted)
	assert.Equal(t, f.provider.Charges(), 2)
}

func TestRunRetryExhaustsBudget(t *testing.T) {
	f := newFixture(t)
	id := f.payment(entity.PaymentStatusFailed, 0, time.Hour)
	f.provider.FailNextCharges(10)

	for i := 0; i < 5; i++ {
		_, err := f.rec.RunRetry(context.Background())
		assert.Equal(t, err, nil)
	}

	p := f.payments.Get(id)
	assert.Equal(t, p.Status, entity.PaymentStatusFailed)
	assert.Equal(t, p.RetryCount, 3)
	assert.Equal(t, f.provider.Charges(), 3)
}

func TestRunRetryReprocessesStuckRetryPending(t *testing.T) {
	f := newFixture(t)

	stuck := f.payment(entity.PaymentStatusRetryPending, 1, time.Hour)
	inFlight := f.payment(entity.PaymentStatusRetryPending, 1, time.Minute)

	res, err := f.rec.RunRetry(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 1)
	assert.Equal(t, res.Succeeded, 1)

	assert.Equal(t, f.payments.Get(stuck).Status, entity.PaymentStatusCompleted)
	assert.Equal(t, f.payments.Get(stuck).RetryCount, 1)
	assert.Equal(t, f.payments.Get(inFlight).Status, entity.PaymentStatusRetryPending)
	assert.Equal(t, f.provider.Charges(), 1)
}

func TestRunStalePending(t *testing.T) {
	f := newFixture(t)

	stale := f.payment(entity.PaymentStatusPending, 0, time.Hour)
	recent := f.payment(entity.PaymentStatusPending, 0, time.Minute)
	processing := f.payment(entity.PaymentStatusProcessing, 0, time.Hour)

	res, err := f.rec.RunStalePending(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Scanned, 1)
	assert.Equal(t, res.Succeeded, 1)

	cancelled := f.payments.Get(stale)
	assert.Equal(t, cancelled.Status, entity.PaymentStatusCancelled)
	assert.Equal(t, cancelled.Metadata[entity.MetaCancellationReason], usecase.TimeoutReason)
	assert.Equal(t, f.payments.Get(recent).Status, entity.PaymentStatusPending)
	assert.Equal(t, f.payments.Get(processing).Status, entity.PaymentStatusProcessing)
}

func TestRunUnknownSweep(t *testing.T) {
	f := newFixture(t)
	_, err := f.rec.Run(context.Background(), "compact")
	assert.NotEqual(t, err, nil)
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func TestStartDrivesSweepsFromTickers(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	tickers := map[time.Duration]*manualTicker{}
	f.rec.newTicker = func(interval time.Duration) Ticker {
		mu.Lock()
		defer mu.Unlock()
		tk := &manualTicker{ch: make(chan time.Time)}
		tickers[interval] = tk
		return tk
	}

	stale := f.payment(entity.PaymentStatusPending, 0, time.Hour)

	f.rec.Start(context.Background())
	f.rec.Start(context.Background()) // second start is ignored

	ticker := func(interval time.Duration) *manualTicker {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			tk, ok := tickers[interval]
			mu.Unlock()
			if ok {
				return tk
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("no ticker for interval %s", interval)
		return nil
	}

	staleTicker := ticker(time.Minute)
	retryTicker := ticker(2 * time.Minute)
	autoTicker := ticker(time.Hour)

	// the loop runs the sweep inline, so the second send only returns once
	// the first pass has finished
	staleTicker.ch <- base
	staleTicker.ch <- base

	assert.Equal(t, f.payments.Get(stale).Status, entity.PaymentStatusCancelled)

	f.rec.Stop()
	assert.Equal(t, autoTicker.isStopped(), true)
	assert.Equal(t, staleTicker.isStopped(), true)
	assert.Equal(t, retryTicker.isStopped(), true)
	f.rec.Stop()
}
