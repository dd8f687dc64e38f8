package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/dto/request"
	"task-marketplace/internal/dto/response"
	"task-marketplace/internal/event"
	"task-marketplace/internal/testutil"
	"task-marketplace/internal/worker"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/go-playground/assert/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type paymentFixture struct {
	svc      *paymentService
	payments *testutil.PaymentStore
	provider *testutil.FakeProvider
	queue    *worker.MemoryQueue
	customer uuid.UUID
	tasker   uuid.UUID
	task     uuid.UUID

	mu     sync.Mutex
	events []string
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	repo, _, payments := testutil.NewRepository()
	bus := event.NewBus(zap.NewNop())

	f := &paymentFixture{
		payments: payments,
		provider: testutil.NewFakeProvider(),
		queue:    worker.NewMemoryQueue(16),
		customer: uuid.New(),
		tasker:   uuid.New(),
		task:     uuid.New(),
	}
	t.Cleanup(func() { f.queue.Close() })
	bus.SubscribeAll(func(e event.Event) {
		f.mu.Lock()
		f.events = append(f.events, e.EventType())
		f.mu.Unlock()
	})

	cfg := utils.PaymentConfig{
		ServiceFeePercent: decimal.NewFromInt(10),
		DefaultCurrency:   "USD",
		MaxRetries:        3,
	}
	f.svc = NewPaymentService(repo, f.provider, bus, f.queue, cfg, zap.NewNop()).(*paymentService)
	return f
}

func (f *paymentFixture) request(amount string) *request.CreatePaymentRequest {
	return &request.CreatePaymentRequest{
		CustomerID:    f.customer.String(),
		TaskerID:      f.tasker.String(),
		TaskID:        f.task.String(),
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: string(entity.PaymentMethodCard),
	}
}

func (f *paymentFixture) create(t *testing.T, amount string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.customer, f.request(amount))
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return uuid.MustParse(resp.ID)
}

// completed creates and processes a payment through a healthy provider.
func (f *paymentFixture) completed(t *testing.T, amount string) uuid.UUID {
	t.Helper()
	id := f.create(t, amount)
	if _, err := f.svc.Process(context.Background(), id); err != nil {
		t.Fatalf("process payment: %v", err)
	}
	return id
}

func (f *paymentFixture) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == eventType {
			n++
		}
	}
	return n
}

func TestPaymentCreateComputesFee(t *testing.T) {
	f := newPaymentFixture(t)

	resp, err := f.svc.Create(context.Background(), f.customer, f.request("100"))
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.Status, entity.PaymentStatusPending)
	assert.Equal(t, resp.ServiceFee.String(), "10")
	assert.Equal(t, resp.NetAmount.String(), "90")
	assert.Equal(t, resp.Currency, "USD")
	assert.Equal(t, resp.PaymentType, entity.PaymentTypeTaskPayment)
	assert.Equal(t, resp.MaxRetries, 3)
	assert.Equal(t, resp.RetryCount, 0)
	assert.Equal(t, f.count(event.PaymentCreated), 1)

	// processing is scheduled, not performed inline
	assert.Equal(t, f.provider.Charges(), 0)
	job, err := f.queue.Dequeue(context.Background(), time.Second)
	assert.Equal(t, err, nil)
	assert.Equal(t, job.Kind, worker.KindProcessPayment)

	var payload worker.ProcessPaymentPayload
	assert.Equal(t, job.Decode(&payload), nil)
	assert.Equal(t, payload.PaymentID.String(), resp.ID)
}

func TestPaymentFeeRounding(t *testing.T) {
	f := newPaymentFixture(t)
	f.svc.config.ServiceFeePercent = decimal.RequireFromString("7.5")

	resp, err := f.svc.Create(context.Background(), f.customer, f.request("33.33"))
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.ServiceFee.String(), "2.5")
	assert.Equal(t, resp.NetAmount.String(), "30.83")
	assert.Equal(t, resp.NetAmount.Equal(resp.Amount.Sub(resp.ServiceFee)), true)
}

func TestPaymentCreateRules(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID
		kind   apperr.Kind
	}{
		{
			name: "actor is not the customer",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				return f.tasker
			},
			kind: apperr.InvalidOperation,
		},
		{
			name: "zero amount",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.Amount = decimal.Zero
				return f.customer
			},
			kind: apperr.Validation,
		},
		{
			name: "negative amount",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.Amount = decimal.NewFromInt(-5)
				return f.customer
			},
			kind: apperr.Validation,
		},
		{
			name: "amount with sub-cent precision",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.Amount = decimal.RequireFromString("49.995")
				return f.customer
			},
			kind: apperr.Validation,
		},
		{
			name: "amount beyond column range",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.Amount = decimal.RequireFromString("1000000000000")
				return f.customer
			},
			kind: apperr.Validation,
		},
		{
			name: "unknown payment method",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.PaymentMethod = "CASH"
				return f.customer
			},
			kind: apperr.Validation,
		},
		{
			name: "refund type cannot be created directly",
			mutate: func(f *paymentFixture, req *request.CreatePaymentRequest) uuid.UUID {
				req.PaymentType = string(entity.PaymentTypeRefund)
				return f.customer
			},
			kind: apperr.Validation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			req := f.request("50")
			actor := tt.mutate(f, req)

			_, err := f.svc.Create(ctx, actor, req)
			assert.Equal(t, apperr.KindOf(err), tt.kind)
			assert.Equal(t, len(f.payments.All()), 0)
		})
	}
}

func TestPaymentCreateDoesNotBlockOnFullQueue(t *testing.T) {
	f := newPaymentFixture(t)
	f.svc.enqueueTimeout = 50 * time.Millisecond

	for i := 0; i < 16; i++ {
		job, err := worker.NewJob(worker.KindSendNotification, map[string]int{"n": i})
		assert.Equal(t, err, nil)
		assert.Equal(t, f.queue.Enqueue(context.Background(), job), nil)
	}

	type result struct {
		resp *response.PaymentResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := f.svc.Create(context.Background(), f.customer, f.request("40"))
		done <- result{resp, err}
	}()

	select {
	case got := <-done:
		assert.Equal(t, got.err, nil)
		// the job is lost; the payment waits for the stale-pending sweep
		assert.Equal(t, f.payments.Get(uuid.MustParse(got.resp.ID)).Status, entity.PaymentStatusPending)
	case <-time.After(2 * time.Second):
		t.Fatal("create blocked on a full job queue")
	}
}

func TestPaymentCreateDuplicateChargeForBid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	bidID := uuid.NewString()

	req := f.request("50")
	req.BidID = &bidID
	first, err := f.svc.Create(ctx, f.customer, req)
	assert.Equal(t, err, nil)

	_, err = f.svc.Create(ctx, f.customer, req)
	assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)

	// a failed charge frees the bid for a new payment
	f.provider.FailNextCharges(1)
	f.svc.Process(ctx, uuid.MustParse(first.ID))

	_, err = f.svc.Create(ctx, f.customer, req)
	assert.Equal(t, err, nil)
}

func TestPaymentProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("provider approves", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.create(t, "100")

		resp, err := f.svc.Process(ctx, id)
		assert.Equal(t, err, nil)
		assert.Equal(t, resp.Status, entity.PaymentStatusCompleted)
		assert.NotEqual(t, resp.ExternalTransactionID, nil)
		assert.NotEqual(t, resp.ProcessedAt, nil)
		assert.NotEqual(t, resp.CompletedAt, nil)
		assert.Equal(t, f.count(event.PaymentCompleted), 1)

		found, err := f.svc.GetByExternalTransactionID(ctx, *resp.ExternalTransactionID)
		assert.Equal(t, err, nil)
		assert.Equal(t, found.ID, id.String())
	})

	t.Run("provider declines", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.create(t, "100")
		f.provider.FailNextCharges(1)

		resp, err := f.svc.Process(ctx, id)
		assert.Equal(t, err, nil)
		assert.Equal(t, resp.Status, entity.PaymentStatusFailed)
		assert.NotEqual(t, resp.FailureReason, nil)
		assert.NotEqual(t, resp.FailedAt, nil)
		assert.Equal(t, f.count(event.PaymentFailed), 1)
	})

	t.Run("completed payment cannot be processed again", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")

		_, err := f.svc.Process(ctx, id)
		assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
		assert.Equal(t, f.provider.Charges(), 1)
	})

	t.Run("caller cancellation does not interrupt the charge", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.create(t, "100")

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		resp, err := f.svc.Process(cctx, id)
		assert.Equal(t, err, nil)
		assert.Equal(t, resp.Status, entity.PaymentStatusCompleted)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.svc.Process(ctx, uuid.New())
		assert.Equal(t, apperr.Is(err, apperr.NotFound), true)
	})
}

func TestPaymentRetryBudget(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	id := f.create(t, "100")

	// the first charge and all three retries decline
	f.provider.FailNextCharges(4)

	resp, err := f.svc.Process(ctx, id)
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.Status, entity.PaymentStatusFailed)
	assert.Equal(t, resp.RetryCount, 0)

	for want := 1; want <= 3; want++ {
		resp, err = f.svc.Retry(ctx, id)
		assert.Equal(t, err, nil)
		assert.Equal(t, resp.RetryCount, want)
		// every retry reaches PROCESSING before it fails again
		assert.NotEqual(t, resp.ProcessedAt, nil)
		assert.Equal(t, resp.Status, entity.PaymentStatusFailed)
	}
	assert.Equal(t, f.provider.Charges(), 4)

	_, err = f.svc.Retry(ctx, id)
	assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
	assert.Equal(t, f.payments.Get(id).RetryCount, 3)
	assert.Equal(t, f.provider.Charges(), 4)
}

func TestPaymentRetrySucceeds(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	id := f.create(t, "100")
	f.provider.FailNextCharges(1)

	f.svc.Process(ctx, id)
	resp, err := f.svc.Retry(ctx, id)
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.Status, entity.PaymentStatusCompleted)
	assert.Equal(t, resp.RetryCount, 1)
	assert.Equal(t, resp.FailureReason == nil, true)

	_, err = f.svc.Retry(ctx, id)
	assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
}

func TestPaymentCompleteAndFail(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	id := f.create(t, "100")

	// complete is only legal while PROCESSING
	_, err := f.svc.Complete(ctx, id, &request.CompletePaymentRequest{ExternalTransactionID: "tx_1"})
	assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)

	stored := f.payments.Get(id)
	stored.MoveTo(entity.PaymentStatusProcessing, time.Now())
	f.payments.Put(stored)

	_, err = f.svc.Complete(ctx, id, &request.CompletePaymentRequest{})
	assert.Equal(t, apperr.Is(err, apperr.Validation), true)

	resp, err := f.svc.Complete(ctx, id, &request.CompletePaymentRequest{ExternalTransactionID: "tx_1"})
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.Status, entity.PaymentStatusCompleted)
	assert.Equal(t, *resp.ExternalTransactionID, "tx_1")

	_, err = f.svc.Fail(ctx, id, &request.FailPaymentRequest{Reason: "chargeback"})
	assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)

	other := f.create(t, "20")
	resp, err = f.svc.Fail(ctx, other, &request.FailPaymentRequest{Reason: "card expired"})
	assert.Equal(t, err, nil)
	assert.Equal(t, resp.Status, entity.PaymentStatusFailed)
	assert.Equal(t, *resp.FailureReason, "card expired")
}

func TestPaymentCancel(t *testing.T) {
	ctx := context.Background()
	reason := &request.CancelPaymentRequest{Reason: "customer changed mind"}

	tests := []struct {
		name   string
		status entity.PaymentStatus
		ok     bool
	}{
		{"pending", entity.PaymentStatusPending, true},
		{"failed", entity.PaymentStatusFailed, true},
		{"retry pending", entity.PaymentStatusRetryPending, true},
		{"processing", entity.PaymentStatusProcessing, false},
		{"completed", entity.PaymentStatusCompleted, false},
		{"cancelled", entity.PaymentStatusCancelled, false},
		{"refunded", entity.PaymentStatusRefunded, false},
		{"refund failed", entity.PaymentStatusRefundFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			id := f.create(t, "40")
			stored := f.payments.Get(id)
			stored.Status = tt.status
			f.payments.Put(stored)

			resp, err := f.svc.Cancel(ctx, id, reason)
			if !tt.ok {
				assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
				assert.Equal(t, f.payments.Get(id).Status, tt.status)
				return
			}

			assert.Equal(t, err, nil)
			assert.Equal(t, resp.Status, entity.PaymentStatusCancelled)
			assert.Equal(t, resp.Metadata[entity.MetaCancellationReason], reason.Reason)
		})
	}
}

func TestPaymentRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("partial refund", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		amount := decimal.NewFromInt(40)

		refund, err := f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &amount, Reason: "partial work"})
		assert.Equal(t, err, nil)
		assert.Equal(t, refund.PaymentType, entity.PaymentTypeRefund)
		assert.Equal(t, refund.Status, entity.PaymentStatusRefunded)
		assert.Equal(t, refund.Amount.String(), "-40")
		assert.Equal(t, refund.ServiceFee.String(), "0")
		assert.Equal(t, refund.NetAmount.String(), "-40")
		assert.Equal(t, *refund.OriginalPaymentID, id.String())
		assert.Equal(t, refund.Metadata[entity.MetaOriginalPaymentID], id.String())
		assert.Equal(t, refund.Metadata[entity.MetaRefundReason], "partial work")

		original := f.payments.Get(id)
		assert.Equal(t, original.Status, entity.PaymentStatusCompleted)
		assert.NotEqual(t, original.RefundedAt, nil)
		assert.Equal(t, f.count(event.PaymentRefunded), 1)
	})

	t.Run("omitted amount refunds the remainder", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		amount := decimal.NewFromInt(30)

		_, err := f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &amount, Reason: "first"})
		assert.Equal(t, err, nil)

		refund, err := f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "rest"})
		assert.Equal(t, err, nil)
		assert.Equal(t, refund.Amount.String(), "-70")

		_, err = f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "again"})
		assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
	})

	t.Run("over the cap creates nothing", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		before := len(f.payments.All())
		amount := decimal.RequireFromString("100.01")

		_, err := f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &amount, Reason: "too much"})
		assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
		assert.Equal(t, len(f.payments.All()), before)
		assert.Equal(t, f.provider.Refunds(), 0)
	})

	t.Run("cumulative cap", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		sixty := decimal.NewFromInt(60)

		_, err := f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &sixty, Reason: "one"})
		assert.Equal(t, err, nil)

		_, err = f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &sixty, Reason: "two"})
		assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
	})

	t.Run("fee refunded proportionally", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		amount := decimal.NewFromInt(50)

		refund, err := f.svc.Refund(ctx, id, &request.RefundRequest{Amount: &amount, Reason: "half", RefundFee: true})
		assert.Equal(t, err, nil)
		assert.Equal(t, refund.ServiceFee.String(), "-5")
		assert.Equal(t, refund.NetAmount.String(), "-45")
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")
		f.provider.FailRefunds(true)

		refund, err := f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "broken"})
		assert.Equal(t, err, nil)
		assert.Equal(t, refund.Status, entity.PaymentStatusRefundFailed)
		assert.NotEqual(t, refund.FailureReason, nil)

		assert.Equal(t, f.payments.Get(id).RefundedAt == nil, true)
		assert.Equal(t, f.count(event.PaymentRefundFailed), 1)

		// a failed refund does not consume the cap
		f.provider.FailRefunds(false)
		refund, err = f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "again"})
		assert.Equal(t, err, nil)
		assert.Equal(t, refund.Amount.String(), "-100")
	})

	t.Run("only completed payments", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.create(t, "100")

		_, err := f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "nope"})
		assert.Equal(t, apperr.Is(err, apperr.InvalidOperation), true)
	})

	t.Run("reason is required", func(t *testing.T) {
		f := newPaymentFixture(t)
		id := f.completed(t, "100")

		_, err := f.svc.Refund(ctx, id, &request.RefundRequest{})
		assert.Equal(t, apperr.Is(err, apperr.Validation), true)
	})
}

func TestPaymentRefundAmountValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-10"},
		{"sub-cent precision", "10.005"},
		{"beyond column range", "1000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			id := f.completed(t, "100")
			before := len(f.payments.All())
			amount := decimal.RequireFromString(tt.amount)

			_, err := f.svc.Refund(context.Background(), id, &request.RefundRequest{Amount: &amount, Reason: "check"})
			assert.Equal(t, apperr.KindOf(err), apperr.Validation)
			assert.Equal(t, len(f.payments.All()), before)
			assert.Equal(t, f.provider.Refunds(), 0)
		})
	}
}

func TestConcurrentRefundsRespectCap(t *testing.T) {
	f := newPaymentFixture(t)
	id := f.completed(t, "100")
	amount := decimal.NewFromInt(60)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			f.svc.Refund(context.Background(), id, &request.RefundRequest{Amount: &amount, Reason: "race"})
		}()
	}
	close(start)
	wg.Wait()

	refunds := 0
	total := decimal.Zero
	for _, p := range f.payments.All() {
		if p.PaymentType == entity.PaymentTypeRefund {
			refunds++
			total = total.Add(p.Amount.Neg())
		}
	}
	assert.Equal(t, refunds, 1)
	assert.Equal(t, total.String(), "60")
	assert.NotEqual(t, f.payments.Get(id).RefundedAt, nil)
}

func TestNetAmountInvariant(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"0.01", "1", "19.99", "250.55", "1000"} {
		id := f.completed(t, amount)
		f.svc.Refund(ctx, id, &request.RefundRequest{Reason: "all", RefundFee: true})
	}
	failed := f.create(t, "12.34")
	f.provider.FailNextCharges(1)
	f.svc.Process(ctx, failed)

	for _, p := range f.payments.All() {
		if !p.NetAmount.Equal(p.Amount.Sub(p.ServiceFee)) {
			t.Fatalf("payment %s: net %s != %s - %s", p.ID, p.NetAmount, p.Amount, p.ServiceFee)
		}
		if p.RetryCount > p.MaxRetries {
			t.Fatalf("payment %s: retry count %d > %d", p.ID, p.RetryCount, p.MaxRetries)
		}
	}
}

func TestPaymentAggregates(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.completed(t, "100")
	f.completed(t, "50")
	f.create(t, "999") // pending, not counted

	paid, err := f.svc.TotalPaidByCustomer(ctx, f.customer)
	assert.Equal(t, err, nil)
	assert.Equal(t, paid.TotalPaid.String(), "150")

	earned, err := f.svc.TotalEarnedByTasker(ctx, f.tasker)
	assert.Equal(t, err, nil)
	assert.Equal(t, earned.TotalEarned.String(), "135")

	now := time.Now()
	fees, err := f.svc.ServiceFeesBetween(ctx, &request.ServiceFeesRequest{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	assert.Equal(t, err, nil)
	assert.Equal(t, fees.ServiceFees.String(), "15")

	_, err = f.svc.ServiceFeesBetween(ctx, &request.ServiceFeesRequest{From: now, To: now.Add(-time.Hour)})
	assert.Equal(t, apperr.Is(err, apperr.Validation), true)

	_, err = f.svc.ServiceFeesBetween(ctx, &request.ServiceFeesRequest{})
	assert.Equal(t, apperr.Is(err, apperr.Validation), true)
}

func TestPaymentList(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.completed(t, "10")
	f.create(t, "20")
	f.create(t, "30")

	customer := f.customer.String()
	all, err := f.svc.List(ctx, &request.PaymentListRequest{CustomerID: &customer})
	assert.Equal(t, err, nil)
	assert.Equal(t, all.Pagination.Total, int64(3))

	pending := string(entity.PaymentStatusPending)
	list, err := f.svc.List(ctx, &request.PaymentListRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 1},
		Status:           &pending,
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, len(list.Data), 1)
	assert.Equal(t, list.Pagination.Total, int64(2))
	assert.Equal(t, list.Pagination.TotalPages, 2)

	bad := "not-a-uuid"
	_, err = f.svc.List(ctx, &request.PaymentListRequest{TaskerID: &bad})
	assert.Equal(t, apperr.Is(err, apperr.Validation), true)

	for _, status := range []string{"SETTLED", "pending"} {
		_, err = f.svc.List(ctx, &request.PaymentListRequest{Status: &status})
		assert.Equal(t, apperr.KindOf(err), apperr.Validation)
	}
}

func TestProcessPaymentJob(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	handle := ProcessPaymentJob(f.svc, zap.NewNop())

	id := f.create(t, "100")
	job, err := worker.NewJob(worker.KindProcessPayment, worker.ProcessPaymentPayload{PaymentID: id})
	assert.Equal(t, err, nil)

	assert.Equal(t, handle(ctx, job), nil)
	assert.Equal(t, f.payments.Get(id).Status, entity.PaymentStatusCompleted)

	// redelivery of the same job is a no-op
	assert.Equal(t, handle(ctx, job), nil)
	assert.Equal(t, f.provider.Charges(), 1)

	missing, _ := worker.NewJob(worker.KindProcessPayment, worker.ProcessPaymentPayload{PaymentID: uuid.New()})
	assert.NotEqual(t, handle(ctx, missing), nil)
}
