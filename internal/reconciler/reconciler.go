// Package reconciler runs the scheduled sweeps that push stuck bids and
// payments forward through the same lifecycle operations the API uses.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/dto/request"
	"task-marketplace/internal/usecase"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SweepAutoAccept   = "auto-accept"
	SweepRetry        = "retry"
	SweepStalePending = "stale-pending"
)

const defaultBatchSize = 100

var ErrUnknownSweep = errors.New("unknown sweep")

// Result summarizes one sweep pass.
type Result struct {
	Sweep     string
	Scanned   int
	Succeeded int
	Failed    int
	Skipped   int
}

type Reconciler struct {
	repo     *repository.Repository
	bids     usecase.BidService
	payments usecase.PaymentService
	bidding  utils.BiddingConfig
	payment  utils.PaymentConfig
	log      *zap.Logger

	now       func() time.Time
	newTicker TickerFactory

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

func New(repo *repository.Repository, svc *usecase.Service, bidding utils.BiddingConfig, payment utils.PaymentConfig, log *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		bids:      svc.Bid,
		payments:  svc.Payment,
		bidding:   bidding,
		payment:   payment,
		log:       log.With(zap.String("component", "reconciler")),
		now:       time.Now,
		newTicker: NewTicker,
	}
}

func (r *Reconciler) batchSize() int {
	if r.payment.SweepBatchSize > 0 {
		return r.payment.SweepBatchSize
	}
	return defaultBatchSize
}

// Run executes a single pass of the named sweep.
func (r *Reconciler) Run(ctx context.Context, sweep string) (Result, error) {
	switch sweep {
	case SweepAutoAccept:
		return r.RunAutoAccept(ctx)
	case SweepRetry:
		return r.RunRetry(ctx)
	case SweepStalePending:
		return r.RunStalePending(ctx)
	default:
		return Result{Sweep: sweep}, fmt.Errorf("%w: %q", ErrUnknownSweep, sweep)
	}
}

// RunAutoAccept accepts, on behalf of the customer, the oldest PENDING bid of
// every task whose bids have waited longer than the configured threshold.
// Accepting it rejects the remaining siblings, so they drop out of the next scan.
// PENDING bids left behind on a task that already has an ACCEPTED bid are
// rejected here, otherwise they would fill every batch.
func (r *Reconciler) RunAutoAccept(ctx context.Context) (Result, error) {
	res := Result{Sweep: SweepAutoAccept}
	cutoff := r.now().Add(-r.bidding.AutoAcceptAfter)

	bids, err := r.repo.Bid.FindPendingCreatedBefore(ctx, cutoff, r.batchSize())
	if err != nil {
		return res, fmt.Errorf("find stale bids: %w", err)
	}
	res.Scanned = len(bids)

	accepting := make(map[uuid.UUID]bool, len(bids))
	hasAccepted := make(map[uuid.UUID]bool, len(bids))
	for _, bid := range bids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		fields := []zap.Field{zap.String("bid_id", bid.ID.String()), zap.String("task_id", bid.TaskID.String())}

		if accepting[bid.TaskID] {
			res.Skipped++
			continue
		}

		settled, checked := hasAccepted[bid.TaskID]
		if !checked {
			accepted, err := r.repo.Bid.FindAcceptedByTask(ctx, bid.TaskID)
			if err != nil {
				r.record(&res, fmt.Errorf("check accepted bid: %w", err), fields...)
				continue
			}
			settled = accepted != nil
			hasAccepted[bid.TaskID] = settled
		}

		if settled {
			_, err := r.bids.Reject(ctx, bid.ID, bid.CustomerID)
			r.record(&res, err, append(fields, zap.String("action", "reject leftover"))...)
			continue
		}

		accepting[bid.TaskID] = true
		_, err := r.bids.Accept(ctx, bid.ID, bid.CustomerID)
		r.record(&res, err, append(fields, zap.String("action", "accept"))...)
	}

	r.logResult(res)
	return res, nil
}

// RunRetry retries every FAILED payment that still has retry budget, then
// reprocesses RETRY_PENDING payments whose reprocess never got persisted.
func (r *Reconciler) RunRetry(ctx context.Context) (Result, error) {
	res := Result{Sweep: SweepRetry}

	payments, err := r.repo.Payment.FindRetryable(ctx, r.batchSize())
	if err != nil {
		return res, fmt.Errorf("find retryable payments: %w", err)
	}

	// Rows touched within one interval may still be in flight.
	stuck, err := r.repo.Payment.FindStuckRetryPending(ctx, r.now().Add(-r.payment.RetryInterval), r.batchSize())
	if err != nil {
		return res, fmt.Errorf("find stuck retry-pending payments: %w", err)
	}
	res.Scanned = len(payments) + len(stuck)

	for _, p := range payments {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, err := r.payments.Retry(ctx, p.ID)
		r.record(&res, err, zap.String("payment_id", p.ID.String()), zap.Int("retry_count", p.RetryCount))
	}

	for _, p := range stuck {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, err := r.payments.Process(ctx, p.ID)
		r.record(&res, err, zap.String("payment_id", p.ID.String()), zap.String("action", "reprocess"))
	}

	r.logResult(res)
	return res, nil
}

// RunStalePending cancels PENDING payments nobody processed within the timeout.
func (r *Reconciler) RunStalePending(ctx context.Context) (Result, error) {
	res := Result{Sweep: SweepStalePending}
	cutoff := r.now().Add(-r.payment.PendingTimeout)

	payments, err := r.repo.Payment.FindPendingCreatedBefore(ctx, cutoff, r.batchSize())
	if err != nil {
		return res, fmt.Errorf("find stale payments: %w", err)
	}
	res.Scanned = len(payments)

	reason := &request.CancelPaymentRequest{Reason: usecase.TimeoutReason}
	for _, p := range payments {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, err := r.payments.Cancel(ctx, p.ID, reason)
		r.record(&res, err, zap.String("payment_id", p.ID.String()))
	}

	r.logResult(res)
	return res, nil
}

// record counts one entity outcome. A lost race with an API call shows up as
// InvalidOperation or Conflict and is not an error of the sweep.
func (r *Reconciler) record(res *Result, err error, fields ...zap.Field) {
	switch {
	case err == nil:
		res.Succeeded++
	case apperr.Is(err, apperr.InvalidOperation), apperr.Is(err, apperr.Conflict), apperr.Is(err, apperr.NotFound):
		res.Skipped++
		r.log.Info("Sweep skipped entity", append(fields, zap.String("sweep", res.Sweep), zap.Error(err))...)
	default:
		res.Failed++
		r.log.Warn("Sweep failed on entity", append(fields, zap.String("sweep", res.Sweep), zap.Error(err))...)
	}
}

func (r *Reconciler) logResult(res Result) {
	if res.Scanned == 0 {
		r.log.Debug("Sweep found nothing", zap.String("sweep", res.Sweep))
		return
	}
	r.log.Info("Sweep finished",
		zap.String("sweep", res.Sweep),
		zap.Int("scanned", res.Scanned),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
}

type schedule struct {
	sweep    string
	interval time.Duration
}

func (r *Reconciler) schedules() []schedule {
	var out []schedule
	if r.bidding.AutoAcceptEnabled && r.bidding.AutoAcceptInterval > 0 {
		out = append(out, schedule{SweepAutoAccept, r.bidding.AutoAcceptInterval})
	}
	if r.payment.RetryInterval > 0 {
		out = append(out, schedule{SweepRetry, r.payment.RetryInterval})
	}
	if r.payment.StaleSweepInterval > 0 && r.payment.PendingTimeout > 0 {
		out = append(out, schedule{SweepStalePending, r.payment.StaleSweepInterval})
	}
	return out
}

// Start launches one loop per enabled sweep, each on its own ticker. It is a
// no-op when the reconciler is already running.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	r.cancel = cancel
	r.group = g

	for _, s := range r.schedules() {
		r.log.Info("Sweep scheduled", zap.String("sweep", s.sweep), zap.Duration("interval", s.interval))
		g.Go(func() error {
			r.loop(ctx, s)
			return nil
		})
	}
}

func (r *Reconciler) loop(ctx context.Context, s schedule) {
	ticker := r.newTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.runSafe(ctx, s.sweep)
		}
	}
}

// runSafe keeps a panicking sweep from taking the process down; the next
// tick runs it again.
func (r *Reconciler) runSafe(ctx context.Context, sweep string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Sweep panicked", zap.String("sweep", sweep), zap.Any("panic", rec))
		}
	}()

	if _, err := r.Run(ctx, sweep); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Error("Sweep failed", zap.String("sweep", sweep), zap.Error(err))
	}
}

// Stop cancels every loop and waits for in-flight sweeps to return.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, group := r.cancel, r.group
	r.cancel, r.group = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	group.Wait()
	r.log.Info("Reconciler stopped")
}
