// Package testutil provides in-memory repositories and fake gateways for
// service, reconciler and handler tests. The repositories enforce the same
// version check and uniqueness rules as the Postgres schema.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/data/repository"
	"task-marketplace/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewRepository returns a repository backed by fresh in-memory stores.
func NewRepository() (*repository.Repository, *BidStore, *PaymentStore) {
	bids := NewBidStore()
	payments := NewPaymentStore()
	return &repository.Repository{Bid: bids, Payment: payments}, bids, payments
}

// ---------------------------------------------------------------- bids

type BidStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]entity.Bid
	order []uuid.UUID

	// FailUpdate, when set, is consulted before every Update.
	FailUpdate func(bid *entity.Bid) error
}

func NewBidStore() *BidStore {
	return &BidStore{rows: make(map[uuid.UUID]entity.Bid)}
}

// Put stores bid as-is, bypassing every check. Used to seed fixtures.
func (s *BidStore) Put(bid *entity.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[bid.ID]; !ok {
		s.order = append(s.order, bid.ID)
	}
	s.rows[bid.ID] = *bid
}

func (s *BidStore) Get(id uuid.UUID) *entity.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	return &row
}

func (s *BidStore) Create(ctx context.Context, bid *entity.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.TaskID == bid.TaskID && row.TaskerID == bid.TaskerID {
			return apperr.InvalidOperationErr("tasker %s already has a bid on task %s", bid.TaskerID, bid.TaskID)
		}
	}
	s.rows[bid.ID] = *bid
	s.order = append(s.order, bid.ID)
	return nil
}

func (s *BidStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	return s.Get(id), nil
}

func (s *BidStore) FindByTaskAndTasker(ctx context.Context, taskID, taskerID uuid.UUID) (*entity.Bid, error) {
	found := s.filter(func(b *entity.Bid) bool { return b.TaskID == taskID && b.TaskerID == taskerID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (s *BidStore) FindAcceptedByTask(ctx context.Context, taskID uuid.UUID) (*entity.Bid, error) {
	found := s.filter(func(b *entity.Bid) bool { return b.TaskID == taskID && b.Status == entity.BidStatusAccepted })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (s *BidStore) FindByTaskAndStatus(ctx context.Context, taskID uuid.UUID, status entity.BidStatus) ([]*entity.Bid, error) {
	return s.filter(func(b *entity.Bid) bool { return b.TaskID == taskID && b.Status == status }), nil
}

func (s *BidStore) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Bid, error) {
	found := s.filter(func(b *entity.Bid) bool {
		return b.Status == entity.BidStatusPending && b.CreatedAt.Before(cutoff)
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return head(found, limit), nil
}

func matchBid(filter repository.BidFilter) func(*entity.Bid) bool {
	return func(b *entity.Bid) bool {
		return (filter.TaskID == nil || b.TaskID == *filter.TaskID) &&
			(filter.TaskerID == nil || b.TaskerID == *filter.TaskerID) &&
			(filter.CustomerID == nil || b.CustomerID == *filter.CustomerID) &&
			(filter.Status == nil || b.Status == *filter.Status)
	}
}

func (s *BidStore) List(ctx context.Context, filter repository.BidFilter, limit, offset int) ([]*entity.Bid, error) {
	found := s.filter(matchBid(filter))
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return page(found, limit, offset), nil
}

func (s *BidStore) Count(ctx context.Context, filter repository.BidFilter) (int64, error) {
	return int64(len(s.filter(matchBid(filter)))), nil
}

func (s *BidStore) CountByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	return s.Count(ctx, repository.BidFilter{TaskID: &taskID})
}

func (s *BidStore) Update(ctx context.Context, bid *entity.Bid) error {
	if s.FailUpdate != nil {
		if err := s.FailUpdate(bid); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[bid.ID]
	if !ok {
		return apperr.NotFoundErr("bid %s not found", bid.ID)
	}
	if stored.Version != bid.Version {
		return apperr.ConflictErr("bid %s was modified concurrently (version %d is stale)", bid.ID, bid.Version)
	}
	if bid.Status == entity.BidStatusAccepted {
		for id, row := range s.rows {
			if id != bid.ID && row.TaskID == bid.TaskID && row.Status == entity.BidStatusAccepted {
				return apperr.ConflictErr("task %s already has an accepted bid", bid.TaskID)
			}
		}
	}

	bid.Version++
	s.rows[bid.ID] = *bid
	return nil
}

func (s *BidStore) filter(keep func(*entity.Bid) bool) []*entity.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Bid
	for _, id := range s.order {
		row := s.rows[id]
		if keep(&row) {
			out = append(out, &row)
		}
	}
	return out
}

// ------------------------------------------------------------ payments

type PaymentStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]entity.Payment
	order []uuid.UUID
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{rows: make(map[uuid.UUID]entity.Payment)}
}

func clonePayment(p entity.Payment) entity.Payment {
	if p.Metadata != nil {
		meta := make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			meta[k] = v
		}
		p.Metadata = meta
	}
	return p
}

// Put stores payment as-is, bypassing every check. Used to seed fixtures.
func (s *PaymentStore) Put(p *entity.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.rows[p.ID] = clonePayment(*p)
}

func (s *PaymentStore) Get(id uuid.UUID) *entity.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	row = clonePayment(row)
	return &row
}

// All returns every stored payment in insertion order.
func (s *PaymentStore) All() []*entity.Payment {
	return s.filter(func(*entity.Payment) bool { return true })
}

func (s *PaymentStore) Create(ctx context.Context, p *entity.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[p.ID]; ok {
		return apperr.ConflictErr("payment %s already exists", p.ID)
	}
	if err := checkPayment(p); err != nil {
		return err
	}
	s.rows[p.ID] = clonePayment(*p)
	s.order = append(s.order, p.ID)
	return nil
}

// CreateRefund applies the cumulative cap and the insert under one lock.
func (s *PaymentStore) CreateRefund(ctx context.Context, refund *entity.Payment) error {
	if refund.OriginalPaymentID == nil {
		return apperr.InvalidOperationErr("refund %s has no original payment", refund.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.rows[*refund.OriginalPaymentID]
	if !ok {
		return apperr.NotFoundErr("payment %s not found", *refund.OriginalPaymentID)
	}

	refunded := decimal.Zero
	for _, row := range s.rows {
		if countsAgainstCap(&row, original.ID) {
			refunded = refunded.Add(row.Amount.Neg())
		}
	}
	if remaining := original.Amount.Sub(refunded); refund.Amount.Neg().GreaterThan(remaining) {
		return apperr.InvalidOperationErr("refund %s exceeds refundable amount %s", refund.Amount.Neg(), remaining)
	}

	if err := checkPayment(refund); err != nil {
		return err
	}
	s.rows[refund.ID] = clonePayment(*refund)
	s.order = append(s.order, refund.ID)
	return nil
}

func countsAgainstCap(p *entity.Payment, originalID uuid.UUID) bool {
	return p.PaymentType == entity.PaymentTypeRefund &&
		p.OriginalPaymentID != nil && *p.OriginalPaymentID == originalID &&
		(p.Status == entity.PaymentStatusRefunded || p.Status == entity.PaymentStatusRefundPending)
}

// checkPayment mirrors the table's CHECK constraints.
func checkPayment(p *entity.Payment) error {
	if !p.NetAmount.Equal(p.Amount.Sub(p.ServiceFee)) {
		return fmt.Errorf("%w: net amount %s != %s - %s", ErrCheckViolation, p.NetAmount, p.Amount, p.ServiceFee)
	}
	if p.RetryCount < 0 || p.RetryCount > p.MaxRetries {
		return fmt.Errorf("%w: retry count %d outside [0, %d]", ErrCheckViolation, p.RetryCount, p.MaxRetries)
	}
	return nil
}

var ErrCheckViolation = errors.New("check constraint violated")

func (s *PaymentStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return s.Get(id), nil
}

func (s *PaymentStore) FindByExternalTransactionID(ctx context.Context, externalID string) (*entity.Payment, error) {
	found := s.filter(func(p *entity.Payment) bool {
		return p.ExternalTransactionID != nil && *p.ExternalTransactionID == externalID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func matchPayment(filter repository.PaymentFilter) func(*entity.Payment) bool {
	return func(p *entity.Payment) bool {
		return (filter.CustomerID == nil || p.CustomerID == *filter.CustomerID) &&
			(filter.TaskerID == nil || p.TaskerID == *filter.TaskerID) &&
			(filter.TaskID == nil || p.TaskID == *filter.TaskID) &&
			(filter.BidID == nil || (p.BidID != nil && *p.BidID == *filter.BidID)) &&
			(filter.Status == nil || p.Status == *filter.Status) &&
			(filter.Type == nil || p.PaymentType == *filter.Type) &&
			(filter.From == nil || !p.CreatedAt.Before(*filter.From)) &&
			(filter.To == nil || p.CreatedAt.Before(*filter.To))
	}
}

func (s *PaymentStore) List(ctx context.Context, filter repository.PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	found := s.filter(matchPayment(filter))
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return page(found, limit, offset), nil
}

func (s *PaymentStore) Count(ctx context.Context, filter repository.PaymentFilter) (int64, error) {
	return int64(len(s.filter(matchPayment(filter)))), nil
}

func (s *PaymentStore) ExistsActiveForBid(ctx context.Context, bidID uuid.UUID) (bool, error) {
	found := s.filter(func(p *entity.Payment) bool {
		if p.BidID == nil || *p.BidID != bidID || p.PaymentType == entity.PaymentTypeRefund {
			return false
		}
		for _, status := range entity.ActivePaymentStatuses {
			if p.Status == status {
				return true
			}
		}
		return false
	})
	return len(found) > 0, nil
}

func (s *PaymentStore) FindRetryable(ctx context.Context, limit int) ([]*entity.Payment, error) {
	found := s.filter(func(p *entity.Payment) bool {
		return p.Status == entity.PaymentStatusFailed && p.RetryCount < p.MaxRetries
	})
	return head(found, limit), nil
}

func (s *PaymentStore) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	found := s.filter(func(p *entity.Payment) bool {
		return p.Status == entity.PaymentStatusPending && p.CreatedAt.Before(cutoff)
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return head(found, limit), nil
}

func (s *PaymentStore) FindStuckRetryPending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	found := s.filter(func(p *entity.Payment) bool {
		return p.Status == entity.PaymentStatusRetryPending && p.UpdatedAt.Before(cutoff)
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].UpdatedAt.Before(found[j].UpdatedAt) })
	return head(found, limit), nil
}

func (s *PaymentStore) SumRefunds(ctx context.Context, originalID uuid.UUID) (decimal.Decimal, error) {
	return s.sum(func(p *entity.Payment) (decimal.Decimal, bool) {
		return p.Amount.Neg(), countsAgainstCap(p, originalID)
	}), nil
}

func settled(p *entity.Payment) bool {
	return p.Status == entity.PaymentStatusCompleted || p.Status == entity.PaymentStatusRefunded
}

func (s *PaymentStore) TotalPaidByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return s.sum(func(p *entity.Payment) (decimal.Decimal, bool) {
		return p.Amount, p.CustomerID == customerID && settled(p)
	}), nil
}

func (s *PaymentStore) TotalEarnedByTasker(ctx context.Context, taskerID uuid.UUID) (decimal.Decimal, error) {
	return s.sum(func(p *entity.Payment) (decimal.Decimal, bool) {
		return p.NetAmount, p.TaskerID == taskerID && settled(p)
	}), nil
}

func (s *PaymentStore) ServiceFeesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return s.sum(func(p *entity.Payment) (decimal.Decimal, bool) {
		return p.ServiceFee, settled(p) && !p.CreatedAt.Before(from) && p.CreatedAt.Before(to)
	}), nil
}

func (s *PaymentStore) Update(ctx context.Context, p *entity.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[p.ID]
	if !ok {
		return apperr.NotFoundErr("payment %s not found", p.ID)
	}
	if stored.Version != p.Version {
		return apperr.ConflictErr("payment %s was modified concurrently (version %d is stale)", p.ID, p.Version)
	}
	if err := checkPayment(p); err != nil {
		return err
	}

	p.Version++
	s.rows[p.ID] = clonePayment(*p)
	return nil
}

func (s *PaymentStore) filter(keep func(*entity.Payment) bool) []*entity.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Payment
	for _, id := range s.order {
		row := clonePayment(s.rows[id])
		if keep(&row) {
			out = append(out, &row)
		}
	}
	return out
}

func (s *PaymentStore) sum(pick func(*entity.Payment) (decimal.Decimal, bool)) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.All() {
		if v, ok := pick(p); ok {
			total = total.Add(v)
		}
	}
	return total
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	return head(items[offset:], limit)
}
