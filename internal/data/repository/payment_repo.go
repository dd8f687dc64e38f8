package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentFilter struct {
	CustomerID *uuid.UUID
	TaskerID   *uuid.UUID
	TaskID     *uuid.UUID
	BidID      *uuid.UUID
	Status     *entity.PaymentStatus
	Type       *entity.PaymentType
	From       *time.Time
	To         *time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByExternalTransactionID(ctx context.Context, externalID string) (*entity.Payment, error)
	List(ctx context.Context, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
	// Update persists payment only if its stored version still equals
	// payment.Version, then bumps payment.Version.
	Update(ctx context.Context, payment *entity.Payment) error

	// Business queries
	ExistsActiveForBid(ctx context.Context, bidID uuid.UUID) (bool, error)
	FindRetryable(ctx context.Context, limit int) ([]*entity.Payment, error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error)
	// FindStuckRetryPending returns RETRY_PENDING payments untouched since cutoff,
	// left behind when the reprocess after a retry could not be persisted.
	FindStuckRetryPending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error)
	SumRefunds(ctx context.Context, originalID uuid.UUID) (decimal.Decimal, error)
	// CreateRefund inserts a REFUND record only if it fits under the original
	// amount minus refunds already REFUNDED or REFUND_PENDING.
	CreateRefund(ctx context.Context, refund *entity.Payment) error

	// Aggregates over settled payments (COMPLETED or REFUNDED)
	TotalPaidByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	TotalEarnedByTasker(ctx context.Context, taskerID uuid.UUID) (decimal.Decimal, error)
	ServiceFeesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, customer_id, tasker_id, task_id, bid_id, original_payment_id,
	amount, service_fee, net_amount, currency, payment_method, payment_type, status,
	external_transaction_id, retry_count, max_retries, failure_reason, description, metadata,
	processed_at, completed_at, failed_at, refunded_at, version, created_at, updated_at`

var settledStatuses = []string{
	string(entity.PaymentStatusCompleted),
	string(entity.PaymentStatusRefunded),
}

func scanPayment(row scanner) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.CustomerID,
		&p.TaskerID,
		&p.TaskID,
		&p.BidID,
		&p.OriginalPaymentID,
		&p.Amount,
		&p.ServiceFee,
		&p.NetAmount,
		&p.Currency,
		&p.PaymentMethod,
		&p.PaymentType,
		&p.Status,
		&p.ExternalTransactionID,
		&p.RetryCount,
		&p.MaxRetries,
		&p.FailureReason,
		&p.Description,
		&p.Metadata,
		&p.ProcessedAt,
		&p.CompletedAt,
		&p.FailedAt,
		&p.RefundedAt,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// metadata never goes out as SQL NULL; the column is NOT NULL.
func metadata(p *entity.Payment) map[string]string {
	if p.Metadata == nil {
		return map[string]string{}
	}
	return p.Metadata
}

func (r *paymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	return r.insert(ctx, r.db, p)
}

func (r *paymentRepository) insert(ctx context.Context, db execer, p *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := db.Exec(ctx, query,
		p.ID,
		p.CustomerID,
		p.TaskerID,
		p.TaskID,
		p.BidID,
		p.OriginalPaymentID,
		p.Amount,
		p.ServiceFee,
		p.NetAmount,
		p.Currency,
		p.PaymentMethod,
		p.PaymentType,
		p.Status,
		p.ExternalTransactionID,
		p.RetryCount,
		p.MaxRetries,
		p.FailureReason,
		p.Description,
		metadata(p),
		p.ProcessedAt,
		p.CompletedAt,
		p.FailedAt,
		p.RefundedAt,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.ConflictErr("payment %s collides on %s", p.ID, uniqueConstraint(err))
	}
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("payment_id", p.ID.String()),
			zap.String("type", string(p.PaymentType)),
		)
		return fmt.Errorf("create payment %s: %w", p.ID, err)
	}

	return nil
}

func (r *paymentRepository) findOne(ctx context.Context, what string, query string, args ...any) (*entity.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.Error(err), zap.String("by", what))
		return nil, fmt.Errorf("find payment by %s: %w", what, err)
	}
	return p, nil
}

func (r *paymentRepository) findMany(ctx context.Context, what string, query string, args ...any) ([]*entity.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query payments", zap.Error(err), zap.String("by", what))
		return nil, fmt.Errorf("find payments by %s: %w", what, err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments by %s: %w", what, err)
	}

	return payments, nil
}

func (r *paymentRepository) sum(ctx context.Context, what string, query string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to sum payments", zap.Error(err), zap.String("aggregate", what))
		return decimal.Zero, fmt.Errorf("sum %s: %w", what, err)
	}
	return total, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.findOne(ctx, "id", query, id)
}

func (r *paymentRepository) FindByExternalTransactionID(ctx context.Context, externalID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_transaction_id = $1`
	return r.findOne(ctx, "external transaction id", query, externalID)
}

func paymentWhere(filter PaymentFilter) *whereClause {
	w := &whereClause{}
	if filter.CustomerID != nil {
		w.add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.TaskerID != nil {
		w.add("tasker_id = $%d", *filter.TaskerID)
	}
	if filter.TaskID != nil {
		w.add("task_id = $%d", *filter.TaskID)
	}
	if filter.BidID != nil {
		w.add("bid_id = $%d", *filter.BidID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		w.add("payment_type = $%d", *filter.Type)
	}
	if filter.From != nil {
		w.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at < $%d", *filter.To)
	}
	return w
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	w := paymentWhere(filter)
	query := `SELECT ` + paymentColumns + ` FROM payments ` + w.String() + ` ORDER BY created_at DESC ` + w.page(limit, offset)
	return r.findMany(ctx, "filter", query, w.args...)
}

func (r *paymentRepository) Count(ctx context.Context, filter PaymentFilter) (int64, error) {
	w := paymentWhere(filter)
	query := `SELECT COUNT(*) FROM payments ` + w.String()

	var count int64
	if err := r.db.QueryRow(ctx, query, w.args...).Scan(&count); err != nil {
		r.log.Error("Failed to count payments", zap.Error(err))
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

func (r *paymentRepository) ExistsActiveForBid(ctx context.Context, bidID uuid.UUID) (bool, error) {
	active := make([]string, len(entity.ActivePaymentStatuses))
	for i, s := range entity.ActivePaymentStatuses {
		active[i] = string(s)
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE bid_id = $1 AND payment_type <> $2 AND status = ANY($3)
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, bidID, entity.PaymentTypeRefund, active).Scan(&exists); err != nil {
		r.log.Error("Failed to check active payment", zap.Error(err), zap.String("bid_id", bidID.String()))
		return false, fmt.Errorf("check active payment for bid %s: %w", bidID, err)
	}
	return exists, nil
}

func (r *paymentRepository) FindRetryable(ctx context.Context, limit int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1 AND retry_count < max_retries
		ORDER BY failed_at NULLS FIRST
		LIMIT $2
	`
	return r.findMany(ctx, "retryable", query, entity.PaymentStatusFailed, limit)
}

func (r *paymentRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	return r.findMany(ctx, "stale pending", query, entity.PaymentStatusPending, cutoff, limit)
}

func (r *paymentRepository) FindStuckRetryPending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`
	return r.findMany(ctx, "stuck retry pending", query, entity.PaymentStatusRetryPending, cutoff, limit)
}

const sumRefundsQuery = `
	SELECT COALESCE(SUM(-amount), 0)
	FROM payments
	WHERE original_payment_id = $1 AND payment_type = $2 AND status = ANY($3)
`

var countedRefundStatuses = []string{
	string(entity.PaymentStatusRefunded),
	string(entity.PaymentStatusRefundPending),
}

// SumRefunds returns the positive total already refunded, or in flight, against originalID.
func (r *paymentRepository) SumRefunds(ctx context.Context, originalID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "refunds", sumRefundsQuery, originalID, entity.PaymentTypeRefund, countedRefundStatuses)
}

// CreateRefund holds a row lock on the original payment while it re-sums the
// earlier refunds and inserts the new one.
func (r *paymentRepository) CreateRefund(ctx context.Context, refund *entity.Payment) error {
	if refund.OriginalPaymentID == nil {
		return apperr.InvalidOperationErr("refund %s has no original payment", refund.ID)
	}
	originalID := *refund.OriginalPaymentID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin refund tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var original decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT amount FROM payments WHERE id = $1 FOR UPDATE`, originalID).Scan(&original)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundErr("payment %s not found", originalID)
	}
	if err != nil {
		return fmt.Errorf("lock payment %s: %w", originalID, err)
	}

	var refunded decimal.Decimal
	err = tx.QueryRow(ctx, sumRefundsQuery, originalID, entity.PaymentTypeRefund, countedRefundStatuses).Scan(&refunded)
	if err != nil {
		return fmt.Errorf("sum refunds of %s: %w", originalID, err)
	}

	remaining := original.Sub(refunded)
	if refund.Amount.Neg().GreaterThan(remaining) {
		return apperr.InvalidOperationErr("refund %s exceeds refundable amount %s", refund.Amount.Neg(), remaining)
	}

	if err := r.insert(ctx, tx, refund); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit refund", zap.Error(err), zap.String("payment_id", originalID.String()))
		return fmt.Errorf("commit refund: %w", err)
	}
	return nil
}

func (r *paymentRepository) TotalPaidByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE customer_id = $1 AND status = ANY($2)`
	return r.sum(ctx, "customer total", query, customerID, settledStatuses)
}

func (r *paymentRepository) TotalEarnedByTasker(ctx context.Context, taskerID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(net_amount), 0) FROM payments WHERE tasker_id = $1 AND status = ANY($2)`
	return r.sum(ctx, "tasker total", query, taskerID, settledStatuses)
}

func (r *paymentRepository) ServiceFeesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(service_fee), 0)
		FROM payments
		WHERE status = ANY($1) AND created_at >= $2 AND created_at < $3
	`
	return r.sum(ctx, "service fees", query, settledStatuses, from, to)
}

func (r *paymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	query := `
		UPDATE payments
		SET status = $3, external_transaction_id = $4, retry_count = $5,
		    failure_reason = $6, description = $7, metadata = $8,
		    processed_at = $9, completed_at = $10, failed_at = $11, refunded_at = $12,
		    updated_at = $13, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.Exec(ctx, query,
		p.ID,
		p.Version,
		p.Status,
		p.ExternalTransactionID,
		p.RetryCount,
		p.FailureReason,
		p.Description,
		metadata(p),
		p.ProcessedAt,
		p.CompletedAt,
		p.FailedAt,
		p.RefundedAt,
		p.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.ConflictErr("payment %s collides on %s", p.ID, uniqueConstraint(err))
	}
	if err != nil {
		r.log.Error("Failed to update payment",
			zap.Error(err),
			zap.String("payment_id", p.ID.String()),
		)
		return fmt.Errorf("update payment %s: %w", p.ID, err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check payment %s: %w", p.ID, err)
		}
		if !exists {
			return apperr.NotFoundErr("payment %s not found", p.ID)
		}
		return apperr.ConflictErr("payment %s was modified concurrently (version %d is stale)", p.ID, p.Version)
	}

	p.Version++
	return nil
}
