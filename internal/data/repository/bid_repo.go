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
	"go.uber.org/zap"
)

type BidFilter struct {
	TaskID     *uuid.UUID
	TaskerID   *uuid.UUID
	CustomerID *uuid.UUID
	Status     *entity.BidStatus
}

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	FindByTaskAndTasker(ctx context.Context, taskID, taskerID uuid.UUID) (*entity.Bid, error)
	List(ctx context.Context, filter BidFilter, limit, offset int) ([]*entity.Bid, error)
	Count(ctx context.Context, filter BidFilter) (int64, error)
	// Update persists bid only if its stored version still equals bid.Version,
	// then bumps bid.Version. A stale version yields an apperr.Conflict.
	Update(ctx context.Context, bid *entity.Bid) error

	// Business queries
	CountByTask(ctx context.Context, taskID uuid.UUID) (int64, error)
	FindAcceptedByTask(ctx context.Context, taskID uuid.UUID) (*entity.Bid, error)
	FindByTaskAndStatus(ctx context.Context, taskID uuid.UUID, status entity.BidStatus) ([]*entity.Bid, error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Bid, error)
}

type bidRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBidRepository(db database.PgxIface, log *zap.Logger) BidRepository {
	return &bidRepository{
		db:  db,
		log: log.With(zap.String("repository", "bid")),
	}
}

const bidColumns = `id, task_id, tasker_id, customer_id, amount, message, estimated_hours, status,
	cancellation_reason, accepted_at, rejected_at, withdrawn_at, completed_at, cancelled_at,
	version, created_at, updated_at`

func scanBid(row scanner) (*entity.Bid, error) {
	var bid entity.Bid
	err := row.Scan(
		&bid.ID,
		&bid.TaskID,
		&bid.TaskerID,
		&bid.CustomerID,
		&bid.Amount,
		&bid.Message,
		&bid.EstimatedHours,
		&bid.Status,
		&bid.CancellationReason,
		&bid.AcceptedAt,
		&bid.RejectedAt,
		&bid.WithdrawnAt,
		&bid.CompletedAt,
		&bid.CancelledAt,
		&bid.Version,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *bidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.Exec(ctx, query,
		bid.ID,
		bid.TaskID,
		bid.TaskerID,
		bid.CustomerID,
		bid.Amount,
		bid.Message,
		bid.EstimatedHours,
		bid.Status,
		bid.CancellationReason,
		bid.AcceptedAt,
		bid.RejectedAt,
		bid.WithdrawnAt,
		bid.CompletedAt,
		bid.CancelledAt,
		bid.Version,
		bid.CreatedAt,
		bid.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return apperr.InvalidOperationErr("tasker %s already has a bid on task %s", bid.TaskerID, bid.TaskID)
	}
	if err != nil {
		r.log.Error("Failed to create bid",
			zap.Error(err),
			zap.String("task_id", bid.TaskID.String()),
			zap.String("tasker_id", bid.TaskerID.String()),
		)
		return fmt.Errorf("create bid for task %s: %w", bid.TaskID, err)
	}

	return nil
}

func (r *bidRepository) findOne(ctx context.Context, what string, query string, args ...any) (*entity.Bid, error) {
	bid, err := scanBid(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find bid", zap.Error(err), zap.String("by", what))
		return nil, fmt.Errorf("find bid by %s: %w", what, err)
	}
	return bid, nil
}

func (r *bidRepository) findMany(ctx context.Context, what string, query string, args ...any) ([]*entity.Bid, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query bids", zap.Error(err), zap.String("by", what))
		return nil, fmt.Errorf("find bids by %s: %w", what, err)
	}
	defer rows.Close()

	var bids []*entity.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			r.log.Error("Failed to scan bid row", zap.Error(err))
			return nil, fmt.Errorf("scan bid row: %w", err)
		}
		bids = append(bids, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids by %s: %w", what, err)
	}

	return bids, nil
}

func (r *bidRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	return r.findOne(ctx, "id", query, id)
}

func (r *bidRepository) FindByTaskAndTasker(ctx context.Context, taskID, taskerID uuid.UUID) (*entity.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE task_id = $1 AND tasker_id = $2`
	return r.findOne(ctx, "task and tasker", query, taskID, taskerID)
}

func (r *bidRepository) FindAcceptedByTask(ctx context.Context, taskID uuid.UUID) (*entity.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE task_id = $1 AND status = $2`
	return r.findOne(ctx, "accepted on task", query, taskID, entity.BidStatusAccepted)
}

func (r *bidRepository) FindByTaskAndStatus(ctx context.Context, taskID uuid.UUID, status entity.BidStatus) ([]*entity.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE task_id = $1 AND status = $2
		ORDER BY created_at
	`
	return r.findMany(ctx, "task and status", query, taskID, status)
}

func (r *bidRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	return r.findMany(ctx, "stale pending", query, entity.BidStatusPending, cutoff, limit)
}

func bidWhere(filter BidFilter) *whereClause {
	w := &whereClause{}
	if filter.TaskID != nil {
		w.add("task_id = $%d", *filter.TaskID)
	}
	if filter.TaskerID != nil {
		w.add("tasker_id = $%d", *filter.TaskerID)
	}
	if filter.CustomerID != nil {
		w.add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	return w
}

func (r *bidRepository) List(ctx context.Context, filter BidFilter, limit, offset int) ([]*entity.Bid, error) {
	w := bidWhere(filter)
	query := `SELECT ` + bidColumns + ` FROM bids ` + w.String() + ` ORDER BY created_at DESC ` + w.page(limit, offset)
	return r.findMany(ctx, "filter", query, w.args...)
}

func (r *bidRepository) Count(ctx context.Context, filter BidFilter) (int64, error) {
	w := bidWhere(filter)
	query := `SELECT COUNT(*) FROM bids ` + w.String()

	var count int64
	if err := r.db.QueryRow(ctx, query, w.args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bids", zap.Error(err))
		return 0, fmt.Errorf("count bids: %w", err)
	}
	return count, nil
}

func (r *bidRepository) CountByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	return r.Count(ctx, BidFilter{TaskID: &taskID})
}

func (r *bidRepository) Update(ctx context.Context, bid *entity.Bid) error {
	query := `
		UPDATE bids
		SET amount = $3, message = $4, estimated_hours = $5, status = $6,
		    cancellation_reason = $7, accepted_at = $8, rejected_at = $9,
		    withdrawn_at = $10, completed_at = $11, cancelled_at = $12,
		    updated_at = $13, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.Exec(ctx, query,
		bid.ID,
		bid.Version,
		bid.Amount,
		bid.Message,
		bid.EstimatedHours,
		bid.Status,
		bid.CancellationReason,
		bid.AcceptedAt,
		bid.RejectedAt,
		bid.WithdrawnAt,
		bid.CompletedAt,
		bid.CancelledAt,
		bid.UpdatedAt,
	)

	if isUniqueViolation(err) {
		r.log.Warn("Bid update lost a uniqueness race",
			zap.String("bid_id", bid.ID.String()),
			zap.String("constraint", uniqueConstraint(err)),
		)
		return apperr.ConflictErr("task %s already has an accepted bid", bid.TaskID)
	}
	if err != nil {
		r.log.Error("Failed to update bid",
			zap.Error(err),
			zap.String("bid_id", bid.ID.String()),
		)
		return fmt.Errorf("update bid %s: %w", bid.ID, err)
	}

	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, bid.ID, bid.Version)
	}

	bid.Version++
	return nil
}

// missOrConflict tells a deleted row apart from a stale version.
func (r *bidRepository) missOrConflict(ctx context.Context, id uuid.UUID, version int) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bids WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check bid %s: %w", id, err)
	}
	if !exists {
		return apperr.NotFoundErr("bid %s not found", id)
	}
	return apperr.ConflictErr("bid %s was modified concurrently (version %d is stale)", id, version)
}
