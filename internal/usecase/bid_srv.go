package usecase

import (
	"context"
	"fmt"
	"time"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/dto/request"
	"task-marketplace/internal/dto/response"
	"task-marketplace/internal/event"
	"task-marketplace/internal/gateway"
	"task-marketplace/internal/lifecycle"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BidService interface {
	Create(ctx context.Context, taskerID uuid.UUID, req *request.CreateBidRequest) (*response.BidResponse, error)
	Update(ctx context.Context, bidID, actorID uuid.UUID, req *request.UpdateBidRequest) (*response.BidResponse, error)
	GetByID(ctx context.Context, bidID uuid.UUID) (*response.BidResponse, error)

	ListByTask(ctx context.Context, taskID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error)
	ListByTasker(ctx context.Context, taskerID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error)
	CountByTask(ctx context.Context, taskID uuid.UUID) (*response.BidCountResponse, error)

	// Lifecycle
	Accept(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error)
	Reject(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error)
	Withdraw(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error)
	Complete(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error)
	Cancel(ctx context.Context, bidID, actorID uuid.UUID, req *request.CancelBidRequest) (*response.BidResponse, error)
}

type bidService struct {
	repo   *repository.Repository
	tasks  gateway.TaskGateway
	bus    *event.Bus
	config utils.BiddingConfig
	log    *zap.Logger
	now    clock
}

func NewBidService(repo *repository.Repository, tasks gateway.TaskGateway, bus *event.Bus, config utils.BiddingConfig, log *zap.Logger) BidService {
	return &bidService{
		repo:   repo,
		tasks:  tasks,
		bus:    bus,
		config: config,
		log:    log.With(zap.String("service", "bid")),
		now:    time.Now,
	}
}

func (s *bidService) Create(ctx context.Context, taskerID uuid.UUID, req *request.CreateBidRequest) (*response.BidResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create bid validation failed", zap.Any("errors", errs))
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return nil, apperr.ValidationErr("invalid task id", map[string]string{"TaskID": "Must be a valid UUID"})
	}

	task, err := s.tasks.GetTaskInfo(ctx, taskID)
	if err != nil {
		return nil, apperr.ExternalFailureErr(err, "fetch task %s", taskID)
	}
	if task == nil {
		return nil, apperr.NotFoundErr("task %s not found", taskID)
	}
	if !task.OpenForBidding() {
		return nil, apperr.InvalidOperationErr("task %s is not open for bidding (status %s)", taskID, task.Status)
	}
	if task.CustomerID == taskerID {
		return nil, apperr.InvalidOperationErr("you cannot bid on your own task")
	}

	existing, err := s.repo.Bid.FindByTaskAndTasker(ctx, taskID, taskerID)
	if err != nil {
		return nil, fmt.Errorf("check existing bid: %w", err)
	}
	if existing != nil {
		return nil, apperr.InvalidOperationErr("you already have a bid on task %s", taskID)
	}

	if s.config.MaxBidsPerTask > 0 {
		count, err := s.repo.Bid.CountByTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("count bids on task: %w", err)
		}
		if count >= int64(s.config.MaxBidsPerTask) {
			return nil, apperr.InvalidOperationErr("task %s reached the maximum of %d bids", taskID, s.config.MaxBidsPerTask)
		}
	}

	now := s.now()
	bid := &entity.Bid{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TaskID:         taskID,
		TaskerID:       taskerID,
		CustomerID:     task.CustomerID,
		Amount:         req.Amount,
		Message:        req.Message,
		EstimatedHours: req.EstimatedHours,
		Status:         entity.BidStatusPending,
	}

	if err := s.repo.Bid.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("create bid: %w", err)
	}

	s.log.Info("Bid created",
		zap.String("bid_id", bid.ID.String()),
		zap.String("task_id", taskID.String()),
		zap.String("tasker_id", taskerID.String()),
		zap.String("amount", bid.Amount.String()),
	)
	s.bus.Publish(event.NewBidEvent(event.BidCreated, bid))

	resp := response.BidToResponse(bid)
	return &resp, nil
}

func (s *bidService) Update(ctx context.Context, bidID, actorID uuid.UUID, req *request.UpdateBidRequest) (*response.BidResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	bid, _, err := s.transition(ctx, bidID, actorID, lifecycle.BidUpdate, func(b *entity.Bid) {
		b.Amount = req.Amount
		b.Message = req.Message
		b.EstimatedHours = req.EstimatedHours
	})
	if err != nil {
		return nil, err
	}

	resp := response.BidToResponse(bid)
	return &resp, nil
}

func (s *bidService) GetByID(ctx context.Context, bidID uuid.UUID) (*response.BidResponse, error) {
	bid, err := s.load(ctx, bidID)
	if err != nil {
		return nil, err
	}

	resp := response.BidToResponse(bid)
	return &resp, nil
}

func (s *bidService) ListByTask(ctx context.Context, taskID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error) {
	return s.list(ctx, repository.BidFilter{TaskID: &taskID}, req)
}

func (s *bidService) ListByTasker(ctx context.Context, taskerID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error) {
	return s.list(ctx, repository.BidFilter{TaskerID: &taskerID}, req)
}

func (s *bidService) ListByCustomer(ctx context.Context, customerID uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error) {
	return s.list(ctx, repository.BidFilter{CustomerID: &customerID}, req)
}

func (s *bidService) list(ctx context.Context, filter repository.BidFilter, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error) {
	page := req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}
	if req.Status != nil {
		status := entity.BidStatus(*req.Status)
		if !status.Valid() {
			return nil, apperr.ValidationErr("unknown bid status "+*req.Status, map[string]string{"Status": "Unknown bid status"})
		}
		filter.Status = &status
	}

	bids, err := s.repo.Bid.List(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	total, err := s.repo.Bid.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bids: %w", err)
	}

	data := make([]response.BidResponse, 0, len(bids))
	for _, bid := range bids {
		data = append(data, response.BidToResponse(bid))
	}

	return response.NewPaginatedResponse(data, page, total), nil
}

func (s *bidService) CountByTask(ctx context.Context, taskID uuid.UUID) (*response.BidCountResponse, error) {
	count, err := s.repo.Bid.CountByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("count bids on task: %w", err)
	}
	return &response.BidCountResponse{TaskID: taskID.String(), Count: count}, nil
}

func (s *bidService) Accept(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error) {
	bid, err := s.load(ctx, bidID)
	if err != nil {
		return nil, err
	}

	rule, err := lifecycle.ValidateBid(bid.Status, lifecycle.BidRole(bid, actorID), lifecycle.BidAccept)
	if err != nil {
		return nil, err
	}

	accepted, err := s.repo.Bid.FindAcceptedByTask(ctx, bid.TaskID)
	if err != nil {
		return nil, fmt.Errorf("check accepted bid: %w", err)
	}
	if accepted != nil && accepted.ID != bid.ID {
		return nil, apperr.InvalidOperationErr("task %s already has an accepted bid", bid.TaskID)
	}

	from := bid.Status
	bid.MoveTo(rule.To, s.now())
	if err := s.repo.Bid.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("accept bid: %w", err)
	}
	s.logTransition(bid, from, actorID)

	s.applyEffects(ctx, bid, rule)
	s.bus.Publish(event.NewBidEvent(event.BidAccepted, bid))

	resp := response.BidToResponse(bid)
	return &resp, nil
}

func (s *bidService) Reject(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error) {
	return s.move(ctx, bidID, actorID, lifecycle.BidReject, event.BidRejected, nil)
}

func (s *bidService) Withdraw(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error) {
	return s.move(ctx, bidID, actorID, lifecycle.BidWithdraw, event.BidWithdrawn, nil)
}

func (s *bidService) Complete(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error) {
	return s.move(ctx, bidID, actorID, lifecycle.BidComplete, event.BidCompleted, nil)
}

func (s *bidService) Cancel(ctx context.Context, bidID, actorID uuid.UUID, req *request.CancelBidRequest) (*response.BidResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("cancellation reason is required", errs)
	}

	reason := req.Reason
	return s.move(ctx, bidID, actorID, lifecycle.BidCancel, event.BidCancelled, func(b *entity.Bid) {
		b.CancellationReason = &reason
	})
}

// move runs a transition with its effects and publishes eventType.
func (s *bidService) move(ctx context.Context, bidID, actorID uuid.UUID, action lifecycle.BidAction, eventType string, mutate func(*entity.Bid)) (*response.BidResponse, error) {
	bid, rule, err := s.transition(ctx, bidID, actorID, action, mutate)
	if err != nil {
		return nil, err
	}

	s.applyEffects(ctx, bid, rule)
	s.bus.Publish(event.NewBidEvent(eventType, bid))

	resp := response.BidToResponse(bid)
	return &resp, nil
}

// transition is load, validate, mutate, persist.
func (s *bidService) transition(ctx context.Context, bidID, actorID uuid.UUID, action lifecycle.BidAction, mutate func(*entity.Bid)) (*entity.Bid, lifecycle.BidRule, error) {
	bid, err := s.load(ctx, bidID)
	if err != nil {
		return nil, lifecycle.BidRule{}, err
	}

	rule, err := lifecycle.ValidateBid(bid.Status, lifecycle.BidRole(bid, actorID), action)
	if err != nil {
		return nil, lifecycle.BidRule{}, err
	}

	from := bid.Status
	if mutate != nil {
		mutate(bid)
	}
	bid.MoveTo(rule.To, s.now())

	if err := s.repo.Bid.Update(ctx, bid); err != nil {
		return nil, lifecycle.BidRule{}, fmt.Errorf("%s bid: %w", action, err)
	}
	s.logTransition(bid, from, actorID)

	return bid, rule, nil
}

// applyEffects runs the post-persist side effects. None of them can undo the
// bid's own transition: failures are logged.
func (s *bidService) applyEffects(ctx context.Context, bid *entity.Bid, rule lifecycle.BidRule) {
	if rule.Has(lifecycle.EffectRejectSiblings) {
		s.rejectSiblings(ctx, bid)
	}

	switch {
	case rule.Has(lifecycle.EffectTaskAssigned):
		assignee := bid.TaskerID
		s.tasks.UpdateTaskStatus(ctx, bid.TaskID, gateway.TaskStatusInProgress, &assignee)
	case rule.Has(lifecycle.EffectTaskReopened):
		s.tasks.UpdateTaskStatus(ctx, bid.TaskID, gateway.TaskStatusOpen, nil)
	case rule.Has(lifecycle.EffectTaskCompleted):
		s.tasks.UpdateTaskStatus(ctx, bid.TaskID, gateway.TaskStatusCompleted, nil)
	}
}

// rejectSiblings persists each PENDING sibling as REJECTED on its own. It
// never goes through Accept, so it cannot cascade.
func (s *bidService) rejectSiblings(ctx context.Context, accepted *entity.Bid) {
	siblings, err := s.repo.Bid.FindByTaskAndStatus(ctx, accepted.TaskID, entity.BidStatusPending)
	if err != nil {
		s.log.Error("Failed to load sibling bids",
			zap.String("task_id", accepted.TaskID.String()),
			zap.Error(err),
		)
		return
	}

	rejected := 0
	for _, sibling := range siblings {
		if sibling.ID == accepted.ID {
			continue
		}

		sibling.MoveTo(entity.BidStatusRejected, s.now())
		if err := s.repo.Bid.Update(ctx, sibling); err != nil {
			s.log.Warn("Failed to reject sibling bid",
				zap.String("bid_id", sibling.ID.String()),
				zap.String("task_id", accepted.TaskID.String()),
				zap.Error(err),
			)
			continue
		}

		rejected++
		s.bus.Publish(event.NewBidEvent(event.BidRejected, sibling))
	}

	s.log.Info("Sibling bids rejected",
		zap.String("task_id", accepted.TaskID.String()),
		zap.Int("rejected", rejected),
		zap.Int("pending", len(siblings)),
	)
}

func (s *bidService) load(ctx context.Context, bidID uuid.UUID) (*entity.Bid, error) {
	bid, err := s.repo.Bid.FindByID(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("load bid: %w", err)
	}
	if bid == nil {
		return nil, apperr.NotFoundErr("bid %s not found", bidID)
	}
	return bid, nil
}

func (s *bidService) logTransition(bid *entity.Bid, from entity.BidStatus, actorID uuid.UUID) {
	s.log.Info("Bid transitioned",
		zap.String("bid_id", bid.ID.String()),
		zap.String("task_id", bid.TaskID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(bid.Status)),
		zap.Int("version", bid.Version),
	)
}
