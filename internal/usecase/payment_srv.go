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
	"task-marketplace/internal/worker"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TimeoutReason is recorded when the stale-pending sweep cancels a payment.
const TimeoutReason = "timeout"

// markRefundedAttempts bounds reload-and-retry when stamping refundedAt on an
// original payment that is being written concurrently.
const markRefundedAttempts = 3

// enqueueTimeout bounds the hand-off to the job queue when it is full or slow.
const enqueueTimeout = 2 * time.Second

type PaymentService interface {
	Create(ctx context.Context, actorID uuid.UUID, req *request.CreatePaymentRequest) (*response.PaymentResponse, error)
	GetByID(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error)
	GetByExternalTransactionID(ctx context.Context, externalID string) (*response.PaymentResponse, error)
	List(ctx context.Context, req *request.PaymentListRequest) (*response.PaginatedResponse[response.PaymentResponse], error)

	// Lifecycle
	Process(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error)
	Complete(ctx context.Context, paymentID uuid.UUID, req *request.CompletePaymentRequest) (*response.PaymentResponse, error)
	Fail(ctx context.Context, paymentID uuid.UUID, req *request.FailPaymentRequest) (*response.PaymentResponse, error)
	Retry(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error)
	Cancel(ctx context.Context, paymentID uuid.UUID, req *request.CancelPaymentRequest) (*response.PaymentResponse, error)
	// Refund returns the new REFUND record, not the original payment.
	Refund(ctx context.Context, paymentID uuid.UUID, req *request.RefundRequest) (*response.PaymentResponse, error)

	// Aggregates
	TotalPaidByCustomer(ctx context.Context, customerID uuid.UUID) (*response.CustomerTotalResponse, error)
	TotalEarnedByTasker(ctx context.Context, taskerID uuid.UUID) (*response.TaskerTotalResponse, error)
	ServiceFeesBetween(ctx context.Context, req *request.ServiceFeesRequest) (*response.ServiceFeesResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	provider gateway.PaymentProvider
	bus      *event.Bus
	jobs     worker.Enqueuer
	config   utils.PaymentConfig
	log      *zap.Logger
	now      clock

	enqueueTimeout time.Duration
}

func NewPaymentService(repo *repository.Repository, provider gateway.PaymentProvider, bus *event.Bus, jobs worker.Enqueuer, config utils.PaymentConfig, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		provider: provider,
		bus:      bus,
		jobs:     jobs,
		config:   config,
		log:      log.With(zap.String("service", "payment")),
		now:      time.Now,

		enqueueTimeout: enqueueTimeout,
	}
}

func (s *paymentService) Create(ctx context.Context, actorID uuid.UUID, req *request.CreatePaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create payment validation failed", zap.Any("errors", errs))
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	customerID, taskerID, taskID, bidID, err := parsePaymentIDs(req)
	if err != nil {
		return nil, err
	}

	if actorID != customerID {
		return nil, apperr.InvalidOperationErr("only the customer may create this payment")
	}

	if bidID != nil {
		active, err := s.repo.Payment.ExistsActiveForBid(ctx, *bidID)
		if err != nil {
			return nil, fmt.Errorf("check duplicate charge: %w", err)
		}
		if active {
			return nil, apperr.InvalidOperationErr("bid %s already has an active payment", *bidID)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	paymentType := entity.PaymentTypeTaskPayment
	if req.PaymentType != "" {
		paymentType = entity.PaymentType(req.PaymentType)
	}
	maxRetries := s.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = entity.DefaultMaxRetries
	}

	now := s.now()
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID:    customerID,
		TaskerID:      taskerID,
		TaskID:        taskID,
		BidID:         bidID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: entity.PaymentMethod(req.PaymentMethod),
		PaymentType:   paymentType,
		Status:        entity.PaymentStatusPending,
		MaxRetries:    maxRetries,
		Description:   req.Description,
		Metadata:      map[string]string{},
	}
	payment.ApplyFee(entity.ServiceFeeFor(payment.Amount, s.config.ServiceFeePercent))

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("service_fee", payment.ServiceFee.String()),
	)
	s.bus.Publish(event.NewPaymentEvent(event.PaymentCreated, payment))
	s.scheduleProcessing(ctx, payment.ID)

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// scheduleProcessing hands the charge to the worker pool. A lost job leaves
// the payment PENDING until the stale-pending sweep cancels it.
func (s *paymentService) scheduleProcessing(ctx context.Context, paymentID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.enqueueTimeout)
	defer cancel()

	job, err := worker.NewJob(worker.KindProcessPayment, worker.ProcessPaymentPayload{PaymentID: paymentID})
	if err == nil {
		err = s.jobs.Enqueue(ctx, job)
	}
	if err != nil {
		s.log.Error("Failed to schedule payment processing",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
	}
}

func parsePaymentIDs(req *request.CreatePaymentRequest) (customerID, taskerID, taskID uuid.UUID, bidID *uuid.UUID, err error) {
	fields := map[string]string{}
	if customerID, err = uuid.Parse(req.CustomerID); err != nil {
		fields["CustomerID"] = "Must be a valid UUID"
	}
	if taskerID, err = uuid.Parse(req.TaskerID); err != nil {
		fields["TaskerID"] = "Must be a valid UUID"
	}
	if taskID, err = uuid.Parse(req.TaskID); err != nil {
		fields["TaskID"] = "Must be a valid UUID"
	}
	if req.BidID != nil {
		id, perr := uuid.Parse(*req.BidID)
		if perr != nil {
			fields["BidID"] = "Must be a valid UUID"
		}
		bidID = &id
	}

	if len(fields) > 0 {
		return uuid.Nil, uuid.Nil, uuid.Nil, nil, apperr.ValidationErr("invalid identifiers", fields)
	}
	return customerID, taskerID, taskID, bidID, nil
}

func (s *paymentService) GetByID(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) GetByExternalTransactionID(ctx context.Context, externalID string) (*response.PaymentResponse, error) {
	payment, err := s.repo.Payment.FindByExternalTransactionID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.NotFoundErr("payment with transaction %s not found", externalID)
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) List(ctx context.Context, req *request.PaymentListRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	page := req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}

	filter := repository.PaymentFilter{From: req.From, To: req.To}
	filter.CustomerID = parseOptionalID(req.CustomerID)
	filter.TaskerID = parseOptionalID(req.TaskerID)
	filter.TaskID = parseOptionalID(req.TaskID)
	if req.Status != nil {
		status := entity.PaymentStatus(*req.Status)
		if !status.Valid() {
			return nil, apperr.ValidationErr("unknown payment status "+*req.Status, map[string]string{"Status": "Unknown payment status"})
		}
		filter.Status = &status
	}

	payments, err := s.repo.Payment.List(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	total, err := s.repo.Payment.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	data := make([]response.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		data = append(data, response.PaymentToResponse(p))
	}

	return response.NewPaginatedResponse(data, page, total), nil
}

// parseOptionalID expects input already checked by the uuid validator.
func parseOptionalID(value *string) *uuid.UUID {
	if value == nil {
		return nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil
	}
	return &id
}

func (s *paymentService) Process(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := s.process(ctx, payment); err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// process moves a loaded payment to PROCESSING and charges the provider. A
// provider failure lands in FAILED and is not returned to the caller.
func (s *paymentService) process(ctx context.Context, payment *entity.Payment) error {
	rule, err := lifecycle.ValidatePayment(payment, lifecycle.PaymentProcess)
	if err != nil {
		return err
	}

	from := payment.Status
	payment.MoveTo(rule.To, s.now())
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return fmt.Errorf("start processing: %w", err)
	}
	s.logTransition(payment, from)

	if !rule.Has(lifecycle.EffectChargeProvider) {
		return nil
	}

	// PROCESSING runs to an outcome even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	txID, chargeErr := s.provider.Charge(ctx, payment)
	if chargeErr != nil {
		s.log.Warn("Provider charge failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Int("retry_count", payment.RetryCount),
			zap.Error(chargeErr),
		)
		return s.fail(ctx, payment, chargeErr.Error())
	}

	return s.complete(ctx, payment, txID)
}

func (s *paymentService) Complete(ctx context.Context, paymentID uuid.UUID, req *request.CompletePaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}

	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.complete(ctx, payment, req.ExternalTransactionID); err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) complete(ctx context.Context, payment *entity.Payment, txID string) error {
	rule, err := lifecycle.ValidatePayment(payment, lifecycle.PaymentComplete)
	if err != nil {
		return err
	}

	from := payment.Status
	payment.ExternalTransactionID = &txID
	payment.FailureReason = nil
	payment.MoveTo(rule.To, s.now())
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	s.logTransition(payment, from)
	s.bus.Publish(event.NewPaymentEvent(event.PaymentCompleted, payment))
	return nil
}

func (s *paymentService) Fail(ctx context.Context, paymentID uuid.UUID, req *request.FailPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("failure reason is required", errs)
	}

	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.fail(ctx, payment, req.Reason); err != nil {
		return nil, err
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) fail(ctx context.Context, payment *entity.Payment, reason string) error {
	rule, err := lifecycle.ValidatePayment(payment, lifecycle.PaymentFail)
	if err != nil {
		return err
	}

	from := payment.Status
	payment.FailureReason = &reason
	payment.MoveTo(rule.To, s.now())
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return fmt.Errorf("fail payment: %w", err)
	}
	s.logTransition(payment, from)
	s.bus.Publish(event.NewPaymentEvent(event.PaymentFailed, payment))
	return nil
}

func (s *paymentService) Retry(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	rule, err := lifecycle.ValidatePayment(payment, lifecycle.PaymentRetry)
	if err != nil {
		return nil, err
	}

	from := payment.Status
	payment.RetryCount++
	payment.MoveTo(rule.To, s.now())
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("retry payment: %w", err)
	}
	s.logTransition(payment, from)

	if rule.Has(lifecycle.EffectReprocess) {
		if err := s.process(ctx, payment); err != nil {
			return nil, err
		}
	}

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) Cancel(ctx context.Context, paymentID uuid.UUID, req *request.CancelPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("cancellation reason is required", errs)
	}

	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	rule, err := lifecycle.ValidatePayment(payment, lifecycle.PaymentCancel)
	if err != nil {
		return nil, err
	}

	from := payment.Status
	payment.SetMeta(entity.MetaCancellationReason, req.Reason)
	payment.MoveTo(rule.To, s.now())
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("cancel payment: %w", err)
	}
	s.logTransition(payment, from)
	s.bus.Publish(event.NewPaymentEvent(event.PaymentCancelled, payment))

	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

func (s *paymentService) Refund(ctx context.Context, paymentID uuid.UUID, req *request.RefundRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}
	if req.Amount != nil {
		if err := checkAmount(*req.Amount); err != nil {
			return nil, err
		}
	}

	original, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	rule, err := lifecycle.ValidatePayment(original, lifecycle.PaymentRefund)
	if err != nil {
		return nil, err
	}

	refunded, err := s.repo.Payment.SumRefunds(ctx, original.ID)
	if err != nil {
		return nil, fmt.Errorf("sum previous refunds: %w", err)
	}
	remaining := original.Amount.Sub(refunded)

	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !remaining.IsPositive() {
		return nil, apperr.InvalidOperationErr("payment %s is already fully refunded", original.ID)
	}
	if amount.GreaterThan(remaining) {
		return nil, apperr.InvalidOperationErr("refund %s exceeds refundable amount %s", amount, remaining)
	}

	// The repository re-checks the cap under a lock on the original row;
	// the check above only rejects the obvious cases early.
	refund := newRefund(original, amount, req, s.now())
	if err := s.repo.Payment.CreateRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}
	s.log.Info("Refund created",
		zap.String("refund_id", refund.ID.String()),
		zap.String("original_payment_id", original.ID.String()),
		zap.String("amount", refund.Amount.String()),
		zap.String("service_fee", refund.ServiceFee.String()),
	)

	if rule.Has(lifecycle.EffectIssueRefund) {
		if err := s.issueRefund(context.WithoutCancel(ctx), original, refund); err != nil {
			return nil, err
		}
	}

	resp := response.PaymentToResponse(refund)
	return &resp, nil
}

// newRefund builds the REFUND record: negative amount, and a negative fee
// proportional to the refunded share only when the caller refunds the fee.
func newRefund(original *entity.Payment, amount decimal.Decimal, req *request.RefundRequest, now time.Time) *entity.Payment {
	originalID := original.ID
	refund := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID:        original.CustomerID,
		TaskerID:          original.TaskerID,
		TaskID:            original.TaskID,
		BidID:             original.BidID,
		OriginalPaymentID: &originalID,
		Amount:            amount.Neg(),
		Currency:          original.Currency,
		PaymentMethod:     original.PaymentMethod,
		PaymentType:       entity.PaymentTypeRefund,
		Status:            entity.PaymentStatusRefundPending,
	}
	refund.SetMeta(entity.MetaOriginalPaymentID, original.ID.String())
	refund.SetMeta(entity.MetaRefundReason, req.Reason)

	fee := decimal.Zero
	if req.RefundFee && original.Amount.IsPositive() {
		fee = original.ServiceFee.Mul(amount).Div(original.Amount).Round(2).Neg()
	}
	refund.ApplyFee(fee)

	return refund
}

func (s *paymentService) issueRefund(ctx context.Context, original, refund *entity.Payment) error {
	txID, refundErr := s.provider.Refund(ctx, original, refund)

	action := lifecycle.PaymentRefundSucceed
	if refundErr != nil {
		action = lifecycle.PaymentRefundFail
	}
	rule, err := lifecycle.ValidatePayment(refund, action)
	if err != nil {
		return err
	}

	from := refund.Status
	if refundErr != nil {
		reason := refundErr.Error()
		refund.FailureReason = &reason
		s.log.Warn("Provider refund failed",
			zap.String("refund_id", refund.ID.String()),
			zap.String("original_payment_id", original.ID.String()),
			zap.Error(refundErr),
		)
	} else {
		refund.ExternalTransactionID = &txID
	}

	now := s.now()
	refund.MoveTo(rule.To, now)
	if err := s.repo.Payment.Update(ctx, refund); err != nil {
		return fmt.Errorf("settle refund: %w", err)
	}
	s.logTransition(refund, from)

	if refundErr != nil {
		s.bus.Publish(event.NewPaymentEvent(event.PaymentRefundFailed, refund))
		return nil
	}

	s.markRefunded(ctx, original, now)
	s.bus.Publish(event.NewPaymentEvent(event.PaymentRefunded, refund))
	return nil
}

// markRefunded stamps refundedAt on the original; its status stays COMPLETED.
func (s *paymentService) markRefunded(ctx context.Context, original *entity.Payment, at time.Time) {
	for attempt := 1; attempt <= markRefundedAttempts; attempt++ {
		original.RefundedAt = &at
		original.UpdatedAt = at

		err := s.repo.Payment.Update(ctx, original)
		if err == nil {
			return
		}
		if !apperr.Is(err, apperr.Conflict) {
			s.log.Error("Failed to mark original payment refunded",
				zap.String("payment_id", original.ID.String()),
				zap.Error(err),
			)
			return
		}

		fresh, loadErr := s.load(ctx, original.ID)
		if loadErr != nil {
			s.log.Error("Failed to reload original payment", zap.String("payment_id", original.ID.String()), zap.Error(loadErr))
			return
		}
		*original = *fresh
	}

	s.log.Error("Gave up marking original payment refunded",
		zap.String("payment_id", original.ID.String()),
		zap.Int("attempts", markRefundedAttempts),
	)
}

func (s *paymentService) TotalPaidByCustomer(ctx context.Context, customerID uuid.UUID) (*response.CustomerTotalResponse, error) {
	total, err := s.repo.Payment.TotalPaidByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer total: %w", err)
	}
	return &response.CustomerTotalResponse{CustomerID: customerID.String(), TotalPaid: total}, nil
}

func (s *paymentService) TotalEarnedByTasker(ctx context.Context, taskerID uuid.UUID) (*response.TaskerTotalResponse, error) {
	total, err := s.repo.Payment.TotalEarnedByTasker(ctx, taskerID)
	if err != nil {
		return nil, fmt.Errorf("tasker total: %w", err)
	}
	return &response.TaskerTotalResponse{TaskerID: taskerID.String(), TotalEarned: total}, nil
}

func (s *paymentService) ServiceFeesBetween(ctx context.Context, req *request.ServiceFeesRequest) (*response.ServiceFeesResponse, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return nil, apperr.ValidationErr("from and to are required", map[string]string{"From": "This field is required", "To": "This field is required"})
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationErr("validation failed: "+utils.FormatValidationErrors(errs), errs)
	}

	fees, err := s.repo.Payment.ServiceFeesBetween(ctx, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("service fees: %w", err)
	}
	return &response.ServiceFeesResponse{From: req.From, To: req.To, ServiceFees: fees}, nil
}

func (s *paymentService) load(ctx context.Context, paymentID uuid.UUID) (*entity.Payment, error) {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.NotFoundErr("payment %s not found", paymentID)
	}
	return payment, nil
}

func (s *paymentService) logTransition(p *entity.Payment, from entity.PaymentStatus) {
	s.log.Info("Payment transitioned",
		zap.String("payment_id", p.ID.String()),
		zap.String("type", string(p.PaymentType)),
		zap.String("from", string(from)),
		zap.String("to", string(p.Status)),
		zap.Int("retry_count", p.RetryCount),
		zap.Int("version", p.Version),
	)
}

// ProcessPaymentJob is the worker handler for process_payment jobs. A payment
// that already left PENDING is skipped.
func ProcessPaymentJob(svc PaymentService, log *zap.Logger) worker.HandlerFunc {
	log = log.With(zap.String("job", worker.KindProcessPayment))
	return func(ctx context.Context, job worker.Job) error {
		var payload worker.ProcessPaymentPayload
		if err := job.Decode(&payload); err != nil {
			return err
		}

		_, err := svc.Process(ctx, payload.PaymentID)
		if apperr.Is(err, apperr.InvalidOperation) {
			log.Info("Payment no longer processable, skipping",
				zap.String("payment_id", payload.PaymentID.String()),
				zap.Error(err),
			)
			return nil
		}
		if err != nil {
			return fmt.Errorf("process payment %s: %w", payload.PaymentID, err)
		}
		return nil
	}
}
