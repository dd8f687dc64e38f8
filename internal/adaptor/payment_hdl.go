package adaptor

import (
	"context"
	"net/http"
	"time"

	"task-marketplace/internal/dto/request"
	"task-marketplace/internal/dto/response"
	"task-marketplace/internal/usecase"
	"task-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Create handles POST /api/payments. The caller must be the paying customer.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req request.CreatePaymentRequest
	if !decode(w, r, &req) {
		return
	}

	payment, err := h.service.Create(r.Context(), actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create payment")
		return
	}

	utils.ResponseCreated(w, "Payment created", payment)
}

// GetByID handles GET /api/payments/{id}
func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payment, err := h.service.GetByID(r.Context(), paymentID)
	if err != nil {
		handleServiceError(h.log, w, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// GetByExternalTransactionID handles GET /api/payments/transactions/{transactionID}
func (h *PaymentHandler) GetByExternalTransactionID(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")
	if txID == "" {
		utils.ResponseBadRequest(w, "Transaction ID is required", nil)
		return
	}

	payment, err := h.service.GetByExternalTransactionID(r.Context(), txID)
	if err != nil {
		handleServiceError(h.log, w, err, "get payment by transaction")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// queryTime rejects malformed timestamps instead of silently dropping the filter.
func queryTime(w http.ResponseWriter, r *http.Request, key string) (*time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	t := utils.ParseTime(raw)
	if t == nil {
		utils.ResponseBadRequest(w, "Invalid "+key, map[string]string{key: "Must be an RFC 3339 timestamp"})
		return nil, false
	}
	return t, true
}

// List handles GET /api/payments?customer_id=&tasker_id=&task_id=&status=&from=&to=
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.PaymentListRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), utils.DefaultPerPage),
		},
		CustomerID: optionalQuery(r, "customer_id"),
		TaskerID:   optionalQuery(r, "tasker_id"),
		TaskID:     optionalQuery(r, "task_id"),
		Status:     optionalQuery(r, "status"),
		From:       from,
		To:         to,
	}

	payments, err := h.service.List(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

type paymentAction func(ctx context.Context, paymentID uuid.UUID) (*response.PaymentResponse, error)

func (h *PaymentHandler) act(w http.ResponseWriter, r *http.Request, operation, message string, do paymentAction) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payment, err := do(r.Context(), paymentID)
	if err != nil {
		handleServiceError(h.log, w, err, operation)
		return
	}

	utils.ResponseSuccess(w, message, payment)
}

// Process handles POST /api/payments/{id}/process
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "process payment", "Payment processed", h.service.Process)
}

// Retry handles POST /api/payments/{id}/retry
func (h *PaymentHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "retry payment", "Payment retried", h.service.Retry)
}

// Complete handles POST /api/payments/{id}/complete
func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req request.CompletePaymentRequest
	if !decode(w, r, &req) {
		return
	}
	h.act(w, r, "complete payment", "Payment completed", func(ctx context.Context, id uuid.UUID) (*response.PaymentResponse, error) {
		return h.service.Complete(ctx, id, &req)
	})
}

// Fail handles POST /api/payments/{id}/fail
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	var req request.FailPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	h.act(w, r, "fail payment", "Payment failed", func(ctx context.Context, id uuid.UUID) (*response.PaymentResponse, error) {
		return h.service.Fail(ctx, id, &req)
	})
}

// Cancel handles POST /api/payments/{id}/cancel
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req request.CancelPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	h.act(w, r, "cancel payment", "Payment cancelled", func(ctx context.Context, id uuid.UUID) (*response.PaymentResponse, error) {
		return h.service.Cancel(ctx, id, &req)
	})
}

// Refund handles POST /api/payments/{id}/refund and returns the refund record.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.RefundRequest
	if !decode(w, r, &req) {
		return
	}

	refund, err := h.service.Refund(r.Context(), paymentID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "refund payment")
		return
	}

	utils.ResponseCreated(w, "Refund created", refund)
}

// CustomerTotal handles GET /api/customers/{customerID}/payments/total
func (h *PaymentHandler) CustomerTotal(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}

	total, err := h.service.TotalPaidByCustomer(r.Context(), customerID)
	if err != nil {
		handleServiceError(h.log, w, err, "customer total")
		return
	}

	utils.ResponseSuccess(w, "success", total)
}

// TaskerEarnings handles GET /api/taskers/{taskerID}/payments/earnings
func (h *PaymentHandler) TaskerEarnings(w http.ResponseWriter, r *http.Request) {
	taskerID, ok := pathID(w, r, "taskerID")
	if !ok {
		return
	}

	total, err := h.service.TotalEarnedByTasker(r.Context(), taskerID)
	if err != nil {
		handleServiceError(h.log, w, err, "tasker earnings")
		return
	}

	utils.ResponseSuccess(w, "success", total)
}

// ServiceFees handles GET /api/payments/service-fees?from=&to=
func (h *PaymentHandler) ServiceFees(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}

	req := &request.ServiceFeesRequest{}
	if from != nil {
		req.From = *from
	}
	if to != nil {
		req.To = *to
	}

	fees, err := h.service.ServiceFeesBetween(r.Context(), req)
	if err != nil {
		handleServiceError(h.log, w, err, "service fees")
		return
	}

	utils.ResponseSuccess(w, "success", fees)
}
