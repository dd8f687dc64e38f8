package adaptor

import (
	"context"
	"net/http"

	"task-marketplace/internal/dto/request"
	"task-marketplace/internal/dto/response"
	"task-marketplace/internal/usecase"
	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BidHandler struct {
	service usecase.BidService
	log     *zap.Logger
}

func NewBidHandler(service usecase.BidService, log *zap.Logger) *BidHandler {
	return &BidHandler{
		service: service,
		log:     log.With(zap.String("handler", "bid")),
	}
}

// Create handles POST /api/bids. The caller is the tasker.
func (h *BidHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req request.CreateBidRequest
	if !decode(w, r, &req) {
		return
	}

	bid, err := h.service.Create(r.Context(), actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create bid")
		return
	}

	utils.ResponseCreated(w, "Bid created", bid)
}

// Update handles PUT /api/bids/{id}
func (h *BidHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.UpdateBidRequest
	if !decode(w, r, &req) {
		return
	}

	bid, err := h.service.Update(r.Context(), bidID, actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update bid")
		return
	}

	utils.ResponseSuccess(w, "Bid updated", bid)
}

// GetByID handles GET /api/bids/{id}
func (h *BidHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	bid, err := h.service.GetByID(r.Context(), bidID)
	if err != nil {
		handleServiceError(h.log, w, err, "get bid")
		return
	}

	utils.ResponseSuccess(w, "success", bid)
}

func listRequest(r *http.Request) *request.BidListRequest {
	query := r.URL.Query()
	return &request.BidListRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), utils.DefaultPerPage),
		},
		Status: optionalQuery(r, "status"),
	}
}

// ListByTask handles GET /api/tasks/{taskID}/bids
func (h *BidHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "taskID", "list bids by task", h.service.ListByTask)
}

// ListByTasker handles GET /api/taskers/{taskerID}/bids
func (h *BidHandler) ListByTasker(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "taskerID", "list bids by tasker", h.service.ListByTasker)
}

// ListByCustomer handles GET /api/customers/{customerID}/bids
func (h *BidHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "customerID", "list bids by customer", h.service.ListByCustomer)
}

type bidLister func(ctx context.Context, id uuid.UUID, req *request.BidListRequest) (*response.PaginatedResponse[response.BidResponse], error)

func (h *BidHandler) list(w http.ResponseWriter, r *http.Request, param, operation string, fetch bidLister) {
	id, ok := pathID(w, r, param)
	if !ok {
		return
	}

	bids, err := fetch(r.Context(), id, listRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", bids)
}

// CountByTask handles GET /api/tasks/{taskID}/bids/count
func (h *BidHandler) CountByTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	count, err := h.service.CountByTask(r.Context(), taskID)
	if err != nil {
		handleServiceError(h.log, w, err, "count bids")
		return
	}

	utils.ResponseSuccess(w, "success", count)
}

type bidTransition func(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error)

func (h *BidHandler) transition(w http.ResponseWriter, r *http.Request, operation, message string, move bidTransition) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	bid, err := move(r.Context(), bidID, actorID)
	if err != nil {
		handleServiceError(h.log, w, err, operation)
		return
	}

	utils.ResponseSuccess(w, message, bid)
}

// Accept handles POST /api/bids/{id}/accept
func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept bid", "Bid accepted", h.service.Accept)
}

// Reject handles POST /api/bids/{id}/reject
func (h *BidHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject bid", "Bid rejected", h.service.Reject)
}

// Withdraw handles POST /api/bids/{id}/withdraw
func (h *BidHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "withdraw bid", "Bid withdrawn", h.service.Withdraw)
}

// Complete handles POST /api/bids/{id}/complete
func (h *BidHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete bid", "Bid completed", h.service.Complete)
}

// Cancel handles POST /api/bids/{id}/cancel
func (h *BidHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req request.CancelBidRequest
	if !decode(w, r, &req) {
		return
	}

	h.transition(w, r, "cancel bid", "Bid cancelled", func(ctx context.Context, bidID, actorID uuid.UUID) (*response.BidResponse, error) {
		return h.service.Cancel(ctx, bidID, actorID, &req)
	})
}
