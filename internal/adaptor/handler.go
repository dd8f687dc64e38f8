package adaptor

import (
	"encoding/json"
	"net/http"

	"task-marketplace/internal/usecase"
	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Bid     *BidHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Bid:     NewBidHandler(service.Bid, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}

// actor returns the caller set by the Actor middleware, answering 401 if absent.
func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, ok := utils.GetActorIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return actorID, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+param, map[string]string{param: "Must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

func optionalQuery(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}

// handleServiceError logs by severity and writes the status mapped from the error kind.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch apperr.KindOf(err) {
	case apperr.Internal:
		log.Error(operation+" failed", zap.Error(err), zap.String("operation", operation))
	case apperr.ExternalFailure:
		log.Warn(operation+" failed - upstream", zap.Error(err), zap.String("operation", operation))
	default:
		log.Info(operation+" rejected",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("kind", string(apperr.KindOf(err))),
		)
	}

	utils.ResponseError(w, err)
}
