package middleware

import (
	"net/http"

	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorHeader carries the authenticated user id. Token verification happens
// upstream at the API gateway; this service trusts the forwarded identity.
const ActorHeader = "X-User-ID"

// Actor rejects requests without a valid actor id and stores it in the context.
func Actor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(ActorHeader)
			if raw == "" {
				utils.ResponseUnauthorized(w, "Missing "+ActorHeader+" header")
				return
			}

			actorID, err := uuid.Parse(raw)
			if err != nil || actorID == uuid.Nil {
				logger.Warn("Invalid actor header",
					zap.String("value", raw),
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid "+ActorHeader+" header")
				return
			}

			ctx := utils.SetActorContext(r.Context(), actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
