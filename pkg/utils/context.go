package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ActorIDKey contextKey = "actor_id"

// GetActorIDFromContext returns the acting user set by the Actor middleware.
func GetActorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	actorVal := ctx.Value(ActorIDKey)
	if actorVal == nil {
		return uuid.Nil, false
	}

	actorID, ok := actorVal.(uuid.UUID)
	if !ok || actorID == uuid.Nil {
		return uuid.Nil, false
	}

	return actorID, true
}

func SetActorContext(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, ActorIDKey, actorID)
}
