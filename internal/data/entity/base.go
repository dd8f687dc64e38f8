package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by lifecycle entities. Rows are never deleted; Version is
// the optimistic-concurrency token bumped by every persisted change.
type Base struct {
	ID        uuid.UUID `db:"id"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
