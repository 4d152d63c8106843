package model

import (
	"context"
	"time"
)

// IdentityStore reads and bumps the per-identity session version.
// Implementations must always read from the store of record.
type IdentityStore interface {
	Version(ctx context.Context, identityID int64) (int64, error)
	IncrementVersion(ctx context.Context, identityID int64) (int64, error)
}

// Identity is the owning account as seen by the session engine.
type Identity struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
