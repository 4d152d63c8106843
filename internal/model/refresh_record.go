package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshStore persists issued refresh credentials as one-way hashes.
type RefreshStore interface {
	Put(ctx context.Context, identityID int64, raw string, ttl time.Duration) (RefreshRecord, error)
	FindByRaw(ctx context.Context, raw string) (RefreshRecord, error)
	// Rotate revokes old and links it to a freshly inserted successor in one
	// transaction. It returns ErrAlreadyRotated if old is no longer active.
	Rotate(ctx context.Context, old RefreshRecord, identityID int64, newRaw string, ttl time.Duration) (RefreshRecord, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAll(ctx context.Context, identityID int64) error
	// RevokeChain revokes every active record reachable from id through replaced_by.
	RevokeChain(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RefreshRecord is one issued refresh credential.
type RefreshRecord struct {
	ID         uuid.UUID
	IdentityID int64
	TokenHash  []byte
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID
	CreatedAt  time.Time
}

// RecordState is the lifecycle state of a refresh record.
type RecordState string

const (
	// RecordActive records may be rotated or revoked.
	RecordActive RecordState = "active"
	// RecordRotated records were replaced by a successor.
	RecordRotated RecordState = "rotated"
	// RecordRevoked records were revoked by logout.
	RecordRevoked RecordState = "revoked"
)

// State derives the lifecycle state from revoked_at and replaced_by.
func (r RefreshRecord) State() RecordState {
	switch {
	case r.RevokedAt == nil:
		return RecordActive
	case r.ReplacedBy != nil:
		return RecordRotated
	default:
		return RecordRevoked
	}
}

// Usable reports whether the record may be presented to rotate at now.
func (r RefreshRecord) Usable(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}
