package model

import "context"

// RefreshLimiter throttles refresh attempts per identity.
type RefreshLimiter interface {
	Allow(ctx context.Context, identityID int64) error
}
