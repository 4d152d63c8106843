package model

import "context"

// ContextManager attaches the authenticated identity to a request context.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identityID int64) context.Context
	GetIdentityFromContext(ctx context.Context) (int64, bool)
}
