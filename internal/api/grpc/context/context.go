package context

import (
	"context"
	"strconv"

	"google.golang.org/grpc/metadata"
)

// identityIDKey is the metadata key used to store and retrieve the identity ID in gRPC context.
const (
	identityIDKey string = "identity_id"
)

// Manager represents a gRPC context manager for identity operations.
// It keeps the authenticated identity in incoming metadata so that handlers
// behind the auth interceptor can read it.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext stores the identity ID in the incoming metadata of ctx.
// Any identity_id sent by the client is overwritten.
//
// Parameters:
//   - ctx: The gRPC context
//   - identityID: The authenticated identity
//
// Returns a new context carrying the identity ID.
func (m *Manager) SetIdentityToContext(ctx context.Context, identityID int64) context.Context {
	value := strconv.FormatInt(identityID, 10)

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(map[string]string{identityIDKey: value})
	} else {
		md = md.Copy()
		md.Set(identityIDKey, value)
	}

	return metadata.NewIncomingContext(ctx, md)
}

// GetIdentityFromContext retrieves the identity ID from gRPC context metadata.
//
// Returns the identity ID and a boolean indicating if a valid one was found.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (int64, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, false
	}

	values := md.Get(identityIDKey)
	if len(values) == 0 {
		return 0, false
	}

	identityID, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil || identityID <= 0 {
		return 0, false
	}

	return identityID, true
}
