package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/model"
)

const bearerPrefix = "bearer "

// Authenticator resolves an identity from an access credential.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (int64, error)
	Identify(ctx context.Context, raw string) (int64, bool)
}

// Authenticate validates bearer tokens and injects the identity into context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// AuthFunc parses the authorization header, validates the token and returns
// a context carrying the identity.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	tokenString := extractBearer(ctx)
	if tokenString == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	identityID, err := m.authenticator.Authenticate(ctx, tokenString)
	if err != nil {
		return nil, m.handleError(err)
	}

	return m.contextManager.SetIdentityToContext(ctx, identityID), nil
}

// OptionalAuthFunc attaches the identity when the bearer token is valid and
// current, and otherwise lets the call through anonymously. It never fails.
func (m *Authenticate) OptionalAuthFunc(ctx context.Context) (context.Context, error) {
	identityID, ok := m.authenticator.Identify(ctx, extractBearer(ctx))
	if !ok {
		// 0 is never a valid identity, so this also drops any identity_id
		// the client sent itself
		return m.contextManager.SetIdentityToContext(ctx, 0), nil
	}

	return m.contextManager.SetIdentityToContext(ctx, identityID), nil
}

func (m *Authenticate) handleError(err error) error {
	switch {
	case errors.Is(err, model.ErrExpiredCredential):
		return status.Error(codes.Unauthenticated, "authorization token expired")
	case errors.Is(err, model.ErrMalformedCredential),
		errors.Is(err, model.ErrRevokedCredential),
		errors.Is(err, model.ErrInvalidCredential):
		return status.Error(codes.Unauthenticated, "invalid authorization token")
	case errors.Is(err, model.ErrUnavailable):
		m.logger.Error("Authenticate middleware: session store unavailable",
			"error", err.Error())
		return status.Error(codes.Unavailable, "service unavailable")
	default:
		m.logger.Error("Authenticate middleware: unexpected error",
			"error", err.Error())
		return status.Error(codes.Internal, "internal server error")
	}
}

// extractBearer returns the bearer token from incoming metadata, or "" when
// the header is missing or uses another scheme.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
