package service

import (
	"context"
	"errors"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/metrics"
	"github.com/dunet/session-server/internal/model"
)

// Guard validates access credentials against the live token version.
type Guard struct {
	codec      model.TokenCodec
	identities model.IdentityStore
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewGuard(codec model.TokenCodec, identities model.IdentityStore, m *metrics.Metrics, logger *logger.Logger) *Guard {
	return &Guard{codec: codec, identities: identities, metrics: m, logger: logger}
}

// Authenticate resolves an access credential to its identity.
func (g *Guard) Authenticate(ctx context.Context, raw string) (int64, error) {
	return g.Validate(ctx, raw)
}

// Validate decodes an access credential and compares its version with the
// stored one on every call. An unknown identity is treated like a stale
// version.
func (g *Guard) Validate(ctx context.Context, raw string) (int64, error) {
	claims, err := g.codec.Decode(model.KindAccess, raw)
	if err != nil {
		if errors.Is(err, model.ErrExpiredCredential) {
			g.metrics.AccessValidated("expired")
			return 0, model.ErrExpiredCredential
		}
		g.metrics.AccessValidated("malformed")
		return 0, model.ErrMalformedCredential
	}

	version, err := g.identities.Version(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			g.metrics.AccessValidated("revoked")
			return 0, model.ErrRevokedCredential
		}
		g.logger.Error("Access guard: failed to read token version",
			"identity_id", claims.Subject,
			"error", err.Error())
		return 0, unavailable(err)
	}

	if version != claims.Version {
		g.metrics.AccessValidated("revoked")
		return 0, model.ErrRevokedCredential
	}

	g.metrics.AccessValidated("ok")
	return claims.Subject, nil
}

// Identify is the lenient form of Validate for routes that serve anonymous
// callers too. It reports false instead of failing, so a missing, expired,
// malformed or stale credential just leaves the caller anonymous.
func (g *Guard) Identify(ctx context.Context, raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}

	identityID, err := g.Validate(ctx, raw)
	if err != nil {
		if errors.Is(err, model.ErrUnavailable) {
			g.logger.Warn("Access guard: treating caller as anonymous",
				"error", err.Error())
		}
		return 0, false
	}
	return identityID, true
}
