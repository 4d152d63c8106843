package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/metrics"
	"github.com/dunet/session-server/internal/model"
)

// AuthorityConfig holds credential lifetimes and rotation policy.
type AuthorityConfig struct {
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	RevokeChainOnReuse bool
}

// AuthorityOption configures optional Authority collaborators.
type AuthorityOption func(*Authority)

// WithLimiter enables per-identity refresh throttling.
func WithLimiter(l model.RefreshLimiter) AuthorityOption {
	return func(a *Authority) { a.limiter = l }
}

func WithMetrics(m *metrics.Metrics) AuthorityOption {
	return func(a *Authority) { a.metrics = m }
}

// WithClock overrides the time source used for refresh record expiry checks.
func WithClock(now func() time.Time) AuthorityOption {
	return func(a *Authority) { a.now = now }
}

// Authority issues, rotates and revokes sessions.
type Authority struct {
	codec      model.TokenCodec
	refresh    model.RefreshStore
	identities model.IdentityStore
	limiter    model.RefreshLimiter
	metrics    *metrics.Metrics
	logger     *logger.Logger
	now        func() time.Time
	config     AuthorityConfig
}

func NewAuthority(
	codec model.TokenCodec,
	refresh model.RefreshStore,
	identities model.IdentityStore,
	logger *logger.Logger,
	cfg AuthorityConfig,
	opts ...AuthorityOption,
) *Authority {
	a := &Authority{
		codec:      codec,
		refresh:    refresh,
		identities: identities,
		logger:     logger,
		now:        time.Now,
		config:     cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IssueSession is the entry point used by the login flow once the identity
// has been authenticated by other means.
func (a *Authority) IssueSession(ctx context.Context, identityID int64) (model.TokenPair, error) {
	return a.Login(ctx, identityID)
}

// Login mints a credential pair stamped with the identity's current version
// and persists the refresh credential.
func (a *Authority) Login(ctx context.Context, identityID int64) (model.TokenPair, error) {
	a.logger.Debug("Session authority: issuing session",
		"identity_id", identityID)

	version, err := a.identities.Version(ctx, identityID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, fmt.Errorf("identity %d: %w", identityID, model.ErrNotFound)
		}
		a.logger.Error("Session authority: failed to read token version",
			"identity_id", identityID,
			"error", err.Error())
		return model.TokenPair{}, unavailable(err)
	}

	pair, err := a.encodePair(identityID, version)
	if err != nil {
		return model.TokenPair{}, err
	}

	rec, err := a.refresh.Put(ctx, identityID, pair.RefreshToken, a.config.RefreshTTL)
	if err != nil {
		a.logger.Error("Session authority: failed to persist refresh record",
			"identity_id", identityID,
			"error", err.Error())
		return model.TokenPair{}, unavailable(err)
	}

	a.metrics.SessionIssued()
	a.logger.Info("Session authority: session issued",
		"identity_id", identityID,
		"record_id", rec.ID)

	return pair, nil
}

// Refresh exchanges an active refresh credential for a new pair. Every
// rejection is reported as model.ErrInvalidCredential so callers cannot tell
// an unknown token from a rotated, revoked, expired or stale one. Store
// failures surface as model.ErrUnavailable and throttling as
// model.ErrRateLimited.
func (a *Authority) Refresh(ctx context.Context, raw string) (model.TokenPair, error) {
	claims, err := a.codec.Decode(model.KindRefresh, raw)
	if err != nil {
		return model.TokenPair{}, a.reject("decode", err)
	}

	rec, err := a.refresh.FindByRaw(ctx, raw)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, a.reject("unknown", err)
		}
		a.logger.Error("Session authority: failed to look up refresh record",
			"identity_id", claims.Subject,
			"error", err.Error())
		return model.TokenPair{}, unavailable(err)
	}

	if rec.IdentityID != claims.Subject {
		a.logger.Warn("Session authority: refresh record owner mismatch",
			"record_id", rec.ID,
			"identity_id", claims.Subject)
		return model.TokenPair{}, a.reject("owner", nil)
	}

	if rec.RevokedAt != nil {
		if rec.State() == model.RecordRotated {
			a.handleReuse(ctx, rec)
			return model.TokenPair{}, a.reject("rotated", nil)
		}
		return model.TokenPair{}, a.reject("revoked", nil)
	}

	if !rec.Usable(a.now()) {
		return model.TokenPair{}, a.reject("expired", nil)
	}

	version, err := a.identities.Version(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, a.reject("unknown_identity", err)
		}
		return model.TokenPair{}, unavailable(err)
	}
	if version != claims.Version {
		return model.TokenPair{}, a.reject("stale", nil)
	}

	if a.limiter != nil {
		if err := a.limiter.Allow(ctx, claims.Subject); err != nil {
			if errors.Is(err, model.ErrRateLimited) {
				a.metrics.RefreshRejected("throttled")
				return model.TokenPair{}, model.ErrRateLimited
			}
			return model.TokenPair{}, unavailable(err)
		}
	}

	pair, err := a.encodePair(claims.Subject, version)
	if err != nil {
		return model.TokenPair{}, err
	}

	child, err := a.refresh.Rotate(ctx, rec, claims.Subject, pair.RefreshToken, a.config.RefreshTTL)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyRotated) || errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, a.reject("rotated", err)
		}
		a.logger.Error("Session authority: failed to rotate refresh record",
			"record_id", rec.ID,
			"error", err.Error())
		return model.TokenPair{}, unavailable(err)
	}

	a.metrics.SessionRefreshed()
	a.logger.Info("Session authority: session refreshed",
		"identity_id", claims.Subject,
		"record_id", rec.ID,
		"replaced_by", child.ID)

	return pair, nil
}

// Logout revokes the presented refresh credential when it exists, belongs to
// identityID and is still active. Anything else succeeds silently.
func (a *Authority) Logout(ctx context.Context, identityID int64, raw string) error {
	rec, err := a.refresh.FindByRaw(ctx, raw)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return unavailable(err)
	}

	if rec.IdentityID != identityID || rec.RevokedAt != nil {
		a.logger.Debug("Session authority: logout ignored",
			"identity_id", identityID,
			"record_id", rec.ID)
		return nil
	}

	if err := a.refresh.Revoke(ctx, rec.ID); err != nil {
		a.logger.Error("Session authority: failed to revoke refresh record",
			"record_id", rec.ID,
			"error", err.Error())
		return unavailable(err)
	}

	a.metrics.Revoked(metrics.ScopeSingle, 1)
	a.logger.Info("Session authority: session logged out",
		"identity_id", identityID,
		"record_id", rec.ID)

	return nil
}

// LogoutAll revokes every refresh record of the identity and bumps its
// version so that outstanding access credentials stop validating. The two
// steps are not atomic; both are safe to repeat.
func (a *Authority) LogoutAll(ctx context.Context, identityID int64) error {
	if err := a.refresh.RevokeAll(ctx, identityID); err != nil {
		a.logger.Error("Session authority: failed to revoke refresh records",
			"identity_id", identityID,
			"error", err.Error())
		return unavailable(err)
	}

	version, err := a.identities.IncrementVersion(ctx, identityID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("identity %d: %w", identityID, model.ErrNotFound)
		}
		a.logger.Error("Session authority: failed to increment token version",
			"identity_id", identityID,
			"error", err.Error())
		return unavailable(err)
	}

	a.metrics.Revoked(metrics.ScopeAll, 1)
	a.logger.Info("Session authority: all sessions logged out",
		"identity_id", identityID,
		"token_version", version)

	return nil
}

// handleReuse revokes whatever descends from a rotated record when chain
// revocation is enabled. Failures are logged; the caller is rejected anyway.
func (a *Authority) handleReuse(ctx context.Context, rec model.RefreshRecord) {
	a.logger.Warn("Session authority: rotated refresh credential presented again",
		"identity_id", rec.IdentityID,
		"record_id", rec.ID)

	if !a.config.RevokeChainOnReuse {
		return
	}

	n, err := a.refresh.RevokeChain(ctx, rec.ID)
	if err != nil {
		a.logger.Error("Session authority: failed to revoke refresh chain",
			"record_id", rec.ID,
			"error", err.Error())
		return
	}

	a.metrics.Revoked(metrics.ScopeChain, n)
	a.logger.Info("Session authority: refresh chain revoked",
		"identity_id", rec.IdentityID,
		"record_id", rec.ID,
		"revoked", n)
}

func (a *Authority) encodePair(identityID, version int64) (model.TokenPair, error) {
	access, err := a.codec.Encode(model.KindAccess, identityID, version, a.config.AccessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("encode access: %w", err)
	}
	refresh, err := a.codec.Encode(model.KindRefresh, identityID, version, a.config.RefreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("encode refresh: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (a *Authority) reject(reason string, cause error) error {
	a.metrics.RefreshRejected(reason)
	if cause != nil {
		a.logger.Debug("Session authority: refresh rejected",
			"reason", reason,
			"error", cause.Error())
	} else {
		a.logger.Debug("Session authority: refresh rejected",
			"reason", reason)
	}
	return model.ErrInvalidCredential
}

func unavailable(err error) error {
	if errors.Is(err, model.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
}
