package model

import "errors"

// Credential errors surfaced to callers as an authentication failure.
var (
	// ErrMalformedCredential is returned for a bad signature, structure or type tag.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrExpiredCredential is returned when a credential is past its expiry.
	ErrExpiredCredential = errors.New("expired credential")
	// ErrInvalidCredential is returned for any refresh failure: unknown, rotated,
	// revoked, expired or stale. Callers cannot tell the reasons apart.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrRevokedCredential is returned when an access credential carries a stale version.
	ErrRevokedCredential = errors.New("revoked credential")
)

var (
	// ErrUnavailable wraps store failures such as connection loss.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRotated is returned by RefreshStore.Rotate when the parent
	// record was revoked or rotated by a concurrent caller.
	ErrAlreadyRotated = errors.New("refresh record already rotated")
	// ErrRateLimited is returned when refresh attempts exceed the configured budget.
	ErrRateLimited = errors.New("rate limited")
)
