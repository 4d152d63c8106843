package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dunet/session-server/internal/model"
)

// handleError maps domain errors to gRPC statuses. Credential failures share
// one message so callers cannot probe which check failed.
func handleError(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidCredential),
		errors.Is(err, model.ErrMalformedCredential),
		errors.Is(err, model.ErrExpiredCredential),
		errors.Is(err, model.ErrRevokedCredential):
		return status.Error(codes.Unauthenticated, "invalid credential")
	case errors.Is(err, model.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "too many refresh attempts")
	case errors.Is(err, model.ErrUnavailable):
		return status.Error(codes.Unavailable, "service unavailable")
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "identity not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
