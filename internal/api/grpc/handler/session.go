package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/model"
)

// Response field names of a refreshed token pair.
const (
	AccessTokenField  = "access_token"
	RefreshTokenField = "refresh_token"
)

// SessionService defines refresh and logout operations.
type SessionService interface {
	Refresh(ctx context.Context, raw string) (model.TokenPair, error)
	Logout(ctx context.Context, identityID int64, raw string) error
	LogoutAll(ctx context.Context, identityID int64) error
}

var _ SessionsServer = (*Session)(nil)

// Session handles gRPC endpoints of the session service.
type Session struct {
	service        SessionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewSession creates a new Session handler.
func NewSession(service SessionService, contextManager model.ContextManager, logger *logger.Logger) *Session {
	return &Session{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Refresh rotates the presented refresh token.
func (h *Session) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	pair, err := h.service.Refresh(ctx, req.GetValue())
	if err != nil {
		h.logger.Debug("Session handler: refresh failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		AccessTokenField:  pair.AccessToken,
		RefreshTokenField: pair.RefreshToken,
	})
	if err != nil {
		return nil, handleError(err)
	}

	return resp, nil
}

// Logout revokes one refresh token owned by the caller.
func (h *Session) Logout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	identityID, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	if err := h.service.Logout(ctx, identityID, req.GetValue()); err != nil {
		h.logger.Error("Session handler: logout failed",
			"identity_id", identityID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// LogoutAll revokes every session of the caller.
func (h *Session) LogoutAll(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	identityID, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	if err := h.service.LogoutAll(ctx, identityID); err != nil {
		h.logger.Error("Session handler: logout all failed",
			"identity_id", identityID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// Whoami echoes the authenticated identity.
func (h *Session) Whoami(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	identityID, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return wrapperspb.Int64(identityID), nil
}

// Viewer reports who is calling without requiring a credential.
func (h *Session) Viewer(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	identityID, _ := h.contextManager.GetIdentityFromContext(ctx)
	return wrapperspb.Int64(identityID), nil
}
