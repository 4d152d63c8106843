package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcctx "github.com/dunet/session-server/internal/api/grpc/context"
	"github.com/dunet/session-server/internal/mocks"
	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mdAuthHeader string
		wantToken    string
		authID       int64
		authErr      error
		wantGRPCCode codes.Code
		wantErr      bool
		expectAuth   bool
		expectSetCtx bool
	}{
		{
			name:         "missing authorization header",
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "other scheme",
			mdAuthHeader: "Basic dXNlcjpwYXNz",
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "empty bearer",
			mdAuthHeader: "Bearer   ",
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "malformed token",
			mdAuthHeader: "Bearer invalid",
			wantToken:    "invalid",
			authErr:      model.ErrMalformedCredential,
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
			expectAuth:   true,
		},
		{
			name:         "expired token",
			mdAuthHeader: "Bearer old",
			wantToken:    "old",
			authErr:      model.ErrExpiredCredential,
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
			expectAuth:   true,
		},
		{
			name:         "revoked token",
			mdAuthHeader: "Bearer stale",
			wantToken:    "stale",
			authErr:      model.ErrRevokedCredential,
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
			expectAuth:   true,
		},
		{
			name:         "store unavailable",
			mdAuthHeader: "Bearer token",
			wantToken:    "token",
			authErr:      fmt.Errorf("%w: %w", model.ErrUnavailable, errors.New("timeout")),
			wantGRPCCode: codes.Unavailable,
			wantErr:      true,
			expectAuth:   true,
		},
		{
			name:         "unexpected error",
			mdAuthHeader: "Bearer token",
			wantToken:    "token",
			authErr:      errors.New("boom"),
			wantGRPCCode: codes.Internal,
			wantErr:      true,
			expectAuth:   true,
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			wantToken:    "token",
			authID:       42,
			wantGRPCCode: codes.OK,
			expectAuth:   true,
			expectSetCtx: true,
		},
		{
			name:         "lowercase scheme",
			mdAuthHeader: "bearer token",
			wantToken:    "token",
			authID:       42,
			wantGRPCCode: codes.OK,
			expectAuth:   true,
			expectSetCtx: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lg := testutil.MakeNoopLogger()
			cm := mocks.NewContextManager(t)
			if tt.expectSetCtx {
				cm.On("SetIdentityToContext", mock.Anything, tt.authID).Return(context.Background()).Once()
			}

			auth := mocks.NewAuthenticator(t)
			if tt.expectAuth {
				auth.On("Authenticate", mock.Anything, tt.wantToken).Return(tt.authID, tt.authErr).Once()
			}
			m := NewAuthenticate(auth, cm, lg)

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantErr {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, tt.wantGRPCCode, st.Code())
				assert.Nil(t, newCtx)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, newCtx)
			}
		})
	}
}

func TestAuthenticate_OptionalAuthFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mdAuthHeader string
		wantToken    string
		identityID   int64
		identified   bool
		wantIdentity int64
		wantOK       bool
	}{
		{
			name: "no authorization header",
		},
		{
			name:         "other scheme",
			mdAuthHeader: "Basic dXNlcjpwYXNz",
		},
		{
			name:         "rejected token",
			mdAuthHeader: "Bearer stale",
			wantToken:    "stale",
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			wantToken:    "token",
			identityID:   42,
			identified:   true,
			wantIdentity: 42,
			wantOK:       true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := mocks.NewAuthenticator(t)
			auth.On("Identify", mock.Anything, tt.wantToken).Return(tt.identityID, tt.identified).Once()
			m := NewAuthenticate(auth, grpcctx.NewManager(), testutil.MakeNoopLogger())

			// a client-supplied identity must never survive the interceptor
			md := metadata.Pairs("identity_id", "7")
			if tt.mdAuthHeader != "" {
				md.Set("authorization", tt.mdAuthHeader)
			}
			ctx := metadata.NewIncomingContext(context.Background(), md)

			newCtx, err := m.OptionalAuthFunc(ctx)
			require.NoError(t, err)

			got, ok := grpcctx.NewManager().GetIdentityFromContext(newCtx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIdentity, got)
		})
	}
}
