package router

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcctx "github.com/dunet/session-server/internal/api/grpc/context"
	"github.com/dunet/session-server/internal/api/grpc/handler"
	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/metrics"
	"github.com/dunet/session-server/internal/mocks"
	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/repository/memory"
	"github.com/dunet/session-server/internal/service"
	"github.com/dunet/session-server/internal/testutil"
	"github.com/dunet/session-server/internal/token"
)

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	ctxMgr := mocks.NewContextManager(t)
	lg := testutil.MakeNoopLogger()

	r := New(nil, nil, ctxMgr, lg)
	s := r.Register()
	require.NotNil(t, s)

	info := s.GetServiceInfo()
	assert.Contains(t, info, handler.ServiceName)
	assert.Contains(t, info, healthpb.Health_ServiceDesc.ServiceName)
}

type stack struct {
	sessions  handler.SessionsClient
	health    healthpb.HealthClient
	authority *service.Authority
}

func newStack(t *testing.T) stack {
	t.Helper()

	store := memory.NewStore(nil)
	_, err := store.CreateIdentity(context.Background(), 42)
	require.NoError(t, err)

	codec := token.NewJWT("access-secret", "refresh-secret", token.WithIssuer("dunet"))
	m := metrics.New(prometheus.NewRegistry())
	lg := testutil.MakeNoopLogger()
	authority := service.NewAuthority(codec, store, store, lg, service.AuthorityConfig{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
	}, service.WithMetrics(m))
	guard := service.NewGuard(codec, store, m, lg)

	conn := serve(t, New(authority, guard, grpcctx.NewManager(), lg).Register())

	return stack{
		sessions:  handler.NewSessionsClient(conn),
		health:    healthpb.NewHealthClient(conn),
		authority: authority,
	}
}

func serve(t *testing.T, s *grpc.Server) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(ctx context.Context, access string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+access)
}

func TestRouter_SessionFlow(t *testing.T) {
	ctx := context.Background()
	st := newStack(t)

	pair, err := st.authority.IssueSession(ctx, 42)
	require.NoError(t, err)

	_, err = st.sessions.Whoami(ctx, &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "whoami requires a token")

	who, err := st.sessions.Whoami(bearer(ctx, pair.AccessToken), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), who.GetValue())

	refreshed, err := st.sessions.Refresh(ctx, wrapperspb.String(pair.RefreshToken))
	require.NoError(t, err)
	newAccess := refreshed.GetFields()[handler.AccessTokenField].GetStringValue()
	newRefresh := refreshed.GetFields()[handler.RefreshTokenField].GetStringValue()
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	_, err = st.sessions.Refresh(ctx, wrapperspb.String(pair.RefreshToken))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = st.sessions.Logout(bearer(ctx, newAccess), wrapperspb.String(newRefresh))
	require.NoError(t, err)
	_, err = st.sessions.Refresh(ctx, wrapperspb.String(newRefresh))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = st.sessions.LogoutAll(bearer(ctx, newAccess), &emptypb.Empty{})
	require.NoError(t, err)
	_, err = st.sessions.Whoami(bearer(ctx, newAccess), &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRouter_HealthIsPublic(t *testing.T) {
	st := newStack(t)

	resp, err := st.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: handler.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRouter_ViewerAcceptsAnonymousCallers(t *testing.T) {
	ctx := context.Background()
	st := newStack(t)

	pair, err := st.authority.IssueSession(ctx, 42)
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		want int64
	}{
		{name: "anonymous", ctx: ctx},
		{name: "garbage token", ctx: bearer(ctx, "not-a-token")},
		{name: "forged identity", ctx: metadata.AppendToOutgoingContext(ctx, "identity_id", "42")},
		{name: "valid token", ctx: bearer(ctx, pair.AccessToken), want: 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := st.sessions.Viewer(tt.ctx, &emptypb.Empty{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.GetValue())
		})
	}

	// after logout-all the old token is stale and the caller is anonymous again
	require.NoError(t, st.authority.LogoutAll(ctx, 42))
	resp, err := st.sessions.Viewer(bearer(ctx, pair.AccessToken), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Zero(t, resp.GetValue())
}

type panickingSessions struct {
	handler.SessionService
}

func (panickingSessions) Refresh(context.Context, string) (model.TokenPair, error) {
	panic("boom")
}

func TestRouter_LogsRecoveredPanics(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithFormat(-4, "text", &buf)

	r := New(panickingSessions{}, mocks.NewAuthenticator(t), grpcctx.NewManager(), lg)
	sessions := handler.NewSessionsClient(serve(t, r.Register()))

	_, err := sessions.Refresh(context.Background(), wrapperspb.String("raw"))
	require.Equal(t, codes.Internal, status.Code(err))

	out := buf.String()
	assert.Contains(t, out, "gRPC handler panicked")
	assert.Contains(t, out, "gRPC request failed")
	assert.Contains(t, out, "method="+handler.RefreshMethod)
	assert.Contains(t, out, "status=Internal")
}

func TestRouter_RecoversPanics(t *testing.T) {
	t.Parallel()

	r := New(nil, nil, mocks.NewContextManager(t), testutil.MakeNoopLogger())
	err := r.recoverPanic(context.Background(), "boom")
	assert.Equal(t, codes.Internal, status.Code(err))
}
