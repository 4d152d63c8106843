package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dunet/session-server/internal/api/grpc/handler"
	"github.com/dunet/session-server/internal/api/grpc/middleware"
	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/model"
)

// protectedMethods require a valid access token. Refresh, health and
// reflection stay public.
var protectedMethods = map[string]bool{
	handler.LogoutMethod:    true,
	handler.LogoutAllMethod: true,
	handler.WhoamiMethod:    true,
}

// personalizedMethods serve anonymous callers but see the identity when a
// valid access token is presented.
var personalizedMethods = map[string]bool{
	handler.ViewerMethod: true,
}

// Router represents a gRPC router for session operations.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	sessionService handler.SessionService
	authenticator  middleware.Authenticator
	contextManager model.ContextManager
	health         *health.Server
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	sessionService handler.SessionService,
	authenticator middleware.Authenticator,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		sessionService: sessionService,
		authenticator:  authenticator,
		contextManager: contextManager,
		health:         health.NewServer(),
		logger:         logger,
	}
}

func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	return protectedMethods[c.FullMethod()]
}

func acceptsAuth(_ context.Context, c interceptors.CallMeta) bool {
	return personalizedMethods[c.FullMethod()]
}

// Register builds the gRPC server and registers every service on it. Request
// logging wraps panic recovery so recovered calls are logged as Internal.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authenticator, r.contextManager, r.logger)
	recoveryOpt := recovery.WithRecoveryHandlerContext(r.recoverPanic)

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.OptionalAuthFunc),
				selector.MatchFunc(acceptsAuth),
			),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recoveryOpt),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.OptionalAuthFunc),
				selector.MatchFunc(acceptsAuth),
			),
		),
	)

	r.registerSessionRoutes(s)
	r.registerHealth(s)
	reflection.Register(s)

	return s
}

// Health returns the health server so that shutdown can flip it to NOT_SERVING.
func (r *Router) Health() *health.Server {
	return r.health
}

func (r *Router) registerSessionRoutes(server *grpc.Server) {
	sessionHandler := handler.NewSession(r.sessionService, r.contextManager, r.logger)
	handler.RegisterSessionsServer(server, sessionHandler)
}

func (r *Router) registerHealth(server *grpc.Server) {
	r.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	r.health.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, r.health)
}

func (r *Router) recoverPanic(ctx context.Context, p any) error {
	r.logger.Error("gRPC handler panicked",
		"panic", p)
	return status.Error(codes.Internal, "internal server error")
}
