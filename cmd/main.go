package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcctx "github.com/dunet/session-server/internal/api/grpc/context"
	"github.com/dunet/session-server/internal/api/grpc/router"
	grpcServer "github.com/dunet/session-server/internal/api/grpc/server"
	"github.com/dunet/session-server/internal/config"
	"github.com/dunet/session-server/internal/limiter"
	"github.com/dunet/session-server/internal/logger"
	"github.com/dunet/session-server/internal/metrics"
	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/repository/postgres"
	"github.com/dunet/session-server/internal/server"
	"github.com/dunet/session-server/internal/service"
	"github.com/dunet/session-server/internal/token"
	"github.com/dunet/session-server/internal/worker"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	// a local .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	db, err := postgres.NewConection(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	refreshRepo := postgres.NewRefreshRecordRepository(db)
	identityRepo := postgres.NewIdentityRepository(db)
	codec := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, token.WithIssuer(cfg.JWT.Issuer))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := []service.AuthorityOption{service.WithMetrics(m)}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		opts = append(opts, service.WithLimiter(limiter.New(rdb, limiter.Config{
			MaxRefresh: cfg.Redis.RefreshMax,
			Window:     cfg.Redis.RefreshWindow.Std(),
			KeyPrefix:  cfg.Redis.KeyPrefix,
			FailOpen:   cfg.Redis.FailOpenOnDown,
		}, logger)))
		logger.Info("refresh throttling enabled", "redis", cfg.Redis.Addr)
	}

	authority := service.NewAuthority(codec, refreshRepo, identityRepo, logger, service.AuthorityConfig{
		AccessTTL:          cfg.JWT.AccessTTL.Std(),
		RefreshTTL:         cfg.JWT.RefreshTTL.Std(),
		RevokeChainOnReuse: cfg.Session.RevokeChainOnReuse,
	}, opts...)
	guard := service.NewGuard(codec, identityRepo, m, logger)
	ctxMgr := grpcctx.NewManager()

	r := router.New(authority, guard, ctxMgr, logger)
	servers := []model.Server{
		grpcServer.NewGRPCServer(r.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}

	var sl model.SecurityLayer
	if cfg.GRPC.EnableHTTPS {
		sl = server.NewTLSListener(cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		servers = append(servers, server.NewHTTPServer(cfg.Metrics.Addr, mux))
	}

	var wg sync.WaitGroup
	for i, s := range servers {
		layer := sl
		if i > 0 {
			// metrics stay on plain HTTP for the scraper
			layer = server.NewPlainListener()
		}
		wg.Add(1)
		go func(s model.Server, layer model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(layer); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s, layer)
	}

	pruner := worker.NewPruner(refreshRepo, cfg.Prune.Interval.Std(), cfg.Prune.Retention.Std(), m, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pruner.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	r.Health().SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
