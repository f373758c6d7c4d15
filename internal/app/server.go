// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/db"
	"auth-service/internal/events"
	"auth-service/internal/middleware"
	"auth-service/internal/pkg/jwt"
	"auth-service/internal/pkg/telemetry"
	"auth-service/internal/repository/postgres"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout  = 10 * time.Second
	bootstrapTimeout = 30 * time.Second
)

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig) (*Server, error) {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, logger: logger}, nil
}

// NewLogger builds the production zap logger at level.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	defer s.logger.Sync()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL, s.cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedis(ctx, s.cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", zap.Strings("addrs", s.cfg.Redis.Addresses))

	// ----- JWT Manager -----
	tokens, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Tracing -----
	if s.cfg.EnableTracer {
		shutdown, err := telemetry.InitOTLPTracer(ctx, s.cfg.ServiceName, s.cfg.OTLPEndpoint, logger)
		if err != nil {
			return fmt.Errorf("failed to init tracer: %w", err)
		}
		defer shutdown()
	}

	// ----- Audit events -----
	var publisher events.Publisher = events.NopPublisher{}
	if len(s.cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(s.cfg.KafkaBrokers, s.cfg.KafkaTopic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	// ----- Repositories -----
	store := postgres.NewDB(pool)
	repos := Repositories{
		Users:    postgres.NewUserRepository(store),
		Roles:    postgres.NewRoleRepository(store),
		Sessions: postgres.NewSessionRepository(store),
	}

	// ----- Services -----
	svc := NewServices(&s.cfg, repos, redisClient, tokens, publisher, logger)
	go svc.Hub.Run(ctx)

	if s.cfg.AdminEmail != "" && s.cfg.AdminPassword != "" {
		bctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		_, err := svc.User.EnsureAdmin(bctx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName)
		cancel()
		if err != nil {
			// startup continues; the admin can be created with cmd/createadmin
			logger.Error("failed to ensure admin user", zap.Error(err))
		}
	}

	engine := NewEngine(&s.cfg, svc, logger)

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// NewEngine assembles the middleware chain and routes.
func NewEngine(cfg *config.AppConfig, svc *Services, logger *zap.Logger) *gin.Engine {
	engine := gin.New()

	// ==================== Metrics ====================
	// registered ahead of the chain so scrapers need no request id
	engine.GET("/metrics", gin.WrapH(telemetry.PrometheusHandler()))

	// ----- Middlewares -----
	if cfg.EnableTracer {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}
	engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware(cfg.RequireRequestID),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(cfg.CORSOrigins),
	)
	if cfg.EnableRateLimiter {
		engine.Use(middleware.RateLimitMiddleware(svc.Limiter, cfg.RateLimiterTimes, cfg.RateLimiterWindow, logger))
	}

	// ----- Router -----
	SetupRouter(engine, NewHandlers(cfg, svc, logger))
	return engine
}
