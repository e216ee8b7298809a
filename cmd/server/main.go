package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/events"
	"github.com/aryan0dhankhar/crafthire/internal/featureflags"
	"github.com/aryan0dhankhar/crafthire/internal/handler"
	"github.com/aryan0dhankhar/crafthire/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/crafthire/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
	"github.com/aryan0dhankhar/crafthire/internal/reliability/retry"
	"github.com/aryan0dhankhar/crafthire/internal/repository"
	"github.com/aryan0dhankhar/crafthire/internal/repository/memory"
	"github.com/aryan0dhankhar/crafthire/internal/security"
	"github.com/aryan0dhankhar/crafthire/internal/security/audit"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
	"github.com/aryan0dhankhar/crafthire/internal/security/middleware"
	"github.com/aryan0dhankhar/crafthire/internal/security/ratelimit"
	"github.com/aryan0dhankhar/crafthire/internal/service"
	"github.com/aryan0dhankhar/crafthire/internal/validation"
	"github.com/aryan0dhankhar/crafthire/internal/worker"
	"github.com/aryan0dhankhar/crafthire/pkg/cache"
	"github.com/aryan0dhankhar/crafthire/pkg/config"
	"github.com/aryan0dhankhar/crafthire/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting CraftHire server",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "crafthire", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Entity store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	// 5. Optional Redis: job cache and cross-instance event relay
	hub := events.NewHub(log)
	var (
		jobCache    cache.Cache           = cache.NewMemory()
		publisher   domain.EventPublisher = hub
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = retry.Do(ctx, retry.DefaultConfig(), log, "redis connect", func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(ctx, cfg.RedisURL, log)
		})
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()

		jobCache = redis.NewCache(redisClient, log)
		relay := redis.NewRelay(redisClient, hub, log)
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("event relay stopped", slog.String("error", err.Error()))
			}
		}()
	}
	if !featureflags.Enabled(featureflags.RealtimeEvents) {
		publisher = events.Discard{}
	}

	// 6. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, "crafthire", cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	validate := validation.New()

	// 7. Services
	authService := service.NewAuthService(store, tokenManager, validate, log)
	profileService := service.NewProfileService(store, validate, log)
	jobService := service.NewJobService(store, jobCache, cfg.PublicJobsCacheTTL, validate, log)
	rosterService := service.NewRosterService(store, publisher, log)
	applicationService := service.NewApplicationService(store, publisher, log)

	// 8. Handlers and routes
	var redisCheck handler.Pinger
	if redisClient != nil {
		redisCheck = redisClient
	}

	mux := http.NewServeMux()
	handler.Routes{
		Auth:        handler.NewAuthHandler(authService, log),
		Company:     handler.NewCompanyHandler(profileService, jobService, applicationService, log),
		Craftworker: handler.NewCraftworkerHandler(profileService, jobService, applicationService, log),
		Provider:    handler.NewProviderHandler(profileService, rosterService, jobService, applicationService, log),
		Events:      handler.NewEventsHandler(tokenManager, authz, hub, log, cfg.CORSAllowedOrigins),
		Health:      handler.NewHealthHandler(store, redisCheck, log),
		Authz:       authz,
		Audit:       auditLogger,
	}.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> JWT -> rate limit -> audit -> content type -> tracing -> metrics
	rootHandler := middleware.Chain(
		metrics.HTTPMetricsMiddleware(mux),
		middleware.RequestID(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.JWTMiddleware(tokenManager, log),
		middleware.RateLimitMiddleware(rateLimiter, log),
		middleware.AuditMiddleware(auditLogger),
		middleware.ValidateJSONContentType(log),
		func(next http.Handler) http.Handler { return otelhttp.NewHandler(next, "crafthire") },
	)

	// 9. Roster reconciliation worker
	if featureflags.Enabled(featureflags.ReconcileWorker) {
		reconciler := worker.NewReconcileWorker(
			store,
			log,
			time.Duration(cfg.ReconcileIntervalMinutes)*time.Minute,
			false,
		)
		go reconciler.Start(ctx)
	}

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
		slog.Bool("redis", redisClient != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop workers and the event relay
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// openStore connects to PostgreSQL, retrying while it starts up, and
// applies the schema. STORE_DRIVER=memory runs without a database.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	dbCfg.MaxOpenConns = cfg.DBMaxOpenConns

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "database connect", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, dbCfg, log)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := pool.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
	return repository.NewPostgresStore(pool.GetDB(), log), closeFn, nil
}
