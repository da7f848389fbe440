package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/events"
	"github.com/yourorg/tasklist/internal/featureflags"
	"github.com/yourorg/tasklist/internal/handler"
	"github.com/yourorg/tasklist/internal/infrastructure/logger"
	"github.com/yourorg/tasklist/internal/infrastructure/redis"
	"github.com/yourorg/tasklist/internal/mcpserver"
	"github.com/yourorg/tasklist/internal/observability/metrics"
	"github.com/yourorg/tasklist/internal/observability/tracing"
	"github.com/yourorg/tasklist/internal/repository"
	"github.com/yourorg/tasklist/internal/security/audit"
	"github.com/yourorg/tasklist/internal/security/auth"
	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/security/ratelimit"
	"github.com/yourorg/tasklist/internal/service"
	"github.com/yourorg/tasklist/internal/store"
	"github.com/yourorg/tasklist/internal/worker"
	"github.com/yourorg/tasklist/pkg/cache"
	"github.com/yourorg/tasklist/pkg/config"
	"github.com/yourorg/tasklist/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
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
	log.Info("starting TaskList server",
		slog.String("environment", cfg.Environment),
		slog.String("backend", cfg.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, "tasklist", cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// 4. Initialize the persistence backend and user repository
	var (
		backend  domain.Backend
		userRepo domain.UserRepository
	)
	switch cfg.Backend {
	case config.BackendRedis:
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		backend = repository.NewRedisBackend(redisClient, log)
		userRepo = repository.NewMemoryUserRepository()

	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Database,
			SSLMode:  cfg.Database.SSLMode,
		}, log)
		if err != nil {
			log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		pgBackend := repository.NewPostgresBackend(pool.GetDB(), log)
		if err := pgBackend.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure items schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		pgUsers := repository.NewPostgresUserRepository(pool.GetDB(), log)
		if err := pgUsers.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure users schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		backend = pgBackend
		userRepo = pgUsers

	default:
		backend = repository.NewMemoryBackend()
		userRepo = repository.NewMemoryUserRepository()
	}

	// 5. Core components: store, events hub, auth
	hub := events.NewHub()
	stores := store.NewManager(backend, hub, log)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "tasklist")
	authService := service.NewAuthService(userRepo, tokenManager, log)

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowS)*time.Second)
	auditLogger := audit.NewLogger(log)
	identityCache := cache.New()
	defer identityCache.Clear()

	// 6. Handlers
	listHandler := handler.NewListItemsHandler(stores, log)
	createHandler := handler.NewCreateItemHandler(stores, log)
	statusHandler := handler.NewUpdateStatusHandler(stores, log)
	deleteHandler := handler.NewDeleteItemHandler(stores, log)
	streamHandler := handler.NewItemsStreamHandler(stores, hub, log, cfg.CORSAllowedOrigins)
	authHandler := handler.NewAuthHandler(authService, rateLimiter, log)
	healthHandler := handler.NewHealthHandler(backend, log)
	wellKnownHandler := handler.NewWellKnownHandler(cfg.OAuthIssuer, cfg.OAuthIssuer+"/mcp")

	// 7. Routes
	mux := http.NewServeMux()
	mux.Handle("GET /api/items", listHandler)
	mux.Handle("POST /api/items", createHandler)
	mux.Handle("POST /api/items/{id}/status", statusHandler)
	mux.Handle("DELETE /api/items/{id}", deleteHandler)

	if featureflags.EnabledDefault("WS_EVENTS", true) {
		mux.Handle("GET /ws/items", streamHandler)
	}

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	if featureflags.EnabledDefault("MCP", true) {
		mux.Handle("/mcp", mcpserver.NewHTTPHandler(stores, log))
		log.Info("MCP endpoint enabled", slog.String("path", "/mcp"))
	}

	mux.HandleFunc("GET /.well-known/oauth-protected-resource", wellKnownHandler.ProtectedResource)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS response headers honoring configured origins. Preflight is answered
	// earlier in the chain, before the gate.
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> tracing -> CORS -> auth gate
	// -> rate limit -> audit. The gate sits in front of every protected route,
	// REST, MCP and websocket alike.
	gated := middleware.AuthMiddleware(tokenManager, identityCache, log)(
		middleware.RateLimitMiddleware(rateLimiter, log)(
			middleware.AuditMiddleware(auditLogger)(handlerWithCORS),
		),
	)
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			otelhttp.NewHandler(corsPreflight(cfg.CORSAllowedOrigins, gated), "tasklist"),
		),
		log,
	)

	// 8. Start stats worker in background
	statsWorker := worker.NewStatsWorker(backend, log, time.Duration(cfg.StatsIntervalSeconds)*time.Second)
	go statsWorker.Start(ctx)

	// 9. Start HTTP server
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
		slog.Int("rate_limit", cfg.RateLimitRequests),
		slog.Int("rate_limit_window_s", cfg.RateLimitWindowS),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	rateLimiter.Stop()
	log.Info("server stopped")
}

// corsPreflight answers OPTIONS before the gate so browsers can preflight
// protected routes without a credential.
func corsPreflight(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			origin := r.Header.Get("Origin")
			if originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Mcp-Session-Id")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
