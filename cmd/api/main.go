// Package main is the entrypoint for the Recipe Vault API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/config"
	"github.com/recipevault/recipevault/internal/handler"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/middleware"
	"github.com/recipevault/recipevault/internal/repository"
	"github.com/recipevault/recipevault/internal/server"
	"github.com/recipevault/recipevault/internal/service"
	"github.com/recipevault/recipevault/internal/storage"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize record store
	repo, err := repository.New(ctx, repository.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.DynamoDBEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Table:           cfg.RecipesTable,
		OwnerIdx:        cfg.RecipesCreatedAtIndex,
	})
	if err != nil {
		logger.Error("failed to initialize record store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("record store client ready", "table", cfg.RecipesTable)

	// Initialize object store
	attachments, err := storage.New(ctx, storage.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Bucket:          cfg.AttachmentBucket,
		Expiry:          cfg.SignedURLExpiration,
	})
	if err != nil {
		logger.Error("failed to initialize object store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", err.Error()),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Initialize authorization gate
	metricsRecorder := metrics.NewInMemory()
	keyResolver := auth.NewCachedKeyResolver(
		auth.NewJWKSClient(cfg.JWKSURL, logger),
		cfg.KeyCacheTTL,
		metricsRecorder,
	)
	gate := auth.NewGate(auth.NewVerifier(keyResolver), logger, metricsRecorder)

	// Initialize services
	recipeService := service.NewRecipeService(repo, logger, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	recipeHandler := handler.NewRecipeHandler(recipeService, attachments, logger)

	// Setup router
	r := setupRouter(h, healthHandler, metricsHandler, recipeHandler, gate, cacheClient, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	recipeHandler *handler.RecipeHandler,
	gate *auth.Gate,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	rlCfg := rateLimitConfig(cfg, cacheClient, logger)

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Root info endpoint
	r.With(middleware.RateLimitIP(rlCfg)).Get("/", h.Hello)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger: logger,
		Gate:   gate,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitAPI(rlCfg))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Patch("/{recipeId}", recipeHandler.Update)
			r.Delete("/{recipeId}", recipeHandler.Delete)
			r.Post("/{recipeId}/attachment", recipeHandler.GenerateUploadURL)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// rateLimitConfig builds the shared rate limit middleware config.
func rateLimitConfig(cfg *config.Config, cacheClient *cache.Cache, logger *slog.Logger) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Logger:           logger,
		Cache:            cacheClient,
		APIEnabled:       cfg.RateLimitAPIEnabled,
		APIRatePerMinute: cfg.RateLimitAPIPerMinute,
		APIBurst:         cfg.RateLimitAPIBurst,
		IPEnabled:        cfg.RateLimitIPEnabled,
		IPRPS:            cfg.RateLimitIPRPS,
		IPBurst:          cfg.RateLimitIPBurst,
	}
}

// redactURL hides credentials embedded in a connection URL before it
// reaches the logs.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}
