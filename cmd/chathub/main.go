// Command chathub runs the chat aggregation API server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"chathub/internal/auth"
	"chathub/internal/chat"
	"chathub/internal/config"
	httpapi "chathub/internal/http"
	"chathub/internal/llm"
	"chathub/internal/observability"
	"chathub/internal/storage"
)

// appStores bundles the persistence backends the server runs on. Which
// implementations are selected depends on build tags and configuration;
// see store_*.go in this package.
type appStores struct {
	conversations storage.ConversationStore
	settings      storage.SettingsStore
	users         auth.UserStore
	close         func()
}

func main() {
	logger := observability.NewLogger(observability.ConfigFromEnv())

	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      envOr("SENTRY_ENVIRONMENT", "production"),
			Release:          envOr("APP_VERSION", "dev"),
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn("sentry initialization failed", "error", err)
		} else {
			logger.Info("sentry initialized")
			sentryEnabled = true
		}
	}

	stores := selectStores(logger, cfg)
	defer func() { stores.close() }()

	// A MongoDB deployment, when configured and compiled in, takes over the
	// conversation log while users and settings stay relational.
	if mc, closeMongo := selectMongoConversations(logger, cfg); mc != nil {
		stores.conversations = mc
		prev := stores.close
		stores.close = func() {
			closeMongo()
			prev()
		}
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Error("failed to initialize token issuer", "error", err)
		os.Exit(1)
	}

	registry := llm.NewRegistry(
		llm.NewOpenAIProvider(llm.Config{
			APIKey:   cfg.OpenAIAPIKey,
			Endpoint: cfg.OpenAIEndpoint,
			Model:    cfg.DefaultModel,
		}),
		llm.NewAnthropicProvider(llm.Config{
			APIKey:   cfg.AnthropicAPIKey,
			Endpoint: cfg.AnthropicEndpoint,
		}),
	)
	if services := registry.Services(); len(services) > 0 {
		logger.Info("chat providers configured", "services", services)
	} else {
		logger.Warn("no chat providers configured; chat requests will fail")
	}

	defaults := chat.Defaults{
		Service:     cfg.DefaultService,
		Model:       cfg.DefaultModel,
		Temperature: cfg.DefaultTemperature,
		MaxTokens:   cfg.DefaultMaxTokens,
	}
	chatSvc := chat.NewService(stores.conversations, stores.settings, registry, defaults, logger)

	metricsCfg := observability.MetricsConfigFromEnv()
	var metrics *observability.Metrics
	if metricsCfg.Enabled {
		metrics = observability.NewMetrics(metricsCfg)
		logger.Info("metrics enabled", "namespace", metricsCfg.Namespace)
	} else {
		logger.Info("metrics disabled")
	}
	chatSvc.SetMetrics(metrics)

	rateCfg := httpapi.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}
	if rateCfg.Enabled() {
		logger.Info("rate limiting configured",
			"requests_per_second", rateCfg.RequestsPerSecond,
			"burst", rateCfg.Burst,
		)
	} else {
		logger.Info("rate limiting disabled")
	}

	mux := http.NewServeMux()
	srv := httpapi.NewServer(mux, stores.conversations, stores.settings, stores.users, tokens, chatSvc, logger, metrics)
	srv.SetMinPasswordLength(cfg.MinPasswordLength)
	srv.SetGenerationDefaults(defaults)
	srv.RegisterRoutes(httpapi.AuthMiddleware(tokens, stores.users, logger))

	handler := httpapi.ApplyMiddlewares(
		mux,
		observability.MetricsMiddleware(metrics),
		httpapi.RequestIDMiddleware(),
		httpapi.LoggingMiddleware(logger),
		observability.RateLimitMetricsMiddleware(metrics, rateCfg.Enabled()),
		httpapi.RateLimitMiddleware(rateCfg, logger),
		httpapi.CORSMiddleware(os.Getenv("CHATHUB_CORS_ORIGIN")),
	)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("chathub listening", "addr", cfg.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	}

	logger.Info("shutting down server", "timeout", "15s")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}

	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	logger.Info("shutdown complete")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
