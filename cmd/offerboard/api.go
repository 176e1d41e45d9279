package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"offer-board/internal/config"
	"offer-board/internal/database"
	"offer-board/internal/events"
	"offer-board/internal/handler"
	"offer-board/internal/logging"
	"offer-board/internal/metrics"
	"offer-board/internal/middleware"
	"offer-board/internal/service"
	"offer-board/internal/tracing"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the offers REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if apiPort != "" {
			cfg.Server.Port = apiPort
		}
		return runAPI(cmd.Context(), cfg)
	},
}

func init() {
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (overrides PORT)")
}

func runAPI(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	tracer, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		return err
	}

	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ev := events.NewManager(true, logger)
	if cfg.Events.RedisAddr != "" {
		pub, err := events.NewRedisPublisher(ctx, cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.RedisDB, cfg.Events.Channel)
		if err != nil {
			logger.Warn("redis event fan-out disabled", "addr", cfg.Events.RedisAddr, "error", err)
		} else {
			defer pub.Close()
			ev.SubscribeAll(pub.Handle)
			logger.Info("publishing offer events", "addr", cfg.Events.RedisAddr, "channel", cfg.Events.Channel)
		}
	}

	svc := service.NewService(store, ev, tracer)
	h := handler.NewHandlerWithOptions(svc, logger, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
	})

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer limiter.Stop()
		logger.Info("rate limiting enabled", "rate", cfg.RateLimit.Rate, "window_seconds", cfg.RateLimit.Window)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newAPIRouter(cfg, h, logger, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting offers API", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
	serveErr := serve(srv, logger)

	ev.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("error flushing traces", "error", err)
	}
	return serveErr
}

// newAPIRouter assembles the middleware chain and mounts the API.
// limiter may be nil.
func newAPIRouter(cfg *config.Config, h *handler.Handler, logger *slog.Logger, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Tracing(tracing.ServiceName))
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Security.AllowedOriginList(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h.Routes(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
