package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/Strob0t/showcase/internal/adapter/fetch"
	schttp "github.com/Strob0t/showcase/internal/adapter/http"
	scotel "github.com/Strob0t/showcase/internal/adapter/otel"
	"github.com/Strob0t/showcase/internal/adapter/postgres"
	"github.com/Strob0t/showcase/internal/adapter/ws"
	"github.com/Strob0t/showcase/internal/config"
	"github.com/Strob0t/showcase/internal/domain/preview"
	"github.com/Strob0t/showcase/internal/middleware"
	"github.com/Strob0t/showcase/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := setup(cmd)
			if err != nil {
				return err
			}
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// preparePrimary applies migrations and copies projects held only by the
// secondary store into Postgres.
func preparePrimary(ctx context.Context, cfg *config.Config, st *stores) error {
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	rctx, span := scotel.StartReconcileSpan(ctx)
	res, err := st.fallback.Reconcile(rctx)
	span.End()
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		return nil
	}
	slog.Info("reconcile", "copied", res.Copied, "skipped", res.Skipped, "reason", res.Reason)
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats", cfg.NATS.URL != "",
	)

	// --- Telemetry ---
	shutdownOTEL, err := scotel.Setup(ctx, cfg.Logging.Service, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := scotel.NewMetrics(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prepare := func(ctx context.Context) error { return preparePrimary(ctx, cfg, st) }
	if st.primaryUp {
		if err := prepare(ctx); err != nil {
			return err
		}
	} else {
		go func() {
			err := awaitPrimary(ctx, time.Second, st.primary.Ping, prepare)
			if err != nil && ctx.Err() == nil {
				slog.Error("postgres recovery stopped", "error", err)
			}
		}()
	}

	queue, natsQueue, err := openQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Drain(); err != nil {
			slog.Warn("queue drain", "error", err)
		}
	}()

	previewCache, closeCache, err := openCache(ctx, cfg, natsQueue)
	if err != nil {
		return err
	}
	defer closeCache()

	// --- Services ---
	fetcher := fetch.New(nil, fetch.Config{
		Timeout:         cfg.Preview.FetchTimeout,
		MaxBytes:        cfg.Preview.MaxFileBytes,
		BreakerFailures: cfg.Breaker.MaxFailures,
		BreakerTimeout:  cfg.Breaker.Timeout,
		MaxInFlight:     cfg.Preview.MaxInFlightFetches,
	})
	merger := preview.NewMerger(preview.NewLoader(fetcher), cfg.Preview.MaxConcurrentLoads)

	projectSvc := service.NewProjectService(st.fallback, queue)
	previewSvc := service.NewPreviewService(st.fallback, merger, previewCache, cfg.Cache.TTL)
	objects, err := openObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	uploadSvc := service.NewUploadService(objects)
	requestSvc := service.NewRequestService(st.fallback, queue)

	projectSvc.SetPreviewInvalidator(previewSvc)
	projectSvc.SetFileRemover(uploadSvc)
	projectSvc.SetLatestLimit(cfg.Gallery.LatestLimit)
	projectSvc.SetMetrics(metrics)
	previewSvc.SetMetrics(metrics)

	// --- Realtime ---
	hub := ws.NewHub(originHost(cfg.Server.CORSOrigin))
	stopRelay, err := hub.Relay(ctx, queue)
	if err != nil {
		return fmt.Errorf("ws relay: %w", err)
	}
	defer stopRelay()

	// --- HTTP ---
	handlers := &schttp.Handlers{
		Projects:  projectSvc,
		Previews:  previewSvc,
		Requests:  requestSvc,
		Uploads:   uploadSvc,
		BodyLimit: cfg.Server.BodyLimit,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	limiter.StartCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Preview-Degraded-Files"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(schttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(scotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(st.fallback, queue, hub))
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(chimw.Timeout(60 * time.Second))
		schttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// originHost reduces a CORS origin such as "https://example.com" to the
// host pattern the websocket handshake checks against.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}
