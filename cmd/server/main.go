// Package main is the entrypoint for the VoiceInvoice API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/handler"
	mw "github.com/Hardik-Sankhla/VoiceInvoice/internal/api/middleware"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/cache"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/engine"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/extract"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/invoice"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/pdf"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/runtime"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/storage"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/store"
)

const (
	shutdownTimeout   = 30 * time.Second
	idleSweepInterval = time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "model_runtime", cfg.Model.Runtime, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Connect object storage and ensure buckets
	objects, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("connect object storage: %w", err)
	}
	slog.Info("object storage ready",
		"audio_bucket", cfg.Storage.AudioBucket, "pdf_bucket", cfg.Storage.PDFBucket)

	// 6. Create the model runtime and the inference engine around it
	rt, err := runtime.NewRuntime(cfg.Model)
	if err != nil {
		return fmt.Errorf("create model runtime: %w", err)
	}
	guard := engine.NewResourceGuard(rt, cfg.Model.IdleUnloadAfter)
	eng := engine.NewInferenceEngine(rt, guard, cfg.Model.InferenceTimeout)
	eng.StartIdleSweeper(ctx, idleSweepInterval)
	slog.Info("inference engine initialized", "runtime", rt.Name())

	// 7. Build the extraction pipeline
	pgStore := store.NewPostgresStore(pool)
	schema := extract.DefaultSchema()
	autofill := extract.NewAutofillPolicy(pgStore, cfg.Invoice)
	pipeline := extract.NewPipeline(
		extract.NewPromptBuilder(schema),
		eng,
		extract.NewParser(schema),
		autofill,
		cfg.Model.LoadRetries,
		cfg.Model.LoadBackoff,
	)

	svc := invoice.NewService(pipeline, autofill, pdf.Render,
		objects, pgStore, redisCache, cfg.Storage, cfg.Redis.ResultCacheTTL)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),

		HealthHandler: healthHandler(pgStore, redisCache),

		ExtractHandler: handler.NewExtractHandler(svc),
		RenderHandler:  handler.NewRenderHandler(svc),

		ListInvoices: handler.NewListInvoicesHandler(pgStore),
		GetInvoice:   handler.NewGetInvoiceHandler(pgStore),
		InvoicePDF:   handler.NewInvoicePDFHandler(svc),
		InvoiceAudio: handler.NewInvoiceAudioHandler(svc),

		ModelStatus: handler.NewModelStatusHandler(eng),
		ModelLoad:   handler.NewModelLoadHandler(eng),
		ModelUnload: handler.NewModelUnloadHandler(eng),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // extraction waits for its inference slot
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Let go of the model before exiting so the sidecar frees its memory.
	if err := eng.ForceRelease(shutdownCtx); err != nil {
		slog.Warn("model release on shutdown failed", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
