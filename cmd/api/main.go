package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookcatalogue/internal/catalogue"
	"bookcatalogue/internal/config"
	"bookcatalogue/internal/httpx"
	"bookcatalogue/internal/platform/logging"
	"bookcatalogue/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("cannot open store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing store", zap.Error(err))
		}
	}()
	logger.Info("store ready", zap.String("backend", cfg.Storage.Backend))

	service := catalogue.NewService(backend, catalogue.WithLogger(logger))
	handler := catalogue.NewHTTPHandler(service, logger)
	rateLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      newRouter(cfg.HTTP, handler, backend, rateLimiter, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newRouter registers the catalogue routes and probes. Middleware is applied
// innermost first, so RequestIDMiddleware ends up outermost.
func newRouter(cfg config.HTTP, handler *catalogue.HTTPHandler, backend store.Backend, rateLimiter *httpx.RateLimitMiddleware, logger *zap.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	handler.Register(router)

	var h http.Handler = router
	h = httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes)(h)
	h = rateLimiter.Middleware(h)
	h = httpx.CORSMiddleware(cfg.AllowedOrigins)(h)
	h = httpx.SecurityHeadersMiddleware(cfg.EnableHSTS)(h)
	h = httpx.RecoveryMiddleware(logger)(h)
	h = httpx.AccessLogMiddleware(logger)(h)
	h = httpx.RequestIDMiddleware(h)
	return h
}
