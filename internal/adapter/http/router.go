package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/walletrecon/internal/adapter/http/handler"
	"github.com/iho/walletrecon/internal/adapter/http/middleware"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
	"github.com/iho/walletrecon/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	RateHandler           *handler.RateHandler
	WalletHandler         *handler.WalletHandler
	LedgerHandler         *handler.LedgerHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	RateLimiter           *middleware.RateLimiter
	Metrics               *metrics.Metrics
	MetricsHandler        http.Handler
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger).Wrap)
		}

		r.Get("/rates", cfg.RateHandler.Get)
		r.Get("/currencies", cfg.WalletHandler.ListCurrencies)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/wallets", cfg.WalletHandler.List)
			r.Post("/wallets", cfg.WalletHandler.Create)
			r.Post("/wallets/ensure", cfg.WalletHandler.EnsureDefaults)
			r.Get("/wallets/{currency}", cfg.WalletHandler.Get)
			r.Post("/transactions", cfg.WalletHandler.RecordTransaction)
			r.Get("/ledger", cfg.LedgerHandler.Get)
			r.Get("/reconciliation", cfg.ReconciliationHandler.User)
		})

		r.Post("/reconciliation/batch", cfg.ReconciliationHandler.Batch)
	})

	return r
}
