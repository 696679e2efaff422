package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/exledger/internal/adapter/http/handler"
	"github.com/iho/exledger/internal/adapter/http/middleware"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ShiftHandler    *handler.ShiftHandler
	OrderHandler    *handler.OrderHandler
	AdminHandler    *handler.AdminHandler
	TransferHandler *handler.TransferHandler
	BalanceHandler  *handler.BalanceHandler
	ReportHandler   *handler.ReportHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	// TokenVerifier authenticates /api/v1. When nil, every request acts
	// as StaticUser.
	TokenVerifier middleware.TokenVerifier
	StaticUser    *domain.User

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
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
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
		} else {
			r.Use(middleware.StaticUser(staticUser(cfg.StaticUser), cfg.Logger))
		}

		// Idempotency runs after auth so keys are scoped to the user
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger).WithTTL(cfg.IdempotencyTTL)
			r.Use(idempotency.Wrap)
		}

		r.Get("/me", cfg.AuthHandler.GetCurrentUser)

		r.Route("/services/{serviceID}", func(r chi.Router) {
			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", cfg.ShiftHandler.List)
				r.Get("/current", cfg.ShiftHandler.Current)
				r.Post("/start", cfg.ShiftHandler.Start)
				r.Post("/end", cfg.ShiftHandler.End)
			})

			r.Get("/series", cfg.ReportHandler.Series)
			r.Post("/orders", cfg.OrderHandler.Create)

			r.Post("/admin-actions", cfg.AdminHandler.AdminAction)
			r.Post("/manual-io", cfg.AdminHandler.ManualIO)

			r.Route("/balances", func(r chi.Router) {
				r.Get("/", cfg.BalanceHandler.List)
				r.Get("/{assetID}", cfg.BalanceHandler.Get)
				r.Put("/{assetID}", cfg.AdminHandler.SetBalance)
				r.Get("/{assetID}/history", cfg.BalanceHandler.History)
			})
		})

		// Shifts
		r.Route("/shifts/{id}", func(r chi.Router) {
			r.Delete("/", cfg.ShiftHandler.Delete)
			r.Get("/orders", cfg.ShiftHandler.Orders)
			r.Get("/report", cfg.ReportHandler.ShiftReport)
		})

		// Orders
		r.Route("/orders/{id}", func(r chi.Router) {
			r.Get("/", cfg.OrderHandler.Get)
			r.Put("/", cfg.OrderHandler.Edit)
			r.Delete("/", cfg.OrderHandler.Reverse)
			r.Get("/history", cfg.OrderHandler.History)
		})

		r.Post("/transfers", cfg.TransferHandler.Create)

		r.With(middleware.RequireRole(domain.RoleAdmin)).
			Get("/ledger/reconcile", cfg.LedgerHandler.Reconcile)
	})

	return r
}

func staticUser(u *domain.User) *domain.User {
	if u != nil {
		return u
	}
	return &domain.User{ID: "system", Login: "system", Name: "System", Role: domain.RoleAdmin, Active: true}
}
