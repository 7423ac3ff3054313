// Package api provides the HTTP API for the Pitstop marketplace.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vaahanlabs/pitstop/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger
	health *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Handlers groups the context handlers the server routes to.
type Handlers struct {
	Catalog       *CatalogHandler
	Users         *UserHandler
	Subscriptions *SubscriptionHandler
	Orders        *OrderHandler
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handlers Handlers, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		health: health,
	}
	s.registerRoutes(handlers)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withRequestContext(s.mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes(h Handlers) {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Catalog
	s.mux.HandleFunc("POST /api/v1/services", h.Catalog.CreateService)
	s.mux.HandleFunc("GET /api/v1/services", h.Catalog.ListServices)
	s.mux.HandleFunc("POST /api/v1/plans", h.Catalog.CreatePlan)
	s.mux.HandleFunc("GET /api/v1/plans", h.Catalog.ListPlans)
	s.mux.HandleFunc("GET /api/v1/plans/{planID}", h.Catalog.GetPlan)
	s.mux.HandleFunc("PUT /api/v1/plans/{planID}/services", h.Catalog.UpdatePlanServices)
	s.mux.HandleFunc("POST /api/v1/one-time-plans", h.Catalog.CreateOneTimePlan)
	s.mux.HandleFunc("GET /api/v1/one-time-plans", h.Catalog.ListOneTimePlans)
	s.mux.HandleFunc("GET /api/v1/one-time-plans/{planID}", h.Catalog.GetOneTimePlan)

	// Identity
	s.mux.HandleFunc("POST /api/v1/users", h.Users.CreateUser)
	s.mux.HandleFunc("GET /api/v1/users/{userID}", h.Users.GetUser)

	// Subscriptions
	s.mux.HandleFunc("POST /api/v1/subscriptions/purchase", h.Subscriptions.Purchase)
	s.mux.HandleFunc("POST /api/v1/subscriptions/purchase/verify", h.Subscriptions.VerifyPurchase)
	s.mux.HandleFunc("POST /api/v1/subscriptions/upgrade", h.Subscriptions.Upgrade)
	s.mux.HandleFunc("POST /api/v1/subscriptions/upgrade/verify", h.Subscriptions.VerifyUpgrade)
	s.mux.HandleFunc("POST /api/v1/subscriptions/renew", h.Subscriptions.Renew)
	s.mux.HandleFunc("POST /api/v1/subscriptions/renew/verify", h.Subscriptions.VerifyRenewal)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/plan", h.Subscriptions.CurrentPlan)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/billing", h.Subscriptions.BillingHistory)

	// Orders
	s.mux.HandleFunc("POST /api/v1/orders/one-time", h.Orders.CreateOneTimeOrder)
	s.mux.HandleFunc("POST /api/v1/orders/subscription", h.Orders.CreateSubscriptionOrder)
	s.mux.HandleFunc("POST /api/v1/orders/verify-payment", h.Orders.VerifyPayment)
	s.mux.HandleFunc("POST /api/v1/orders/{orderID}/accept", h.Orders.AcceptOrder)
	s.mux.HandleFunc("GET /api/v1/orders/{orderID}", h.Orders.GetOrder)
	s.mux.HandleFunc("GET /api/v1/users/{userID}/orders", h.Orders.ListUserOrders)
}

// withRequestContext stamps a correlation id on the request and logs the
// request outcome.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithCorrelationID(r.Context(), r.Header.Get("X-Correlation-ID"))
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(ctx))

		s.logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			observability.CorrelationIDKey, observability.CorrelationIDFromContext(ctx),
			observability.DurationKey, time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth runs the registered health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.health.Check(r.Context())
	status := http.StatusOK
	for _, result := range results {
		if result.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, status, map[string]any{
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": results,
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
