// Package handler exposes the tracker over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthCheck probes one dependency for /healthz and /readyz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Dependencies holds everything the router serves.
type Dependencies struct {
	Transactions *service.TransactionService
	Analytics    *service.AnalyticsService
	Auth         *service.AuthService
	Checks       []HealthCheck
	Metrics      *observability.Metrics
	Logger       *zap.Logger

	// ClientURL is the browser origin allowed by CORS.
	ClientURL string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Dependencies) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Checks))
	r.Get("/readyz", readyzHandler(d.Checks, logger))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})

		// =============================================
		// Auth
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google", googleLoginHandler(d.Auth, d.SecureCookies, logger))
			r.Post("/logout", logoutHandler(d.SecureCookies))
			r.With(JWTAuthMiddleware(d.Auth, logger)).Get("/profile", profileHandler(d.Auth, logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, logger))

			// =============================================
			// Transactions
			// =============================================
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/parse", parseTransactionHandler(d.Transactions, logger))
				r.Post("/", createTransactionHandler(d.Transactions, logger))
				r.Get("/", listTransactionsHandler(d.Transactions, logger))
				r.Put("/{id}", updateTransactionHandler(d.Transactions, logger))
				r.Delete("/{id}", deleteTransactionHandler(d.Transactions, logger))
			})

			// =============================================
			// Analytics
			// =============================================
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/summary", summaryHandler(d.Analytics, logger))
				r.Get("/categories", categoriesHandler(d.Analytics, logger))
				r.Get("/trends", trendsHandler(d.Analytics, logger))
				r.Get("/dashboard", dashboardHandler(d.Analytics, logger))
			})
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func runChecks(ctx context.Context, checks []HealthCheck) domain.HealthStatus {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "tracker-api", Status: "healthy", LastChecked: now},
	}

	overall := "healthy"
	for _, c := range checks {
		start := time.Now()
		status := "healthy"
		if err := c.Ping(ctx); err != nil {
			status = "unhealthy"
			overall = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name:        c.Name,
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return domain.HealthStatus{Status: overall, Services: services}
}

func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		writeJSON(w, http.StatusOK, runChecks(ctx, checks))
	}
}

func readyzHandler(checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", zap.String("dependency", c.Name), zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "dependency": c.Name})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
