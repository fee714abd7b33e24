package handler

import (
	"net/http"

	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Analytics — /api/analytics
// ============================================================

func summaryHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/summary")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		sum, err := svc.Summary(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func categoriesHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/categories")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		cats, err := svc.Categories(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func trendsHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/trends")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		trends, err := svc.Trends(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, trends)
	}
}

func dashboardHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/dashboard")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		dash, err := svc.Dashboard(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}
