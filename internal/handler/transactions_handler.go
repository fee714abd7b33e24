package handler

import (
	"errors"
	"net/http"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions — /api/transactions
// ============================================================

func parseTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions/parse")
		defer span.End()

		id, _ := IdentityFromContext(ctx)

		var req domain.ParseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.ParseResponse{Error: "invalid request body"})
			return
		}

		parsed, err := svc.Parse(ctx, id.UserID, req.Text)
		if err != nil {
			var parseErr *domain.ErrParse
			var validation *domain.ErrValidation
			switch {
			case errors.As(err, &parseErr):
				logger.Info("parse rejected",
					zap.String("user_id", id.UserID),
					zap.String("kind", string(parseErr.Failure.Kind)),
				)
				writeJSON(w, parseFailureStatus(parseErr.Failure.Kind), domain.ParseResponse{Error: parseErr.Failure.Reason})
			case errors.As(err, &validation):
				writeJSON(w, http.StatusBadRequest, domain.ParseResponse{Error: validation.Error()})
			default:
				handleServiceError(w, err, logger)
			}
			return
		}

		writeJSON(w, http.StatusOK, domain.ParseResponse{Success: true, Parsed: parsed})
	}
}

func createTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions")
		defer span.End()

		id, _ := IdentityFromContext(ctx)

		var req domain.TransactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := svc.Create(ctx, id.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func listTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/transactions")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		txs, err := svc.List(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func updateTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/transactions/{id}")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		txID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("transaction.id", txID))

		var req domain.TransactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := svc.Update(ctx, txID, id.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/transactions/{id}")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		txID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("transaction.id", txID))

		if err := svc.Delete(ctx, txID, id.UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Deleted", ID: txID})
	}
}
