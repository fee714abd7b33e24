// Package service holds the use cases behind the HTTP API: parsing free
// text into transactions, CRUD on the user's ledger, analytics and login.
package service

import (
	"context"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"
	"github.com/boddenberg/finance-ai-tracker-go/internal/validator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/transactions")

const outcomeSuccess = "Success"

// TextParser turns free text into a parse attempt. *parser.Parser implements it.
type TextParser interface {
	ParseDetailed(ctx context.Context, text string) parser.Attempt
}

// AnalyticsInvalidator drops a user's cached analytics. *AnalyticsService implements it.
type AnalyticsInvalidator interface {
	Invalidate(userID string)
}

// TransactionService orchestrates parsing and the user's transaction ledger.
type TransactionService struct {
	parser   TextParser
	store    port.TransactionStore
	recorder port.ModelOutputRecorder
	views    AnalyticsInvalidator
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewTransactionService wires the service. recorder may be nil to disable
// the model-output audit log; views may be nil when nothing caches analytics.
func NewTransactionService(
	p TextParser,
	store port.TransactionStore,
	recorder port.ModelOutputRecorder,
	views AnalyticsInvalidator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		parser:   p,
		store:    store,
		recorder: recorder,
		views:    views,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ============================================================
// Parse — POST /api/transactions/parse
// ============================================================

// Parse extracts a transaction from text. Failures come back as
// *domain.ErrParse; empty text is a *domain.ErrValidation.
func (s *TransactionService) Parse(ctx context.Context, userID, text string) (*domain.ParsedTransaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Parse")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("parse", time.Since(start))
	}()

	text, err := validator.ParseText(text)
	if err != nil {
		return nil, err
	}

	attempt := s.parser.ParseDetailed(ctx, text)
	s.metrics.RecordExtraction(attempt.Provider, attempt.Duration)

	failure := attempt.Result.Failure
	var parsed *domain.ParsedTransaction
	if failure == nil {
		parsed, err = validator.ParsedFromCandidate(attempt.Result.Candidate)
		if err != nil {
			failure = domain.NewParseFailure(domain.FailureValidation, err.Error())
		}
	}

	s.audit(ctx, userID, text, attempt, failure)

	if failure != nil {
		s.metrics.IncrParseOutcome(string(failure.Kind))
		if failure.Kind == domain.FailureTransport {
			s.metrics.IncrExternalError(attempt.Provider)
		}
		span.SetAttributes(attribute.String("parse.failure", string(failure.Kind)))
		s.logger.Warn("parse failed",
			zap.String("user_id", userID),
			zap.String("provider", attempt.Provider),
			zap.String("kind", string(failure.Kind)),
			zap.String("detail", failure.Detail),
		)
		return nil, &domain.ErrParse{Failure: failure}
	}

	s.metrics.IncrParseOutcome(outcomeSuccess)
	s.logger.Info("parsed transaction",
		zap.String("user_id", userID),
		zap.String("provider", attempt.Provider),
		zap.String("category", string(parsed.Category)),
		zap.Float64("confidence", parsed.Confidence),
	)
	return parsed, nil
}

// audit records the attempt. Errors are logged and dropped.
func (s *TransactionService) audit(ctx context.Context, userID, text string, attempt parser.Attempt, failure *domain.ParseFailure) {
	if s.recorder == nil {
		return
	}
	out := &domain.ModelOutput{
		UserID:     userID,
		Provider:   attempt.Provider,
		Input:      text,
		Raw:        attempt.Raw,
		Success:    failure == nil,
		DurationMs: attempt.Duration.Milliseconds(),
	}
	if failure != nil {
		out.Failure = failure.Kind
		out.Detail = failure.Detail
	}
	if err := s.recorder.Record(ctx, out); err != nil {
		s.logger.Warn("model output audit failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// ============================================================
// CRUD — /api/transactions
// ============================================================

func (s *TransactionService) Create(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	in, err := validator.ValidateTransaction(req, s.now())
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Create(ctx, userID, in)
	if err != nil {
		s.logger.Error("failed to create transaction", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.metrics.IncrMutation("create")
	s.invalidateAnalytics(userID)
	return tx, nil
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.List(ctx, userID)
}

func (s *TransactionService) Update(ctx context.Context, id, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("transaction.id", id))

	in, err := validator.ValidateTransaction(req, s.now())
	if err != nil {
		return nil, err
	}

	n, tx, err := s.store.Update(ctx, id, userID, in)
	if err != nil {
		s.logger.Error("failed to update transaction",
			zap.String("user_id", userID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	if n == 0 || tx == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}

	s.metrics.IncrMutation("update")
	s.invalidateAnalytics(userID)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	ctx, span := tracer.Start(ctx, "TransactionService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("transaction.id", id))

	n, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		s.logger.Error("failed to delete transaction",
			zap.String("user_id", userID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}

	s.metrics.IncrMutation("delete")
	s.invalidateAnalytics(userID)
	return nil
}

func (s *TransactionService) invalidateAnalytics(userID string) {
	if s.views != nil {
		s.views.Invalidate(userID)
	}
}
