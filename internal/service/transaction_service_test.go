package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/cache"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockParser struct {
	attempt parser.Attempt
	calls   int
}

func (m *mockParser) ParseDetailed(_ context.Context, _ string) parser.Attempt {
	m.calls++
	return m.attempt
}

type mockRecorder struct {
	mu   sync.Mutex
	outs []domain.ModelOutput
	err  error
}

func (m *mockRecorder) Record(_ context.Context, out *domain.ModelOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outs = append(m.outs, *out)
	return m.err
}

type failingStore struct {
	*memstore.Store
	err error
}

func (f *failingStore) Create(context.Context, string, domain.NewTransaction) (*domain.Transaction, error) {
	return nil, f.err
}

func okAttempt(c domain.Candidate) parser.Attempt {
	return parser.Attempt{Result: domain.Success(c), Raw: "{...}", Provider: "fake", Duration: 5 * time.Millisecond}
}

func newTxService(p service.TextParser, rec *mockRecorder) (*service.TransactionService, *memstore.Store, *service.AnalyticsService, *observability.Metrics) {
	store := memstore.New()
	m := observability.NewMetrics()
	analytics := service.NewAnalyticsService(store, cache.New[any](time.Minute), m, zap.NewNop())
	var recorder interface {
		Record(context.Context, *domain.ModelOutput) error
	}
	if rec != nil {
		recorder = rec
	}
	return service.NewTransactionService(p, store, recorder, analytics, m, zap.NewNop()), store, analytics, m
}

func amount(v float64) *float64 { return &v }

// --- Parse ---

func TestParse_Success(t *testing.T) {
	p := &mockParser{attempt: okAttempt(domain.Candidate{
		"amount": -23.456, "category": "food", "description": "Pizza night",
	})}
	rec := &mockRecorder{}
	svc, _, _, metrics := newTxService(p, rec)

	parsed, err := svc.Parse(context.Background(), "u1", "  Pizza night $23.46  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Amount != 23.46 {
		t.Errorf("expected 23.46, got %v", parsed.Amount)
	}
	if parsed.Category != domain.CategoryFood {
		t.Errorf("expected FOOD, got %s", parsed.Category)
	}
	if parsed.Confidence != domain.DefaultConfidence {
		t.Errorf("expected default confidence, got %v", parsed.Confidence)
	}
	if parsed.Type != domain.TypeExpense {
		t.Errorf("expected EXPENSE, got %s", parsed.Type)
	}
	if got := metrics.ParseOutcomeCount("Success"); got != 1 {
		t.Errorf("expected 1 success outcome, got %v", got)
	}
	if len(rec.outs) != 1 || !rec.outs[0].Success || rec.outs[0].Input != "Pizza night $23.46" {
		t.Errorf("unexpected audit records: %+v", rec.outs)
	}
}

func TestParse_EmptyTextNeverReachesParser(t *testing.T) {
	p := &mockParser{}
	svc, _, _, _ := newTxService(p, nil)

	_, err := svc.Parse(context.Background(), "u1", "   ")
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if p.calls != 0 {
		t.Errorf("parser should not be called, got %d calls", p.calls)
	}
}

func TestParse_FailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		attempt parser.Attempt
		want    domain.FailureKind
	}{
		{"transport", parser.Attempt{Result: domain.Failure(domain.FailureTransport, "dial tcp: refused"), Provider: "fake"}, domain.FailureTransport},
		{"empty", parser.Attempt{Result: domain.Failure(domain.FailureEmptyResponse, ""), Provider: "fake"}, domain.FailureEmptyResponse},
		{"no json", parser.Attempt{Result: domain.Failure(domain.FailureNoJSONFound, ""), Provider: "fake"}, domain.FailureNoJSONFound},
		{"missing description", okAttempt(domain.Candidate{"amount": 5.0}), domain.FailureValidation},
		{"non-numeric amount", okAttempt(domain.Candidate{"amount": "lots", "description": "x"}), domain.FailureValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{}
			svc, _, _, metrics := newTxService(&mockParser{attempt: tt.attempt}, rec)

			parsed, err := svc.Parse(context.Background(), "u1", "something")
			if parsed != nil {
				t.Fatalf("expected no partial result, got %+v", parsed)
			}
			var pe *domain.ErrParse
			if !errors.As(err, &pe) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			if pe.Failure.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, pe.Failure.Kind)
			}
			if got := metrics.ParseOutcomeCount(string(tt.want)); got != 1 {
				t.Errorf("expected outcome counted once, got %v", got)
			}
			if len(rec.outs) != 1 || rec.outs[0].Success || rec.outs[0].Failure != tt.want {
				t.Errorf("unexpected audit records: %+v", rec.outs)
			}
		})
	}
}

func TestParse_AuditFailureIsNotFatal(t *testing.T) {
	p := &mockParser{attempt: okAttempt(domain.Candidate{"amount": 4.0, "description": "Coffee"})}
	svc, _, _, _ := newTxService(p, &mockRecorder{err: errors.New("mongo down")})

	if _, err := svc.Parse(context.Background(), "u1", "coffee 4"); err != nil {
		t.Fatalf("expected audit errors to be swallowed, got %v", err)
	}
}

// --- CRUD ---

func TestCreateListUpdateDelete(t *testing.T) {
	svc, _, _, _ := newTxService(&mockParser{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", &domain.TransactionRequest{
		Type: "expense", Amount: amount(12.345), Currency: "usd", Category: "food", Description: "Lunch",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Amount != 12.35 || created.Currency != "USD" || created.Type != domain.TypeExpense {
		t.Errorf("unexpected normalised transaction: %+v", created)
	}

	txs, err := svc.List(ctx, "u1")
	if err != nil || len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d (%v)", len(txs), err)
	}

	updated, err := svc.Update(ctx, created.ID, "u1", &domain.TransactionRequest{
		Type: "EXPENSE", Amount: amount(15), Currency: "USD", Category: "FOOD", Description: "Dinner",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "Dinner" {
		t.Errorf("expected Dinner, got %s", updated.Description)
	}

	if err := svc.Delete(ctx, created.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	txs, _ = svc.List(ctx, "u1")
	if len(txs) != 0 {
		t.Errorf("expected empty list, got %d", len(txs))
	}
}

func TestCreate_ValidationError(t *testing.T) {
	svc, _, _, _ := newTxService(&mockParser{}, nil)

	_, err := svc.Create(context.Background(), "u1", &domain.TransactionRequest{Type: "GIFT", Amount: amount(-1)})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(ve.Fields) < 3 {
		t.Errorf("expected every field problem reported, got %+v", ve.Fields)
	}
}

func TestUpdateDelete_OtherUserGetsNotFound(t *testing.T) {
	svc, _, _, _ := newTxService(&mockParser{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner", &domain.TransactionRequest{
		Type: "EXPENSE", Amount: amount(5), Currency: "USD", Description: "Snack",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(ctx, created.ID, "intruder", &domain.TransactionRequest{
		Type: "EXPENSE", Amount: amount(500), Currency: "USD", Description: "Hacked",
	})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	if err := svc.Delete(ctx, created.ID, "intruder"); !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}

	txs, _ := svc.List(ctx, "owner")
	if len(txs) != 1 || txs[0].Description != "Snack" {
		t.Errorf("owner's transaction must be untouched, got %+v", txs)
	}
}

func TestCreate_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	store := &failingStore{Store: memstore.New(), err: boom}
	svc := service.NewTransactionService(&mockParser{}, store, nil, nil, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Create(context.Background(), "u1", &domain.TransactionRequest{
		Type: "EXPENSE", Amount: amount(1), Currency: "USD", Description: "x",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestMutationsInvalidateAnalyticsCache(t *testing.T) {
	svc, _, analytics, _ := newTxService(&mockParser{}, nil)
	ctx := context.Background()

	sum, err := analytics.Summary(ctx, "u1")
	if err != nil || sum.Expenses != 0 {
		t.Fatalf("unexpected initial summary %+v (%v)", sum, err)
	}

	if _, err := svc.Create(ctx, "u1", &domain.TransactionRequest{
		Type: "EXPENSE", Amount: amount(20), Currency: "USD", Description: "Taxi",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	sum, err = analytics.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Expenses != 20 {
		t.Errorf("expected cache to be invalidated and expenses 20, got %v", sum.Expenses)
	}
}
