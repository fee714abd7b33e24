package parser_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockExtractor struct {
	mu    sync.Mutex
	raw   string
	err   error
	calls int
	block chan struct{}
	panic bool
}

func (m *mockExtractor) Extract(ctx context.Context, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.panic {
		panic("boom")
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.raw, m.err
}

func (m *mockExtractor) Name() string { return "mock" }

func (m *mockExtractor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Tests ---

func TestParser_Success(t *testing.T) {
	ext := &mockExtractor{raw: "```json\n{\"amount\": 5, \"description\": \"coffee\"}\n```"}
	p := parser.New(ext, zap.NewNop())

	att := p.ParseDetailed(context.Background(), "coffee 5 bucks")
	if !att.Result.OK() {
		t.Fatalf("expected success, got %+v", att.Result.Failure)
	}
	if att.Provider != "mock" {
		t.Errorf("expected provider mock, got %s", att.Provider)
	}
	if att.Raw != ext.raw {
		t.Errorf("expected raw reply to be kept")
	}
	if ext.callCount() != 1 {
		t.Errorf("expected exactly 1 extractor call, got %d", ext.callCount())
	}
}

func TestParser_AdapterErrorIsTransportFailure(t *testing.T) {
	ext := &mockExtractor{err: &domain.ErrExternalService{Service: "openai", Err: errors.New("429 quota exceeded")}}
	p := parser.New(ext, zap.NewNop())

	res := p.Parse(context.Background(), "lunch 12")
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != domain.FailureTransport {
		t.Errorf("expected TransportError, got %s", res.Failure.Kind)
	}
	if ext.callCount() != 1 {
		t.Errorf("adapter must not be retried, got %d calls", ext.callCount())
	}
}

func TestParser_CancelledContext(t *testing.T) {
	ext := &mockExtractor{raw: `{"amount": 1}`}
	p := parser.New(ext, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Parse(ctx, "anything")
	if res.OK() || res.Failure.Kind != domain.FailureTransport {
		t.Fatalf("expected TransportError, got %+v", res)
	}
	if ext.callCount() != 0 {
		t.Errorf("cancelled call must not reach the adapter")
	}
}

// cancellingExtractor cancels the caller's context and still answers.
type cancellingExtractor struct {
	cancel context.CancelFunc
}

func (c *cancellingExtractor) Extract(context.Context, string) (string, error) {
	c.cancel()
	return `{"amount": 5, "description": "coffee"}`, nil
}

func (c *cancellingExtractor) Name() string { return "cancelling" }

func TestParser_ReplyAfterCancellationIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := parser.New(&cancellingExtractor{cancel: cancel}, zap.NewNop())

	att := p.ParseDetailed(ctx, "coffee 5")
	if att.Result.OK() {
		t.Fatalf("expected failure, got candidate %v", att.Result.Candidate)
	}
	if att.Result.Failure.Kind != domain.FailureTransport {
		t.Errorf("expected TransportError, got %s", att.Result.Failure.Kind)
	}
	if att.Result.Candidate != nil {
		t.Error("failure must not carry a candidate")
	}
}

func TestParser_CancelledWhileInFlight(t *testing.T) {
	ext := &mockExtractor{block: make(chan struct{})}
	p := parser.New(ext, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := p.Parse(ctx, "anything")
	if res.OK() || res.Failure.Kind != domain.FailureTransport {
		t.Fatalf("expected TransportError, got %+v", res)
	}
}

func TestParser_EmptyReply(t *testing.T) {
	p := parser.New(&mockExtractor{raw: "   "}, zap.NewNop())

	res := p.Parse(context.Background(), "x")
	if res.OK() || res.Failure.Kind != domain.FailureEmptyResponse {
		t.Fatalf("expected EmptyResponse, got %+v", res)
	}
}

func TestParser_PanicBecomesTransportFailure(t *testing.T) {
	p := parser.New(&mockExtractor{panic: true}, zap.NewNop())

	res := p.Parse(context.Background(), "x")
	if res.OK() || res.Failure.Kind != domain.FailureTransport {
		t.Fatalf("expected TransportError, got %+v", res)
	}
}

func TestParser_StrictOption(t *testing.T) {
	raw := `{"amount": 1} then {"amount": 2}`

	greedy := parser.New(&mockExtractor{raw: raw}, zap.NewNop())
	if res := greedy.Parse(context.Background(), "x"); res.OK() {
		t.Error("greedy extraction should fail on two objects")
	}

	strict := parser.New(&mockExtractor{raw: raw}, zap.NewNop(), parser.WithStrictJSON(true))
	res := strict.Parse(context.Background(), "x")
	if !res.OK() {
		t.Fatalf("strict extraction should succeed, got %+v", res.Failure)
	}
}

func TestParser_BulkheadFullHonoursCancellation(t *testing.T) {
	bh := resilience.NewBulkhead(1)
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer bh.Release()

	ext := &mockExtractor{raw: `{"amount": 1}`}
	p := parser.New(ext, zap.NewNop(), parser.WithBulkhead(bh))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := p.Parse(ctx, "x")
	if res.OK() || res.Failure.Kind != domain.FailureTransport {
		t.Fatalf("expected TransportError while waiting for a slot, got %+v", res)
	}
	if ext.callCount() != 0 {
		t.Errorf("adapter should not have been called")
	}
}
