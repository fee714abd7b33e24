package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("parser")

// Attempt is one run of the pipeline together with what the model said.
type Attempt struct {
	Result   domain.ParseResult
	Raw      string
	Provider string
	Duration time.Duration
}

// Parser runs an Extractor and normalizes its reply.
// It holds no per-call state and is safe for concurrent use.
type Parser struct {
	extractor port.Extractor
	normalize func(string) domain.ParseResult
	bulkhead  *resilience.Bulkhead
	logger    *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrictJSON switches payload extraction to the balanced-brace scanner.
func WithStrictJSON(strict bool) Option {
	return func(p *Parser) {
		if strict {
			p.normalize = NormalizeStrict
		} else {
			p.normalize = Normalize
		}
	}
}

// WithBulkhead limits how many extractor calls may be in flight at once.
func WithBulkhead(b *resilience.Bulkhead) Option {
	return func(p *Parser) { p.bulkhead = b }
}

// New creates a Parser around the given extractor.
func New(extractor port.Extractor, logger *zap.Logger, opts ...Option) *Parser {
	p := &Parser{
		extractor: extractor,
		normalize: Normalize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provider returns the name of the underlying extractor.
func (p *Parser) Provider() string {
	return p.extractor.Name()
}

// Parse returns exactly one of a candidate or a failure.
func (p *Parser) Parse(ctx context.Context, text string) domain.ParseResult {
	return p.ParseDetailed(ctx, text).Result
}

// ParseDetailed is Parse plus the raw reply and timing, for auditing.
func (p *Parser) ParseDetailed(ctx context.Context, text string) Attempt {
	ctx, span := tracer.Start(ctx, "Parser.Parse")
	defer span.End()

	att := Attempt{Provider: p.extractor.Name()}
	span.SetAttributes(attribute.String("llm.provider", att.Provider))

	start := time.Now()
	raw, err := p.extract(ctx, text)
	att.Duration = time.Since(start)
	att.Raw = raw

	if err != nil {
		att.Result = domain.Failure(domain.FailureTransport, err.Error())
	} else {
		att.Result = p.normalize(raw)
	}

	if !att.Result.OK() {
		span.SetAttributes(attribute.String("parse.failure", string(att.Result.Failure.Kind)))
		p.logger.Debug("parse failed",
			zap.String("provider", att.Provider),
			zap.String("kind", string(att.Result.Failure.Kind)),
			zap.String("detail", att.Result.Failure.Detail),
		)
	}
	return att
}

func (p *Parser) extract(ctx context.Context, text string) (raw string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if p.bulkhead != nil {
		if err := p.bulkhead.Acquire(ctx); err != nil {
			return "", fmt.Errorf("waiting for extractor slot: %w", err)
		}
		defer p.bulkhead.Release()
	}

	defer func() {
		if r := recover(); r != nil {
			raw, err = "", fmt.Errorf("extractor panic: %v", r)
		}
	}()

	raw, err = p.extractor.Extract(ctx, text)
	if err == nil && ctx.Err() != nil {
		// a reply that arrives after cancellation is discarded
		return raw, fmt.Errorf("extraction cancelled: %w", ctx.Err())
	}
	return raw, err
}
