package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderGemini = "gemini"

	DefaultGeminiModel = "gemini-2.5-flash"
)

// ContentGenerator is the slice of *genai.Models the adapter needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor calls Gemini through the GenAI SDK.
type GeminiExtractor struct {
	models ContentGenerator
	model  string
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewGeminiClient builds a GenAI client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiExtractor creates a Gemini adapter over models (usually client.Models).
func NewGeminiExtractor(models ContentGenerator, model string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *GeminiExtractor {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{models: models, model: model, cb: cb, logger: logger}
}

// Name implements port.Extractor.
func (g *GeminiExtractor) Name() string { return ProviderGemini }

// Extract sends text to Gemini in JSON mode and returns the reply text verbatim.
func (g *GeminiExtractor) Extract(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "Gemini.Extract")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.model))

	raw, err := resilience.Guard(g.cb, ProviderGemini, func() (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
		})
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", errors.New("gemini returned no candidates")
		}
		return resp.Text(), nil
	})
	if err != nil {
		var open *domain.ErrCircuitOpen
		if errors.As(err, &open) {
			return "", err
		}
		return "", &domain.ErrExternalService{Service: ProviderGemini, Err: err}
	}

	g.logger.Debug("gemini: completion received", zap.String("model", g.model), zap.Int("chars", len(raw)))
	return raw, nil
}
