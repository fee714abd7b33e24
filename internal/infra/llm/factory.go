package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/finance-ai-tracker-go/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
}

// NewExtractor builds the adapter named by s.Provider.
func NewExtractor(ctx context.Context, s Settings, httpClient *http.Client, cb *gobreaker.CircuitBreaker, logger *zap.Logger) (port.Extractor, error) {
	switch strings.ToLower(s.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIExtractor(httpClient, s.OpenAIBaseURL, s.OpenAIAPIKey, s.OpenAIModel, cb, logger), nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, s.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiExtractor(client.Models, s.GeminiModel, cb, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}
