package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/config"
	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/llm"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-ai-tracker-go/internal/parser"
	"github.com/boddenberg/finance-ai-tracker-go/internal/validator"
)

// output is what every command prints.
type output struct {
	Result domain.ParseResult        `json:"result"`
	Parsed *domain.ParsedTransaction `json:"parsed,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

type parseCmd struct {
	Provider string   `help:"Override LLM_PROVIDER (openai or gemini)."`
	Model    string   `help:"Override the provider's model."`
	Strict   bool     `help:"Use the balanced-brace JSON scanner."`
	Text     []string `arg required help:"Free text describing one transaction."`
}

func (c *parseCmd) Run(g *globals) error {
	cfg, err := config.Load(g.EnvFile)
	if err != nil {
		return err
	}
	if c.Provider != "" {
		cfg.LLMProvider = strings.ToLower(c.Provider)
	}

	settings := llm.Settings{
		Provider:      cfg.LLMProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
	}
	if c.Model != "" {
		settings.OpenAIModel = c.Model
		settings.GeminiModel = c.Model
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
	defer cancel()

	extractor, err := llm.NewExtractor(ctx, settings, &http.Client{Timeout: cfg.HTTPTimeout},
		resilience.NewCircuitBreaker("txparse"), logger)
	if err != nil {
		return err
	}

	text, err := validator.ParseText(strings.Join(c.Text, " "))
	if err != nil {
		return err
	}

	p := parser.New(extractor, logger, parser.WithStrictJSON(c.Strict || cfg.ParserStrictJSON))
	return report(os.Stdout, p.Parse(ctx, text), g.Pretty)
}

type normalizeCmd struct {
	Strict bool   `help:"Use the balanced-brace JSON scanner."`
	Raw    string `arg optional help:"Raw model reply. Read from stdin when omitted."`
}

func (c *normalizeCmd) Run(g *globals) error {
	raw := c.Raw
	if raw == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = string(b)
	}

	normalize := parser.Normalize
	if c.Strict {
		normalize = parser.NormalizeStrict
	}
	return report(os.Stdout, normalize(raw), g.Pretty)
}

type promptCmd struct{}

func (c *promptCmd) Run(g *globals) error {
	_, err := fmt.Fprintln(os.Stdout, llm.SystemInstruction)
	return err
}

// report prints the result and returns an error when nothing usable came out.
func report(w io.Writer, res domain.ParseResult, pretty bool) error {
	out := output{Result: res}
	var failure error
	if res.OK() {
		parsed, err := validator.ParsedFromCandidate(res.Candidate)
		if err != nil {
			out.Error = err.Error()
			failure = err
		}
		out.Parsed = parsed
	} else {
		out.Error = res.Failure.Reason
		failure = errors.New(res.Failure.Reason)
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return err
	}
	return failure
}
