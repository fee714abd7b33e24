// Package llm holds the language model adapters that turn free text into a
// raw JSON reply. Adapters make one call per request and never retry.
package llm

import (
	"strings"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("llm")

// SystemInstruction is sent with every extraction request.
var SystemInstruction = buildInstruction()

func buildInstruction() string {
	cats := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		cats = append(cats, string(c))
	}

	return "You are a finance assistant that extracts structured transactions.\n\n" +
		"Read the user's message and return a single JSON object with these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\", or null if not mentioned\n" +
		"- \"amount\": number, the transaction amount\n" +
		"- \"currency\": string, ISO 4217 code (e.g. \"USD\"), or null if unknown\n" +
		"- \"category\": string, one of: " + strings.Join(cats, ", ") + "\n" +
		"- \"description\": string, a short description\n" +
		"- \"type\": string, one of INCOME, EXPENSE, TRANSFER\n" +
		"- \"merchant\": string or null\n" +
		"- \"confidence\": number between 0 and 1\n\n" +
		"Return ONLY the JSON object. Do NOT wrap it in code fences or add commentary."
}
