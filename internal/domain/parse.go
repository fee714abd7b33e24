package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ============================================================
// Natural-language parsing — candidate, result and failures
// ============================================================

// DefaultConfidence is used when the model does not report a confidence score.
const DefaultConfidence = 0.8

// FailureKind is the closed set of ways a parse can fail.
type FailureKind string

const (
	FailureTransport      FailureKind = "TransportError"
	FailureEmptyResponse  FailureKind = "EmptyResponse"
	FailureNoJSONFound    FailureKind = "NoJsonFound"
	FailureJSONParseError FailureKind = "JsonParseError"
	FailureValidation     FailureKind = "ValidationError"
)

// Reason returns the short, stable reason string for the kind.
func (k FailureKind) Reason() string {
	switch k {
	case FailureTransport:
		return "transport error"
	case FailureEmptyResponse:
		return "no response"
	case FailureNoJSONFound:
		return "no JSON found"
	case FailureJSONParseError:
		return "parse error"
	case FailureValidation:
		return "validation error"
	}
	return "unknown"
}

// ParseFailure describes why a parse did not produce a candidate.
// Detail is diagnostic only and must not be shown to end users.
type ParseFailure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
	Detail string      `json:"detail,omitempty"`
}

// NewParseFailure builds a failure with the kind's canonical reason.
func NewParseFailure(kind FailureKind, detail string) *ParseFailure {
	return &ParseFailure{Kind: kind, Reason: kind.Reason(), Detail: detail}
}

// Candidate is the unvalidated object the model produced.
// Field access is best-effort; validation belongs to the caller.
type Candidate map[string]any

// String returns a trimmed string field and whether it was present as a non-empty string.
func (c Candidate) String(key string) (string, bool) {
	v, ok := c[key].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Number returns a numeric field. Numeric strings such as "12.50" are accepted
// because some models quote numbers.
func (c Candidate) Number(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case string:
		f, err := json.Number(strings.TrimPrefix(strings.TrimSpace(v), "$")).Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseResult is the tagged outcome of one parse call. Exactly one of
// Candidate or Failure is set.
type ParseResult struct {
	Candidate Candidate     `json:"candidate,omitempty"`
	Failure   *ParseFailure `json:"failure,omitempty"`
}

// Success wraps a candidate.
func Success(c Candidate) ParseResult {
	return ParseResult{Candidate: c}
}

// Failure wraps a failure of the given kind.
func Failure(kind FailureKind, detail string) ParseResult {
	return ParseResult{Failure: NewParseFailure(kind, detail)}
}

// OK reports whether the result is a success.
func (r ParseResult) OK() bool {
	return r.Failure == nil
}

// ParsedTransaction is the caller-facing view of a candidate after defaults were applied.
type ParsedTransaction struct {
	Amount      float64         `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"`
	Type        TransactionType `json:"type"`
	Currency    string          `json:"currency,omitempty"`
	Date        string          `json:"date,omitempty"`
	Merchant    string          `json:"merchant,omitempty"`
}

// ParseRequest is the body for POST /api/transactions/parse.
type ParseRequest struct {
	Text string `json:"text"`
}

// ParseResponse is returned by POST /api/transactions/parse.
type ParseResponse struct {
	Success bool               `json:"success"`
	Parsed  *ParsedTransaction `json:"parsed,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ModelOutput is an audit record of one extraction attempt.
type ModelOutput struct {
	ID         string      `json:"id" bson:"_id"`
	UserID     string      `json:"userId" bson:"user_id"`
	Provider   string      `json:"provider" bson:"provider"`
	Input      string      `json:"input" bson:"input"`
	Raw        string      `json:"raw" bson:"raw"`
	Success    bool        `json:"success" bson:"success"`
	Failure    FailureKind `json:"failure,omitempty" bson:"failure,omitempty"`
	Detail     string      `json:"detail,omitempty" bson:"detail,omitempty"`
	DurationMs int64       `json:"durationMs" bson:"duration_ms"`
	CreatedAt  time.Time   `json:"createdAt" bson:"created_at"`
}
