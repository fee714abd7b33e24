// Package validator checks transaction payloads and turns model candidates
// into the caller-facing parsed view.
package validator

import (
	"math"
	"strings"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxTextLength bounds the free text sent to the model.
const MaxTextLength = 1000

// RoundAmount rounds to two decimal places, half away from zero.
func RoundAmount(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ParseText validates the body of a parse request and returns the trimmed text.
func ParseText(text string) (string, error) {
	t := strings.TrimSpace(text)
	switch {
	case t == "":
		return "", &domain.ErrValidation{Field: "text", Message: "must not be empty"}
	case len([]rune(t)) > MaxTextLength:
		return "", &domain.ErrValidation{Field: "text", Message: "must be at most 1000 characters"}
	}
	return t, nil
}

// ValidateTransaction checks a create/update payload. All problems are reported
// together. now is used when occurredAt is absent.
func ValidateTransaction(req *domain.TransactionRequest, now time.Time) (domain.NewTransaction, error) {
	var (
		out    domain.NewTransaction
		issues []domain.FieldError
	)
	add := func(field, msg string) {
		issues = append(issues, domain.FieldError{Field: field, Message: msg})
	}

	if req == nil {
		return out, &domain.ErrValidation{Field: "body", Message: "required"}
	}

	out.Type = domain.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !out.Type.Valid() {
		add("type", "must be one of INCOME, EXPENSE, TRANSFER")
	}

	switch {
	case req.Amount == nil:
		add("amount", "required")
	case math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0):
		add("amount", "must be a finite number")
	default:
		out.Amount = RoundAmount(*req.Amount)
		if out.Amount <= 0 {
			add("amount", "must be positive")
		}
	}

	out.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if out.Currency == "" {
		add("currency", "must not be empty")
	}

	if c := strings.TrimSpace(req.Category); c == "" {
		out.Category = domain.CategoryOther
	} else {
		out.Category = domain.Category(strings.ToUpper(c))
		if !out.Category.Valid() {
			add("category", "unknown category")
		}
	}

	out.Description = strings.TrimSpace(req.Description)
	if out.Description == "" {
		add("description", "must not be empty")
	}

	if req.Merchant != nil {
		if m := strings.TrimSpace(*req.Merchant); m != "" {
			out.Merchant = &m
		}
	}

	if req.OccurredAt == "" {
		out.OccurredAt = now.UTC()
	} else {
		t, err := time.Parse(time.RFC3339Nano, req.OccurredAt)
		if err != nil {
			add("occurredAt", "must be an RFC 3339 datetime")
		} else {
			out.OccurredAt = t.UTC()
		}
	}

	if v := domain.NewValidationError(issues); v != nil {
		return domain.NewTransaction{}, v
	}
	return out, nil
}

// ParsedFromCandidate applies defaults to a model candidate. It never returns
// a partially filled result: a missing amount or description is an error.
func ParsedFromCandidate(c domain.Candidate) (*domain.ParsedTransaction, error) {
	var issues []domain.FieldError

	amount, ok := c.Number("amount")
	if !ok || math.IsNaN(amount) || math.IsInf(amount, 0) {
		issues = append(issues, domain.FieldError{Field: "amount", Message: "missing or not a number"})
	} else {
		amount = RoundAmount(math.Abs(amount))
		if amount == 0 {
			issues = append(issues, domain.FieldError{Field: "amount", Message: "must be non-zero"})
		}
	}

	description, ok := c.String("description")
	if !ok {
		issues = append(issues, domain.FieldError{Field: "description", Message: "missing"})
	}

	if v := domain.NewValidationError(issues); v != nil {
		return nil, v
	}

	rawCategory, _ := c.String("category")
	category := domain.NormalizeCategory(rawCategory)

	confidence := domain.DefaultConfidence
	if v, ok := c.Number("confidence"); ok && !math.IsNaN(v) {
		confidence = math.Max(0, math.Min(1, v))
	}

	txType := inferType(c, category)

	currency, _ := c.String("currency")
	date, _ := c.String("date")
	merchant, _ := c.String("merchant")

	return &domain.ParsedTransaction{
		Amount:      amount,
		Category:    category,
		Description: description,
		Confidence:  confidence,
		Type:        txType,
		Currency:    strings.ToUpper(currency),
		Date:        date,
		Merchant:    merchant,
	}, nil
}

func inferType(c domain.Candidate, category domain.Category) domain.TransactionType {
	if raw, ok := c.String("type"); ok {
		if t := domain.TransactionType(strings.ToUpper(raw)); t.Valid() {
			return t
		}
	}
	if category == domain.CategoryIncome {
		return domain.TypeIncome
	}
	return domain.TypeExpense
}
