// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"strings"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"go.opentelemetry.io/otel"
	"google.golang.org/api/idtoken"
)

var tracer = otel.Tracer("google")

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Verifier checks ID tokens against a single OAuth client ID.
type Verifier struct {
	clientID string
	validate ValidateFunc
}

// NewVerifier creates a verifier backed by idtoken.Validate.
func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// NewVerifierWithValidator is NewVerifier with a custom validation function.
func NewVerifierWithValidator(clientID string, fn ValidateFunc) *Verifier {
	return &Verifier{clientID: clientID, validate: fn}
}

// Verify implements port.GoogleVerifier.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.GoogleIdentity, error) {
	ctx, span := tracer.Start(ctx, "Google.Verify")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, &domain.ErrValidation{Field: "idToken", Message: "required"}
	}
	if v.clientID == "" {
		return nil, errors.New("google client id is not configured")
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid Google ID token"}
	}

	id := &domain.GoogleIdentity{
		Subject: payload.Subject,
		Email:   claim(payload, "email"),
		Name:    claim(payload, "name"),
		Picture: claim(payload, "picture"),
	}
	if id.Email == "" {
		return nil, &domain.ErrUnauthorized{Message: "Google account has no email"}
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, &domain.ErrUnauthorized{Message: "Google email is not verified"}
	}
	return id, nil
}

func claim(p *idtoken.Payload, key string) string {
	s, _ := p.Claims[key].(string)
	return s
}
