package google_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/google"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubValidator(p *idtoken.Payload, err error, gotAudience *string) google.ValidateFunc {
	return func(_ context.Context, _ string, audience string) (*idtoken.Payload, error) {
		if gotAudience != nil {
			*gotAudience = audience
		}
		return p, err
	}
}

func TestVerifier_Success(t *testing.T) {
	var aud string
	v := google.NewVerifierWithValidator("client-123", stubValidator(&idtoken.Payload{
		Subject: "g-42",
		Claims: map[string]any{
			"email":          "ana@example.com",
			"email_verified": true,
			"name":           "Ana",
			"picture":        "https://example.com/a.png",
		},
	}, nil, &aud))

	id, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, "client-123", aud)
	assert.Equal(t, &domain.GoogleIdentity{
		Subject: "g-42", Email: "ana@example.com", Name: "Ana", Picture: "https://example.com/a.png",
	}, id)
}

func TestVerifier_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		payload *idtoken.Payload
		err     error
		check   func(t *testing.T, err error)
	}{
		{
			name:  "empty token",
			token: "",
			check: func(t *testing.T, err error) {
				var v *domain.ErrValidation
				assert.ErrorAs(t, err, &v)
			},
		},
		{
			name:  "invalid signature",
			token: "t",
			err:   errors.New("idtoken: invalid token"),
			check: func(t *testing.T, err error) {
				var u *domain.ErrUnauthorized
				assert.ErrorAs(t, err, &u)
			},
		},
		{
			name:    "no email",
			token:   "t",
			payload: &idtoken.Payload{Subject: "s", Claims: map[string]any{}},
			check: func(t *testing.T, err error) {
				var u *domain.ErrUnauthorized
				assert.ErrorAs(t, err, &u)
			},
		},
		{
			name:    "unverified email",
			token:   "t",
			payload: &idtoken.Payload{Subject: "s", Claims: map[string]any{"email": "a@b.c", "email_verified": false}},
			check: func(t *testing.T, err error) {
				var u *domain.ErrUnauthorized
				require.ErrorAs(t, err, &u)
				assert.Contains(t, u.Message, "not verified")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := google.NewVerifierWithValidator("client", stubValidator(tt.payload, tt.err, nil))
			id, err := v.Verify(context.Background(), tt.token)
			assert.Nil(t, id)
			tt.check(t, err)
		})
	}
}

func TestVerifier_MissingClientID(t *testing.T) {
	v := google.NewVerifierWithValidator("", stubValidator(&idtoken.Payload{}, nil, nil))
	_, err := v.Verify(context.Background(), "t")
	require.Error(t, err)
}
