package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type mockVerifier struct {
	identity *domain.GoogleIdentity
	err      error
}

func (m *mockVerifier) Verify(_ context.Context, _ string) (*domain.GoogleIdentity, error) {
	return m.identity, m.err
}

const testSecret = "test-secret"

func newAuth(v *mockVerifier) *service.AuthService {
	return service.NewAuthService(v, memstore.New(), testSecret, time.Hour, zap.NewNop())
}

func TestGoogleLogin_IssuesTokenAndUpserts(t *testing.T) {
	v := &mockVerifier{identity: &domain.GoogleIdentity{Subject: "g-123", Email: "Ana@Example.com", Name: "Ana"}}
	svc := newAuth(v)
	ctx := context.Background()

	first, err := svc.GoogleLogin(ctx, &domain.GoogleLoginRequest{IDToken: "google-token"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.User.Email != "ana@example.com" {
		t.Errorf("expected lower-cased email, got %s", first.User.Email)
	}
	if first.Token == "" {
		t.Fatal("expected a token")
	}

	claims, err := svc.ValidateAccessToken(first.Token)
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	if claims.Sub != first.User.ID || claims.Email != "ana@example.com" || claims.Type != "access" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	v.identity.Name = "Ana Maria"
	second, err := svc.GoogleLogin(ctx, &domain.GoogleLoginRequest{IDToken: "google-token"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("expected the same user on repeated login")
	}

	profile, err := svc.Profile(ctx, first.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Name != "Ana Maria" {
		t.Errorf("expected refreshed name, got %s", profile.Name)
	}
}

func TestGoogleLogin_Rejections(t *testing.T) {
	svc := newAuth(&mockVerifier{err: &domain.ErrUnauthorized{Message: "bad token"}})

	_, err := svc.GoogleLogin(context.Background(), &domain.GoogleLoginRequest{})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation for empty token, got %v", err)
	}

	_, err = svc.GoogleLogin(context.Background(), &domain.GoogleLoginRequest{IDToken: "forged"})
	var ue *domain.ErrUnauthorized
	if !errors.As(err, &ue) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	svc := newAuth(&mockVerifier{})

	sign := func(secret string, claims service.JWTClaims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign("other", service.JWTClaims{Sub: "u1", Type: "access", RegisteredClaims: valid}, jwt.SigningMethodHS256)},
		{"expired", sign(testSecret, service.JWTClaims{Sub: "u1", Type: "access", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256)},
		{"wrong type", sign(testSecret, service.JWTClaims{Sub: "u1", Type: "refresh", RegisteredClaims: valid}, jwt.SigningMethodHS256)},
		{"missing subject", sign(testSecret, service.JWTClaims{Type: "access", RegisteredClaims: valid}, jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			var ue *domain.ErrUnauthorized
			if !errors.As(err, &ue) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
