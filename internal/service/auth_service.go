package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const (
	tokenTypeAccess = "access"
	tokenIssuer     = "finance-ai-tracker"
)

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// AuthService exchanges a Google ID token for an app session token.
type AuthService struct {
	verifier  port.GoogleVerifier
	users     port.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(verifier port.GoogleVerifier, users port.UserStore, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		verifier:  verifier,
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// TokenTTL is how long issued tokens stay valid; the handler uses it for the cookie.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// ============================================================
// Google login — POST /api/auth/google
// ============================================================

func (s *AuthService) GoogleLogin(ctx context.Context, req *domain.GoogleLoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.GoogleLogin")
	defer span.End()

	if req == nil || strings.TrimSpace(req.IDToken) == "" {
		return nil, &domain.ErrValidation{Field: "idToken", Message: "is required"}
	}

	identity, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		s.logger.Warn("google token rejected", zap.Error(err))
		return nil, err
	}

	user, err := s.users.UpsertByEmail(ctx, &domain.User{
		Email:    strings.ToLower(identity.Email),
		Name:     identity.Name,
		Picture:  identity.Picture,
		GoogleID: identity.Subject,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.signAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &domain.LoginResponse{Message: "Logged in", User: user, Token: token}, nil
}

// Profile returns the logged-in user.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Profile")
	defer span.End()

	return s.users.GetByID(ctx, userID)
}

// ============================================================
// ValidateAccessToken — used by middleware
// ============================================================

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess || claims.Sub == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(userID, email string) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Sub:   userID,
		Email: email,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
