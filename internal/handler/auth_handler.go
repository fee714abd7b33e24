package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Auth — /api/auth
// ============================================================

func googleLoginHandler(authSvc *service.AuthService, secure bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/google")
		defer span.End()

		var req domain.GoogleLoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := authSvc.GoogleLogin(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		http.SetCookie(w, sessionCookie(resp.Token, authSvc.TokenTTL(), secure))
		writeJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, sessionCookie("", -1, secure))
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Logged out"})
	}
}

func profileHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/auth/profile")
		defer span.End()

		id, _ := IdentityFromContext(ctx)
		user, err := authSvc.Profile(ctx, id.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// sessionCookie builds the token cookie. A negative ttl expires it.
func sessionCookie(value string, ttl time.Duration, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     tokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
