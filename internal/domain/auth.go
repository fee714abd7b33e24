package domain

import "time"

// ============================================================
// Auth — Request / Response types
// ============================================================

// User is an account created on first Google sign-in.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	GoogleID  string    `json:"googleId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoogleIdentity is what a verified Google ID token tells us about the caller.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Identity is the verified caller attached to a request by the auth gate.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// GoogleLoginRequest is the body for POST /api/auth/google.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// LoginResponse is the body for 200 from POST /api/auth/google.
type LoginResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}
