package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the state of one signed-in user. It is created by a successful
// login, handed explicitly to operations that need authentication, and
// discarded on logout.
type Session struct {
	ID           string
	User         User
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the access token's exp claim; zero when unknown.
	ExpiresAt time.Time
	// Offline is set when the session was opened from cached credentials and
	// carries no tokens.
	Offline   bool
	CreatedAt time.Time
}

// NewSession builds a session from a login response. The access token's
// expiry is read from its claims without verifying the signature; the
// server remains the authority on validity.
func NewSession(user User, accessToken, refreshToken string, now time.Time) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
	}
	s.ExpiresAt = tokenExpiry(accessToken)
	return s
}

// NewOfflineSession opens a token-less session for a user verified locally.
func NewOfflineSession(email string, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		User:      User{Email: email},
		Offline:   true,
		CreatedAt: now,
	}
}

// Authorized reports whether the session can sign requests at now.
func (s *Session) Authorized(now time.Time) bool {
	if s == nil || s.Offline || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
