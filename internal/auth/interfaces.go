package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when no auth provider is configured.
	ErrUnavailable  = errors.New("sign-in is not available")
	ErrInvalidCode  = errors.New("invalid or expired code")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidToken = errors.New("invalid access token")
)

// Session is a signed-in account as persisted between runs.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry. A session
// without an expiry never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Provider interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

type SessionStore interface {
	LoadSession(ctx context.Context) (Session, bool, error)
	SaveSession(ctx context.Context, sess Session) error
	DeleteSession(ctx context.Context) error
}
