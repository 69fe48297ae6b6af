package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject, email string, exp time.Time) string {
	t.Helper()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestTokenParserVerifiesWithSecret(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signToken(t, "s3cret", "user-1", "a@b.co", exp)

	claims, err := NewTokenParser("s3cret").Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@b.co" || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := NewTokenParser("other").Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenParserRejectsExpiredWhenVerifying(t *testing.T) {
	raw := signToken(t, "s3cret", "user-1", "", time.Now().Add(-time.Minute))
	if _, err := NewTokenParser("s3cret").Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenParserUnverifiedReadsSubject(t *testing.T) {
	raw := signToken(t, "unknown-to-client", "user-9", "", time.Now().Add(time.Hour))
	p := NewTokenParser("")
	if p.Verifies() {
		t.Fatalf("parser without secret should not verify")
	}
	claims, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-9" {
		t.Fatalf("expected subject user-9, got %q", claims.Subject)
	}
}

func TestTokenParserRequiresSubject(t *testing.T) {
	raw := signToken(t, "k", "", "", time.Now().Add(time.Hour))
	if _, err := NewTokenParser("k").Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected missing subject to fail, got %v", err)
	}
	if _, err := NewTokenParser("").Parse("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage to fail, got %v", err)
	}
}
