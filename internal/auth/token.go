package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Claims are the fields of an access token the app cares about.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// TokenParser reads access tokens. With a secret it verifies HS256
// signatures and expiry; without one it only decodes the payload, which is
// enough to learn the user id of a token the provider just issued.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(strings.TrimSpace(secret))}
}

func (p *TokenParser) Verifies() bool {
	return p != nil && len(p.secret) > 0
}

func (p *TokenParser) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	claims := &accessClaims{}
	if p.Verifies() {
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			return p.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if !token.Valid {
			return Claims{}, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	out := Claims{Subject: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
