package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoTrue talks to a GoTrue-compatible auth server using email one-time
// codes.
type GoTrue struct {
	client *resty.Client
	now    func() time.Time
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type verifyRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type verifyResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func NewGoTrue(baseURL, apiKey string, timeout time.Duration) *GoTrue {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("apikey", apiKey)
	}
	return &GoTrue{client: c, now: time.Now}
}

func (g *GoTrue) RequestCode(ctx context.Context, email string) error {
	var apiErr errorResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(otpRequest{Email: email, CreateUser: true}).
		SetError(&apiErr).
		Post("/auth/v1/otp")
	if err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("request code: status %d: %s", resp.StatusCode(), apiErr.text())
	}
	return nil
}

func (g *GoTrue) VerifyCode(ctx context.Context, email, code string) (Session, error) {
	var (
		out    verifyResponse
		apiErr errorResponse
	)
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(verifyRequest{Type: "email", Email: email, Token: code}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/auth/v1/verify")
	if err != nil {
		return Session{}, fmt.Errorf("verify code: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusBadRequest,
		resp.StatusCode() == http.StatusUnauthorized,
		resp.StatusCode() == http.StatusForbidden,
		resp.StatusCode() == http.StatusUnprocessableEntity:
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidCode, apiErr.text())
	case resp.IsError():
		return Session{}, fmt.Errorf("verify code: status %d: %s", resp.StatusCode(), apiErr.text())
	}
	if out.AccessToken == "" {
		return Session{}, fmt.Errorf("verify code: response carried no access token")
	}
	sess := Session{
		UserID:       out.User.ID,
		Email:        out.User.Email,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
	if sess.Email == "" {
		sess.Email = email
	}
	if out.ExpiresIn > 0 {
		sess.ExpiresAt = g.now().Add(time.Duration(out.ExpiresIn) * time.Second).UTC()
	}
	return sess, nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return fmt.Errorf("sign out: status %d", resp.StatusCode())
	}
	return nil
}
