package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGoTrueRequestAndVerify(t *testing.T) {
	var gotOTP otpRequest
	var gotVerify verifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("missing apikey header on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/auth/v1/otp":
			_ = json.NewDecoder(r.Body).Decode(&gotOTP)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		case "/auth/v1/verify":
			_ = json.NewDecoder(r.Body).Decode(&gotVerify)
			if gotVerify.Token != "123456" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"msg":"Token has expired or is invalid"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"refresh_token":"ref","user":{"id":"user-1","email":"me@example.com"}}`))
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	g := NewGoTrue(srv.URL+"/", "anon", time.Second)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	if err := g.RequestCode(ctx, "me@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	if gotOTP.Email != "me@example.com" || !gotOTP.CreateUser {
		t.Fatalf("unexpected otp body %+v", gotOTP)
	}

	if _, err := g.VerifyCode(ctx, "me@example.com", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	sess, err := g.VerifyCode(ctx, "me@example.com", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotVerify.Type != "email" {
		t.Fatalf("expected email verification type, got %q", gotVerify.Type)
	}
	if sess.UserID != "user-1" || sess.AccessToken != "tok" || sess.RefreshToken != "ref" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour out, got %v", sess.ExpiresAt)
	}

	if err := g.SignOut(ctx, "tok"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if err := g.SignOut(ctx, ""); err != nil {
		t.Fatalf("sign out without token: %v", err)
	}
}

func TestGoTrueSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"msg":"rate limited"}`))
	}))
	defer srv.Close()

	err := NewGoTrue(srv.URL, "", time.Second).RequestCode(context.Background(), "me@example.com")
	if err == nil {
		t.Fatalf("expected error on 429")
	}
	if errors.Is(err, ErrInvalidCode) {
		t.Fatalf("rate limit must not look like a bad code: %v", err)
	}
}
