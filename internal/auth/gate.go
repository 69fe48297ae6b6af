package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"academy/internal/telemetry"
)

type SignInStatus string

const (
	StatusIdle    SignInStatus = "idle"
	StatusSending SignInStatus = "sending"
	StatusSent    SignInStatus = "sent"
	StatusError   SignInStatus = "error"
)

// State is what the rest of the app sees of authentication. An empty UserID
// is a guest. Loading stays true until Restore has run.
type State struct {
	UserID  string
	Email   string
	Loading bool

	Status       SignInStatus
	PendingEmail string
	Err          string
}

func (s State) SignedIn() bool {
	return s.UserID != ""
}

type Options struct {
	// Provider is nil when sign-in is not configured.
	Provider Provider
	Sessions SessionStore
	Tokens   *TokenParser
	Logger   *telemetry.Logger
	Now      func() time.Time
}

type Gate struct {
	provider Provider
	sessions SessionStore
	tokens   *TokenParser
	logger   *telemetry.Logger
	now      func() time.Time

	mu      sync.Mutex
	session *Session
	state   State

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

func NewGate(opts Options) *Gate {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		provider: opts.Provider,
		sessions: opts.Sessions,
		tokens:   opts.Tokens,
		logger:   opts.Logger,
		now:      now,
		state:    State{Loading: true, Status: StatusIdle},
		subs:     map[int]func(State){},
	}
}

func (g *Gate) Available() bool {
	return g.provider != nil
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// AccessToken returns the bearer token of the active session, or "".
func (g *Gate) AccessToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return ""
	}
	return g.session.AccessToken
}

// Subscribe registers fn for every state change and returns a func that
// removes it.
func (g *Gate) Subscribe(fn func(State)) func() {
	g.subMu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.subMu.Unlock()
	return func() {
		g.subMu.Lock()
		delete(g.subs, id)
		g.subMu.Unlock()
	}
}

// Restore loads the persisted session, if any, and ends the loading phase.
// Expired sessions are discarded.
func (g *Gate) Restore(ctx context.Context) State {
	var sess *Session
	if g.provider != nil && g.sessions != nil {
		loaded, ok, err := g.sessions.LoadSession(ctx)
		switch {
		case err != nil:
			g.logger.Warn("auth.restore_failed", map[string]any{"error": err.Error()})
		case ok && loaded.Expired(g.now()):
			g.logger.Info("auth.session_expired", map[string]any{"user_id": loaded.UserID})
			if err := g.sessions.DeleteSession(ctx); err != nil {
				g.logger.Warn("auth.session_delete_failed", map[string]any{"error": err.Error()})
			}
		case ok && loaded.UserID != "":
			sess = &loaded
		}
	}

	g.mu.Lock()
	g.session = sess
	g.state = State{Status: StatusIdle}
	if sess != nil {
		g.state.UserID = sess.UserID
		g.state.Email = sess.Email
	}
	st := g.state
	g.mu.Unlock()

	g.notify()
	return st
}

// SignIn asks the provider to email a one-time code.
func (g *Gate) SignIn(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if g.provider == nil {
		return ErrUnavailable
	}
	if !validEmail(email) {
		g.setStatus(StatusError, "", ErrInvalidEmail.Error())
		return ErrInvalidEmail
	}
	g.setStatus(StatusSending, email, "")
	if err := g.provider.RequestCode(ctx, email); err != nil {
		g.logger.Warn("auth.request_code_failed", map[string]any{"error": err.Error()})
		g.setStatus(StatusError, email, err.Error())
		return err
	}
	g.logger.Info("auth.code_sent", nil)
	g.setStatus(StatusSent, email, "")
	return nil
}

// Verify exchanges the emailed code for a session and signs in.
func (g *Gate) Verify(ctx context.Context, email, code string) error {
	if g.provider == nil {
		return ErrUnavailable
	}
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if code == "" {
		g.setStatus(StatusError, email, ErrInvalidCode.Error())
		return ErrInvalidCode
	}
	sess, err := g.provider.VerifyCode(ctx, email, code)
	if err != nil {
		g.logger.Warn("auth.verify_failed", map[string]any{"error": err.Error()})
		g.setStatus(StatusError, email, err.Error())
		return err
	}
	if g.tokens != nil {
		claims, err := g.tokens.Parse(sess.AccessToken)
		if err != nil {
			g.setStatus(StatusError, email, err.Error())
			return err
		}
		sess.UserID = claims.Subject
		if claims.Email != "" {
			sess.Email = claims.Email
		}
		if !claims.ExpiresAt.IsZero() {
			sess.ExpiresAt = claims.ExpiresAt
		}
	}
	if sess.UserID == "" {
		g.setStatus(StatusError, email, ErrInvalidToken.Error())
		return ErrInvalidToken
	}
	if sess.Email == "" {
		sess.Email = email
	}
	if g.sessions != nil {
		if err := g.sessions.SaveSession(ctx, sess); err != nil {
			g.logger.Warn("auth.session_save_failed", map[string]any{"error": err.Error()})
		}
	}

	g.mu.Lock()
	g.session = &sess
	g.state = State{UserID: sess.UserID, Email: sess.Email, Status: StatusIdle}
	g.mu.Unlock()

	g.logger.Info("auth.signed_in", map[string]any{"user_id": sess.UserID})
	g.notify()
	return nil
}

// SignOut clears the session. Revoking the token upstream is best effort.
func (g *Gate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	sess := g.session
	wasSignedIn := g.state.UserID != ""
	g.session = nil
	g.state = State{Status: StatusIdle}
	g.mu.Unlock()

	var errs []error
	if sess != nil && g.provider != nil {
		if err := g.provider.SignOut(ctx, sess.AccessToken); err != nil {
			g.logger.Warn("auth.revoke_failed", map[string]any{"error": err.Error()})
		}
	}
	if g.sessions != nil {
		if err := g.sessions.DeleteSession(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if wasSignedIn {
		g.logger.Info("auth.signed_out", nil)
	}
	g.notify()
	return errors.Join(errs...)
}

// ResetStatus returns the sign-in form to idle, e.g. when it is dismissed.
func (g *Gate) ResetStatus() {
	g.setStatus(StatusIdle, "", "")
}

func (g *Gate) setStatus(status SignInStatus, email, errText string) {
	g.mu.Lock()
	g.state.Status = status
	g.state.PendingEmail = email
	g.state.Err = errText
	g.mu.Unlock()
	g.notify()
}

// notify hands subscribers the state as it is when they run. Deliveries are
// serialized, so a subscriber never sees an older state after a newer one.
// Subscribers must not change the gate from inside the callback.
func (g *Gate) notify() {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	st := g.State()
	g.subMu.Lock()
	fns := make([]func(State), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
