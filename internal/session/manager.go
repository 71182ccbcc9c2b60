package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshp123/hive-heat/internal/logger"
)

// Credentials are the account login, fixed for the life of the process.
type Credentials struct {
	Username string
	Password string
}

// Authenticator issues and revokes session tokens.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Logout(ctx context.Context, token string) error
}

// State tracks how much is known about the current token.
type State int

const (
	NoToken State = iota
	Cached
	Verified
)

func (s State) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case Cached:
		return "cached"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// Manager hands out a session token, preferring the cached one, and logs in
// again at most once per run when a request made with it fails.
type Manager struct {
	creds Credentials
	auth  Authenticator
	store Store
	log   *logger.Logger

	token     string
	state     State
	refreshed bool
	logins    int
}

func NewManager(creds Credentials, auth Authenticator, store Store, log *logger.Logger) (*Manager, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{creds: creds, auth: auth, store: store, log: log}, nil
}

func (m *Manager) State() State {
	return m.state
}

// Logins reports how many login calls this manager has made.
func (m *Manager) Logins() int {
	return m.logins
}

// Token returns the current token, loading it from the store or logging in
// when none is cached.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m.token != "" {
		return m.token, nil
	}

	token, err := m.store.Load(ctx)
	switch {
	case err == nil:
		cacheHitTotal.Inc()
		m.token = token
		m.state = Cached
		m.log.Debugw("using cached token")
		return token, nil
	case errors.Is(err, ErrTokenNotFound):
		m.log.Debugw("no cached token, logging in")
		return m.login(ctx)
	default:
		return "", fmt.Errorf("load token: %w", err)
	}
}

// WithToken runs op with the current token. Any failure of op triggers one
// login and one retry; a failure after that is returned as is.
func (m *Manager) WithToken(ctx context.Context, op func(ctx context.Context, token string) error) error {
	token, err := m.Token(ctx)
	if err != nil {
		return err
	}

	err = op(ctx, token)
	if err == nil {
		m.state = Verified
		return nil
	}
	if ctx.Err() != nil || m.refreshed {
		return err
	}

	m.refreshed = true
	refreshTotal.Inc()
	m.log.Infow("request failed with current token, logging in again", "state", m.state.String(), "err", err)

	token, loginErr := m.login(ctx)
	if loginErr != nil {
		return fmt.Errorf("refresh session after %v: %w", err, loginErr)
	}
	if err := op(ctx, token); err != nil {
		return fmt.Errorf("retry with refreshed token: %w", err)
	}
	return nil
}

// Logout revokes the current token server-side and clears the cached copy.
func (m *Manager) Logout(ctx context.Context) error {
	if m.token == "" {
		return nil
	}
	if err := m.auth.Logout(ctx, m.token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.token = ""
	m.state = NoToken
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.log.Debugw("logged out and cleared cached token")
	return nil
}

func (m *Manager) login(ctx context.Context) (string, error) {
	m.logins++
	token, err := m.auth.Login(ctx, m.creds)
	if err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return "", err
	}
	loginTotal.WithLabelValues("ok").Inc()

	if err := m.store.Save(ctx, token); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}
	m.token = token
	m.state = Verified
	m.log.Debugw("logged in", "logins", m.logins)
	return token, nil
}
