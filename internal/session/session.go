// Package session decides whether the developer is logged in and drives the
// login fallback chain: stored access token, silent refresh, interactive login.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/devrunner/devrunner/internal/authclient"
	"github.com/devrunner/devrunner/internal/credstore"
)

// AuthClient is the subset of the auth service used by Manager.
type AuthClient interface {
	CheckToken(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Login(ctx context.Context, identity, secret string) (*oauth2.Token, error)
}

// Prompter collects interactive login input.
type Prompter interface {
	// Identity asks for the login identity. last is the previously used
	// identity, or empty. An empty answer keeps last.
	Identity(last string) (string, error)

	// Secret asks for the secret without echoing it.
	Secret() (string, error)
}

// Outcome describes how Login ended successfully.
type Outcome int

const (
	// OutcomeAlreadyLoggedIn means a stored or refreshed session was accepted.
	OutcomeAlreadyLoggedIn Outcome = iota + 1
	// OutcomeLoggedIn means the interactive login succeeded.
	OutcomeLoggedIn
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyLoggedIn:
		return "already logged in"
	case OutcomeLoggedIn:
		return "logged in"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ErrLoginFailed wraps every failure of the interactive login step.
var ErrLoginFailed = errors.New("login failed")

// Manager owns the session credentials in a credstore.Store.
type Manager struct {
	store    credstore.Store
	client   AuthClient
	prompter Prompter
}

// NewManager creates a Manager.
func NewManager(store credstore.Store, client AuthClient, prompter Prompter) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if client == nil {
		return nil, fmt.Errorf("missing auth client")
	}
	if prompter == nil {
		return nil, fmt.Errorf("missing prompter")
	}
	return &Manager{store: store, client: client, prompter: prompter}, nil
}

// Login authenticates the developer, trying in order: the stored access token,
// a silent refresh, and finally an interactive prompt.
//
// Network failures during the first two steps only move on to the next step.
// A failure of the interactive step is returned wrapped in ErrLoginFailed and
// leaves the stored credentials untouched. Storage failures abort immediately.
func (m *Manager) Login(ctx context.Context) (Outcome, error) {
	ok, err := m.checkStoredToken(ctx)
	if err != nil {
		return 0, err
	}
	if ok {
		return OutcomeAlreadyLoggedIn, nil
	}

	ok, err = m.refresh(ctx)
	if err != nil {
		return 0, err
	}
	if ok {
		return OutcomeAlreadyLoggedIn, nil
	}

	return m.interactive(ctx)
}

// checkStoredToken validates the stored access token, deleting it when the
// service rejects it.
func (m *Manager) checkStoredToken(ctx context.Context) (bool, error) {
	access, ok, err := m.store.Get(ctx, credstore.RecordAccessToken)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = m.client.CheckToken(ctx, access)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, authclient.ErrUnauthorized):
		slog.DebugContext(ctx, "stored access token rejected")
		if err := m.store.Delete(ctx, credstore.RecordAccessToken); err != nil {
			return false, err
		}
		return false, nil
	default:
		slog.DebugContext(ctx, "access token check inconclusive", "error", err)
		return false, nil
	}
}

// refresh exchanges the stored refresh token for a new session.
func (m *Manager) refresh(ctx context.Context) (bool, error) {
	refresh, ok, err := m.store.Get(ctx, credstore.RecordRefreshToken)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	tok, err := m.client.Refresh(ctx, refresh)
	switch {
	case err == nil:
	case errors.Is(err, authclient.ErrUnauthorized):
		slog.DebugContext(ctx, "stored refresh token rejected")
		if err := m.store.Delete(ctx, credstore.RecordRefreshToken); err != nil {
			return false, err
		}
		return false, nil
	default:
		slog.DebugContext(ctx, "token refresh failed", "error", err)
		return false, nil
	}

	if err := m.saveTokens(ctx, tok); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) interactive(ctx context.Context) (Outcome, error) {
	last, _, err := m.store.Get(ctx, credstore.RecordIdentity)
	if err != nil {
		return 0, err
	}

	identity, err := m.prompter.Identity(last)
	if err != nil {
		return 0, fmt.Errorf("%w: reading identity: %w", ErrLoginFailed, err)
	}
	if identity == "" {
		identity = last
	}
	if identity == "" {
		return 0, fmt.Errorf("%w: identity required", ErrLoginFailed)
	}

	secret, err := m.prompter.Secret()
	if err != nil {
		return 0, fmt.Errorf("%w: reading secret: %w", ErrLoginFailed, err)
	}

	tok, err := m.client.Login(ctx, identity, secret)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if err := m.saveTokens(ctx, tok); err != nil {
		return 0, err
	}
	if err := m.store.Put(ctx, credstore.RecordIdentity, identity); err != nil {
		return 0, err
	}

	slog.DebugContext(ctx, "interactive login succeeded", "identity", identity)
	return OutcomeLoggedIn, nil
}

// saveTokens persists a newly issued pair. A missing refresh token keeps the
// stored one.
func (m *Manager) saveTokens(ctx context.Context, tok *oauth2.Token) error {
	if err := m.store.Put(ctx, credstore.RecordAccessToken, tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return nil
	}
	return m.store.Put(ctx, credstore.RecordRefreshToken, tok.RefreshToken)
}

// Logout deletes the access and refresh tokens. The identity is kept to
// pre-fill the next login. Logging out without a session succeeds.
func (m *Manager) Logout(ctx context.Context) error {
	for _, record := range []credstore.Record{credstore.RecordAccessToken, credstore.RecordRefreshToken} {
		if err := m.store.Delete(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Status reports the session state derived from the stored records without
// contacting the service.
func (m *Manager) Status(ctx context.Context) (State, error) {
	if _, ok, err := m.store.Get(ctx, credstore.RecordAccessToken); err != nil {
		return StateUnauthenticated, err
	} else if ok {
		return StateAuthenticated, nil
	}
	if _, ok, err := m.store.Get(ctx, credstore.RecordRefreshToken); err != nil {
		return StateUnauthenticated, err
	} else if ok {
		return StateExpired, nil
	}
	return StateUnauthenticated, nil
}

// State is the session state derived from stored records.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
	StateExpired         State = "expired"
)
