package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskmind/internal/apperr"
	"taskmind/internal/client"
	"taskmind/internal/models"
)

var (
	// ErrBusy is returned when a login or registration is already in flight.
	ErrBusy = errors.New("sign-in already in progress")
	// ErrSignInCancelled is returned when the session ended while a sign-in was in flight.
	ErrSignInCancelled = errors.New("sign-in cancelled")
)

// CredentialStore persists the single bearer credential slot.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (models.Credential, bool, error)
	SaveCredential(ctx context.Context, c models.Credential) error
	ClearCredential(ctx context.Context) error
}

// Authenticator calls the remote auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (client.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (client.AuthResult, error)
}

// Manager owns the session of the single local user: the in-memory
// credential, its persisted copy and the current view.
type Manager struct {
	mu       sync.RWMutex
	view     View
	cred     models.Credential
	onLogout []func()
	// attempt identifies the current sign-in; a logout or a newer sign-in invalidates older ones.
	attempt uint64

	store  CredentialStore
	auth   Authenticator
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a logged out session.
func NewManager(store CredentialStore, auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		view:   ViewLoggedOut,
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// OnLogout registers fn to run after every logout.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// View returns the current view.
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Token returns the bearer credential, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.Token
}

// Profile returns the signed in user.
func (m *Manager) Profile() models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.Profile
}

// Restore resumes the persisted session, if any. An expired JWT is cleared
// instead of being resumed.
func (m *Manager) Restore(ctx context.Context) error {
	cred, ok, err := m.store.LoadCredential(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return nil
	}
	if tokenExpired(cred.Token, m.now()) {
		m.logger.Info("stored credential expired, signing out", slog.String("user", cred.Profile.DisplayName()))
		if err := m.store.ClearCredential(ctx); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		return nil
	}

	m.mu.Lock()
	m.cred = cred
	m.view = ViewDashboard
	m.mu.Unlock()
	m.logger.Info("session restored", slog.String("user", cred.Profile.DisplayName()))
	return nil
}

// Login signs in with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) (models.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Profile{}, fmt.Errorf("%w: Email and password are required", apperr.ErrValidation)
	}
	attempt, err := m.begin()
	if err != nil {
		return models.Profile{}, err
	}

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.abort(attempt)
		m.logger.Warn("login failed", slog.String("email", email), slog.String("error", err.Error()))
		return models.Profile{}, err
	}
	return m.establish(ctx, attempt, res, models.Profile{Email: email})
}

// Register creates an account and signs it in. When the service does not
// return a credential on registration a login with the same details follows.
func (m *Manager) Register(ctx context.Context, username, email, password, confirm string) (models.Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return models.Profile{}, fmt.Errorf("%w: Username, email and password are required", apperr.ErrValidation)
	}
	if password != confirm {
		return models.Profile{}, fmt.Errorf("%w: Passwords do not match", apperr.ErrValidation)
	}
	attempt, err := m.begin()
	if err != nil {
		return models.Profile{}, err
	}

	res, err := m.auth.Register(ctx, username, email, password)
	if err == nil && res.Token == "" {
		res, err = m.auth.Login(ctx, email, password)
	}
	if err != nil {
		m.abort(attempt)
		m.logger.Warn("registration failed", slog.String("email", email), slog.String("error", err.Error()))
		return models.Profile{}, err
	}
	return m.establish(ctx, attempt, res, models.Profile{Username: username, Email: email})
}

// Logout clears the persisted and in-memory credential and runs the logout hooks.
// The in-memory session ends even when clearing the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	user := m.cred.Profile.DisplayName()
	m.cred = models.Credential{}
	m.view = ViewLoggedOut
	m.attempt++
	hooks := append([]func(){}, m.onLogout...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	m.logger.Info("signed out", slog.String("user", user))

	if err := m.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// begin moves to ViewLoggingIn unless another sign-in is running and returns
// the id of the new attempt.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view == ViewLoggingIn {
		return 0, ErrBusy
	}
	m.attempt++
	m.view = ViewLoggingIn
	return m.attempt, nil
}

// currentLocked reports whether attempt is still the sign-in in flight.
func (m *Manager) currentLocked(attempt uint64) bool {
	return m.attempt == attempt && m.view == ViewLoggingIn
}

func (m *Manager) abort(attempt uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.currentLocked(attempt) {
		return
	}
	m.cred = models.Credential{}
	m.view = ViewLoggedOut
}

// establish persists the credential returned by the auth service and opens
// the dashboard, unless the attempt was superseded by a logout meanwhile.
func (m *Manager) establish(ctx context.Context, attempt uint64, res client.AuthResult, entered models.Profile) (models.Profile, error) {
	m.mu.RLock()
	live := m.currentLocked(attempt)
	m.mu.RUnlock()
	if !live {
		m.logger.Info("discarding sign-in after logout", slog.String("email", entered.Email))
		return models.Profile{}, ErrSignInCancelled
	}

	profile := entered
	switch {
	case res.User != nil:
		profile = *res.User
	default:
		if p, ok := profileFromToken(res.Token); ok {
			profile = p
		}
	}
	if profile.Email == "" {
		profile.Email = entered.Email
	}

	cred := models.Credential{Token: res.Token, Profile: profile, SavedAt: m.now().UTC()}
	if err := m.store.SaveCredential(ctx, cred); err != nil {
		m.abort(attempt)
		return models.Profile{}, fmt.Errorf("save credential: %w", err)
	}

	m.mu.Lock()
	if !m.currentLocked(attempt) {
		m.mu.Unlock()
		m.logger.Info("discarding sign-in after logout", slog.String("email", entered.Email))
		if err := m.store.ClearCredential(ctx); err != nil {
			return models.Profile{}, fmt.Errorf("%w: %w", ErrSignInCancelled, err)
		}
		return models.Profile{}, ErrSignInCancelled
	}
	m.cred = cred
	m.view = ViewDashboard
	m.mu.Unlock()
	m.logger.Info("signed in", slog.String("user", profile.DisplayName()))
	return profile, nil
}
