package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/identity"
	"github.com/wastedesk/admingate/pkg/credential"
	"github.com/wastedesk/admingate/pkg/slogx"
)

// ErrRoleNotAllowed rejects a sign-in whose verified role is outside the
// dashboard allow-list.
var ErrRoleNotAllowed = errors.New("insufficient permissions")

// IdentityAPI is the slice of the backend the manager needs.
type IdentityAPI interface {
	Login(ctx context.Context, username, password string) (identity.LoginResult, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Snapshot is a point-in-time copy of a session's state, safe to read after
// the manager moves on.
type Snapshot struct {
	Loading       bool
	Authenticated bool
	RoleName      string
	User          *domain.User
}

// Manager owns one browser session: its state, its stored credential, and
// the startup handshake that reconciles the two.
type Manager struct {
	mu           sync.Mutex
	state        State
	initialized  bool
	initInFlight bool

	tokens       TokenStore
	api          IdentityAPI
	allowedRoles []string

	// ObserveHandshake, when set, is called once per startup resolution with
	// the outcome label.
	ObserveHandshake func(result string)
}

// NewManager builds a manager around a credential store and backend client.
// allowedRoles is the set of role names permitted into the dashboard.
func NewManager(tokens TokenStore, api IdentityAPI, allowedRoles []string) *Manager {
	return &Manager{
		state:        NewState(),
		tokens:       tokens,
		api:          api,
		allowedRoles: allowedRoles,
	}
}

// Snapshot returns the session state as of now.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Loading:       m.state.Loading,
		Authenticated: m.state.Authenticated,
		RoleName:      m.state.RoleName(),
		User:          m.state.User,
	}
}

// EnsureStarted resolves the session's identity exactly once and returns the
// resulting state. Requests that arrive while resolution is in flight see the
// loading state rather than waiting.
//
// exempt requests never trigger resolution: a session that has not resolved
// yet reads as settled and signed out, one that has keeps its answer.
func (m *Manager) EnsureStarted(ctx context.Context, exempt bool) Snapshot {
	m.mu.Lock()
	if m.initialized {
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	if exempt {
		defer m.mu.Unlock()
		snap := m.snapshotLocked()
		snap.Loading = false
		return snap
	}
	if m.initInFlight {
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	m.initInFlight = true
	m.mu.Unlock()

	result := m.resolve(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.initInFlight = false
	m.initialized = true
	if m.ObserveHandshake != nil {
		m.ObserveHandshake(result)
	}
	return m.snapshotLocked()
}

// resolve runs the startup handshake and settles m.state. Every failure path
// lands on signed out; only a verified, allow-listed profile signs in.
func (m *Manager) resolve(ctx context.Context) string {
	log := slogx.FromContext(ctx)

	bearer, ok := m.tokens.Get(ctx)
	if !ok {
		m.setState(func(s *State) { s.Logout() })
		return "no_credential"
	}

	// Locally expired or unreadable credentials are dropped without a
	// round trip.
	if !credential.Valid(bearer) {
		m.clearAndLogout(ctx, log, "stored credential invalid")
		return "expired_local"
	}

	user, err := m.api.CurrentUser(ctx, bearer)
	if err != nil {
		m.clearAndLogout(ctx, log, "profile fetch failed")
		if identity.IsUnauthorized(err) {
			return "rejected_remote"
		}
		log.Warn("identity lookup failed during session startup", slog.Any("error", err))
		return "fetch_failed"
	}

	if !m.roleAllowed(user.RoleName()) {
		m.clearAndLogout(ctx, log, "role outside allow-list")
		return "role_not_allowed"
	}

	m.setState(func(s *State) { s.Login(user) })
	return "ok"
}

func (m *Manager) clearAndLogout(ctx context.Context, log *slog.Logger, reason string) {
	if err := m.tokens.Clear(ctx); err != nil {
		log.Warn("failed to clear stored credential", slog.String("reason", reason), slog.Any("error", err))
	}
	m.setState(func(s *State) { s.Logout() })
}

func (m *Manager) setState(apply func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.state)
}

func (m *Manager) roleAllowed(role string) bool {
	return slices.Contains(m.allowedRoles, role)
}

// Login verifies credentials with the backend, checks the role allow-list,
// and signs the session in. The credential is only persisted once the whole
// chain has succeeded.
func (m *Manager) Login(ctx context.Context, username, password string) (*domain.User, error) {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := m.api.CurrentUser(ctx, res.Token)
	if err != nil {
		return nil, err
	}

	if !m.roleAllowed(user.RoleName()) {
		return nil, ErrRoleNotAllowed
	}

	if err := m.tokens.Set(ctx, res.Token, res.RefreshToken); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.state.Login(user)
	m.initialized = true
	m.mu.Unlock()
	return user, nil
}

// Logout clears the stored credential and signs the session out. The state
// flips to signed out even if the store refuses to clear.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.tokens.Clear(ctx)

	m.mu.Lock()
	m.state.Logout()
	m.initialized = true
	m.mu.Unlock()
	return err
}

// Invalidate drops the session after the backend stopped honouring its
// credential mid-flight.
func (m *Manager) Invalidate(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		slogx.FromContext(ctx).Warn("failed to clear credential while invalidating session", slog.Any("error", err))
	}
}
