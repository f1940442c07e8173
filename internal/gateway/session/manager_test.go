package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/identity"
	"github.com/wastedesk/admingate/internal/gateway/session"
)

var dashboardRoles = []string{domain.RoleTenantAdmin, domain.RoleSuperAdmin}

type fakeAPI struct {
	loginResult identity.LoginResult
	loginErr    error
	user        *domain.User
	userErr     error

	loginCalls atomic.Int32
	meCalls    atomic.Int32
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (identity.LoginResult, error) {
	f.loginCalls.Add(1)
	return f.loginResult, f.loginErr
}

func (f *fakeAPI) CurrentUser(_ context.Context, _ string) (*domain.User, error) {
	f.meCalls.Add(1)
	return f.user, f.userErr
}

// unsignedToken builds a decodable bearer credential with the given expiry.
// The signature is garbage; only the claims matter here.
func unsignedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	enc := func(v any) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	header := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	claims := enc(map[string]any{
		"userId": "usr-1",
		"exp":    exp.Unix(),
		"iat":    exp.Add(-time.Hour).Unix(),
	})
	return header + "." + claims + ".c2ln"
}

func TestManagerEnsureStarted(t *testing.T) {
	t.Parallel()

	t.Run("NoStoredCredential", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		mgr := session.NewManager(session.NewMemoryTokenStore(), api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), false)
		require.False(t, snap.Loading)
		require.False(t, snap.Authenticated)
		require.Nil(t, snap.User)
		require.Zero(t, api.meCalls.Load(), "no credential should mean no backend call")
	})

	t.Run("LocallyExpiredCredential", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(-time.Hour)), ""))

		api := &fakeAPI{}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), false)
		require.False(t, snap.Authenticated)
		require.Zero(t, api.meCalls.Load(), "expired credential should be dropped without a round trip")

		_, ok := tokens.Get(t.Context())
		require.False(t, ok, "expired credential should be cleared")
	})

	t.Run("ValidCredentialSignsIn", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(time.Hour)), ""))

		api := &fakeAPI{user: userWithRole(domain.RoleTenantAdmin)}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), false)
		require.True(t, snap.Authenticated)
		require.Equal(t, domain.RoleTenantAdmin, snap.RoleName)
		require.EqualValues(t, 1, api.meCalls.Load())
	})

	t.Run("ResolvesOnlyOnce", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(time.Hour)), ""))

		api := &fakeAPI{user: userWithRole(domain.RoleSuperAdmin)}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		mgr.EnsureStarted(t.Context(), false)
		mgr.EnsureStarted(t.Context(), false)
		mgr.EnsureStarted(t.Context(), false)
		require.EqualValues(t, 1, api.meCalls.Load())
	})

	t.Run("BackendRejectionSignsOut", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(time.Hour)), ""))

		api := &fakeAPI{userErr: &identity.APIError{StatusCode: 401, Message: "token revoked"}}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), false)
		require.False(t, snap.Authenticated)

		_, ok := tokens.Get(t.Context())
		require.False(t, ok)
	})

	t.Run("RoleOutsideAllowListSignsOut", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(time.Hour)), ""))

		api := &fakeAPI{user: userWithRole(domain.RoleUser)}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), false)
		require.False(t, snap.Authenticated)

		_, ok := tokens.Get(t.Context())
		require.False(t, ok, "disallowed role should not keep a stored credential")
	})

	t.Run("ExemptSkipsResolution", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(t.Context(), unsignedToken(t, time.Now().Add(time.Hour)), ""))

		api := &fakeAPI{user: userWithRole(domain.RoleTenantAdmin)}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		snap := mgr.EnsureStarted(t.Context(), true)
		require.False(t, snap.Loading)
		require.False(t, snap.Authenticated)
		require.Zero(t, api.meCalls.Load())

		// Exempt requests still see a session that already resolved.
		mgr.EnsureStarted(t.Context(), false)
		snap = mgr.EnsureStarted(t.Context(), true)
		require.True(t, snap.Authenticated)
	})

	t.Run("HandshakeOutcomeObserved", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		mgr := session.NewManager(session.NewMemoryTokenStore(), api, dashboardRoles)

		var got string
		mgr.ObserveHandshake = func(result string) { got = result }
		mgr.EnsureStarted(t.Context(), false)
		require.Equal(t, "no_credential", got)
	})
}

func TestManagerLogin(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		api := &fakeAPI{
			loginResult: identity.LoginResult{Token: unsignedToken(t, time.Now().Add(time.Hour))},
			user:        userWithRole(domain.RoleTenantAdmin),
		}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		user, err := mgr.Login(t.Context(), "alice", "secret")
		require.NoError(t, err)
		require.Equal(t, "usr-1", user.ID)

		snap := mgr.Snapshot()
		require.True(t, snap.Authenticated)

		_, ok := tokens.Get(t.Context())
		require.True(t, ok, "successful login should persist the credential")
	})

	t.Run("BadCredentials", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{loginErr: &identity.APIError{StatusCode: 401, Message: "invalid username or password"}}
		mgr := session.NewManager(session.NewMemoryTokenStore(), api, dashboardRoles)

		_, err := mgr.Login(t.Context(), "alice", "wrong")
		require.True(t, identity.IsUnauthorized(err))
		require.False(t, mgr.Snapshot().Authenticated)
	})

	t.Run("DisallowedRoleNeverPersists", func(t *testing.T) {
		t.Parallel()

		tokens := session.NewMemoryTokenStore()
		api := &fakeAPI{
			loginResult: identity.LoginResult{Token: unsignedToken(t, time.Now().Add(time.Hour))},
			user:        userWithRole(domain.RoleUser),
		}
		mgr := session.NewManager(tokens, api, dashboardRoles)

		_, err := mgr.Login(t.Context(), "bob", "secret")
		require.ErrorIs(t, err, session.ErrRoleNotAllowed)
		require.False(t, mgr.Snapshot().Authenticated)

		_, ok := tokens.Get(t.Context())
		require.False(t, ok, "credential must not be stored for a rejected role")
	})
}

func TestManagerLogout(t *testing.T) {
	t.Parallel()

	tokens := session.NewMemoryTokenStore()
	api := &fakeAPI{
		loginResult: identity.LoginResult{Token: unsignedToken(t, time.Now().Add(time.Hour))},
		user:        userWithRole(domain.RoleSuperAdmin),
	}
	mgr := session.NewManager(tokens, api, dashboardRoles)

	_, err := mgr.Login(t.Context(), "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, mgr.Logout(t.Context()))
	require.False(t, mgr.Snapshot().Authenticated)

	_, ok := tokens.Get(t.Context())
	require.False(t, ok)
}
