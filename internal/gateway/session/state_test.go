package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/session"
)

func userWithRole(role string) *domain.User {
	return &domain.User{
		ID:       "usr-1",
		Username: "alice",
		Role:     domain.Role{ID: "role-1", Name: role},
	}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("InitialStateIsLoading", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		require.True(t, s.Loading)
		require.False(t, s.Authenticated)
		require.Nil(t, s.User)
	})

	t.Run("LoginPairsUserAndFlag", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(userWithRole(domain.RoleTenantAdmin))
		require.True(t, s.Authenticated)
		require.NotNil(t, s.User)
		require.False(t, s.Loading)
	})

	t.Run("LoginWithNilUserStaysUnauthenticated", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(nil)
		require.False(t, s.Authenticated)
		require.Nil(t, s.User)
		require.False(t, s.Loading)
	})

	t.Run("LogoutClearsEverything", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(userWithRole(domain.RoleSuperAdmin))
		s.Logout()
		require.False(t, s.Authenticated)
		require.Nil(t, s.User)
	})

	t.Run("StopLoadingPreservesIdentity", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(userWithRole(domain.RoleSuperAdmin))
		s.StopLoading()
		s.StopLoading()
		require.True(t, s.Authenticated)
		require.NotNil(t, s.User)
		require.False(t, s.Loading)
	})
}

func TestStatePredicates(t *testing.T) {
	t.Parallel()

	t.Run("RoleChecks", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(userWithRole(domain.RoleSuperAdmin))
		require.True(t, s.IsSuperAdmin())
		require.False(t, s.IsTenantAdmin())
		require.False(t, s.IsUser())
		require.True(t, s.HasRole(domain.RoleSuperAdmin))
	})

	t.Run("SignedOutMatchesNothing", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Logout()
		require.False(t, s.IsSuperAdmin())
		require.False(t, s.HasRole(domain.RoleUser))
		require.Empty(t, s.RoleName())
	})

	t.Run("CanManageRequiresStrictlyHigherRank", func(t *testing.T) {
		t.Parallel()

		super := session.NewState()
		super.Login(userWithRole(domain.RoleSuperAdmin))
		require.True(t, super.CanManageRole(domain.RoleTenantAdmin))
		require.True(t, super.CanManageRole(domain.RoleUser))
		require.False(t, super.CanManageRole(domain.RoleSuperAdmin))

		tenant := session.NewState()
		tenant.Login(userWithRole(domain.RoleTenantAdmin))
		require.True(t, tenant.CanManageRole(domain.RoleUser))
		require.False(t, tenant.CanManageRole(domain.RoleTenantAdmin))
		require.False(t, tenant.CanManageRole(domain.RoleSuperAdmin))
	})

	t.Run("UnknownRolesManageNobody", func(t *testing.T) {
		t.Parallel()

		s := session.NewState()
		s.Login(userWithRole("auditor"))
		require.False(t, s.CanManageRole(domain.RoleUser))
		require.False(t, s.CanManageRole("auditor"))

		super := session.NewState()
		super.Login(userWithRole(domain.RoleSuperAdmin))
		require.True(t, super.CanManageRole("auditor"))
	})
}
