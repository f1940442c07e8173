package session

import "github.com/wastedesk/admingate/internal/gateway/domain"

// State is the in-memory view of one browser session. It holds who the
// session belongs to and whether startup has finished deciding that.
//
// Authenticated is true exactly when User is non-nil. The transitions below
// are the only way the fields change, so the pairing cannot drift.
type State struct {
	User          *domain.User
	Authenticated bool
	Loading       bool
}

// NewState returns the startup state: nobody signed in, resolution pending.
func NewState() State {
	return State{Loading: true}
}

// Login records a verified profile and marks the session authenticated.
func (s *State) Login(user *domain.User) {
	s.User = user
	s.Authenticated = user != nil
	s.Loading = false
}

// Logout drops the profile and marks the session unauthenticated.
func (s *State) Logout() {
	s.User = nil
	s.Authenticated = false
	s.Loading = false
}

// StopLoading marks startup resolution finished without touching identity.
func (s *State) StopLoading() {
	s.Loading = false
}

// RoleName returns the signed-in user's role, or "" when signed out.
func (s State) RoleName() string {
	if s.User == nil {
		return ""
	}
	return s.User.RoleName()
}

// HasRole reports whether the signed-in user holds the named role exactly.
func (s State) HasRole(role string) bool {
	return s.User != nil && s.RoleName() == role
}

// IsSuperAdmin reports whether the signed-in user is a super admin.
func (s State) IsSuperAdmin() bool {
	return s.HasRole(domain.RoleSuperAdmin)
}

// IsTenantAdmin reports whether the signed-in user is a tenant admin.
func (s State) IsTenantAdmin() bool {
	return s.HasRole(domain.RoleTenantAdmin)
}

// IsUser reports whether the signed-in user holds the base user role.
func (s State) IsUser() bool {
	return s.HasRole(domain.RoleUser)
}

// CanManageRole reports whether the signed-in user outranks the target role.
// Equal rank is not enough, and unknown roles can manage nobody.
func (s State) CanManageRole(target string) bool {
	if s.User == nil {
		return false
	}
	return domain.CanManage(s.RoleName(), target)
}
