package domain

// User is the profile returned by the identity endpoint for the current
// credential holder.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	RoleID   string `json:"roleId"`
	Role     Role   `json:"role"`

	// TenantIDs lists tenant associations for tenant-scoped admins.
	TenantIDs []string `json:"tenantIds,omitempty"`
}

// RoleName returns the user's role name, "" for the zero profile.
func (u *User) RoleName() string {
	if u == nil {
		return ""
	}
	return u.Role.Name
}
