package domain

// Canonical role names. The backend persists roles as rows; the gateway only
// ever compares by name against this closed set.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleUser        = "user"
)

// roleLevels orders the closed role set for management checks. Names outside
// the table rank at zero: an unknown role manages nothing.
var roleLevels = map[string]int{
	RoleSuperAdmin:  3,
	RoleTenantAdmin: 2,
	RoleUser:        1,
}

// RoleLevel returns the hierarchy level for a role name, 0 for unknown names.
func RoleLevel(name string) int {
	return roleLevels[name]
}

// CanManage reports whether a holder of the current role may manage accounts
// holding the target role. Equal levels cannot manage each other.
func CanManage(current, target string) bool {
	return RoleLevel(current) > RoleLevel(target)
}

// DashboardRoles is the allow-list of roles permitted to use the admin
// gateway at all. Holding a valid credential is necessary but not
// sufficient; end users sign in through the concierge app, not here.
func DashboardRoles() []string {
	return []string{RoleTenantAdmin, RoleSuperAdmin}
}

// Role is a role assignment as the backend reports it.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
