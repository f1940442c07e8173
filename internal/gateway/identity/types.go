package identity

import "github.com/wastedesk/admingate/internal/gateway/domain"

// envelope is the backend's standard response wrapper.
type envelope[T any] struct {
	Status     string `json:"status"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Message    any    `json:"message"`
	Data       T      `json:"data"`
}

// tokenPayload is the login endpoint's data shape.
type tokenPayload struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LoginResult carries what a successful login returned.
type LoginResult struct {
	Token        string
	RefreshToken string
}

// userPayload mirrors the identity endpoint's data shape before mapping into
// the domain profile.
type userPayload struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FullName  string      `json:"fullName"`
	RoleID    string      `json:"roleId"`
	Role      domain.Role `json:"role"`
	TenantIDs []string    `json:"tenantIds"`
}

func (p userPayload) toDomain() domain.User {
	return domain.User{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FullName:  p.FullName,
		RoleID:    p.RoleID,
		Role:      p.Role,
		TenantIDs: p.TenantIDs,
	}
}
