package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the self-describing fields embedded in a bearer credential
// issued by the concierge backend. The gateway never verifies the signature
// (key custody belongs to the backend); it only reads the expiry claim and
// the identity fields for local checks, and fails closed on anything it
// cannot decode.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the subject's user identifier.
	UserID string `json:"userId,omitempty"`

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`

	// RoleID and RoleName describe the subject's role assignment.
	RoleID   string `json:"roleId,omitempty"`
	RoleName string `json:"roleName,omitempty"`

	// TenantID is present for tenant-scoped users.
	TenantID string `json:"tenantId,omitempty"`
}

// Decode parses the claims out of a raw bearer string without verifying the
// signature. Malformed input returns ErrMalformed.
func Decode(raw string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}

// ValidateExpiry ensures the credential hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ExpiresAtOr returns the embedded expiry, or fallback when the credential
// carries none.
func (c *Claims) ExpiresAtOr(fallback time.Time) time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return fallback
}

// Valid reports whether raw decodes to a credential whose expiry window is
// currently open. An empty, undecodable, or expired credential is simply
// invalid; this never panics and never returns an error.
func Valid(raw string) bool {
	if raw == "" {
		return false
	}

	claims, err := Decode(raw)
	if err != nil {
		return false
	}

	return claims.ValidateExpiry() == nil
}
