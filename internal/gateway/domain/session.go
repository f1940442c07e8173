package domain

import "time"

// Session is one browser's durable credential record. The browser holds only
// an opaque cookie token; its SHA-256 fingerprint keys the row, and the
// bearer credential it maps to is sealed before storage.
type Session struct {
	ID               string // ULID
	TokenFingerprint string
	BearerSealed     string
	RefreshSealed    string // optional, empty when the login response carried none
	UserID           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpiresAt        time.Time
}

// Expired reports whether the session record has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
