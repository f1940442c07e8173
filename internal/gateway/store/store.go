package store

import (
	"context"
	"errors"
	"time"

	"github.com/wastedesk/admingate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Sessions() Sessions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Sessions interface {
	// Create inserts a new session record (id is provided by app via ULID).
	Create(ctx context.Context, s domain.Session) error

	// GetByFingerprint returns the session keyed by a cookie-token
	// fingerprint.
	GetByFingerprint(ctx context.Context, fingerprint string) (domain.Session, error)

	// UpdateCredentials replaces the sealed bearer (and optional refresh)
	// values and bumps updated_at.
	UpdateCredentials(ctx context.Context, id, bearerSealed, refreshSealed string) error

	// DeleteByFingerprint removes a session. Missing rows are not an error.
	DeleteByFingerprint(ctx context.Context, fingerprint string) error

	// DeleteExpired is housekeeping for records past their expiry. It
	// returns how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
