package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/store"
	"github.com/wastedesk/admingate/pkg/cryptox"
	"github.com/wastedesk/admingate/pkg/idx"
	"github.com/wastedesk/admingate/pkg/slogx"
)

// TokenStore holds one session's bearer credential between requests.
//
// Get never fails: any problem reading or unsealing the credential reads as
// "no credential", so callers can treat the result as a plain lookup.
type TokenStore interface {
	// Set durably replaces the stored bearer and refresh credentials.
	Set(ctx context.Context, bearer, refresh string) error

	// Get returns the stored bearer, or ok=false when there is none.
	Get(ctx context.Context) (bearer string, ok bool)

	// Clear removes the stored credentials. Clearing an empty store is a
	// no-op, not an error.
	Clear(ctx context.Context) error
}

// sealedTokenStore is the durable TokenStore: one sqlite row per browser
// session, credentials sealed before they touch disk.
type sealedTokenStore struct {
	sessions    store.Sessions
	sealer      *cryptox.Sealer
	fingerprint string
	ttl         time.Duration
}

// NewTokenStore builds the durable store for one session fingerprint.
func NewTokenStore(sessions store.Sessions, sealer *cryptox.Sealer, fingerprint string, ttl time.Duration) TokenStore {
	return &sealedTokenStore{
		sessions:    sessions,
		sealer:      sealer,
		fingerprint: fingerprint,
		ttl:         ttl,
	}
}

func (s *sealedTokenStore) Set(ctx context.Context, bearer, refresh string) error {
	bearerSealed, err := s.sealer.Seal(bearer)
	if err != nil {
		return err
	}
	refreshSealed := ""
	if refresh != "" {
		if refreshSealed, err = s.sealer.Seal(refresh); err != nil {
			return err
		}
	}

	existing, err := s.sessions.GetByFingerprint(ctx, s.fingerprint)
	if err == nil {
		return s.sessions.UpdateCredentials(ctx, existing.ID, bearerSealed, refreshSealed)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	return s.sessions.Create(ctx, domain.Session{
		ID:               idx.New().String(),
		TokenFingerprint: s.fingerprint,
		BearerSealed:     bearerSealed,
		RefreshSealed:    refreshSealed,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(s.ttl),
	})
}

func (s *sealedTokenStore) Get(ctx context.Context) (string, bool) {
	sess, err := s.sessions.GetByFingerprint(ctx, s.fingerprint)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("session lookup failed, treating as absent", slog.Any("error", err))
		}
		return "", false
	}
	if sess.Expired(time.Now().UTC()) {
		return "", false
	}

	bearer, err := s.sealer.Open(sess.BearerSealed)
	if err != nil {
		// A row we cannot unseal is useless; treat it like it never existed.
		slogx.FromContext(ctx).Warn("stored credential unreadable, treating as absent", slog.Any("error", err))
		return "", false
	}
	if bearer == "" {
		return "", false
	}
	return bearer, true
}

func (s *sealedTokenStore) Clear(ctx context.Context) error {
	return s.sessions.DeleteByFingerprint(ctx, s.fingerprint)
}

// memoryTokenStore keeps the credential in process memory. Used in tests.
type memoryTokenStore struct {
	mu      sync.Mutex
	bearer  string
	refresh string
	present bool
}

// NewMemoryTokenStore returns an empty in-memory TokenStore.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}

func (m *memoryTokenStore) Set(_ context.Context, bearer, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bearer, m.refresh, m.present = bearer, refresh, true
	return nil
}

func (m *memoryTokenStore) Get(_ context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present || m.bearer == "" {
		return "", false
	}
	return m.bearer, true
}

func (m *memoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bearer, m.refresh, m.present = "", "", false
	return nil
}
