package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wastedesk/admingate/internal/gateway/store"
	"github.com/wastedesk/admingate/pkg/cryptox"
)

// Registry hands out one Manager per browser session. Managers are cached
// for a bounded window; when one ages out, the next request rebuilds it and
// the startup handshake runs again against the stored credential.
type Registry struct {
	cache    *gocache.Cache
	createMu sync.Mutex

	sessions     store.Sessions
	sealer       *cryptox.Sealer
	api          IdentityAPI
	allowedRoles []string
	sessionTTL   time.Duration

	// ObserveHandshake is installed on every manager the registry builds.
	ObserveHandshake func(result string)
}

// RegistryConfig collects what the registry needs to build managers.
type RegistryConfig struct {
	Sessions     store.Sessions
	Sealer       *cryptox.Sealer
	API          IdentityAPI
	AllowedRoles []string

	// SessionTTL bounds how long a stored credential row stays usable.
	SessionTTL time.Duration

	// ManagerTTL bounds how long a resolved manager is kept in memory.
	ManagerTTL time.Duration
}

// NewRegistry builds a registry from cfg.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		cache:        gocache.New(cfg.ManagerTTL, 2*cfg.ManagerTTL),
		sessions:     cfg.Sessions,
		sealer:       cfg.Sealer,
		api:          cfg.API,
		allowedRoles: cfg.AllowedRoles,
		sessionTTL:   cfg.SessionTTL,
	}
}

// IssueToken mints a fresh opaque browser token and returns it with its
// fingerprint. The token goes to the browser, the fingerprint keys storage.
func (r *Registry) IssueToken() (token, fingerprint string, err error) {
	token, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}
	return token, cryptox.FingerprintToken(token), nil
}

// Manager returns the manager for fingerprint, building it on first use.
func (r *Registry) Manager(fingerprint string) *Manager {
	if cached, ok := r.cache.Get(fingerprint); ok {
		return cached.(*Manager)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if cached, ok := r.cache.Get(fingerprint); ok {
		return cached.(*Manager)
	}

	tokens := NewTokenStore(r.sessions, r.sealer, fingerprint, r.sessionTTL)
	mgr := NewManager(tokens, r.api, r.allowedRoles)
	mgr.ObserveHandshake = r.ObserveHandshake
	r.cache.SetDefault(fingerprint, mgr)
	return mgr
}

// Bearer returns the stored backend credential for fingerprint, ok=false
// when there is none.
func (r *Registry) Bearer(ctx context.Context, fingerprint string) (string, bool) {
	return NewTokenStore(r.sessions, r.sealer, fingerprint, r.sessionTTL).Get(ctx)
}

// Invalidate signs the session out and forgets its manager.
func (r *Registry) Invalidate(ctx context.Context, fingerprint string) {
	r.Manager(fingerprint).Invalidate(ctx)
	r.cache.Delete(fingerprint)
}
