package http

import (
	"log/slog"
	"net/http"

	"github.com/wastedesk/admingate/internal/gateway/session"
	"github.com/wastedesk/admingate/internal/gateway/store"
	"github.com/wastedesk/admingate/pkg/cryptox"
	"github.com/wastedesk/admingate/pkg/httpx"
)

// SessionCookie names the browser cookie carrying the opaque session token.
const SessionCookie = "admingate_session"

// Handler bundles the gateway's HTTP surface.
type Handler struct {
	log      *slog.Logger
	registry *session.Registry
	store    store.Store
	proxy    http.Handler

	secureCookies bool
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Log      *slog.Logger
	Registry *session.Registry
	Store    store.Store
	Proxy    http.Handler

	// SecureCookies marks session cookies Secure; leave off for plain-HTTP
	// development setups.
	SecureCookies bool
}

// NewHandler builds the gateway's HTTP handler set.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		log:           cfg.Log,
		registry:      cfg.Registry,
		store:         cfg.Store,
		proxy:         cfg.Proxy,
		secureCookies: cfg.SecureCookies,
	}
}

// fingerprint extracts the session fingerprint from the request cookie.
func (h *Handler) fingerprint(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return cryptox.FingerprintToken(c.Value), true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolver adapts the session registry to the gate's view of a request.
// Requests to non-protected routes never trigger the startup handshake.
func (h *Handler) resolver(mode httpx.Mode) httpx.SessionResolver {
	exempt := mode != httpx.ModeProtected
	return func(r *http.Request) httpx.SessionState {
		fp, ok := h.fingerprint(r)
		if !ok {
			// No cookie, nothing to resolve: settled and signed out.
			return httpx.SessionState{}
		}

		snap := h.registry.Manager(fp).EnsureStarted(r.Context(), exempt)
		state := httpx.SessionState{
			Loading:       snap.Loading,
			Authenticated: snap.Authenticated,
			RoleName:      snap.RoleName,
		}
		if snap.User != nil {
			state.User = snap.User
		}
		return state
	}
}
