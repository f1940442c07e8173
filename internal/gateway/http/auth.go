package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/wastedesk/admingate/internal/gateway/identity"
	"github.com/wastedesk/admingate/internal/gateway/session"
	"github.com/wastedesk/admingate/pkg/httpx"
	"github.com/wastedesk/admingate/pkg/slogx"
)

// handleLogin verifies submitted credentials and establishes the browser
// session. On success the visitor lands back on the page that sent them here.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, "invalid form submission", "")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	redirect := r.PostFormValue(httpx.RedirectParam)
	if username == "" || password == "" {
		h.renderLogin(w, http.StatusBadRequest, "username and password are required", redirect)
		return
	}

	token, fp, fresh, err := h.sessionToken(r)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to mint session token", slog.Any("error", err))
		h.renderLogin(w, http.StatusInternalServerError, "something went wrong, try again", redirect)
		return
	}

	mgr := h.registry.Manager(fp)
	user, err := mgr.Login(r.Context(), username, password)
	if err != nil {
		h.renderLogin(w, loginFailureStatus(err), loginFailureMessage(err), redirect)
		return
	}

	if fresh {
		h.setSessionCookie(w, token)
	}
	slogx.FromContext(r.Context()).Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", user.RoleName()),
	)

	target := redirect
	if target == "" || target[0] != '/' {
		target = httpx.DefaultPath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sessionToken reuses the browser's existing session token or mints a new
// one. fresh reports whether the cookie still needs to be set.
func (h *Handler) sessionToken(r *http.Request) (token, fingerprint string, fresh bool, err error) {
	if c, cookieErr := r.Cookie(SessionCookie); cookieErr == nil && c.Value != "" {
		fp, _ := h.fingerprint(r)
		return c.Value, fp, false, nil
	}
	token, fingerprint, err = h.registry.IssueToken()
	return token, fingerprint, true, err
}

func loginFailureStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrRoleNotAllowed):
		return http.StatusForbidden
	case identity.IsUnauthorized(err):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func loginFailureMessage(err error) string {
	if errors.Is(err, session.ErrRoleNotAllowed) {
		return "insufficient permissions"
	}
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "sign in is unavailable right now, try again shortly"
}

// handleLogout drops the session and returns the visitor to the login page.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if fp, ok := h.fingerprint(r); ok {
		h.registry.Invalidate(r.Context(), fp)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, httpx.LoginPath, http.StatusSeeOther)
}
