package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/wastedesk/admingate/internal/gateway/session"
	"github.com/wastedesk/admingate/pkg/httpx"
	"github.com/wastedesk/admingate/pkg/slogx"
)

type proxyCtxKey string

const ctxKeyFingerprint proxyCtxKey = "session_fingerprint"

// NewBackendProxy reverse-proxies gated requests to the concierge backend.
// The browser's cookie never leaves the gateway; the stored bearer credential
// is attached instead. A 401 from the backend invalidates the session and
// bounces the visitor to the login page.
func NewBackendProxy(backend *url.URL, registry *session.Registry, log *slog.Logger) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")

			fp, ok := pr.In.Context().Value(ctxKeyFingerprint).(string)
			if !ok {
				return
			}
			pr.Out = pr.Out.WithContext(context.WithValue(pr.Out.Context(), ctxKeyFingerprint, fp))
			if bearer, ok := registry.Bearer(pr.In.Context(), fp); ok {
				pr.Out.Header.Set("Authorization", "Bearer "+bearer)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			if resp.StatusCode != http.StatusUnauthorized {
				return nil
			}

			// The backend stopped honouring the credential mid-session.
			ctx := resp.Request.Context()
			if fp, ok := ctx.Value(ctxKeyFingerprint).(string); ok {
				registry.Invalidate(ctx, fp)
			}

			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			resp.Body = io.NopCloser(strings.NewReader(""))
			resp.ContentLength = 0
			resp.Header = http.Header{}
			resp.Header.Set("Location", httpx.LoginPath)
			resp.Header.Set("Set-Cookie", (&http.Cookie{
				Name:     SessionCookie,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
			}).String())
			httpxNoCacheHeader(resp.Header)
			resp.StatusCode = http.StatusSeeOther
			resp.Status = http.StatusText(http.StatusSeeOther)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogx.FromContext(r.Context()).Error("backend proxy failed", slog.Any("error", err))
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		},
	}
	return proxy
}

func httpxNoCacheHeader(h http.Header) {
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
}

// proxyWithSession tags the request with its session fingerprint before
// handing it to the reverse proxy.
func (h *Handler) proxyWithSession(w http.ResponseWriter, r *http.Request) {
	if fp, ok := h.fingerprint(r); ok {
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyFingerprint, fp))
	}
	h.proxy.ServeHTTP(w, r)
}
