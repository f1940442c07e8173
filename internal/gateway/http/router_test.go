package http_test

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gatewayhttp "github.com/wastedesk/admingate/internal/gateway/http"
	"github.com/wastedesk/admingate/internal/gateway/identity"
	"github.com/wastedesk/admingate/internal/gateway/session"
	"github.com/wastedesk/admingate/internal/gateway/store/drivers/sqlite"
	"github.com/wastedesk/admingate/pkg/cryptox"
)

// fakeBackend stands in for the concierge API: login, profile, and a couple
// of proxied admin endpoints.
type fakeBackend struct {
	t        *testing.T
	token    string
	roleName string

	lastAuthHeader string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&creds))

		if creds["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "login success", map[string]string{"token": b.token})
	})

	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "success", map[string]any{
			"id":       "usr-1",
			"username": "alice",
			"roleId":   "role-2",
			"role":     map[string]string{"id": "role-2", "name": b.roleName},
		})
	})

	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		b.lastAuthHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("dashboard content"))
	})

	mux.HandleFunc("/api/v1/amenities", func(w http.ResponseWriter, r *http.Request) {
		// Simulates the backend revoking the credential mid-session.
		writeEnvelope(w, http.StatusUnauthorized, "token revoked", nil)
	})

	return mux
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      http.StatusText(status),
		"success":     status < 400,
		"status_code": status,
		"message":     message,
		"data":        data,
	})
}

func bearerToken(t *testing.T, exp time.Time) string {
	t.Helper()

	enc := func(v any) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	header := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	claims := enc(map[string]any{"userId": "usr-1", "exp": exp.Unix()})
	return header + "." + claims + ".c2ln"
}

type gatewayFixture struct {
	srv     *httptest.Server
	backend *fakeBackend
	client  *http.Client
}

func newGatewayFixture(t *testing.T, roleName string) *gatewayFixture {
	t.Helper()

	backend := &fakeBackend{
		t:        t,
		token:    bearerToken(t, time.Now().Add(time.Hour)),
		roleName: roleName,
	}
	backendSrv := httptest.NewServer(backend.handler())
	t.Cleanup(backendSrv.Close)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sealer, err := cryptox.NewSealerFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)

	registry := session.NewRegistry(session.RegistryConfig{
		Sessions:     st.Sessions(),
		Sealer:       sealer,
		API:          identity.NewClient(backendSrv.URL),
		AllowedRoles: []string{"tenant_admin", "super_admin"},
		SessionTTL:   time.Hour,
		ManagerTTL:   time.Minute,
	})

	backendURL, err := url.Parse(backendSrv.URL)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	handler := gatewayhttp.NewHandler(gatewayhttp.HandlerConfig{
		Log:      logger,
		Registry: registry,
		Store:    st,
		Proxy:    gatewayhttp.NewBackendProxy(backendURL, registry, logger),
	})

	router := gatewayhttp.NewRouter(handler, logger)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar := newCookieJar(t)
	return &gatewayFixture{
		srv:     srv,
		backend: backend,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func (f *gatewayFixture) login(t *testing.T, username, password string) *http.Response {
	t.Helper()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := f.client.Post(f.srv.URL+"/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *gatewayFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := f.client.Get(f.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAnonymousProtectedRouteRedirectsToLogin(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")

	resp := f.get(t, "/facilities")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?redirect=/facilities", resp.Header.Get("Location"))
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	t.Run("SuccessSetsCookieAndRedirects", func(t *testing.T) {
		t.Parallel()

		f := newGatewayFixture(t, "tenant_admin")

		resp := f.login(t, "alice", "secret")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/dashboard", resp.Header.Get("Location"))

		var sawCookie bool
		for _, c := range resp.Cookies() {
			if c.Name == gatewayhttp.SessionCookie && c.Value != "" {
				sawCookie = true
				require.True(t, c.HttpOnly)
			}
		}
		require.True(t, sawCookie, "login should set the session cookie")
	})

	t.Run("BadPassword", func(t *testing.T) {
		t.Parallel()

		f := newGatewayFixture(t, "tenant_admin")

		resp := f.login(t, "alice", "wrong")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("DisallowedRoleGetsInsufficientPermissions", func(t *testing.T) {
		t.Parallel()

		f := newGatewayFixture(t, "user")

		resp := f.login(t, "alice", "secret")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		body := make([]byte, 4096)
		n, _ := resp.Body.Read(body)
		require.Contains(t, string(body[:n]), "insufficient permissions")
	})
}

func TestAuthenticatedSessionReachesBackend(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")
	f.login(t, "alice", "secret")

	resp := f.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Bearer "+f.backend.token, f.backend.lastAuthHeader,
		"proxy should attach the stored bearer credential")
}

func TestSuperAdminOnlyRoutes(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")
	f.login(t, "alice", "secret")

	resp := f.get(t, "/users")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/unauthorized", resp.Header.Get("Location"))
}

func TestAuthOnlyLoginRedirectsAway(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "super_admin")
	f.login(t, "alice", "secret")

	resp := f.get(t, "/login")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = f.get(t, "/login?redirect=/facilities")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/facilities", resp.Header.Get("Location"))
}

func TestBackendRejectionInvalidatesSession(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")
	f.login(t, "alice", "secret")

	// The backend answers 401 for this path; the gateway turns that into a
	// login redirect and drops the stored session.
	resp := f.get(t, "/api/v1/amenities")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = f.get(t, "/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"),
		"invalidated session should be sent back to login, got %q", resp.Header.Get("Location"))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")
	f.login(t, "alice", "secret")

	resp, err := f.client.Post(f.srv.URL+"/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	after := f.get(t, "/dashboard")
	require.Equal(t, http.StatusSeeOther, after.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")

	resp := f.get(t, "/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRootRedirectsToDashboard(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t, "tenant_admin")

	resp := f.get(t, "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}
