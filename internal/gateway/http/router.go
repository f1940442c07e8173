package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wastedesk/admingate/internal/gateway/domain"
	"github.com/wastedesk/admingate/internal/gateway/metrics"
	"github.com/wastedesk/admingate/pkg/httpx"
	"github.com/wastedesk/admingate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	handler *Handler
	logger  *slog.Logger
}

func NewRouter(handler *Handler, logger *slog.Logger) *Router {
	r := &Router{
		Mux:     http.NewServeMux(),
		handler: handler,
		logger:  logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdminViews()
	r.registerBackendAPI()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// gate builds the access-gate middleware for one route requirement, wired to
// this router's session resolver and metrics.
func (r *Router) gate(req httpx.Requirement) httpx.Middleware {
	return httpx.Gate(r.handler.resolver(req.Mode), req, httpx.GateOptions{
		RenderLoading: renderLoading,
		Observe: func(d httpx.Decision) {
			metrics.ObserveGateDecision(d.Outcome.String())
		},
	})
}

func (r *Router) registerAuth() {
	authOnly := httpx.Requirement{Mode: httpx.ModeAuthOnly}

	// GET /login - signed-in visitors are sent back where they came from
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(r.handler.loginPage),
			r.gate(authOnly),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /login - strict rate limit by IP + username to slow brute force
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(r.handler.handleLogin),
			r.gate(authOnly),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(r.handler.handleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	public := httpx.Requirement{Mode: httpx.ModePublic}
	r.Mux.Handle("GET /forgot-password",
		httpx.Chain(http.HandlerFunc(r.handler.forgotPasswordPage), r.gate(public)))
	r.Mux.Handle("GET /reset-password",
		httpx.Chain(http.HandlerFunc(r.handler.resetPasswordPage), r.gate(public)))
	r.Mux.Handle("GET /unauthorized",
		httpx.Chain(http.HandlerFunc(r.handler.unauthorizedPage), r.gate(public)))
}

// registerAdminViews guards the dashboard surface. Every view proxies to the
// backend with the stored credential attached; user and tenant management is
// additionally narrowed to super admins.
func (r *Router) registerAdminViews() {
	anyAdmin := httpx.Requirement{Mode: httpx.ModeProtected}
	superOnly := httpx.Requirement{
		Mode:  httpx.ModeProtected,
		Roles: []string{domain.RoleSuperAdmin},
	}

	proxied := http.HandlerFunc(r.handler.proxyWithSession)

	r.Mux.Handle("/{$}", http.RedirectHandler(httpx.DefaultPath, http.StatusSeeOther))

	adminViews := []string{
		"/dashboard",
		"/amenities",
		"/amenity-categories",
		"/facilities",
		"/services",
		"/service-categories",
		"/food-beverages",
		"/waste-records",
		"/transactions",
	}
	for _, view := range adminViews {
		guarded := httpx.Chain(proxied, r.gate(anyAdmin))
		r.Mux.Handle(view, guarded)
		r.Mux.Handle(view+"/", guarded)
	}

	// User and tenant administration is a platform-level concern.
	for _, view := range []string{"/users", "/tenants"} {
		guarded := httpx.Chain(proxied, r.gate(superOnly))
		r.Mux.Handle(view, guarded)
		r.Mux.Handle(view+"/", guarded)
	}
}

// registerBackendAPI forwards data-plane calls from admin views to the
// backend. The gate runs first, so only resolved, allow-listed sessions get
// their bearer attached and forwarded.
func (r *Router) registerBackendAPI() {
	anyAdmin := httpx.Requirement{Mode: httpx.ModeProtected}
	proxied := http.HandlerFunc(r.handler.proxyWithSession)

	r.Mux.Handle("/api/",
		httpx.Chain(proxied,
			r.gate(anyAdmin),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(r.handler.handleLivez),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(r.handler.handleReadyz),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
