package httpx

import (
	"context"
	"net/http"
	"slices"

	"github.com/wastedesk/admingate/pkg/slogx"
)

// Well-known navigation targets used by gate redirects.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
	DefaultPath      = "/dashboard"

	// RedirectParam is the query parameter that preserves the originally
	// requested path across the login round trip.
	RedirectParam = "redirect"
)

// Mode classifies a navigable route for the access gate.
type Mode int

const (
	// ModePublic routes render regardless of session state.
	ModePublic Mode = iota

	// ModeAuthOnly routes (login-like pages) render for anonymous visitors
	// and redirect authenticated ones away.
	ModeAuthOnly

	// ModeProtected routes require an authenticated session, optionally
	// narrowed to a set of role names.
	ModeProtected
)

// Requirement is the access rule declared statically alongside a route.
type Requirement struct {
	Mode Mode

	// Roles narrows a ModeProtected route to these role names. Empty means
	// any authenticated role.
	Roles []string
}

// SessionState is the gate's view of the current session. User travels
// opaquely; the gate injects it into request context on render.
type SessionState struct {
	Loading       bool
	Authenticated bool
	RoleName      string
	User          any
}

// Outcome enumerates what the gate decided to do with a request.
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeLoading
	OutcomeRedirectLogin
	OutcomeRedirectUnauthorized
	OutcomeRedirectAway
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectUnauthorized:
		return "redirect_unauthorized"
	case OutcomeRedirectAway:
		return "redirect_away"
	}
	return "unknown"
}

// Decision couples an outcome with its redirect target, if any.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide maps session state plus a route requirement to a render/redirect
// decision. path is the originally requested path, redirectParam the value of
// the "redirect" query parameter (relevant for auth-only routes). Every input
// yields a decision; there is no error branch.
func Decide(s SessionState, req Requirement, path, redirectParam string) Decision {
	if req.Mode == ModePublic {
		return Decision{Outcome: OutcomeRender}
	}

	if s.Loading {
		return Decision{Outcome: OutcomeLoading}
	}

	if req.Mode == ModeAuthOnly {
		if !s.Authenticated {
			return Decision{Outcome: OutcomeRender}
		}
		target := redirectParam
		if target == "" || target[0] != '/' {
			target = DefaultPath
		}
		return Decision{Outcome: OutcomeRedirectAway, Location: target}
	}

	if !s.Authenticated {
		return Decision{
			Outcome:  OutcomeRedirectLogin,
			Location: LoginPath + "?" + RedirectParam + "=" + path,
		}
	}

	if len(req.Roles) > 0 && !slices.Contains(req.Roles, s.RoleName) {
		return Decision{Outcome: OutcomeRedirectUnauthorized, Location: UnauthorizedPath}
	}

	return Decision{Outcome: OutcomeRender}
}

// SessionResolver produces the current session state for a request.
type SessionResolver func(r *http.Request) SessionState

// LoadingRenderer renders the placeholder shown while the session is still
// settling. The gate never redirects in that window.
type LoadingRenderer func(w http.ResponseWriter, r *http.Request)

// DecisionObserver is notified of every gate decision (metrics hook).
type DecisionObserver func(Decision)

// GateOptions tune the gate middleware; zero value is usable.
type GateOptions struct {
	RenderLoading LoadingRenderer
	Observe       DecisionObserver
}

// Gate returns middleware enforcing req for every request, consulting resolve
// for the session state. On render, the resolved user and role name are
// injected into the request context.
func Gate(resolve SessionResolver, req Requirement, opts GateOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := resolve(r)
			decision := Decide(state, req, r.URL.Path, r.URL.Query().Get(RedirectParam))

			if opts.Observe != nil {
				opts.Observe(decision)
			}

			switch decision.Outcome {
			case OutcomeLoading:
				if opts.RenderLoading != nil {
					opts.RenderLoading(w, r)
					return
				}
				NoCache(w)
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte("loading"))

			case OutcomeRedirectLogin, OutcomeRedirectUnauthorized, OutcomeRedirectAway:
				slogx.FromContext(r.Context()).Debug("gate redirect",
					"outcome", decision.Outcome.String(),
					"location", decision.Location,
				)
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)

			default:
				next.ServeHTTP(w, r.WithContext(contextWithSession(r.Context(), state)))
			}
		})
	}
}

func contextWithSession(ctx context.Context, s SessionState) context.Context {
	if s.User != nil {
		ctx = context.WithValue(ctx, CtxKeyUser, s.User)
	}
	if s.RoleName != "" {
		ctx = context.WithValue(ctx, CtxKeyRole, s.RoleName)
	}
	return ctx
}
