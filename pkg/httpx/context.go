package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUser carries the resolved user profile for a rendered view.
	CtxKeyUser ctxKey = "user"

	// CtxKeyRole carries the resolved role name.
	CtxKeyRole ctxKey = "role"
)

// SessionUser returns the user value injected by the gate, or nil when the
// request was not gated (public routes).
func SessionUser(ctx context.Context) any {
	return ctx.Value(CtxKeyUser)
}

// SessionRole returns the injected role name, or "".
func SessionRole(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
