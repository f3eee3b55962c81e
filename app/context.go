package app

import (
	"context"

	"github.com/specgate/specgate/core/spec"
)

type routeCtxKey struct{}

// Route is the request-scoped routing context the transport layer resolves
// before dispatch: the matched document entry, the template it matched
// under, and the extracted path parameters.
type Route struct {
	Match     *spec.Match
	RequestID string
}

// WithRoute attaches the resolved route to the request context.
func WithRoute(ctx context.Context, rt *Route) context.Context {
	return context.WithValue(ctx, routeCtxKey{}, rt)
}

// RouteFrom extracts the resolved route from the request context. A missing
// route means the transport layer skipped matching, which is a wiring bug,
// not a user error; callers fail fast.
func RouteFrom(ctx context.Context) (*Route, bool) {
	rt, ok := ctx.Value(routeCtxKey{}).(*Route)
	return rt, ok
}
