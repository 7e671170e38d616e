// Package guard implements the role-based route access rules for the
// console. The decision logic is pure: callers feed it the session
// role, the authentication flag and the requested route, and act on
// the returned decision.
package guard

import "github.com/helicode/ambassador-console-go/internal/domain"

// Console routes.
const (
	RouteLanding             = "/"
	RouteDashboard           = "/dashboard"
	RouteAdminDashboard      = "/admin-dashboard"
	RouteAmbassadorDashboard = "/ambassador-dashboard"
)

// Action is what the caller should do with the request.
type Action int

const (
	// Allow serves the requested route as-is.
	Allow Action = iota
	// Redirect sends the caller to Decision.Target instead.
	Redirect
	// Deny renders an unauthorized view without a redirect.
	Deny
)

// Decision is the guard's verdict for one route request.
type Decision struct {
	Action Action
	Target string
}

// protected reports whether a route requires an authenticated session.
func protected(path string) bool {
	switch path {
	case RouteDashboard, RouteAdminDashboard, RouteAmbassadorDashboard:
		return true
	}
	return false
}

// Check evaluates the access rules for a route request:
// unauthenticated sessions are sent to the landing route for any
// protected path, and authenticated sessions landing on the wrong
// role's dashboard are redirected to their own. The guard runs before
// any data fetch, so a denied request never triggers API calls.
func Check(role domain.Role, authenticated bool, path string) Decision {
	if !authenticated {
		if protected(path) {
			return Decision{Action: Redirect, Target: RouteLanding}
		}
		return Decision{Action: Allow}
	}

	switch path {
	case RouteAdminDashboard:
		if role != domain.RoleAdmin {
			return Decision{Action: Redirect, Target: RouteAmbassadorDashboard}
		}
	case RouteAmbassadorDashboard:
		if role != domain.RoleAmbassador {
			return Decision{Action: Redirect, Target: RouteAdminDashboard}
		}
	}
	return Decision{Action: Allow}
}

// DashboardView resolves the role-dispatching dashboard route: admins
// get the admin view, ambassadors the ambassador view. A session with
// no recognized role gets a denial rather than a redirect loop.
func DashboardView(role domain.Role, authenticated bool) Decision {
	if !authenticated {
		return Decision{Action: Redirect, Target: RouteLanding}
	}
	switch role {
	case domain.RoleAdmin:
		return Decision{Action: Allow, Target: RouteAdminDashboard}
	case domain.RoleAmbassador:
		return Decision{Action: Allow, Target: RouteAmbassadorDashboard}
	}
	return Decision{Action: Deny}
}
