package dashboard

import (
	"sync"

	"github.com/clinithetics/emr/internal/domain/identity"
)

// Router decides once which dashboard a session gets. After it settles it
// ignores every further event; a new session gets a new router.
type Router struct {
	mu    sync.Mutex
	route Route
	role  identity.Role
}

func NewRouter() *Router {
	return &Router{route: RouteLoading}
}

func (r *Router) Route() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

// Role is meaningful only when Route().IsView().
func (r *Router) Role() identity.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

// SignedOut settles the router as Unauthenticated.
func (r *Router) SignedOut() Route {
	return r.settle(RouteUnauthenticated, 0)
}

// Resolved settles the router from a role lookup. Any error, including a
// missing role, denies access.
func (r *Router) Resolved(role identity.Role, err error) Route {
	if err != nil {
		return r.settle(RouteDenied, 0)
	}
	switch role {
	case identity.RoleSuperAdmin:
		return r.settle(RouteAdmin, role)
	case identity.RoleDoctor:
		return r.settle(RouteDoctor, role)
	case identity.RolePatient:
		return r.settle(RoutePatient, role)
	}
	return r.settle(RouteDenied, 0)
}

func (r *Router) settle(route Route, role identity.Role) Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.route != RouteLoading {
		return r.route
	}
	r.route = route
	r.role = role
	return r.route
}
