package dashboard

import (
	"github.com/clinithetics/emr/internal/platform/presentation"
)

// State is the load state of a module.
type State uint8

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
	stateCount
)

var stateNames = [...]string{"idle", "loading", "ready", "failed"}

var stateBadges = [...]presentation.Badge{
	{Label: "Idle", Tone: presentation.ToneNeutral},
	{Label: "Loading", Tone: presentation.ToneInfo},
	{Label: "Ready", Tone: presentation.ToneSuccess},
	{Label: "Failed", Tone: presentation.ToneDanger},
}

var (
	_ = [1]struct{}{}[len(stateNames)-int(stateCount)]
	_ = [1]struct{}{}[len(stateBadges)-int(stateCount)]
)

func (s State) String() string               { return presentation.Name(stateNames[:], s) }
func (s State) Badge() presentation.Badge    { return presentation.BadgeOf(stateBadges[:], s) }
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Route is where the router sends a session.
type Route uint8

const (
	RouteLoading Route = iota
	RouteUnauthenticated
	RouteAdmin
	RouteDoctor
	RoutePatient
	RouteDenied
	routeCount
)

var routeNames = [...]string{"loading", "unauthenticated", "admin", "doctor", "patient", "denied"}

var _ = [1]struct{}{}[len(routeNames)-int(routeCount)]

func (r Route) String() string               { return presentation.Name(routeNames[:], r) }
func (r Route) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// IsView reports whether the route renders a dashboard.
func (r Route) IsView() bool {
	return r == RouteAdmin || r == RouteDoctor || r == RoutePatient
}
