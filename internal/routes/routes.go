// Package routes maps paths to screens and gates navigation on the session.
package routes

import (
	"strings"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/pkg/models"
)

// Name identifies a screen.
type Name string

const (
	Home       Name = "home"
	Map        Name = "map"
	Trips      Name = "trips"
	PlanTrip   Name = "plan-trip"
	TripDetail Name = "trip-detail"
	NotFound   Name = "not-found"
)

// Paths of the fixed routes.
const (
	PathHome     = "/"
	PathTrips    = "/trips"
	PathPlanTrip = "/plan-trip"

	prefixMap        = "/map/"
	prefixTripDetail = "/trip-detail/"
)

// Match is a resolved path.
type Match struct {
	Name     Name
	Path     string
	AreaType models.AreaType
	TripID   string
}

// RequiresAuth reports whether the screen needs a signed-in user.
func (m Match) RequiresAuth() bool {
	return m.Name == Trips || m.Name == TripDetail
}

// Planning reports whether the screen belongs to the trip planning workflow,
// the only screens that keep the selected area alive.
func (m Match) Planning() bool {
	return m.Name == Map || m.Name == PlanTrip
}

// MapPath builds the route of an area type.
func MapPath(t models.AreaType) string {
	return prefixMap + string(t)
}

// TripDetailPath builds the route of a trip.
func TripDetailPath(id string) string {
	return prefixTripDetail + id
}

// Resolve matches path against the route table. Unknown paths, including
// /map routes with an unknown area type, resolve to NotFound together with an
// UNKNOWN_ROUTE error.
func Resolve(path string) (Match, error) {
	clean := normalize(path)
	switch {
	case clean == PathHome:
		return Match{Name: Home, Path: clean}, nil
	case clean == PathTrips:
		return Match{Name: Trips, Path: clean}, nil
	case clean == PathPlanTrip:
		return Match{Name: PlanTrip, Path: clean}, nil
	case strings.HasPrefix(clean, prefixMap):
		param := strings.TrimPrefix(clean, prefixMap)
		if t, err := models.ParseAreaType(param); err == nil && !strings.Contains(param, "/") {
			return Match{Name: Map, Path: clean, AreaType: t}, nil
		}
	case strings.HasPrefix(clean, prefixTripDetail):
		id := strings.TrimPrefix(clean, prefixTripDetail)
		if id != "" && !strings.Contains(id, "/") {
			return Match{Name: TripDetail, Path: clean, TripID: id}, nil
		}
	}
	return Match{Name: NotFound, Path: clean}, apperrors.UnknownRoute(clean)
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
