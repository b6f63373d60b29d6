package panel

import (
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
)

// MenuItem is one entry of the navigation menu.
type MenuItem struct {
	Label string
	Path  string
}

// MenuItems lists the navigation entries visible for the given session:
// Home, My trips for signed-in users, then one entry per area type.
func MenuItems(auth store.AuthState) []MenuItem {
	items := []MenuItem{{Label: "Home", Path: routes.PathHome}}
	if auth.IsAuthenticated() {
		items = append(items, MenuItem{Label: "My trips", Path: routes.PathTrips})
	}
	for _, t := range models.AreaTypes() {
		items = append(items, MenuItem{Label: t.Label(), Path: routes.MapPath(t)})
	}
	return items
}

// LoginLabel is the header button text.
func LoginLabel(auth store.AuthState) string {
	if !auth.IsAuthenticated() {
		return "Login"
	}
	if name := auth.NameToDisplay(); name != "" {
		return name
	}
	return auth.UID
}

// Navigator moves between screens.
type Navigator interface {
	Navigate(path string) (routes.Match, error)
}

// Follow closes the panel and navigates to the entry's path. The panel is
// closed even when navigation is refused.
func (c *Controller) Follow(item MenuItem, nav Navigator) (routes.Match, error) {
	c.Close()
	return nav.Navigate(item.Path)
}
