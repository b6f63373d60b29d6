// Package panel drives the side panel: whether it is open and which content
// (navigation menu or weather) it shows.
package panel

import (
	"github.com/grovetools/areatrip/internal/store"
)

// Controller is the side panel state machine. Visibility and content are
// separate fields: Toggle only flips visibility, SetContext sets both.
type Controller struct {
	store *store.Store
}

// New creates a controller over the given store.
func New(st *store.Store) *Controller {
	return &Controller{store: st}
}

// State returns the current navigation slice.
func (c *Controller) State() store.NavigationState {
	return *c.store.GetState().Navigation
}

// Toggle opens a closed panel and closes an open one. The context is left as
// is, so reopening shows whatever was shown last.
func (c *Controller) Toggle() {
	c.store.Dispatch(store.ToggleRightPanel())
}

// SetContext sets content and visibility in a single dispatch, so the panel
// never shows the wrong content while opening.
func (c *Controller) SetContext(ctx store.PanelContext, opened bool) {
	c.store.Dispatch(store.SetRightPanelContext(ctx, opened))
}

// Open shows the panel with its current content.
func (c *Controller) Open() {
	c.store.Dispatch(store.SetRightPanelOpened(true))
}

// Close hides the panel and keeps its content.
func (c *Controller) Close() {
	c.store.Dispatch(store.SetRightPanelOpened(false))
}
