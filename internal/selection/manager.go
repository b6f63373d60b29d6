// Package selection tracks the area that is the subject of trip planning.
package selection

import (
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
)

// Manager holds at most one selected area. The map layer is trusted to hand
// back valid areas, so no lookup against the loaded collection is done.
type Manager struct {
	store *store.Store
}

// New creates a selection manager over the given store.
func New(st *store.Store) *Manager {
	return &Manager{store: st}
}

// Select replaces any prior selection.
func (m *Manager) Select(area models.ClickedArea) {
	m.store.Dispatch(store.SetClickedArea(&area))
}

// Clear drops the selection.
func (m *Manager) Clear() {
	m.store.Dispatch(store.SetClickedArea(nil))
}

// Selected returns the current selection.
func (m *Manager) Selected() (models.ClickedArea, bool) {
	area := m.store.GetState().Areas.ClickedArea
	if area == nil {
		return models.ClickedArea{}, false
	}
	return *area, true
}
