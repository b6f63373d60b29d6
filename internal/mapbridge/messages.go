package mapbridge

import (
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
)

// Message types exchanged with the map widget.
const (
	// Server to widget.
	TypeState       = "state"
	TypeClickedArea = "clickedArea"
	TypeError       = "error"

	// Widget to server.
	TypeSelect = "select"
	TypeClear  = "clear"
)

// Message is one websocket frame.
type Message struct {
	Type  string              `json:"type"`
	Area  *models.ClickedArea `json:"area,omitempty"`
	State *Snapshot           `json:"state,omitempty"`
	Error string              `json:"error,omitempty"`
}

// Snapshot is the part of the store the map widget renders.
type Snapshot struct {
	IsDownloading bool                             `json:"isDownloading"`
	Areas         *models.CompressedAreaCollection `json:"areas,omitempty"`
	ClickedArea   *models.ClickedArea              `json:"clickedArea,omitempty"`
	Weather       *store.WeatherState              `json:"weather,omitempty"`
}

func snapshotOf(s store.State) *Snapshot {
	return &Snapshot{
		IsDownloading: s.Areas.IsDownloading,
		Areas:         s.Areas.BirdAreas,
		ClickedArea:   s.Areas.ClickedArea,
		Weather:       s.Weather,
	}
}
