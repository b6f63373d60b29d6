// Package store provides the central state store for the trip planner.
package store

import (
	"github.com/grovetools/areatrip/pkg/models"
)

// PanelContext selects the content of the side panel.
type PanelContext string

const (
	PanelMenu    PanelContext = "menu"
	PanelWeather PanelContext = "weather"
)

// Valid reports whether c is a known panel context.
func (c PanelContext) Valid() bool {
	return c == PanelMenu || c == PanelWeather
}

// AuthStatus is the tri-state view of the session.
type AuthStatus int

const (
	AuthNotLoaded AuthStatus = iota
	AuthAnonymous
	AuthAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "not-loaded"
	}
}

// AuthState mirrors the session bridge. Loaded distinguishes boot time from
// a loaded anonymous session.
type AuthState struct {
	Loaded      bool   `json:"loaded"`
	UID         string `json:"uid,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Status collapses the fields into the tri-state.
func (a AuthState) Status() AuthStatus {
	switch {
	case !a.Loaded:
		return AuthNotLoaded
	case a.UID == "":
		return AuthAnonymous
	default:
		return AuthAuthenticated
	}
}

// IsAuthenticated is true only for a loaded session with a user id.
func (a AuthState) IsAuthenticated() bool {
	return a.Status() == AuthAuthenticated
}

// NameToDisplay prefers the display name and falls back to the email.
func (a AuthState) NameToDisplay() string {
	return models.Identity{UID: a.UID, DisplayName: a.DisplayName, Email: a.Email}.NameToDisplay()
}

// NavigationState holds the side panel. PanelContext is kept while the panel
// is closed.
type NavigationState struct {
	PanelOpened  bool         `json:"panelOpened"`
	PanelContext PanelContext `json:"panelContext"`
}

// AreasState holds the loaded area collection and the planning selection.
type AreasState struct {
	IsDownloading bool                             `json:"isDownloading"`
	BirdAreas     *models.CompressedAreaCollection `json:"birdAreas,omitempty"`
	ClickedArea   *models.ClickedArea              `json:"clickedArea,omitempty"`
}

// WeatherState is read by the weather widget.
type WeatherState struct {
	Reinitialize bool             `json:"reinitialize"`
	Location     *models.GeoPoint `json:"location,omitempty"`
}

// State is one immutable snapshot. Slices are replaced, never mutated, so
// consumers can compare slice pointers to detect changes.
type State struct {
	Areas      *AreasState      `json:"areas"`
	Navigation *NavigationState `json:"navigation"`
	Auth       *AuthState       `json:"auth"`
	Weather    *WeatherState    `json:"weather"`
}

// InitialState is the boot snapshot: panel closed on the menu, session not
// loaded, nothing selected.
func InitialState() State {
	return State{
		Areas:      &AreasState{},
		Navigation: &NavigationState{PanelOpened: false, PanelContext: PanelMenu},
		Auth:       &AuthState{},
		Weather:    &WeatherState{},
	}
}

// ActionType names a state transition.
type ActionType string

const (
	ActionBirdAreasDownloaded  ActionType = "BIRD_AREAS_DOWNLOADED"
	ActionSetDownloading       ActionType = "SET_DOWNLOADING"
	ActionSetClickedArea       ActionType = "SET_CLICKED_AREA"
	ActionSetRightPanelContext ActionType = "SET_RIGHT_PANEL_CONTEXT"
	ActionToggleRightPanel     ActionType = "TOGGLE_RIGHT_PANEL"
	ActionSetRightPanelOpened  ActionType = "SET_RIGHT_PANEL_OPENED"
	ActionReinitializeWeather  ActionType = "REINITIALIZE_WEATHER"
	ActionSetWeatherLocation   ActionType = "SET_WEATHER_LOCATION"
	ActionAuthChanged          ActionType = "AUTH_CHANGED"
)

// Action is a dispatched transition request.
type Action struct {
	Type    ActionType
	Payload interface{}
}

// PanelPayload is the payload of ActionSetRightPanelContext.
type PanelPayload struct {
	Context PanelContext
	Opened  bool
}

// BirdAreasDownloaded stores a freshly loaded collection and ends the download.
func BirdAreasDownloaded(c *models.CompressedAreaCollection) Action {
	return Action{Type: ActionBirdAreasDownloaded, Payload: c}
}

// SetDownloading flags an area download in progress.
func SetDownloading(downloading bool) Action {
	return Action{Type: ActionSetDownloading, Payload: downloading}
}

// SetClickedArea replaces the selection; nil clears it.
func SetClickedArea(area *models.ClickedArea) Action {
	if area != nil {
		copied := *area
		area = &copied
	}
	return Action{Type: ActionSetClickedArea, Payload: area}
}

// SetRightPanelContext sets panel content and visibility in one step.
func SetRightPanelContext(ctx PanelContext, opened bool) Action {
	return Action{Type: ActionSetRightPanelContext, Payload: PanelPayload{Context: ctx, Opened: opened}}
}

// ToggleRightPanel flips panel visibility and keeps its content.
func ToggleRightPanel() Action {
	return Action{Type: ActionToggleRightPanel}
}

// SetRightPanelOpened shows or hides the panel and keeps its content.
func SetRightPanelOpened(opened bool) Action {
	return Action{Type: ActionSetRightPanelOpened, Payload: opened}
}

// ReinitializeWeather asks the weather widget to reload.
func ReinitializeWeather(reinitialize bool) Action {
	return Action{Type: ActionReinitializeWeather, Payload: reinitialize}
}

// SetWeatherLocation points the weather widget at a position.
func SetWeatherLocation(p models.GeoPoint) Action {
	return Action{Type: ActionSetWeatherLocation, Payload: p}
}

// AuthChanged mirrors the session bridge into the store.
func AuthChanged(a AuthState) Action {
	return Action{Type: ActionAuthChanged, Payload: a}
}
