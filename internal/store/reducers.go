package store

import (
	"github.com/grovetools/areatrip/pkg/models"
)

// Reduce computes the next snapshot. Slices an action does not touch keep
// their pointer; unknown actions and payloads of the wrong type return prev.
func Reduce(prev State, a Action) State {
	next := prev
	next.Areas = reduceAreas(prev.Areas, a)
	next.Navigation = reduceNavigation(prev.Navigation, a)
	next.Auth = reduceAuth(prev.Auth, a)
	next.Weather = reduceWeather(prev.Weather, a)
	return next
}

func reduceAreas(s *AreasState, a Action) *AreasState {
	switch a.Type {
	case ActionBirdAreasDownloaded:
		c, ok := a.Payload.(*models.CompressedAreaCollection)
		if !ok {
			return s
		}
		next := *s
		next.BirdAreas = c
		next.IsDownloading = false
		// ClickedArea is deliberately carried over.
		return &next
	case ActionSetDownloading:
		downloading, ok := a.Payload.(bool)
		if !ok || downloading == s.IsDownloading {
			return s
		}
		next := *s
		next.IsDownloading = downloading
		return &next
	case ActionSetClickedArea:
		area, ok := a.Payload.(*models.ClickedArea)
		if !ok {
			return s
		}
		if area == nil && s.ClickedArea == nil {
			return s
		}
		next := *s
		next.ClickedArea = area
		return &next
	}
	return s
}

func reduceNavigation(s *NavigationState, a Action) *NavigationState {
	switch a.Type {
	case ActionSetRightPanelContext:
		p, ok := a.Payload.(PanelPayload)
		if !ok || !p.Context.Valid() {
			return s
		}
		if s.PanelContext == p.Context && s.PanelOpened == p.Opened {
			return s
		}
		return &NavigationState{PanelOpened: p.Opened, PanelContext: p.Context}
	case ActionToggleRightPanel:
		return &NavigationState{PanelOpened: !s.PanelOpened, PanelContext: s.PanelContext}
	case ActionSetRightPanelOpened:
		opened, ok := a.Payload.(bool)
		if !ok || opened == s.PanelOpened {
			return s
		}
		return &NavigationState{PanelOpened: opened, PanelContext: s.PanelContext}
	}
	return s
}

func reduceAuth(s *AuthState, a Action) *AuthState {
	if a.Type != ActionAuthChanged {
		return s
	}
	auth, ok := a.Payload.(AuthState)
	if !ok || auth == *s {
		return s
	}
	return &auth
}

func reduceWeather(s *WeatherState, a Action) *WeatherState {
	switch a.Type {
	case ActionReinitializeWeather:
		v, ok := a.Payload.(bool)
		if !ok || v == s.Reinitialize {
			return s
		}
		next := *s
		next.Reinitialize = v
		return &next
	case ActionSetWeatherLocation:
		p, ok := a.Payload.(models.GeoPoint)
		if !ok {
			return s
		}
		if s.Location != nil && *s.Location == p {
			return s
		}
		next := *s
		next.Location = &p
		return &next
	}
	return s
}

// Changed reports whether any slice was replaced between two snapshots.
func Changed(prev, next State) bool {
	return prev.Areas != next.Areas ||
		prev.Navigation != next.Navigation ||
		prev.Auth != next.Auth ||
		prev.Weather != next.Weather
}
