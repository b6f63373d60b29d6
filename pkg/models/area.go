package models

import (
	"fmt"
	"strings"
	"time"
)

// AreaType is the category tag of a geographic area. The same set of values
// drives the side menu labels and validates /map/:areaType routes.
type AreaType string

const (
	AreaTypeBird           AreaType = "birdAreas"
	AreaTypeLargeProtected AreaType = "largeProtectedAreas"
	AreaTypeSmall          AreaType = "smallAreas"
	AreaTypeEU             AreaType = "euAreas"
	AreaTypeGeopark        AreaType = "geoparks"
	AreaTypeBio            AreaType = "bioAreas"
)

var areaTypes = []AreaType{
	AreaTypeBird,
	AreaTypeLargeProtected,
	AreaTypeSmall,
	AreaTypeEU,
	AreaTypeGeopark,
	AreaTypeBio,
}

var areaTypeLabels = map[AreaType]string{
	AreaTypeBird:           "Bird Areas",
	AreaTypeLargeProtected: "Large Protected Areas",
	AreaTypeSmall:          "Small Areas",
	AreaTypeEU:             "Eu Areas",
	AreaTypeGeopark:        "Geoparks",
	AreaTypeBio:            "Bio Areas",
}

// AreaTypes returns every known area type in menu order.
func AreaTypes() []AreaType {
	out := make([]AreaType, len(areaTypes))
	copy(out, areaTypes)
	return out
}

// Valid reports whether t is one of the known area types.
func (t AreaType) Valid() bool {
	_, ok := areaTypeLabels[t]
	return ok
}

// Label returns the display label, or the raw tag for unknown types.
func (t AreaType) Label() string {
	if label, ok := areaTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// ParseAreaType validates a raw tag such as a route parameter.
func ParseAreaType(s string) (AreaType, error) {
	t := AreaType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown area type %q", s)
	}
	return t, nil
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lng float64 `json:"lng" yaml:"lng" mapstructure:"lng"`
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// Area is one entry of an area collection as delivered to the map layer.
type Area struct {
	ID       string                 `json:"id" yaml:"id"`
	Name     string                 `json:"name" yaml:"name"`
	Position GeoPoint               `json:"position" yaml:"position"`
	Type     AreaType               `json:"type,omitempty" yaml:"type,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ClickedArea is the area currently selected for trip planning.
type ClickedArea struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Position GeoPoint `json:"position" yaml:"position"`
	Type     AreaType `json:"type,omitempty" yaml:"type,omitempty"`
}

// Clicked converts an area into a selection value.
func (a Area) Clicked() ClickedArea {
	return ClickedArea{ID: a.ID, Name: a.Name, Position: a.Position, Type: a.Type}
}

// CompressedAreaCollection is the reduced area set kept in the store: point
// positions only, no polygons.
type CompressedAreaCollection struct {
	Type         AreaType  `json:"type" yaml:"type"`
	Areas        []Area    `json:"areas" yaml:"areas"`
	DownloadedAt time.Time `json:"downloadedAt,omitempty" yaml:"downloadedAt,omitempty"`
}

// Find returns the area with the given id.
func (c *CompressedAreaCollection) Find(id string) (Area, bool) {
	if c == nil {
		return Area{}, false
	}
	for _, a := range c.Areas {
		if a.ID == id {
			return a, true
		}
	}
	return Area{}, false
}

// Len is nil-safe.
func (c *CompressedAreaCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Areas)
}
