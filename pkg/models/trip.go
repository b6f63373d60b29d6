package models

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Draft defaults used when a trip is first opened for planning.
const (
	DefaultTripName = "My Trip"
	DefaultTripNote = "I should take some beers..."
)

// Document field names of a persisted trip.
const (
	FieldID       = "id"
	FieldAreaID   = "areaId"
	FieldAreaName = "areaName"
	FieldPosition = "position"
	FieldName     = "name"
	FieldDate     = "date"
	FieldNotes    = "notes"
)

// Trip is a persisted trip record.
type Trip struct {
	ID       string    `json:"id,omitempty" mapstructure:"id"`
	AreaID   string    `json:"areaId" mapstructure:"areaId"`
	AreaName string    `json:"areaName" mapstructure:"areaName"`
	Position GeoPoint  `json:"position" mapstructure:"position"`
	Name     string    `json:"name" mapstructure:"name"`
	Date     time.Time `json:"date" mapstructure:"date"`
	Notes    []string  `json:"notes" mapstructure:"notes"`

	// Key is the storage key the document lives under. It equals ID for every
	// finalized trip; orphans have a Key but no ID.
	Key string `json:"-" mapstructure:"-"`
}

// Orphaned reports whether the document never received its id patch.
func (t Trip) Orphaned() bool {
	return t.ID == "" && t.Key != ""
}

// TripDocument is the shape written in the first phase of a trip write.
// It doubles as the source of the trip JSON schema.
type TripDocument struct {
	AreaID   string    `json:"areaId" jsonschema:"minLength=1"`
	AreaName string    `json:"areaName" jsonschema:"minLength=1"`
	Position GeoPoint  `json:"position"`
	Name     string    `json:"name" jsonschema:"minLength=1"`
	Date     time.Time `json:"date"`
	Notes    []string  `json:"notes" jsonschema:"minItems=1"`
}

// TripDraft is a client-held trip prior to persistence.
type TripDraft struct {
	AreaID   string
	AreaName string
	Position GeoPoint
	Name     string
	Date     time.Time
	Notes    []string
}

// NewDraft seeds a draft from the selected area with the default name, the
// given date and a single default note.
func NewDraft(area ClickedArea, date time.Time) TripDraft {
	return TripDraft{
		AreaID:   area.ID,
		AreaName: area.Name,
		Position: area.Position,
		Name:     DefaultTripName,
		Date:     date,
		Notes:    []string{DefaultTripNote},
	}
}

// Document returns the phase one document body.
func (d TripDraft) Document() TripDocument {
	notes := make([]string, len(d.Notes))
	copy(notes, d.Notes)
	return TripDocument{
		AreaID:   d.AreaID,
		AreaName: d.AreaName,
		Position: d.Position,
		Name:     d.Name,
		Date:     d.Date,
		Notes:    notes,
	}
}

// Fields flattens the document into store fields.
func (d TripDocument) Fields() map[string]interface{} {
	notes := make([]interface{}, len(d.Notes))
	for i, n := range d.Notes {
		notes[i] = n
	}
	return map[string]interface{}{
		FieldAreaID:   d.AreaID,
		FieldAreaName: d.AreaName,
		FieldPosition: map[string]interface{}{"lat": d.Position.Lat, "lng": d.Position.Lng},
		FieldName:     d.Name,
		FieldDate:     d.Date.UTC().Format(time.RFC3339Nano),
		FieldNotes:    notes,
	}
}

// TripFromFields decodes a stored document into a Trip.
func TripFromFields(key string, fields map[string]interface{}) (Trip, error) {
	var trip Trip
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &trip,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook,
		),
	})
	if err != nil {
		return Trip{}, fmt.Errorf("create trip decoder: %w", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return Trip{}, fmt.Errorf("decode trip %s: %w", key, err)
	}
	trip.Key = key
	return trip, nil
}

// stringToTimeHook accepts RFC 3339 strings and native time values so that
// every backend round-trips dates the same way.
func stringToTimeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, v)
	case time.Time:
		return v, nil
	}
	return data, nil
}
