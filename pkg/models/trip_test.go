package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreaTypeEnumeration(t *testing.T) {
	types := AreaTypes()
	require.Len(t, types, 6)
	assert.Equal(t, AreaTypeBird, types[0])

	for _, typ := range types {
		assert.True(t, typ.Valid(), typ)
		assert.NotEqual(t, string(typ), typ.Label(), "every known type has a label")
	}

	got, err := ParseAreaType("geoparks")
	require.NoError(t, err)
	assert.Equal(t, "Geoparks", got.Label())

	_, err = ParseAreaType("volcanoes")
	assert.Error(t, err)
	assert.Equal(t, "volcanoes", AreaType("volcanoes").Label())

	// Mutating the returned slice must not leak into the enumeration.
	types[0] = "x"
	assert.Equal(t, AreaTypeBird, AreaTypes()[0])
}

func TestNewDraftDefaults(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	area := ClickedArea{ID: "a7", Name: "Lakeview", Position: GeoPoint{Lat: 10, Lng: 20}}

	draft := NewDraft(area, date)

	assert.Equal(t, "a7", draft.AreaID)
	assert.Equal(t, "Lakeview", draft.AreaName)
	assert.Equal(t, DefaultTripName, draft.Name)
	assert.Equal(t, []string{DefaultTripNote}, draft.Notes)
	assert.True(t, draft.Date.Equal(date))
}

func TestTripFromFieldsDecodesStoredDocument(t *testing.T) {
	date := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	draft := NewDraft(ClickedArea{ID: "a7", Name: "Lakeview", Position: GeoPoint{Lat: 10, Lng: 20}}, date)

	fields := draft.Document().Fields()
	fields[FieldID] = "X1"

	trip, err := TripFromFields("X1", fields)
	require.NoError(t, err)
	assert.Equal(t, "X1", trip.ID)
	assert.Equal(t, "X1", trip.Key)
	assert.Equal(t, GeoPoint{Lat: 10, Lng: 20}, trip.Position)
	assert.True(t, trip.Date.Equal(date))
	assert.Equal(t, []string{DefaultTripNote}, trip.Notes)
	assert.False(t, trip.Orphaned())

	delete(fields, FieldID)
	orphan, err := TripFromFields("X2", fields)
	require.NoError(t, err)
	assert.True(t, orphan.Orphaned())
}

func TestIdentityNameToDisplay(t *testing.T) {
	assert.Equal(t, "Ada", Identity{UID: "u1", DisplayName: "Ada", Email: "ada@example.com"}.NameToDisplay())
	assert.Equal(t, "ada@example.com", Identity{UID: "u1", Email: "ada@example.com"}.NameToDisplay())
	assert.True(t, Identity{UID: "  "}.Anonymous())
}
