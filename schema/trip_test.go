package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/grovetools/areatrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() models.TripDocument {
	return models.NewDraft(models.ClickedArea{
		ID:       "a7",
		Name:     "Lakeview",
		Position: models.GeoPoint{Lat: 50.1, Lng: 14.4},
	}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).Document()
}

func TestGenerateTripSchema(t *testing.T) {
	data, err := GenerateTripSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, field := range []string{"areaId", "areaName", "position", "name", "date", "notes"} {
		assert.Contains(t, props, field)
	}
}

func TestValidateTrip(t *testing.T) {
	require.NoError(t, ValidateTrip(validDocument()))

	tests := []struct {
		name   string
		mutate func(*models.TripDocument)
	}{
		{"missing area id", func(d *models.TripDocument) { d.AreaID = "" }},
		{"missing area name", func(d *models.TripDocument) { d.AreaName = "" }},
		{"blank name", func(d *models.TripDocument) { d.Name = "" }},
		{"no notes", func(d *models.TripDocument) { d.Notes = []string{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(&doc)
			err := ValidateTrip(doc)
			require.Error(t, err)
			var schemaErr *Error
			require.ErrorAs(t, err, &schemaErr)
			assert.NotEmpty(t, schemaErr.Messages)
		})
	}
}
