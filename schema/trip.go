// Package schema generates and enforces the JSON Schemas of persisted
// documents.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/grovetools/areatrip/pkg/models"
	"github.com/invopop/jsonschema"
)

// GenerateTripSchema reflects the trip document written in the first phase
// of a trip write.
func GenerateTripSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// The finalize phase adds an id field to the same document.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		DoNotReference:            true,
		Anonymous:                 true,
		FieldNameTag:              "json",
	}

	schema := r.Reflect(&models.TripDocument{})
	schema.Title = "Trip"
	schema.Description = "A planned trip stored under users/{uid}/trips."

	return json.MarshalIndent(schema, "", "  ")
}

var (
	tripOnce      sync.Once
	tripValidator *Validator
	tripErr       error
)

// TripValidator returns the shared trip document validator.
func TripValidator() (*Validator, error) {
	tripOnce.Do(func() {
		data, err := GenerateTripSchema()
		if err != nil {
			tripErr = fmt.Errorf("generate trip schema: %w", err)
			return
		}
		tripValidator, tripErr = NewValidator("trip.json", data)
	})
	return tripValidator, tripErr
}

// ValidateTrip checks a trip document before it is written.
func ValidateTrip(doc models.TripDocument) error {
	v, err := TripValidator()
	if err != nil {
		return err
	}
	return v.Validate(doc)
}
