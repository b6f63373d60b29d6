package config

import (
	"fmt"
	"sync"

	"github.com/grovetools/areatrip/schema"
)

var (
	validatorOnce sync.Once
	validatorInst *SchemaValidator
	validatorErr  error
)

// SchemaValidator validates raw configuration documents against the schema
// reflected from Config.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator returns the shared validator, compiling it on first use.
func NewSchemaValidator() (*SchemaValidator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = fmt.Errorf("generate config schema: %w", err)
			return
		}
		v, err := schema.NewValidator("areatrip.schema.json", data)
		if err != nil {
			validatorErr = err
			return
		}
		validatorInst = &SchemaValidator{validator: v}
	})
	return validatorInst, validatorErr
}

// Validate validates a decoded document keyed by YAML field names.
func (v *SchemaValidator) Validate(doc interface{}) error {
	return v.validator.Validate(doc)
}
