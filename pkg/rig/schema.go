package rig

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce   sync.Once
	schemaLoaded *gojsonschema.Schema
	schemaErr    error
)

// durationFormatChecker implements gojsonschema.FormatChecker for Go
// duration strings such as "1.5s".
type durationFormatChecker struct{}

// IsFormat reports whether input parses as a non-negative duration.
func (durationFormatChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return false
	}
	d, err := time.ParseDuration(s)
	return err == nil && d >= 0
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("duration", durationFormatChecker{})
		schemaLoaded, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schemaLoaded, schemaErr
}

// validate checks a generic decoded document against the rig schema.
func validate(doc map[string]interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("rig: compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("rig: validation error: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}
