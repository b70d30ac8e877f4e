package mock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed fixtures.schema.json
var fixturesSchemaJSON []byte

var (
	fixturesSchemaOnce sync.Once
	fixturesSchema     *jsonschema.Schema
	fixturesSchemaErr  error
)

func compileFixturesSchema() (*jsonschema.Schema, error) {
	fixturesSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("fixtures.schema.json", bytes.NewReader(fixturesSchemaJSON)); err != nil {
			fixturesSchemaErr = fmt.Errorf("failed to add fixtures schema: %w", err)
			return
		}
		fixturesSchema, fixturesSchemaErr = compiler.Compile("fixtures.schema.json")
	})
	return fixturesSchema, fixturesSchemaErr
}

// validateDocument checks a decoded fixtures document against the fixtures
// JSON Schema. An empty document is valid.
func validateDocument(doc interface{}) error {
	if doc == nil {
		return nil
	}

	schema, err := compileFixturesSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so YAML values have JSON types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("invalid fixtures: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("invalid fixtures: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid fixtures: %s", strings.Join(validationMessages(verr, nil), "; "))
		}
		return fmt.Errorf("invalid fixtures: %w", err)
	}
	return nil
}

// validationMessages flattens the leaf causes of err into "location: message" strings.
func validationMessages(err *jsonschema.ValidationError, msgs []string) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(msgs, loc+": "+err.Message)
	}
	for _, cause := range err.Causes {
		msgs = validationMessages(cause, msgs)
	}
	return msgs
}
