// Package validate checks output records against the JSON Schemas shipped
// with the collector before they are written.
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Record kinds with a schema.
const (
	Bill = "bill"
	Vote = "vote"
)

// ErrInvalidRecord is returned for records that do not match their schema.
var ErrInvalidRecord = errors.New("record does not match schema")

const schemaBase = "https://congress.schemas.local/"

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	for _, kind := range []string{Bill, Vote} {
		data, err := schemaFS.ReadFile("schemas/" + kind + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", kind, err)
		}
		url := schemaBase + kind + ".schema.json"
		if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to load %s schema: %w", kind, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = s
	}
	return v, nil
}

// Record validates an encoded JSON record of the given kind. A nil
// Validator accepts everything.
func (v *Validator) Record(kind string, doc []byte) error {
	if v == nil {
		return nil
	}
	s, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for record kind %q", kind)
	}
	var value any
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, kind, err)
	}
	if err := s.Validate(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, kind, err)
	}
	return nil
}
