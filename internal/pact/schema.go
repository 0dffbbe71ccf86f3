// internal/pact/schema.go
package pact

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/solatis/pactkeeper/internal/types"
)

//go:embed schema/pact.schema.json
var pactSchema []byte

const pactSchemaURL = "https://pactkeeper.local/schema/pact.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource(pactSchemaURL, bytes.NewReader(pactSchema)); err != nil {
			schemaErr = fmt.Errorf("pact schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(pactSchemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a decoded pact document (as produced by encoding/json with
// UseNumber) against the pact document schema.
func Validate(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidPact, err)
	}
	return nil
}
