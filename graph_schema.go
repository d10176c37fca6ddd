package automation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed schema/graph.schema.json
var graphSchemaJSON []byte

var (
	graphSchemaOnce     sync.Once
	graphSchemaResolved *jsonschema.Resolved
	graphSchemaErr      error
)

func graphSchema() (*jsonschema.Resolved, error) {
	graphSchemaOnce.Do(func() {
		var schema jsonschema.Schema
		if err := json.Unmarshal(graphSchemaJSON, &schema); err != nil {
			graphSchemaErr = fmt.Errorf("unmarshal graph schema: %w", err)
			return
		}
		graphSchemaResolved, graphSchemaErr = schema.Resolve(nil)
	})
	return graphSchemaResolved, graphSchemaErr
}

// ValidateGraphDocument checks a decoded JSON document against the graph
// schema. The document must use JSON types (as produced by encoding/json).
func ValidateGraphDocument(document any) error {
	resolved, err := graphSchema()
	if err != nil {
		return err
	}
	if err := resolved.Validate(document); err != nil {
		return fmt.Errorf("invalid graph document: %w", err)
	}
	return nil
}
