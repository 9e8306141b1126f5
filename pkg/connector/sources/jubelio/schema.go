package jubelio

import (
	"embed"

	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// loadSchema returns the JSON Schema for a stream. Streams without a
// bundled schema file get an open schema that accepts any object; the
// connector never validates records itself.
func loadSchema(name string) *core.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return &core.Schema{Name: name, Raw: openSchema()}
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &core.Schema{Name: name, Raw: openSchema()}
	}
	return &core.Schema{Name: name, Raw: doc}
}

func openSchema() map[string]interface{} {
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": true,
	}
}
