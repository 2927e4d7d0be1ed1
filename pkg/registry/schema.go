// pkg/registry/schema.go
package registry

// EntityRegistry is the trusted configuration source for query identifiers.
// Entity and field names interpolated into query text must come from here,
// never from free-form user input.
type EntityRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Entities    []Entity `json:"entities"`

	byName map[string]*Entity
}

// Entity describes one queryable record type.
type Entity struct {
	Name          string   `json:"name"`
	NameField     string   `json:"nameField,omitempty"`
	Fields        []string `json:"fields"`
	Relationships []string `json:"relationships,omitempty"`
	Table         string   `json:"table,omitempty"`
	Index         string   `json:"index,omitempty"`
}

// registrySchema validates a registry document before it is trusted.
var registrySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"version", "entities"},
	"properties": map[string]interface{}{
		"version":     map[string]interface{}{"type": "string", "minLength": 1},
		"lastUpdated": map[string]interface{}{"type": "string"},
		"entities": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name", "fields"},
				"properties": map[string]interface{}{
					"name":      map[string]interface{}{"type": "string", "minLength": 1},
					"nameField": map[string]interface{}{"type": "string"},
					"fields": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string", "minLength": 1},
					},
					"relationships": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string", "minLength": 1},
					},
					"table": map[string]interface{}{"type": "string"},
					"index": map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}
