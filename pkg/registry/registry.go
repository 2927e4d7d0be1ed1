// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// LoadRegistry reads, schema-validates and indexes a registry file. The
// returned registry is immutable; callers share one instance.
func LoadRegistry(path string) (*EntityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// ParseRegistry validates and indexes raw registry JSON.
func ParseRegistry(data []byte) (*EntityRegistry, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry is not valid JSON: %w", err)
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var reg EntityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}

	if err := reg.index(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func validateDocument(doc interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(registrySchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("registry validation failed: %v", errs)
	}

	return nil
}

func (r *EntityRegistry) index() error {
	r.byName = make(map[string]*Entity, len(r.Entities))
	for i := range r.Entities {
		e := &r.Entities[i]
		if _, exists := r.byName[e.Name]; exists {
			return fmt.Errorf("duplicate entity %q in registry", e.Name)
		}
		r.byName[e.Name] = e
	}
	return nil
}

// Entity looks up a registered entity by its case-sensitive name.
func (r *EntityRegistry) Entity(name string) (*Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// HasField reports whether f is in the entity's projection allowlist.
func (e *Entity) HasField(f string) bool {
	for _, known := range e.Fields {
		if known == f {
			return true
		}
	}
	return false
}

// HasRelationship reports whether f is in the entity's relationship allowlist.
func (e *Entity) HasRelationship(f string) bool {
	for _, known := range e.Relationships {
		if known == f {
			return true
		}
	}
	return false
}

// TableName returns the backing SQL table, defaulting to the lowercased
// entity name.
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return strings.ToLower(e.Name)
}

// IndexName returns the backing search index, defaulting to the lowercased
// entity name.
func (e *Entity) IndexName() string {
	if e.Index != "" {
		return e.Index
	}
	return strings.ToLower(e.Name)
}
