// internal/soql/builder.go

// Package soql assembles parameterized record store queries from
// caller-supplied identifiers. Structural identifiers (entity, field,
// relationship and order names) cannot be bound as parameters, so they are
// interpolated into the statement; they must therefore originate from a
// trusted, schema-validated configuration source, never from free-form user
// input. A builder constructed with a registry rejects identifiers outside
// that allowlist before any assembly. Only literal values (the parent id,
// the id set) travel as binds.
package soql

import (
	"fmt"
	"strings"

	"recordmap-service/internal/namefield"
	"recordmap-service/pkg/registry"
)

// BindParent names the bound parent id in child-by-parent statements.
const BindParent = "parentId"

// BindIDSet names the bound id collection in projection statements.
const BindIDSet = "idSet"

// QueryBuildError reports a malformed or missing required identifier.
type QueryBuildError struct {
	Reason string
}

func (e *QueryBuildError) Error() string {
	return fmt.Sprintf("query build: %s", e.Reason)
}

// InvalidFieldError reports an identifier rejected by the registry
// allowlist. Field is empty when the entity itself is unknown.
type InvalidFieldError struct {
	Entity string
	Field  string
}

func (e *InvalidFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("entity %q is not in the registry", e.Entity)
	}
	return fmt.Sprintf("field %q is not registered for entity %q", e.Field, e.Entity)
}

// Builder assembles statements. With a nil registry every identifier is
// accepted after quote escaping; with a registry, unknown identifiers are
// rejected before assembly.
type Builder struct {
	registry *registry.EntityRegistry
}

func NewBuilder(reg *registry.EntityRegistry) *Builder {
	return &Builder{registry: reg}
}

// ChildrenOf builds the ordered child lookup:
// SELECT Id FROM <entity> WHERE <relationshipField> = :parentId ORDER BY <orderField> <direction>.
// A blank orderField omits the ORDER BY clause; a blank direction defaults
// to ascending.
func (b *Builder) ChildrenOf(entity, relationshipField, parentID, orderField string, direction Direction) (*Statement, error) {
	if isBlank(entity) {
		return nil, &QueryBuildError{Reason: "entity name is blank"}
	}
	if isBlank(relationshipField) {
		return nil, &QueryBuildError{Reason: "relationship field is blank"}
	}

	dir, err := normalizeDirection(direction)
	if err != nil {
		return nil, err
	}

	if b.registry != nil {
		def, ok := b.registry.Entity(entity)
		if !ok {
			return nil, &InvalidFieldError{Entity: entity}
		}
		if !def.HasRelationship(relationshipField) {
			return nil, &InvalidFieldError{Entity: entity, Field: relationshipField}
		}
		if !isBlank(orderField) && !b.fieldAllowed(def, orderField) {
			return nil, &InvalidFieldError{Entity: entity, Field: orderField}
		}
	}

	stmt := &Statement{
		Entity: escapeIdentifier(entity),
		Fields: []string{"Id"},
		Filter: Filter{
			Field: escapeIdentifier(relationshipField),
			Op:    OpEquals,
			Bind:  BindParent,
		},
		Binds: map[string]interface{}{BindParent: parentID},
	}
	if !isBlank(orderField) {
		stmt.Order = &Order{Field: escapeIdentifier(orderField), Direction: dir}
	}
	return stmt, nil
}

// ProjectionByIDs builds the id-set projection:
// SELECT <fields> FROM <entity> WHERE Id IN :idSet.
// The projection always starts with Id; blank entries in fields are
// skipped, duplicates keep their first position.
func (b *Builder) ProjectionByIDs(entity string, ids []string, fields []string) (*Statement, error) {
	if isBlank(entity) {
		return nil, &QueryBuildError{Reason: "entity name is blank"}
	}

	var def *registry.Entity
	if b.registry != nil {
		d, ok := b.registry.Entity(entity)
		if !ok {
			return nil, &InvalidFieldError{Entity: entity}
		}
		def = d
	}

	projected := []string{"Id"}
	seen := map[string]bool{"Id": true}
	for _, f := range fields {
		if isBlank(f) || seen[f] {
			continue
		}
		if def != nil && !b.fieldAllowed(def, f) {
			return nil, &InvalidFieldError{Entity: entity, Field: f}
		}
		seen[f] = true
		projected = append(projected, escapeIdentifier(f))
	}

	return &Statement{
		Entity: escapeIdentifier(entity),
		Fields: projected,
		Filter: Filter{
			Field: "Id",
			Op:    OpIn,
			Bind:  BindIDSet,
		},
		Binds: map[string]interface{}{BindIDSet: ids},
	}, nil
}

// fieldAllowed checks the registry allowlist. Id, CreatedDate and the
// entity's display-name field are implicitly allowed for registered
// entities.
func (b *Builder) fieldAllowed(def *registry.Entity, field string) bool {
	switch field {
	case "Id", "CreatedDate":
		return true
	}
	if field == namefield.Resolve(def.Name) {
		return true
	}
	if def.NameField != "" && field == def.NameField {
		return true
	}
	return def.HasField(field)
}

func normalizeDirection(d Direction) (Direction, error) {
	switch Direction(strings.ToUpper(string(d))) {
	case "":
		return Ascending, nil
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	default:
		return "", &QueryBuildError{Reason: fmt.Sprintf("order direction %q is not ASC or DESC", d)}
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
