// internal/soql/statement.go
package soql

import "strings"

// Direction of an ORDER BY clause.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Op identifies the comparison in a statement's WHERE clause.
type Op string

const (
	OpEquals Op = "="
	OpIn     Op = "IN"
)

// Filter is the single WHERE condition a statement carries. Bind names the
// parameter holding the filter value; the value itself lives in
// Statement.Binds and is never concatenated into text.
type Filter struct {
	Field string
	Op    Op
	Bind  string
}

// Order is the optional ORDER BY clause.
type Order struct {
	Field     string
	Direction Direction
}

// Statement is a built query: structured parts plus named bind values.
// Store backends compile the parts directly and never re-parse Text.
type Statement struct {
	Entity string
	Fields []string
	Filter Filter
	Order  *Order
	Binds  map[string]interface{}
}

// Text renders the canonical query string with named bind placeholders,
// e.g. SELECT Id FROM Case WHERE AccountId = :parentId ORDER BY CreatedDate DESC.
func (s *Statement) Text() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.Fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.Entity)
	b.WriteString(" WHERE ")
	b.WriteString(s.Filter.Field)
	if s.Filter.Op == OpIn {
		b.WriteString(" IN :")
	} else {
		b.WriteString(" = :")
	}
	b.WriteString(s.Filter.Bind)
	if s.Order != nil {
		b.WriteString(" ORDER BY ")
		b.WriteString(s.Order.Field)
		b.WriteString(" ")
		b.WriteString(string(s.Order.Direction))
	}
	return b.String()
}

// escapeIdentifier doubles single quotes in interpolated identifier text.
// Allowlisted identifiers never contain quotes; this is the backstop for
// builders running without a registry.
func escapeIdentifier(ident string) string {
	return strings.ReplaceAll(ident, "'", "''")
}
