// internal/store/postgres/store.go

// Package postgres executes built statements against PostgreSQL. The
// statement's structured parts compile to a placeholder query; identifier
// text never mixes with bound values.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"recordmap-service/internal/common/database"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/metrics"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
	"recordmap-service/pkg/registry"
)

const backend = "postgres"

type Store struct {
	client   *database.PostgresClient
	registry *registry.EntityRegistry
	timeout  time.Duration
	logger   logger.Logger
}

func New(client *database.PostgresClient, reg *registry.EntityRegistry, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		client:   client,
		registry: reg,
		timeout:  timeout,
		logger:   log,
	}
}

// Execute compiles and runs one statement, returning each row as a Record.
func (s *Store) Execute(ctx context.Context, stmt *soql.Statement) ([]records.Record, error) {
	query, args, err := Compile(stmt, s.registry)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("query on %s timed out: %w", stmt.Entity, context.DeadlineExceeded)
		}
		return nil, err
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		return nil, err
	}

	metrics.StoreQueries.WithLabelValues(backend, "success").Inc()
	s.logger.Debug("postgres query executed", map[string]interface{}{
		"entity":      stmt.Entity,
		"rows":        len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

// Compile renders a statement as lib/pq SQL with positional placeholders.
// The id-set filter expands to one placeholder per id; the statement's field
// and table identifiers are double-quoted.
func Compile(stmt *soql.Statement, reg *registry.EntityRegistry) (string, []interface{}, error) {
	cols := make([]string, len(stmt.Fields))
	for i, f := range stmt.Fields {
		cols[i] = quoteIdent(f)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(tableFor(stmt.Entity, reg)))
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(stmt.Filter.Field))

	var args []interface{}
	switch stmt.Filter.Op {
	case soql.OpIn:
		ids, ok := stmt.Binds[stmt.Filter.Bind].([]string)
		if !ok {
			return "", nil, fmt.Errorf("bind %q is not an id set", stmt.Filter.Bind)
		}
		if len(ids) == 0 {
			return "", nil, fmt.Errorf("bind %q is empty", stmt.Filter.Bind)
		}
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		b.WriteString(" IN (")
		b.WriteString(strings.Join(placeholders, ","))
		b.WriteString(")")
	default:
		b.WriteString(" = $1")
		args = append(args, stmt.Binds[stmt.Filter.Bind])
	}

	if stmt.Order != nil {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(stmt.Order.Field))
		b.WriteString(" ")
		b.WriteString(string(stmt.Order.Direction))
	}

	return b.String(), args, nil
}

func tableFor(entity string, reg *registry.EntityRegistry) string {
	if reg != nil {
		if def, ok := reg.Entity(entity); ok {
			return def.TableName()
		}
	}
	return strings.ToLower(entity)
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// scanRecords maps each row to a Record keyed by column name. Byte slices
// from the driver become strings; every other driver type passes through.
func scanRecords(rows *sql.Rows) ([]records.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []records.Record{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(records.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
