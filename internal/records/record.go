// internal/records/record.go
package records

import (
	"context"
	"fmt"

	"recordmap-service/internal/soql"
)

// Record is an opaque field-to-value mapping for one stored record. Values
// keep the native type the store yielded (string, number, bool, time, nil).
// Every fetched record carries an "Id" field assigned by the store.
type Record map[string]interface{}

// ID returns the record's Id as a string, "" when absent.
func (r Record) ID() string {
	if v, ok := r["Id"].(string); ok {
		return v
	}
	return ""
}

// RecordStore executes built statements against a backend. Implementations
// return their native errors unchanged; the fetcher wraps them.
type RecordStore interface {
	Execute(ctx context.Context, stmt *soql.Statement) ([]Record, error)
}

// RecordStoreError reports a query the store executed but rejected, wrapping
// the store's native error unchanged.
type RecordStoreError struct {
	Entity string
	Err    error
}

func (e *RecordStoreError) Error() string {
	return fmt.Sprintf("record store query on %s: %v", e.Entity, e.Err)
}

func (e *RecordStoreError) Unwrap() error {
	return e.Err
}
