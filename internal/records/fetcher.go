// internal/records/fetcher.go
package records

import (
	"context"

	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/soql"
)

// FieldSpec names the fields projected for marker construction. A blank
// entry means "not requested". Ordered() fixes the projection order.
type FieldSpec struct {
	NameField   string
	Description string
	Street      string
	City        string
	State       string
	Postcode    string
	Country     string
}

// Ordered returns the projection candidates in their stable order. The
// builder skips blanks and duplicates.
func (fs FieldSpec) Ordered() []string {
	return []string{fs.NameField, fs.Description, fs.Street, fs.City, fs.State, fs.Postcode, fs.Country}
}

// Fetcher orchestrates the query builder and a record store for the two
// supported query shapes. It holds no per-call state; concurrent use is
// fine.
type Fetcher struct {
	builder *soql.Builder
	store   RecordStore
	logger  logger.Logger
}

func NewFetcher(builder *soql.Builder, store RecordStore, log logger.Logger) *Fetcher {
	return &Fetcher{
		builder: builder,
		store:   store,
		logger:  log,
	}
}

// FetchChildren returns the children of parentID on the given relationship,
// in store order. Only the Id field is populated. An empty result is a
// success, never an error.
func (f *Fetcher) FetchChildren(ctx context.Context, entity, relationshipField, parentID, orderField string, direction soql.Direction) ([]Record, error) {
	stmt, err := f.builder.ChildrenOf(entity, relationshipField, parentID, orderField, direction)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("executing child record query", map[string]interface{}{
		"entity":    entity,
		"statement": stmt.Text(),
	})

	recs, err := f.store.Execute(ctx, stmt)
	if err != nil {
		f.logger.Error("child record query failed", map[string]interface{}{
			"entity": entity,
			"error":  err.Error(),
		})
		return nil, &RecordStoreError{Entity: entity, Err: err}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// FetchByIDs projects the FieldSpec fields for the given id set. Result
// order is store-determined and not necessarily the input id order; callers
// must not match records to ids by position. An empty id set never reaches
// the store.
func (f *Fetcher) FetchByIDs(ctx context.Context, entity string, ids []string, spec FieldSpec) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	stmt, err := f.builder.ProjectionByIDs(entity, ids, spec.Ordered())
	if err != nil {
		return nil, err
	}

	f.logger.Debug("executing projection query", map[string]interface{}{
		"entity":    entity,
		"ids":       len(ids),
		"statement": stmt.Text(),
	})

	recs, err := f.store.Execute(ctx, stmt)
	if err != nil {
		f.logger.Error("projection query failed", map[string]interface{}{
			"entity": entity,
			"error":  err.Error(),
		})
		return nil, &RecordStoreError{Entity: entity, Err: err}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}
