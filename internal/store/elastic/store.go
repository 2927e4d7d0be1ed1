// internal/store/elastic/store.go

// Package elastic executes record statements against an Elasticsearch
// backend. Statements compile to a search body; record ids map to the
// document _id, so id-set lookups use the ids query rather than a
// source field.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"recordmap-service/internal/common/database"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/metrics"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
	"recordmap-service/pkg/registry"
)

const backend = "elasticsearch"

// maxHits bounds unfiltered child lookups. Matches the default
// index.max_result_window, past which Elasticsearch refuses to page.
const maxHits = 10000

var ErrMissingIndex = errors.New("index name is required")

// Store runs statements against an Elasticsearch cluster.
type Store struct {
	client   *database.ElasticsearchClient
	registry *registry.EntityRegistry
	timeout  time.Duration
	logger   logger.Logger
}

func New(client *database.ElasticsearchClient, reg *registry.EntityRegistry, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		client:   client,
		registry: reg,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"backend": backend}),
	}
}

// Execute compiles the statement to a search request, runs it and
// returns one record per hit in response order.
func (s *Store) Execute(ctx context.Context, stmt *soql.Statement) ([]records.Record, error) {
	index, body, err := Compile(stmt, s.registry)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(raw),
	}

	start := time.Now()
	res, err := req.Do(ctx, s.client.Client)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("query on %s timed out: %w", stmt.Entity, context.DeadlineExceeded)
		}
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		return nil, fmt.Errorf("search on %s failed: %s", index, res.String())
	}

	out, err := decodeHits(res.Body)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(backend, "error").Inc()
		return nil, err
	}

	metrics.StoreQueries.WithLabelValues(backend, "success").Inc()
	s.logger.Debug("statement executed", map[string]interface{}{
		"entity":      stmt.Entity,
		"index":       index,
		"hits":        len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return out, nil
}

// Compile turns a statement into the target index name and a search
// body. Exported so tests can assert the exact request shape.
func Compile(stmt *soql.Statement, reg *registry.EntityRegistry) (string, map[string]interface{}, error) {
	index := indexFor(stmt.Entity, reg)
	if index == "" {
		return "", nil, ErrMissingIndex
	}

	filterClauses := []interface{}{}

	switch stmt.Filter.Op {
	case soql.OpEquals:
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{
				stmt.Filter.Field + ".keyword": stmt.Binds[stmt.Filter.Bind],
			},
		})
	case soql.OpIn:
		ids, ok := stmt.Binds[stmt.Filter.Bind].([]string)
		if !ok {
			return "", nil, fmt.Errorf("bind %q is not an id set", stmt.Filter.Bind)
		}
		if len(ids) == 0 {
			return "", nil, fmt.Errorf("bind %q is empty", stmt.Filter.Bind)
		}
		if stmt.Filter.Field == "Id" {
			filterClauses = append(filterClauses, map[string]interface{}{
				"ids": map[string]interface{}{"values": ids},
			})
		} else {
			filterClauses = append(filterClauses, map[string]interface{}{
				"terms": map[string]interface{}{stmt.Filter.Field + ".keyword": ids},
			})
		}
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", stmt.Filter.Op)
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
		"size": querySize(stmt),
	}

	if includes := sourceIncludes(stmt.Fields); len(includes) > 0 {
		body["_source"] = includes
	}

	if stmt.Order != nil {
		body["sort"] = []map[string]interface{}{
			{stmt.Order.Field: strings.ToLower(string(stmt.Order.Direction))},
		}
	}

	return index, body, nil
}

func indexFor(entity string, reg *registry.EntityRegistry) string {
	if reg != nil {
		if def, ok := reg.Entity(entity); ok {
			return def.IndexName()
		}
	}
	return strings.ToLower(entity)
}

func querySize(stmt *soql.Statement) int {
	if stmt.Filter.Op == soql.OpIn {
		if ids, ok := stmt.Binds[stmt.Filter.Bind].([]string); ok {
			return len(ids)
		}
	}
	return maxHits
}

// sourceIncludes drops Id from the projection since the document _id
// carries it, not the source.
func sourceIncludes(fields []string) []string {
	includes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "Id" {
			continue
		}
		includes = append(includes, f)
	}
	return includes
}

func decodeHits(body io.Reader) ([]records.Record, error) {
	var r map[string]interface{}
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := []records.Record{}

	hits, ok := r["hits"].(map[string]interface{})
	if !ok {
		return out, nil
	}
	rawHits, ok := hits["hits"].([]interface{})
	if !ok {
		return out, nil
	}

	for _, raw := range rawHits {
		hit, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		rec := records.Record{}
		if source, ok := hit["_source"].(map[string]interface{}); ok {
			for k, v := range source {
				rec[k] = v
			}
		}
		if id, ok := hit["_id"].(string); ok {
			rec["Id"] = id
		}
		out = append(out, rec)
	}

	return out, nil
}
