// internal/store/postgres/store_test.go
package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordmap-service/internal/common/database"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/records"
	"recordmap-service/internal/soql"
	"recordmap-service/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func testRegistry(t *testing.T) *registry.EntityRegistry {
	t.Helper()
	reg, err := registry.ParseRegistry([]byte(`{
		"version": "1",
		"entities": [
			{
				"name": "Case",
				"fields": ["Subject", "Street__c", "City__c"],
				"relationships": ["AccountId"],
				"table": "cases"
			},
			{
				"name": "WorkOrder",
				"fields": ["Street__c"],
				"relationships": ["AccountId"]
			}
		]
	}`))
	require.NoError(t, err)
	return reg
}

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := &database.PostgresClient{DB: db}
	store := New(client, testRegistry(t), 5*time.Second, logger.NewTestLogger(t))
	return store, mock
}

// ==========================
// Execute Tests
// ==========================

func TestStore_Execute(t *testing.T) {
	tests := []struct {
		name            string
		statement       func(t *testing.T) *soql.Statement
		mockQuery       func(mock sqlmock.Sqlmock)
		validateRecords func(t *testing.T, recs []records.Record)
		wantErr         string
	}{
		{
			name: "child lookup compiles to an ordered equality query",
			statement: func(t *testing.T) *soql.Statement {
				stmt, err := soql.NewBuilder(testRegistry(t)).
					ChildrenOf("Case", "AccountId", "001x0000003DGXY", "CreatedDate", soql.Descending)
				require.NoError(t, err)
				return stmt
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"Id"}).
					AddRow("500a").
					AddRow("500b")
				mock.ExpectQuery(`SELECT "Id" FROM "cases" WHERE "AccountId" = \$1 ORDER BY "CreatedDate" DESC`).
					WithArgs("001x0000003DGXY").
					WillReturnRows(rows)
			},
			validateRecords: func(t *testing.T, recs []records.Record) {
				require.Len(t, recs, 2)
				assert.Equal(t, "500a", recs[0].ID())
				assert.Equal(t, "500b", recs[1].ID())
			},
		},
		{
			name: "id-set projection expands one placeholder per id",
			statement: func(t *testing.T) *soql.Statement {
				stmt, err := soql.NewBuilder(testRegistry(t)).
					ProjectionByIDs("WorkOrder", []string{"0WO1", "0WO2"}, []string{"WorkOrderNumber", "Street__c"})
				require.NoError(t, err)
				return stmt
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"Id", "WorkOrderNumber", "Street__c"}).
					AddRow("0WO2", "WO-0002", []byte("22 Oak Ave")).
					AddRow("0WO1", "WO-0001", nil)
				mock.ExpectQuery(`SELECT "Id", "WorkOrderNumber", "Street__c" FROM "workorder" WHERE "Id" IN \(\$1,\$2\)`).
					WithArgs("0WO1", "0WO2").
					WillReturnRows(rows)
			},
			validateRecords: func(t *testing.T, recs []records.Record) {
				require.Len(t, recs, 2)
				// store order, not input id order
				assert.Equal(t, "0WO2", recs[0].ID())
				// driver byte slices become strings
				assert.Equal(t, "22 Oak Ave", recs[0]["Street__c"])
				// SQL NULL stays nil
				assert.Nil(t, recs[1]["Street__c"])
			},
		},
		{
			name: "numeric values keep their native type",
			statement: func(t *testing.T) *soql.Statement {
				stmt, err := soql.NewBuilder(nil).
					ProjectionByIDs("Case", []string{"500a"}, []string{"Priority"})
				require.NoError(t, err)
				return stmt
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"Id", "Priority"}).AddRow("500a", int64(3))
				mock.ExpectQuery(`SELECT "Id", "Priority" FROM "cases" WHERE "Id" IN \(\$1\)`).
					WithArgs("500a").
					WillReturnRows(rows)
			},
			validateRecords: func(t *testing.T, recs []records.Record) {
				require.Len(t, recs, 1)
				assert.Equal(t, int64(3), recs[0]["Priority"])
			},
		},
		{
			name: "no matches yields an empty slice",
			statement: func(t *testing.T) *soql.Statement {
				stmt, err := soql.NewBuilder(testRegistry(t)).
					ChildrenOf("Case", "AccountId", "001none", "CreatedDate", soql.Descending)
				require.NoError(t, err)
				return stmt
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT "Id" FROM "cases"`).
					WithArgs("001none").
					WillReturnRows(sqlmock.NewRows([]string{"Id"}))
			},
			validateRecords: func(t *testing.T, recs []records.Record) {
				assert.NotNil(t, recs)
				assert.Empty(t, recs)
			},
		},
		{
			name: "store rejection surfaces the native error",
			statement: func(t *testing.T) *soql.Statement {
				stmt, err := soql.NewBuilder(testRegistry(t)).
					ChildrenOf("Case", "AccountId", "001", "CreatedDate", soql.Descending)
				require.NoError(t, err)
				return stmt
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT "Id" FROM "cases"`).
					WithArgs("001").
					WillReturnError(errors.New(`pq: column "CreatedDate" does not exist`))
			},
			wantErr: `pq: column "CreatedDate" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newTestStore(t)
			tt.mockQuery(mock)

			recs, err := store.Execute(context.Background(), tt.statement(t))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.validateRecords(t, recs)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Compile Tests
// ==========================

func TestCompile(t *testing.T) {
	reg := testRegistry(t)

	t.Run("registered entity uses its table name", func(t *testing.T) {
		stmt, err := soql.NewBuilder(reg).ChildrenOf("Case", "AccountId", "001", "CreatedDate", soql.Ascending)
		require.NoError(t, err)

		query, args, err := Compile(stmt, reg)
		require.NoError(t, err)
		assert.Equal(t, `SELECT "Id" FROM "cases" WHERE "AccountId" = $1 ORDER BY "CreatedDate" ASC`, query)
		assert.Equal(t, []interface{}{"001"}, args)
	})

	t.Run("unregistered entity lowercases its name", func(t *testing.T) {
		stmt, err := soql.NewBuilder(nil).ChildrenOf("Invoice__c", "Account__c", "001", "", "")
		require.NoError(t, err)

		query, _, err := Compile(stmt, nil)
		require.NoError(t, err)
		assert.Equal(t, `SELECT "Id" FROM "invoice__c" WHERE "Account__c" = $1`, query)
	})

	t.Run("double quotes in identifiers are doubled", func(t *testing.T) {
		stmt, err := soql.NewBuilder(nil).ChildrenOf(`Bad"Name`, "AccountId", "001", "", "")
		require.NoError(t, err)

		query, _, err := Compile(stmt, nil)
		require.NoError(t, err)
		assert.Contains(t, query, `FROM "bad""name"`)
	})

	t.Run("empty id set is rejected before the driver sees it", func(t *testing.T) {
		stmt, err := soql.NewBuilder(nil).ProjectionByIDs("Case", nil, []string{"Subject"})
		require.NoError(t, err)

		_, _, err = Compile(stmt, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("placeholder numbering is stable past nine ids", func(t *testing.T) {
		ids := make([]string, 12)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		stmt, err := soql.NewBuilder(nil).ProjectionByIDs("Case", ids, nil)
		require.NoError(t, err)

		query, args, err := Compile(stmt, nil)
		require.NoError(t, err)
		assert.Contains(t, query, "$10,$11,$12")
		assert.Len(t, args, 12)
	})
}
