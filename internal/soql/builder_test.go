// internal/soql/builder_test.go
package soql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordmap-service/pkg/registry"
)

func testRegistry(t *testing.T) *registry.EntityRegistry {
	t.Helper()
	reg, err := registry.ParseRegistry([]byte(`{
		"version": "1",
		"entities": [
			{
				"name": "Case",
				"fields": ["Subject", "Description", "Street__c", "City__c", "State__c", "PostalCode__c", "Country__c"],
				"relationships": ["AccountId", "ContactId"]
			},
			{
				"name": "WorkOrder",
				"fields": ["Street__c", "City__c"],
				"relationships": ["AccountId"]
			}
		]
	}`))
	require.NoError(t, err)
	return reg
}

func TestChildrenOf(t *testing.T) {
	tests := []struct {
		name              string
		entity            string
		relationshipField string
		parentID          string
		orderField        string
		direction         Direction
		wantText          string
		wantErr           error
	}{
		{
			name:              "ordered child lookup",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001x0000003DGXY",
			orderField:        "CreatedDate",
			direction:         Descending,
			wantText:          "SELECT Id FROM Case WHERE AccountId = :parentId ORDER BY CreatedDate DESC",
		},
		{
			name:              "direction is normalized to upper case",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "CreatedDate",
			direction:         "desc",
			wantText:          "SELECT Id FROM Case WHERE AccountId = :parentId ORDER BY CreatedDate DESC",
		},
		{
			name:              "blank direction defaults to ascending",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "CreatedDate",
			direction:         "",
			wantText:          "SELECT Id FROM Case WHERE AccountId = :parentId ORDER BY CreatedDate ASC",
		},
		{
			name:              "blank order field omits the clause",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "",
			direction:         Descending,
			wantText:          "SELECT Id FROM Case WHERE AccountId = :parentId",
		},
		{
			name:              "blank entity",
			entity:            "  ",
			relationshipField: "AccountId",
			parentID:          "001",
			wantErr:           &QueryBuildError{},
		},
		{
			name:              "blank relationship field",
			entity:            "Case",
			relationshipField: "",
			parentID:          "001",
			wantErr:           &QueryBuildError{},
		},
		{
			name:              "bogus direction",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "CreatedDate",
			direction:         "SIDEWAYS",
			wantErr:           &QueryBuildError{},
		},
		{
			name:              "unknown entity",
			entity:            "Opportunity",
			relationshipField: "AccountId",
			parentID:          "001",
			wantErr:           &InvalidFieldError{},
		},
		{
			name:              "unknown relationship field",
			entity:            "Case",
			relationshipField: "OwnerId",
			parentID:          "001",
			wantErr:           &InvalidFieldError{},
		},
		{
			name:              "unknown order field",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "Secret__c",
			direction:         Ascending,
			wantErr:           &InvalidFieldError{},
		},
		{
			name:              "display-name field is implicitly orderable",
			entity:            "Case",
			relationshipField: "AccountId",
			parentID:          "001",
			orderField:        "CaseNumber",
			direction:         Ascending,
			wantText:          "SELECT Id FROM Case WHERE AccountId = :parentId ORDER BY CaseNumber ASC",
		},
	}

	builder := NewBuilder(testRegistry(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := builder.ChildrenOf(tt.entity, tt.relationshipField, tt.parentID, tt.orderField, tt.direction)

			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *QueryBuildError:
					var target *QueryBuildError
					assert.True(t, errors.As(err, &target), "expected QueryBuildError, got %v", err)
				case *InvalidFieldError:
					var target *InvalidFieldError
					assert.True(t, errors.As(err, &target), "expected InvalidFieldError, got %v", err)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantText, stmt.Text())
			assert.Equal(t, tt.parentID, stmt.Binds[BindParent])
		})
	}
}

func TestProjectionByIDs(t *testing.T) {
	builder := NewBuilder(testRegistry(t))

	t.Run("id always first, blanks skipped, duplicates collapsed", func(t *testing.T) {
		stmt, err := builder.ProjectionByIDs("Case",
			[]string{"500a", "500b"},
			[]string{"CaseNumber", "", "Street__c", "CaseNumber", "City__c", "Street__c"},
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"Id", "CaseNumber", "Street__c", "City__c"}, stmt.Fields)
		assert.Equal(t, "SELECT Id, CaseNumber, Street__c, City__c FROM Case WHERE Id IN :idSet", stmt.Text())
		assert.Equal(t, []string{"500a", "500b"}, stmt.Binds[BindIDSet])
	})

	t.Run("caller-supplied Id is not repeated", func(t *testing.T) {
		stmt, err := builder.ProjectionByIDs("Case", []string{"500a"}, []string{"Id", "Street__c"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "Street__c"}, stmt.Fields)
	})

	t.Run("blank entity", func(t *testing.T) {
		_, err := builder.ProjectionByIDs("", []string{"1"}, nil)
		var target *QueryBuildError
		require.True(t, errors.As(err, &target))
	})

	t.Run("unregistered field", func(t *testing.T) {
		_, err := builder.ProjectionByIDs("WorkOrder", []string{"1"}, []string{"Secret__c"})
		var target *InvalidFieldError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "WorkOrder", target.Entity)
		assert.Equal(t, "Secret__c", target.Field)
	})

	t.Run("display-name field implicitly allowed", func(t *testing.T) {
		stmt, err := builder.ProjectionByIDs("WorkOrder", []string{"1"}, []string{"WorkOrderNumber", "Street__c"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "WorkOrderNumber", "Street__c"}, stmt.Fields)
	})

	t.Run("empty id set still builds", func(t *testing.T) {
		stmt, err := builder.ProjectionByIDs("Case", nil, []string{"CaseNumber"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id, CaseNumber FROM Case WHERE Id IN :idSet", stmt.Text())
	})
}

func TestBuilderWithoutRegistry(t *testing.T) {
	builder := NewBuilder(nil)

	t.Run("identifiers pass through unchecked", func(t *testing.T) {
		stmt, err := builder.ChildrenOf("Invoice__c", "Account__c", "001", "CreatedDate", Descending)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Invoice__c WHERE Account__c = :parentId ORDER BY CreatedDate DESC", stmt.Text())
	})

	t.Run("quotes in identifiers are doubled", func(t *testing.T) {
		stmt, err := builder.ChildrenOf("Case' OR", "Account'Id", "001", "", "")
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Case'' OR WHERE Account''Id = :parentId", stmt.Text())
	})

	t.Run("quotes in projected fields are doubled", func(t *testing.T) {
		stmt, err := builder.ProjectionByIDs("Case", []string{"1"}, []string{"Street'__c"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "Street''__c"}, stmt.Fields)
	})
}
