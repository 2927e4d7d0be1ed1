// internal/markers/serializer_test.go
package markers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordmap-service/internal/records"
)

func TestSerialize(t *testing.T) {
	t.Run("empty list is the literal empty array", func(t *testing.T) {
		out, err := Serialize(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)

		out, err = Serialize([]MarkerDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})

	t.Run("marker keys come out in a fixed order", func(t *testing.T) {
		recs := []records.Record{{
			"Id": "500a", "Name": "Acme", "Street__c": "1 Main", "City__c": "Town",
		}}
		fields := records.FieldSpec{NameField: "Name", Street: "Street__c", City: "City__c"}

		out, err := Serialize(Build(recs, "Name", fields, &CircleConfig{RadiusMeters: 100}))
		require.NoError(t, err)

		for _, ordered := range [][2]string{
			{`"title"`, `"value"`},
			{`"value"`, `"location"`},
			{`"location"`, `"geometry"`},
			{`"Street"`, `"City"`},
		} {
			first := strings.Index(out, ordered[0])
			second := strings.Index(out, ordered[1])
			assert.Greater(t, first, -1, "%s missing", ordered[0])
			assert.Greater(t, second, first, "%s should precede %s", ordered[0], ordered[1])
		}
	})

	t.Run("requested but absent values serialize as null", func(t *testing.T) {
		recs := []records.Record{{"Id": "500a", "Name": "Acme"}}
		fields := records.FieldSpec{NameField: "Name", Street: "Street__c"}

		out, err := Serialize(Build(recs, "Name", fields, nil))
		require.NoError(t, err)
		assert.Contains(t, out, `"location":{"Street":null}`)
		assert.NotContains(t, out, "geometry")
	})

	t.Run("round-trip keeps order and exact values", func(t *testing.T) {
		recs := []records.Record{
			{"Id": "500a", "CaseNumber": "00001001", "Street__c": "1 Main", "Votes": int64(42)},
			{"Id": "500b", "CaseNumber": "00001002", "Street__c": "2 Main", "Votes": int64(7)},
			{"Id": "500c", "CaseNumber": "00001003", "Street__c": nil, "Votes": int64(0)},
		}
		fields := records.FieldSpec{NameField: "CaseNumber", Description: "Votes", Street: "Street__c"}

		out, err := Serialize(Build(recs, "CaseNumber", fields, nil))
		require.NoError(t, err)

		dec := json.NewDecoder(strings.NewReader(out))
		dec.UseNumber()
		var parsed []struct {
			Title       interface{}       `json:"title"`
			Description json.Number       `json:"description"`
			Value       string            `json:"value"`
			Location    AddressComponents `json:"location"`
		}
		require.NoError(t, dec.Decode(&parsed))
		require.Len(t, parsed, len(recs))

		wantVotes := []json.Number{"42", "7", "0"}
		for i, m := range parsed {
			assert.Equal(t, recs[i]["Id"], m.Value)
			assert.Equal(t, recs[i]["CaseNumber"], m.Title)
			assert.Equal(t, wantVotes[i], m.Description)
			assert.Equal(t, []string{LabelStreet}, m.Location.Labels())
		}
	})
}
