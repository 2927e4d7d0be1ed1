// internal/markers/transformer.go
package markers

import (
	"strings"

	"recordmap-service/internal/records"
)

// Build maps each record to one marker descriptor, in input order. It
// never fails: missing fields pass through as null values, never as
// errors. An address label appears only when its source field name in
// fields is non-blank; the record not carrying the field does not
// remove the label.
func Build(recs []records.Record, nameField string, fields records.FieldSpec, circle *CircleConfig) []MarkerDescriptor {
	out := make([]MarkerDescriptor, 0, len(recs))

	for _, rec := range recs {
		marker := MarkerDescriptor{
			Title: rec[nameField],
			Value: rec["Id"],
		}

		if !isBlank(fields.Description) {
			marker.Description = rec[fields.Description]
		}

		for _, src := range []struct {
			label string
			field string
		}{
			{LabelStreet, fields.Street},
			{LabelCity, fields.City},
			{LabelState, fields.State},
			{LabelPostalCode, fields.Postcode},
			{LabelCountry, fields.Country},
		} {
			if isBlank(src.field) {
				continue
			}
			marker.Location.Set(src.label, rec[src.field])
		}

		if circle != nil {
			marker.Geometry = newCircleOverlay(circle.RadiusMeters)
		}

		out = append(out, marker)
	}

	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
