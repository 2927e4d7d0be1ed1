// internal/namefield/namefield.go

// Package namefield resolves the display-name field for an entity type.
// Several record types substitute a formatted sequence number for the
// generic "Name" field; the override table below is the single place new
// entity types get added.
package namefield

// DefaultField is the display-name field for entities without an override.
const DefaultField = "Name"

// Lookup is case-sensitive: "case" is not "Case".
var overrides = map[string]string{
	"Case":              "CaseNumber",
	"WorkOrder":         "WorkOrderNumber",
	"WorkOrderLineItem": "LineItemNumber",
	"ServiceAppointment": "AppointmentNumber",
	"KnowledgeArticle":  "ArticleNumber",
}

// Resolve returns the display-name field for an entity type. It is total:
// unknown entities fall back to DefaultField.
func Resolve(entity string) string {
	if field, ok := overrides[entity]; ok {
		return field
	}
	return DefaultField
}
