// model/neo4j/schema.go
package neo4j

// Node labels
const (
	LabelSubject    = "Subject"
	LabelRole       = "Role"
	LabelPermission = "Permission"
	LabelPolicy     = "Policy"
)

// Relationship types
const (
	RelHasRole       = "HAS_ROLE"
	RelHasPermission = "HAS_PERMISSION"
	RelInheritsFrom  = "INHERITS_FROM"
)
