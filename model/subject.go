// model/subject.go
package model

import (
	"time"
)

// Subject is the acting principal of an access evaluation. It is resolved
// from the identity store once per evaluation and never mutated afterwards.
type Subject struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name,omitempty"`
	Roles          []string               `json:"roles"`
	HierarchyLevel int                    `json:"hierarchy_level"`
	LastLocation   string                 `json:"last_location,omitempty"`
	Attributes     map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt      time.Time              `json:"created_at,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at,omitempty"`
}

// Role owns a set of permissions and may inherit from parent roles. The
// inheritance chain is resolved transitively by the RBAC evaluator.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	ParentIDs   []string     `json:"parent_ids,omitempty"`
}

// Permission is a colon-namespaced capability string, e.g. "student:10:view".
type Permission struct {
	Name string `json:"name"`
}

// Privileged role names that raise the user risk contribution.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleFinance    = "FINANCE"
)
