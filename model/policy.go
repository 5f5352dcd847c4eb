// model/policy.go
package model

import (
	"time"
)

// Policy effects.
const (
	EffectAllow = "ALLOW"
	EffectDeny  = "DENY"
)

// Policy is an attribute-based access policy. Policies matching a
// (resource type, action) pair are evaluated in ascending Priority order;
// the last policy whose conditions all hold decides the ABAC verdict.
type Policy struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	ResourceType string                 `json:"resource_type"`
	Action       string                 `json:"action"`
	Effect       string                 `json:"effect"` // "ALLOW" or "DENY"
	IsActive     bool                   `json:"is_active"`
	Priority     int                    `json:"priority"`
	Conditions   []Condition            `json:"conditions"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Condition is a single predicate over subject, resource or context
// attributes. All conditions of a policy must hold for it to apply.
type Condition struct {
	Attribute string      `json:"attribute"` // e.g. "subject.hierarchy_level", "context.location"
	Operator  string      `json:"operator"`  // equals, not_equals, in, not_in, gte, lte, between
	Value     interface{} `json:"value"`
}

// Condition operators.
const (
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
	OpIn        = "in"
	OpNotIn     = "not_in"
	OpGte       = "gte"
	OpLte       = "lte"
	OpBetween   = "between"
)
