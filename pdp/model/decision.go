package model

import "time"

// Evaluator types appearing in the decision's policy trail.
const (
	EvaluatorRBAC    = "RBAC"
	EvaluatorABAC    = "ABAC"
	EvaluatorDynamic = "DYNAMIC"
	EvaluatorRisk    = "RISK"
)

// PolicyResult records one sub-evaluator's verdict in evaluation order.
type PolicyResult struct {
	Type    string `json:"type"` // RBAC, ABAC, DYNAMIC or RISK
	Allowed bool   `json:"allowed"`
}

// Decision is the composite outcome of one evaluation. It is never mutated
// after construction and never merges results across calls.
type Decision struct {
	Allowed      bool                   `json:"allowed"`
	Reason       string                 `json:"reason"`
	Policies     []PolicyResult         `json:"policies"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	Conditions   map[string]interface{} `json:"conditions,omitempty"`
	RiskScore    int                    `json:"risk_score"`
	EvaluationID string                 `json:"evaluation_id"`
	EvaluatedAt  time.Time              `json:"evaluated_at"`
}
