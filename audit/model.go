// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// AccessLog is one persisted access decision.
type AccessLog struct {
	Timestamp    time.Time       `json:"timestamp"`
	EvaluationID string          `json:"evaluation_id"`
	SubjectID    string          `json:"subject_id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Allowed      bool            `json:"allowed"`
	Reason       string          `json:"reason"`
	RiskScore    int             `json:"risk_score"`
	Strategy     string          `json:"strategy"`
	Details      json.RawMessage `json:"details,omitempty"`
}
