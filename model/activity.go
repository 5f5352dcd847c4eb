// model/activity.go
package model

import (
	"time"
)

// Activity is one entry of a subject's activity trail. The behavioral
// condition evaluator reads the trailing 24 hours of these.
type Activity struct {
	SubjectID    string    `json:"subject_id"`
	Action       string    `json:"action"` // e.g. "read", "view", "write"
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// LoginAttempt records one authentication attempt. Failed attempts in the
// trailing 24 hours feed the user risk contribution.
type LoginAttempt struct {
	SubjectID string    `json:"subject_id"`
	Success   bool      `json:"success"`
	IP        string    `json:"ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
