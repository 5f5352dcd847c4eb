package model

import (
	"time"

	"github.com/aria7-op/schoolguard/model"
)

// AccessRequest is the caller-facing input of one policy evaluation.
type AccessRequest struct {
	Subject   model.Subject  `json:"subject"`
	Resource  model.Resource `json:"resource"`
	Action    string         `json:"action"`
	Context   AccessContext  `json:"context"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
}

// AccessContext carries the recognized contextual signals of a request.
// Unrecognized caller-supplied fields go into Extra; evaluators treat
// missing fields as unknown, never as an error.
type AccessContext struct {
	Location    string                 `json:"location,omitempty"`
	DeviceType  string                 `json:"device_type,omitempty"`
	NetworkType string                 `json:"network_type,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// AllowedLocations returns the caller-supplied override set for the
// location condition, if one was provided via Extra.
func (c AccessContext) AllowedLocations() []string {
	raw, ok := c.Extra["allowed_locations"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		locations := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				locations = append(locations, s)
			}
		}
		return locations
	default:
		return nil
	}
}
