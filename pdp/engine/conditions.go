package engine

import (
	"context"
	"sort"
	"time"

	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// Default allowed sets for the contextual conditions. The location set can
// be overridden per request via context extra "allowed_locations".
var (
	defaultAllowedLocations = []string{"office", "home"}
	defaultAllowedDevices   = []string{"desktop", "laptop", "mobile"}
	defaultAllowedNetworks  = []string{"wifi", "ethernet"}
)

const (
	behaviorWindow     = 24 * time.Hour
	behaviorMaxEntries = 10
	behaviorThreshold  = 0.7
)

// conditionResult is one contextual condition's verdict with its
// supporting details, surfaced in Decision.Conditions.
type conditionResult struct {
	Met     bool                   `json:"met"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// evaluateDynamicConditions runs the five contextual checks. All five are
// mandatory; the aggregate verdict is their conjunction.
func (e *Engine) evaluateDynamicConditions(ctx context.Context, request *pdp_model.AccessRequest) (evalResult, error) {
	now := e.Now()

	timeCond := e.timeCondition(now)
	locationCond := e.locationCondition(request)
	deviceCond := e.deviceCondition(request)
	networkCond := e.networkCondition(request)
	behaviorCond, err := e.behaviorCondition(ctx, request.Subject.ID, now)
	if err != nil {
		return evalResult{}, err
	}

	allowed := timeCond.Met && locationCond.Met && deviceCond.Met &&
		networkCond.Met && behaviorCond.Met

	return evalResult{
		allowed: allowed,
		details: map[string]interface{}{
			"time":     timeCond,
			"location": locationCond,
			"device":   deviceCond,
			"network":  networkCond,
			"behavior": behaviorCond,
		},
	}, nil
}

// timeCondition gates on business hours: weekday, hour within
// [BusinessHourStart, BusinessHourEnd] inclusive.
func (e *Engine) timeCondition(now time.Time) conditionResult {
	hour := now.Hour()
	weekday := now.Weekday()
	businessDay := weekday != time.Saturday && weekday != time.Sunday
	met := businessDay && hour >= e.BusinessHourStart && hour <= e.BusinessHourEnd

	return conditionResult{
		Met: met,
		Details: map[string]interface{}{
			"hour":    hour,
			"weekday": weekday.String(),
		},
	}
}

func (e *Engine) locationCondition(request *pdp_model.AccessRequest) conditionResult {
	location := request.Context.Location
	if location == "" {
		location = request.Subject.LastLocation
	}

	allowed := request.Context.AllowedLocations()
	if len(allowed) == 0 {
		allowed = defaultAllowedLocations
	}

	met := location != "" && containsString(allowed, location)
	return conditionResult{
		Met: met,
		Details: map[string]interface{}{
			"location": location,
			"allowed":  allowed,
		},
	}
}

func (e *Engine) deviceCondition(request *pdp_model.AccessRequest) conditionResult {
	device := request.Context.DeviceType
	met := device != "" && containsString(defaultAllowedDevices, device)
	return conditionResult{
		Met: met,
		Details: map[string]interface{}{
			"device_type": device,
			"allowed":     defaultAllowedDevices,
		},
	}
}

func (e *Engine) networkCondition(request *pdp_model.AccessRequest) conditionResult {
	network := request.Context.NetworkType
	met := network != "" && containsString(defaultAllowedNetworks, network)
	return conditionResult{
		Met: met,
		Details: map[string]interface{}{
			"network_type": network,
			"allowed":      defaultAllowedNetworks,
		},
	}
}

// behaviorCondition scores the subject's trailing 24 hours of activity,
// bounded to the 10 most recent entries. The score is the share of
// read/view actions; no activity scores zero.
func (e *Engine) behaviorCondition(ctx context.Context, subjectID string, now time.Time) (conditionResult, error) {
	activities, err := e.activity.RecentActivity(ctx, subjectID, now.Add(-behaviorWindow))
	if err != nil {
		return conditionResult{}, err
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > behaviorMaxEntries {
		activities = activities[:behaviorMaxEntries]
	}

	reads := 0
	for _, activity := range activities {
		if activity.Action == "read" || activity.Action == "view" {
			reads++
		}
	}

	score := 0.0
	if len(activities) > 0 {
		score = float64(reads) / float64(len(activities))
	}

	return conditionResult{
		Met: score >= behaviorThreshold,
		Details: map[string]interface{}{
			"score":       score,
			"reads":       reads,
			"sample_size": len(activities),
		},
	}, nil
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
