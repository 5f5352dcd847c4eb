package engine

import (
	"context"
	"time"

	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// Per-action risk contributions; unrecognized actions fall back to
// defaultActionRisk.
var actionRisk = map[string]int{
	"read":   5,
	"write":  15,
	"delete": 25,
	"admin":  30,
	"export": 20,
	"share":  15,
}

const (
	defaultActionRisk = 10
	maxRiskScore      = 100

	failedLoginWindow = 24 * time.Hour
	failedLoginWeight = 5
	privilegedRisk    = 20
	sensitiveRisk     = 25
	offHoursRisk      = 15
	unknownLocRisk    = 20
	mobileDeviceRisk  = 10
)

// Risk tolerance per resource sensitivity; the more sensitive the
// resource, the lower the score the policy tolerates.
var riskThresholds = map[model.Sensitivity]int{
	model.SensitivityFinancial:    30,
	model.SensitivityPersonal:     40,
	model.SensitivityConfidential: 50,
	model.SensitivityPublic:       70,
}

const defaultRiskThreshold = 60

// evaluateRisk sums the user, resource, action and context risk
// contributions, clamps to [0,100], and allows iff the score stays within
// the tolerance for the resource's sensitivity class.
func (e *Engine) evaluateRisk(ctx context.Context, request *pdp_model.AccessRequest) (evalResult, error) {
	now := e.Now()
	score := 0

	// User risk: recent failed logins plus privileged role membership.
	failedLogins, err := e.activity.FailedLogins(ctx, request.Subject.ID, now.Add(-failedLoginWindow))
	if err != nil {
		return evalResult{}, err
	}
	score += failedLoginWeight * len(failedLogins)
	if hasPrivilegedRole(request.Subject.Roles) {
		score += privilegedRisk
	}

	// Resource risk.
	switch request.Resource.Sensitivity {
	case model.SensitivityFinancial, model.SensitivityPersonal, model.SensitivityConfidential:
		score += sensitiveRisk
	}

	// Action risk.
	if contribution, ok := actionRisk[request.Action]; ok {
		score += contribution
	} else {
		score += defaultActionRisk
	}

	// Context risk.
	hour := now.Hour()
	if hour < 6 || hour > 22 {
		score += offHoursRisk
	}
	location := request.Context.Location
	if location == "" {
		location = request.Subject.LastLocation
	}
	if location == "" {
		score += unknownLocRisk
	}
	if request.Context.DeviceType == "mobile" || request.Context.DeviceType == "tablet" {
		score += mobileDeviceRisk
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	threshold := RiskThreshold(request.Resource.Sensitivity)

	return evalResult{
		allowed: score <= threshold,
		score:   score,
		attributes: map[string]interface{}{
			"risk_score":     score,
			"risk_threshold": threshold,
			"failed_logins":  len(failedLogins),
		},
	}, nil
}

// RiskThreshold returns the risk tolerance for a sensitivity class.
func RiskThreshold(sensitivity model.Sensitivity) int {
	if threshold, ok := riskThresholds[sensitivity]; ok {
		return threshold
	}
	return defaultRiskThreshold
}

func hasPrivilegedRole(roles []string) bool {
	for _, role := range roles {
		switch role {
		case model.RoleAdmin, model.RoleSuperAdmin, model.RoleFinance:
			return true
		}
	}
	return false
}
