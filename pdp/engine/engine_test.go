package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// teacherScenario builds the canonical fixture: a TEACHER viewing a
// student record from the office during business hours.
func teacherScenario() (*fakeIdentityStore, *fakePolicyStore, *fakeActivityLog, *pdp_model.AccessRequest) {
	identity, policies, activity := emptyStores()
	identity.roles["t1"] = []model.Role{
		{ID: "role-teacher", Name: "TEACHER", Permissions: []model.Permission{{Name: "student:10:view"}}},
	}
	policies.policies = []*model.Policy{
		{
			Name: "teachers-view-students", ResourceType: "student", Action: "view",
			Effect: model.EffectAllow, IsActive: true, Priority: 1,
			Conditions: []model.Condition{
				{Attribute: "context.location", Operator: model.OpIn, Value: []interface{}{"office", "home"}},
			},
		},
	}
	activity.activities = activityTrail("t1", wednesday11, 8, 2)

	request := &pdp_model.AccessRequest{
		Subject:  model.Subject{ID: "t1", Roles: []string{"TEACHER"}},
		Resource: model.Resource{Type: "student", ID: "10", Sensitivity: model.SensitivityPersonal},
		Action:   "view",
		Context: pdp_model.AccessContext{
			Location: "office", DeviceType: "laptop", NetworkType: "wifi",
		},
	}
	return identity, policies, activity, request
}

func TestEvaluateEndToEndAllow(t *testing.T) {
	identity, policies, activity, request := teacherScenario()
	e := NewEngine(identity, policies, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	decision, err := e.Evaluate(context.Background(), request)
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, "Access granted", decision.Reason)
	require.Len(t, decision.Policies, 4)
	for i, expected := range []string{
		pdp_model.EvaluatorRBAC,
		pdp_model.EvaluatorABAC,
		pdp_model.EvaluatorDynamic,
		pdp_model.EvaluatorRisk,
	} {
		assert.Equal(t, expected, decision.Policies[i].Type)
		assert.True(t, decision.Policies[i].Allowed)
	}
	// action(5) + personal resource(25), within the personal threshold of 40.
	assert.Equal(t, 30, decision.RiskScore)
	assert.NotEmpty(t, decision.EvaluationID)
	assert.Equal(t, wednesday11, decision.EvaluatedAt)
	assert.Contains(t, decision.Conditions, "behavior")
}

func TestEvaluateDeniesWithoutPermission(t *testing.T) {
	identity, policies, activity, request := teacherScenario()
	request.Action = "delete" // no RBAC permission, no ABAC policy
	e := NewEngine(identity, policies, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	decision, err := e.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Access denied by ALL strategy", decision.Reason)
}

func TestEvaluateStrategySelectsVerdict(t *testing.T) {
	// RBAC denies (no permission for "edit"), ABAC denies (no policy), but
	// dynamic conditions and risk both pass: 2 of 4 verdicts are true.
	identity, policies, activity, request := teacherScenario()
	request.Action = "edit"

	all := NewEngine(identity, policies, activity, StrategyAll)
	all.Now = fixedClock(wednesday11)
	decision, err := all.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	weighted := NewEngine(identity, policies, activity, StrategyWeighted)
	weighted.Now = fixedClock(wednesday11)
	decision, err = weighted.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	majority := NewEngine(identity, policies, activity, StrategyMajority)
	majority.Now = fixedClock(wednesday11)
	decision, err = majority.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestEvaluateFailsClosedOnPanic(t *testing.T) {
	identity, _, activity, request := teacherScenario()
	e := NewEngine(identity, panickingPolicyStore{}, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	decision, err := e.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Policy evaluation failed", decision.Reason)
	assert.Empty(t, decision.Policies, "no partial sub-results may leak into a failed decision")
}

func TestEvaluateFailsClosedOnStoreError(t *testing.T) {
	identity, policies, activity, request := teacherScenario()
	activity.err = errors.New("activity log unreachable")
	e := NewEngine(identity, policies, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	decision, err := e.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Policy evaluation failed", decision.Reason)
}

func TestEvaluateValidatesRequiredFields(t *testing.T) {
	identity, policies, activity, request := teacherScenario()
	e := NewEngine(identity, policies, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	missingType := *request
	missingType.Resource.Type = ""
	_, err := e.Evaluate(context.Background(), &missingType)
	assert.ErrorIs(t, err, sg_errors.ErrMissingResourceType)

	missingAction := *request
	missingAction.Action = ""
	_, err = e.Evaluate(context.Background(), &missingAction)
	assert.ErrorIs(t, err, sg_errors.ErrMissingAction)

	_, err = e.Evaluate(context.Background(), nil)
	assert.ErrorIs(t, err, sg_errors.ErrInvalidAccessRequest)
}

func TestEvaluateMergesAttributesInEvaluationOrder(t *testing.T) {
	identity, policies, activity, request := teacherScenario()
	// ABAC policy writes the same key RBAC writes; ABAC runs later so its
	// value must win.
	policies.policies[0].Attributes = map[string]interface{}{"required_permission": "overridden"}
	e := NewEngine(identity, policies, activity, StrategyAll)
	e.Now = fixedClock(wednesday11)

	decision, err := e.Evaluate(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "overridden", decision.Attributes["required_permission"])
	assert.Contains(t, decision.Attributes, "risk_score")
}
