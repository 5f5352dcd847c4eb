package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

func rbacRequest(subjectID, resourceType, resourceID, action string) *pdp_model.AccessRequest {
	return &pdp_model.AccessRequest{
		Subject:  model.Subject{ID: subjectID},
		Resource: model.Resource{Type: resourceType, ID: resourceID},
		Action:   action,
	}
}

func TestRBACExactMatch(t *testing.T) {
	identity, policies, activity := emptyStores()
	identity.roles["t1"] = []model.Role{
		{ID: "role-teacher", Name: "TEACHER", Permissions: []model.Permission{{Name: "class:5:view"}}},
	}
	e := NewEngine(identity, policies, activity, StrategyAll)

	result, err := e.evaluateRBAC(context.Background(), rbacRequest("t1", "class", "5", "view"))
	require.NoError(t, err)
	assert.True(t, result.allowed)
	assert.Equal(t, "class:5:view", result.attributes["required_permission"])

	result, err = e.evaluateRBAC(context.Background(), rbacRequest("t1", "class", "5", "edit"))
	require.NoError(t, err)
	assert.False(t, result.allowed)
}

func TestRBACWildcard(t *testing.T) {
	identity, policies, activity := emptyStores()
	identity.roles["root"] = []model.Role{
		{ID: "role-root", Name: "SUPER_ADMIN", Permissions: []model.Permission{{Name: "*"}}},
	}
	e := NewEngine(identity, policies, activity, StrategyAll)

	result, err := e.evaluateRBAC(context.Background(), rbacRequest("root", "payroll", "9", "delete"))
	require.NoError(t, err)
	assert.True(t, result.allowed)
}

func TestRBACInheritedPermissions(t *testing.T) {
	identity, policies, activity := emptyStores()
	identity.roles["s1"] = []model.Role{
		{ID: "role-child", Name: "ASSISTANT", ParentIDs: []string{"role-parent"}},
	}
	identity.roleByID["role-parent"] = &model.Role{
		ID:          "role-parent",
		Name:        "TEACHER",
		Permissions: []model.Permission{{Name: "student:10:view"}},
	}
	e := NewEngine(identity, policies, activity, StrategyAll)

	result, err := e.evaluateRBAC(context.Background(), rbacRequest("s1", "student", "10", "view"))
	require.NoError(t, err)
	assert.True(t, result.allowed)
}

func TestRBACCyclicRoleGraphTerminates(t *testing.T) {
	identity, policies, activity := emptyStores()
	identity.roles["s1"] = []model.Role{
		{ID: "role-a", Name: "A", ParentIDs: []string{"role-b"}},
	}
	identity.roleByID["role-a"] = &model.Role{ID: "role-a", Name: "A", ParentIDs: []string{"role-b"}}
	identity.roleByID["role-b"] = &model.Role{
		ID:          "role-b",
		Name:        "B",
		ParentIDs:   []string{"role-a"}, // cycle
		Permissions: []model.Permission{{Name: "class:1:view"}},
	}
	e := NewEngine(identity, policies, activity, StrategyAll)

	permissions, err := e.EffectivePermissions(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, permissions, "class:1:view")
}

func TestRBACUnknownSubjectDenies(t *testing.T) {
	identity, policies, activity := emptyStores()
	e := NewEngine(identity, policies, activity, StrategyAll)

	result, err := e.evaluateRBAC(context.Background(), rbacRequest("ghost", "class", "5", "view"))
	require.NoError(t, err)
	assert.False(t, result.allowed)
	assert.Equal(t, "subject not found", result.attributes["rbac_error"])
}

func TestRBACUnresolvableParentRoleSkipped(t *testing.T) {
	identity, policies, activity := emptyStores()
	identity.roles["s1"] = []model.Role{
		{
			ID:          "role-x",
			Name:        "X",
			ParentIDs:   []string{"missing"},
			Permissions: []model.Permission{{Name: "notice:3:read"}},
		},
	}
	e := NewEngine(identity, policies, activity, StrategyAll)

	permissions, err := e.EffectivePermissions(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, permissions, 1)
}
