package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// WildcardPermission grants every action when present in a role's
// permission set.
const WildcardPermission = "*"

// evaluateRBAC checks whether the subject's effective permission set
// contains the permission required for the (type, id, action) triple.
// An unresolvable subject denies without surfacing an error.
func (e *Engine) evaluateRBAC(ctx context.Context, request *pdp_model.AccessRequest) (evalResult, error) {
	required := fmt.Sprintf("%s:%s:%s", request.Resource.Type, request.Resource.ID, request.Action)

	permissions, err := e.EffectivePermissions(ctx, request.Subject.ID)
	if err != nil {
		if errors.Is(err, sg_errors.ErrSubjectNotFound) {
			logger.Warn("RBAC evaluation for unknown subject",
				zap.String("subjectID", request.Subject.ID))
			return evalResult{
				allowed: false,
				attributes: map[string]interface{}{
					"required_permission": required,
					"rbac_error":          "subject not found",
				},
			}, nil
		}
		return evalResult{}, err
	}

	_, exact := permissions[required]
	_, wildcard := permissions[WildcardPermission]

	return evalResult{
		allowed: exact || wildcard,
		attributes: map[string]interface{}{
			"required_permission": required,
			"permission_count":    len(permissions),
		},
	}, nil
}

// EffectivePermissions resolves the union of all permissions reachable
// through the subject's assigned roles. Role inheritance is expanded as an
// explicit breadth-first traversal with a visited set, so cyclic role
// graphs terminate instead of looping.
func (e *Engine) EffectivePermissions(ctx context.Context, subjectID string) (map[string]struct{}, error) {
	roles, err := e.identity.GetRolesWithPermissions(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	permissions := make(map[string]struct{})
	visited := make(map[string]bool)
	queue := make([]model.Role, 0, len(roles))
	queue = append(queue, roles...)

	for len(queue) > 0 {
		role := queue[0]
		queue = queue[1:]
		if visited[role.ID] {
			continue
		}
		visited[role.ID] = true

		for _, permission := range role.Permissions {
			permissions[permission.Name] = struct{}{}
		}

		for _, parentID := range role.ParentIDs {
			if visited[parentID] {
				continue
			}
			parent, err := e.identity.GetRole(ctx, parentID)
			if err != nil {
				if errors.Is(err, sg_errors.ErrRoleNotFound) {
					logger.Warn("Skipping unresolvable parent role",
						zap.String("roleID", parentID),
						zap.String("subjectID", subjectID))
					continue
				}
				return nil, err
			}
			queue = append(queue, *parent)
		}
	}

	return permissions, nil
}
