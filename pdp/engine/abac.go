package engine

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// evaluateABAC loads the active policies for the (resource type, action)
// pair and applies them in ascending priority order. Each policy whose
// conditions all hold overwrites the running verdict with its effect and
// merges its attributes, so the last matching policy wins. No matching
// policy means deny.
func (e *Engine) evaluateABAC(ctx context.Context, request *pdp_model.AccessRequest) (evalResult, error) {
	policies, err := e.policies.FindActivePolicies(ctx, request.Resource.Type, request.Action)
	if err != nil {
		return evalResult{}, err
	}

	// The store already orders by priority; re-sort defensively so the
	// last-match-wins semantics stay deterministic regardless of backend.
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].Priority < policies[j].Priority
	})

	allowed := false
	matched := 0
	attributes := make(map[string]interface{})

	for _, policy := range policies {
		if policy == nil || !policy.IsActive {
			continue
		}
		if !e.policyApplies(policy, request) {
			continue
		}

		matched++
		allowed = policy.Effect == model.EffectAllow
		for k, v := range policy.Attributes {
			attributes[k] = v
		}
		attributes["abac_policy"] = policy.Name

		logger.Debug("ABAC policy matched",
			zap.String("policy", policy.Name),
			zap.String("effect", policy.Effect),
			zap.Int("priority", policy.Priority))
	}

	attributes["abac_matched_policies"] = matched

	return evalResult{allowed: allowed, attributes: attributes}, nil
}

// policyApplies reports whether every condition of the policy holds. A
// policy's condition set is a conjunction.
func (e *Engine) policyApplies(policy *model.Policy, request *pdp_model.AccessRequest) bool {
	for _, condition := range policy.Conditions {
		if !e.conditionHolds(condition, request) {
			return false
		}
	}
	return true
}

func (e *Engine) conditionHolds(condition model.Condition, request *pdp_model.AccessRequest) bool {
	value, ok := resolveAttribute(condition.Attribute, request)
	if !ok {
		return false
	}

	switch condition.Operator {
	case model.OpEquals:
		return attributeEquals(value, condition.Value)
	case model.OpNotEquals:
		return !attributeEquals(value, condition.Value)
	case model.OpIn:
		return attributeIn(value, condition.Value)
	case model.OpNotIn:
		return !attributeIn(value, condition.Value)
	case model.OpGte:
		a, b, ok := numericPair(value, condition.Value)
		return ok && a >= b
	case model.OpLte:
		a, b, ok := numericPair(value, condition.Value)
		return ok && a <= b
	case model.OpBetween:
		return numericBetween(value, condition.Value)
	default:
		logger.Warn("Unknown condition operator",
			zap.String("operator", condition.Operator),
			zap.String("attribute", condition.Attribute))
		return false
	}
}

// resolveAttribute maps a dotted attribute path onto the access request.
// Recognized prefixes are "subject.", "resource.", "context." and the bare
// "action".
func resolveAttribute(path string, request *pdp_model.AccessRequest) (interface{}, bool) {
	if path == "action" {
		return request.Action, true
	}

	prefix, field, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}

	switch prefix {
	case "subject":
		switch field {
		case "id":
			return request.Subject.ID, true
		case "roles":
			return request.Subject.Roles, true
		case "hierarchy_level":
			return request.Subject.HierarchyLevel, true
		case "last_location":
			return request.Subject.LastLocation, true
		default:
			value, ok := request.Subject.Attributes[field]
			return value, ok
		}
	case "resource":
		switch field {
		case "type":
			return request.Resource.Type, true
		case "id":
			return request.Resource.ID, true
		case "sensitivity":
			return string(request.Resource.Sensitivity), true
		}
	case "context":
		switch field {
		case "location":
			return request.Context.Location, request.Context.Location != ""
		case "device_type":
			return request.Context.DeviceType, request.Context.DeviceType != ""
		case "network_type":
			return request.Context.NetworkType, request.Context.NetworkType != ""
		default:
			value, ok := request.Context.Extra[field]
			return value, ok
		}
	}
	return nil, false
}
