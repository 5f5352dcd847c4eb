// dao/policy_dao.go
package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
	sg_neo4j "github.com/aria7-op/schoolguard/model/neo4j"
	"github.com/aria7-op/schoolguard/util"
)

// PolicyDAO reads attribute-based policies from Neo4j. Conditions and
// attributes are stored as JSON-encoded node properties.
type PolicyDAO struct {
	Driver neo4j.Driver
}

func NewPolicyDAO(driver neo4j.Driver) *PolicyDAO {
	return &PolicyDAO{Driver: driver}
}

// FindActivePolicies returns the active policies for a (resource type,
// action) pair ordered by ascending priority, which fixes the
// last-match-wins evaluation order.
func (dao *PolicyDAO) FindActivePolicies(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + sg_neo4j.LabelPolicy + ` {resourceType: $resourceType, action: $action, isActive: true})
    RETURN p
    ORDER BY p.priority ASC
    `
	result, err := session.Run(query, map[string]interface{}{
		"resourceType": resourceType,
		"action":       action,
	})
	if err != nil {
		logger.Error("Failed to execute find policies query",
			zap.Error(err),
			zap.String("resourceType", resourceType),
			zap.String("action", action),
			zap.Duration("duration", time.Since(start)))
		return nil, sg_errors.ErrDatabaseOperation
	}

	var policies []*model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct",
				zap.Error(err),
				zap.String("resourceType", resourceType))
			return nil, sg_errors.ErrInternalServer
		}
		policies = append(policies, policy)
	}

	logger.Debug("Active policies retrieved",
		zap.String("resourceType", resourceType),
		zap.String("action", action),
		zap.Int("count", len(policies)),
		zap.Duration("duration", time.Since(start)))
	return policies, nil
}

func mapNodeToPolicy(node neo4j.Node) (*model.Policy, error) {
	props := node.Props
	policy := &model.Policy{IsActive: true}

	if id, ok := props["id"].(string); ok {
		policy.ID = id
	}
	if name, ok := props["name"].(string); ok {
		policy.Name = name
	}
	if resourceType, ok := props["resourceType"].(string); ok {
		policy.ResourceType = resourceType
	}
	if action, ok := props["action"].(string); ok {
		policy.Action = action
	}
	if effect, ok := props["effect"].(string); ok {
		policy.Effect = effect
	}
	if priority, ok := props["priority"].(int64); ok {
		policy.Priority = int(priority)
	}
	if active, ok := props["isActive"].(bool); ok {
		policy.IsActive = active
	}

	if conditionsJSON, ok := props["conditions"].(string); ok && conditionsJSON != "" {
		if err := json.Unmarshal([]byte(conditionsJSON), &policy.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy conditions: %w", err)
		}
	}
	if attributesJSON, ok := props["attributes"].(string); ok && attributesJSON != "" {
		if err := json.Unmarshal([]byte(attributesJSON), &policy.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy attributes: %w", err)
		}
	}

	return policy, nil
}

// CachedPolicyStore decorates PolicyDAO with the injected cache service so
// the engine stays cache-agnostic.
type CachedPolicyStore struct {
	dao   *PolicyDAO
	cache *util.CacheService
}

func NewCachedPolicyStore(dao *PolicyDAO, cache *util.CacheService) *CachedPolicyStore {
	return &CachedPolicyStore{dao: dao, cache: cache}
}

func (s *CachedPolicyStore) FindActivePolicies(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	cached, err := s.cache.GetPolicySet(ctx, resourceType, action)
	if err == nil && cached != nil {
		return cached, nil
	}

	policies, err := s.dao.FindActivePolicies(ctx, resourceType, action)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPolicySet(ctx, resourceType, action, policies); err != nil {
		logger.Warn("Failed to cache policy set",
			zap.Error(err),
			zap.String("resourceType", resourceType),
			zap.String("action", action))
	}

	return policies, nil
}
