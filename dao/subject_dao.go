// dao/subject_dao.go
package dao

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
	sg_neo4j "github.com/aria7-op/schoolguard/model/neo4j"
)

// SubjectDAO reads subjects and their role graph from Neo4j. It implements
// the engine's IdentityStore.
type SubjectDAO struct {
	Driver neo4j.Driver
}

func NewSubjectDAO(driver neo4j.Driver) *SubjectDAO {
	return &SubjectDAO{Driver: driver}
}

func (dao *SubjectDAO) GetSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (s:` + sg_neo4j.LabelSubject + ` {id: $id})
    OPTIONAL MATCH (s)-[:` + sg_neo4j.RelHasRole + `]->(r:` + sg_neo4j.LabelRole + `)
    RETURN s, collect(r.name) AS roles
    `
	result, err := session.Run(query, map[string]interface{}{"id": subjectID})
	if err != nil {
		logger.Error("Failed to execute get subject query",
			zap.Error(err),
			zap.String("subjectID", subjectID),
			zap.Duration("duration", time.Since(start)))
		return nil, sg_errors.ErrDatabaseOperation
	}

	if result.Next() {
		record := result.Record()
		node := record.Values[0].(neo4j.Node)
		subject := mapNodeToSubject(node)
		for _, roleName := range record.Values[1].([]interface{}) {
			if name, ok := roleName.(string); ok {
				subject.Roles = append(subject.Roles, name)
			}
		}
		logger.Debug("Subject retrieved",
			zap.String("subjectID", subjectID),
			zap.Duration("duration", time.Since(start)))
		return subject, nil
	}

	logger.Warn("Subject not found", zap.String("subjectID", subjectID))
	return nil, sg_errors.ErrSubjectNotFound
}

func (dao *SubjectDAO) GetRolesWithPermissions(ctx context.Context, subjectID string) ([]model.Role, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (s:` + sg_neo4j.LabelSubject + ` {id: $id})
    OPTIONAL MATCH (s)-[:` + sg_neo4j.RelHasRole + `]->(r:` + sg_neo4j.LabelRole + `)
    OPTIONAL MATCH (r)-[:` + sg_neo4j.RelHasPermission + `]->(p:` + sg_neo4j.LabelPermission + `)
    OPTIONAL MATCH (r)-[:` + sg_neo4j.RelInheritsFrom + `]->(parent:` + sg_neo4j.LabelRole + `)
    RETURN s.id, r, collect(DISTINCT p.name) AS permissions, collect(DISTINCT parent.id) AS parents
    `
	result, err := session.Run(query, map[string]interface{}{"id": subjectID})
	if err != nil {
		logger.Error("Failed to execute roles query",
			zap.Error(err),
			zap.String("subjectID", subjectID),
			zap.Duration("duration", time.Since(start)))
		return nil, sg_errors.ErrDatabaseOperation
	}

	var roles []model.Role
	found := false
	for result.Next() {
		found = true
		record := result.Record()
		roleValue := record.Values[1]
		if roleValue == nil {
			continue // subject exists but has no roles
		}
		role := mapNodeToRole(roleValue.(neo4j.Node))
		for _, name := range record.Values[2].([]interface{}) {
			if permission, ok := name.(string); ok {
				role.Permissions = append(role.Permissions, model.Permission{Name: permission})
			}
		}
		for _, parent := range record.Values[3].([]interface{}) {
			if parentID, ok := parent.(string); ok {
				role.ParentIDs = append(role.ParentIDs, parentID)
			}
		}
		roles = append(roles, role)
	}

	if !found {
		logger.Warn("Subject not found for role resolution", zap.String("subjectID", subjectID))
		return nil, sg_errors.ErrSubjectNotFound
	}

	logger.Debug("Roles with permissions retrieved",
		zap.String("subjectID", subjectID),
		zap.Int("roleCount", len(roles)),
		zap.Duration("duration", time.Since(start)))
	return roles, nil
}

func (dao *SubjectDAO) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + sg_neo4j.LabelRole + ` {id: $id})
    OPTIONAL MATCH (r)-[:` + sg_neo4j.RelHasPermission + `]->(p:` + sg_neo4j.LabelPermission + `)
    OPTIONAL MATCH (r)-[:` + sg_neo4j.RelInheritsFrom + `]->(parent:` + sg_neo4j.LabelRole + `)
    RETURN r, collect(DISTINCT p.name) AS permissions, collect(DISTINCT parent.id) AS parents
    `
	result, err := session.Run(query, map[string]interface{}{"id": roleID})
	if err != nil {
		logger.Error("Failed to execute get role query",
			zap.Error(err),
			zap.String("roleID", roleID))
		return nil, sg_errors.ErrDatabaseOperation
	}

	if result.Next() {
		record := result.Record()
		role := mapNodeToRole(record.Values[0].(neo4j.Node))
		for _, name := range record.Values[1].([]interface{}) {
			if permission, ok := name.(string); ok {
				role.Permissions = append(role.Permissions, model.Permission{Name: permission})
			}
		}
		for _, parent := range record.Values[2].([]interface{}) {
			if parentID, ok := parent.(string); ok {
				role.ParentIDs = append(role.ParentIDs, parentID)
			}
		}
		return &role, nil
	}

	return nil, sg_errors.ErrRoleNotFound
}

func mapNodeToSubject(node neo4j.Node) *model.Subject {
	props := node.Props
	subject := &model.Subject{}

	if id, ok := props["id"].(string); ok {
		subject.ID = id
	}
	if name, ok := props["name"].(string); ok {
		subject.Name = name
	}
	if level, ok := props["hierarchyLevel"].(int64); ok {
		subject.HierarchyLevel = int(level)
	}
	if location, ok := props["lastLocation"].(string); ok {
		subject.LastLocation = location
	}

	return subject
}

func mapNodeToRole(node neo4j.Node) model.Role {
	props := node.Props
	role := model.Role{}

	if id, ok := props["id"].(string); ok {
		role.ID = id
	}
	if name, ok := props["name"].(string); ok {
		role.Name = name
	}

	return role
}
