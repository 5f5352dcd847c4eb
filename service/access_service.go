// service/access_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/aria7-op/schoolguard/audit"
	sg_errors "github.com/aria7-op/schoolguard/errors"
	logger "github.com/aria7-op/schoolguard/logging"
	"github.com/aria7-op/schoolguard/model"
	"github.com/aria7-op/schoolguard/pdp/engine"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
	"github.com/aria7-op/schoolguard/util"
)

// PolicyEngine is the slice of the decision engine the service consumes.
type PolicyEngine interface {
	Evaluate(ctx context.Context, request *pdp_model.AccessRequest) (*pdp_model.Decision, error)
	EffectivePermissions(ctx context.Context, subjectID string) (map[string]struct{}, error)
}

// IAccessService defines the interface for access evaluation operations
type IAccessService interface {
	EvaluateAccess(ctx context.Context, request pdp_model.AccessRequest) (*pdp_model.Decision, error)
	EffectivePermissions(ctx context.Context, subjectID string) ([]string, error)
	QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]audit.AccessLog, error)
}

// AccessService validates incoming access requests, enriches the subject
// from the identity store, delegates to the decision engine and emits the
// decision to the audit trail.
type AccessService struct {
	engine         PolicyEngine
	identity       engine.IdentityStore
	validationUtil *util.ValidationUtil
	cacheService   *util.CacheService
	auditService   audit.Service
	eventBus       *util.EventBus
	strategy       string
}

var _ IAccessService = &AccessService{}

// NewAccessService creates a new instance of AccessService
func NewAccessService(
	policyEngine PolicyEngine,
	identity engine.IdentityStore,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	auditService audit.Service,
	eventBus *util.EventBus,
	strategy string,
) *AccessService {
	service := &AccessService{
		engine:         policyEngine,
		identity:       identity,
		validationUtil: validationUtil,
		cacheService:   cacheService,
		auditService:   auditService,
		eventBus:       eventBus,
		strategy:       strategy,
	}

	eventBus.Subscribe("access.evaluated", service.handleAccessEvaluated)

	return service
}

// accessEvaluatedEvent is the payload published after every evaluation.
type accessEvaluatedEvent struct {
	Request  pdp_model.AccessRequest
	Decision pdp_model.Decision
}

func (s *AccessService) handleAccessEvaluated(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(accessEvaluatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type for access.evaluated event")
	}

	details, err := json.Marshal(payload.Decision)
	if err != nil {
		logger.Warn("Failed to marshal decision details for audit",
			zap.Error(err),
			zap.String("evaluationID", payload.Decision.EvaluationID))
	}

	log := audit.AccessLog{
		Timestamp:    payload.Decision.EvaluatedAt,
		EvaluationID: payload.Decision.EvaluationID,
		SubjectID:    payload.Request.Subject.ID,
		Action:       payload.Request.Action,
		ResourceType: payload.Request.Resource.Type,
		ResourceID:   payload.Request.Resource.ID,
		Allowed:      payload.Decision.Allowed,
		Reason:       payload.Decision.Reason,
		RiskScore:    payload.Decision.RiskScore,
		Strategy:     s.strategy,
		Details:      details,
	}

	if err := s.auditService.RecordDecision(ctx, log); err != nil {
		logger.Error("Failed to record access decision",
			zap.Error(err),
			zap.String("evaluationID", payload.Decision.EvaluationID))
		return err
	}
	return nil
}

// EvaluateAccess runs one policy evaluation for the caller.
func (s *AccessService) EvaluateAccess(ctx context.Context, request pdp_model.AccessRequest) (*pdp_model.Decision, error) {
	if err := s.validationUtil.ValidateAccessRequest(request); err != nil {
		return nil, err
	}

	subject, err := s.resolveSubject(ctx, request.Subject.ID)
	if err != nil {
		if !errors.Is(err, sg_errors.ErrSubjectNotFound) {
			logger.Error("Error resolving subject",
				zap.Error(err),
				zap.String("subjectID", request.Subject.ID))
			return nil, sg_errors.ErrInternalServer
		}
		// Unknown subjects still get a (denying) evaluation rather than an
		// error; the RBAC evaluator fails closed on its own.
		logger.Warn("Evaluating access for unknown subject",
			zap.String("subjectID", request.Subject.ID))
	} else {
		request.Subject = *subject
	}

	decision, err := s.engine.Evaluate(ctx, &request)
	if err != nil {
		return nil, err
	}

	// Publish event for asynchronous audit persistence
	s.eventBus.Publish(ctx, "access.evaluated", accessEvaluatedEvent{
		Request:  request,
		Decision: *decision,
	})

	logger.Info("Access evaluated",
		zap.String("subjectID", request.Subject.ID),
		zap.String("resourceType", request.Resource.Type),
		zap.String("resourceID", request.Resource.ID),
		zap.String("action", request.Action),
		zap.Bool("allowed", decision.Allowed),
		zap.Int("riskScore", decision.RiskScore))
	return decision, nil
}

// EffectivePermissions returns the subject's resolved permission set,
// sorted for stable output.
func (s *AccessService) EffectivePermissions(ctx context.Context, subjectID string) ([]string, error) {
	permissionSet, err := s.engine.EffectivePermissions(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sg_errors.ErrSubjectNotFound) {
			return nil, sg_errors.ErrSubjectNotFound
		}
		logger.Error("Error resolving effective permissions",
			zap.Error(err),
			zap.String("subjectID", subjectID))
		return nil, sg_errors.ErrInternalServer
	}

	permissions := make([]string, 0, len(permissionSet))
	for name := range permissionSet {
		permissions = append(permissions, name)
	}
	sort.Strings(permissions)
	return permissions, nil
}

// QueryDecisions returns persisted decisions within a time frame.
func (s *AccessService) QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]audit.AccessLog, error) {
	logs, err := s.auditService.QueryDecisions(ctx, from, to, subjectID, resourceID)
	if err != nil {
		logger.Error("Error querying decisions", zap.Error(err))
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	return logs, nil
}

// resolveSubject fetches the subject from cache, falling back to the
// identity store.
func (s *AccessService) resolveSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	cached, err := s.cacheService.GetSubject(ctx, subjectID)
	if err == nil && cached != nil {
		return cached, nil
	}

	subject, err := s.identity.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetSubject(ctx, *subject); err != nil {
		logger.Warn("Failed to cache subject",
			zap.Error(err),
			zap.String("subjectID", subjectID))
	}

	return subject, nil
}
