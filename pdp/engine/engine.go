package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	logger "github.com/aria7-op/schoolguard/logging"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// Engine combines RBAC, ABAC, dynamic-condition and risk verdicts into a
// single access decision. It holds no mutable state between evaluations;
// concurrent Evaluate calls are fully independent.
type Engine struct {
	identity IdentityStore
	policies PolicyStore
	activity ActivityLog

	strategy          Strategy
	weightedThreshold int

	// Business-hours gate for the time condition, inclusive on both ends.
	BusinessHourStart int
	BusinessHourEnd   int

	// Now is the evaluation clock. Tests replace it with a fixed clock.
	Now func() time.Time
}

func NewEngine(identity IdentityStore, policies PolicyStore, activity ActivityLog, strategy Strategy) *Engine {
	return &Engine{
		identity:          identity,
		policies:          policies,
		activity:          activity,
		strategy:          strategy,
		weightedThreshold: DefaultWeightedThreshold,
		BusinessHourStart: 9,
		BusinessHourEnd:   17,
		Now:               time.Now,
	}
}

// SetWeightedThreshold overrides how many true verdicts StrategyWeighted
// requires. Values outside [1,4] are ignored.
func (e *Engine) SetWeightedThreshold(n int) {
	if n >= 1 && n <= 4 {
		e.weightedThreshold = n
	}
}

// evalResult is one sub-evaluator's contribution to the composite decision.
type evalResult struct {
	allowed    bool
	attributes map[string]interface{}
	details    map[string]interface{}
	score      int
}

// Evaluate runs the four evaluators and combines their verdicts. Missing
// resource type or action is a caller contract violation and returns a
// validation error; every other failure degrades to a deny decision.
func (e *Engine) Evaluate(ctx context.Context, request *pdp_model.AccessRequest) (*pdp_model.Decision, error) {
	if request == nil {
		return nil, sg_errors.ErrInvalidAccessRequest
	}
	if request.Resource.Type == "" {
		return nil, sg_errors.ErrMissingResourceType
	}
	if request.Action == "" {
		return nil, sg_errors.ErrMissingAction
	}

	evaluators := []struct {
		name string
		fn   func(context.Context, *pdp_model.AccessRequest) (evalResult, error)
	}{
		{pdp_model.EvaluatorRBAC, e.evaluateRBAC},
		{pdp_model.EvaluatorABAC, e.evaluateABAC},
		{pdp_model.EvaluatorDynamic, e.evaluateDynamicConditions},
		{pdp_model.EvaluatorRisk, e.evaluateRisk},
	}

	// The evaluators are independent and share no mutable state; each one
	// writes to its own result slot.
	results := make([]evalResult, len(evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range evaluators {
		i, ev := i, ev
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Evaluator panicked",
						zap.String("evaluator", ev.name),
						zap.Any("panic", r))
					err = fmt.Errorf("%s evaluator panicked: %v", ev.name, r)
				}
			}()
			result, evalErr := ev.fn(gctx, request)
			if evalErr != nil {
				return fmt.Errorf("%s evaluator: %w", ev.name, evalErr)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Policy evaluation failed",
			zap.Error(err),
			zap.String("subjectID", request.Subject.ID),
			zap.String("resourceType", request.Resource.Type),
			zap.String("action", request.Action))
		return e.failClosed(), nil
	}

	return e.composeDecision(request, results), nil
}

func (e *Engine) composeDecision(request *pdp_model.AccessRequest, results []evalResult) *pdp_model.Decision {
	names := []string{
		pdp_model.EvaluatorRBAC,
		pdp_model.EvaluatorABAC,
		pdp_model.EvaluatorDynamic,
		pdp_model.EvaluatorRisk,
	}

	verdicts := make([]bool, len(results))
	trail := make([]pdp_model.PolicyResult, len(results))
	attributes := make(map[string]interface{})
	for i, result := range results {
		verdicts[i] = result.allowed
		trail[i] = pdp_model.PolicyResult{Type: names[i], Allowed: result.allowed}
		// Last-writer-wins on key collisions, in evaluation order.
		for k, v := range result.attributes {
			attributes[k] = v
		}
	}

	allowed := e.strategy.Combine(verdicts, e.weightedThreshold)

	reason := "Access granted"
	if !allowed {
		reason = fmt.Sprintf("Access denied by %s strategy", e.strategy)
	}

	decision := &pdp_model.Decision{
		Allowed:      allowed,
		Reason:       reason,
		Policies:     trail,
		Attributes:   attributes,
		Conditions:   results[2].details,
		RiskScore:    results[3].score,
		EvaluationID: uuid.New().String(),
		EvaluatedAt:  e.Now(),
	}

	logger.Debug("Access policy evaluated",
		zap.String("subjectID", request.Subject.ID),
		zap.String("resourceType", request.Resource.Type),
		zap.String("action", request.Action),
		zap.Bool("allowed", allowed),
		zap.Int("riskScore", decision.RiskScore))

	return decision
}

// failClosed is the engine's only response to an internal fault: deny,
// with no partial sub-results leaking into the decision.
func (e *Engine) failClosed() *pdp_model.Decision {
	return &pdp_model.Decision{
		Allowed:      false,
		Reason:       "Policy evaluation failed",
		EvaluationID: uuid.New().String(),
		EvaluatedAt:  e.Now(),
	}
}
