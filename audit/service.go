// audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/aria7-op/schoolguard/model"
)

// Service exposes the decision log plus the activity/login queries the
// decision engine's behavioral and risk evaluators consume.
type Service interface {
	RecordDecision(ctx context.Context, log AccessLog) error
	QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]AccessLog, error)
	RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error)
	FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RecordDecision(ctx context.Context, log AccessLog) error {
	return s.repo.RecordDecision(ctx, log)
}

func (s *service) QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]AccessLog, error) {
	return s.repo.QueryDecisions(ctx, from, to, subjectID, resourceID)
}

func (s *service) RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error) {
	return s.repo.RecentActivity(ctx, subjectID, since)
}

func (s *service) FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error) {
	return s.repo.FailedLogins(ctx, subjectID, since)
}
