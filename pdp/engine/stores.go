package engine

import (
	"context"
	"time"

	"github.com/aria7-op/schoolguard/model"
)

// IdentityStore resolves subjects and their role graph. Implementations
// back onto the identity database; the engine only issues reads.
type IdentityStore interface {
	GetSubject(ctx context.Context, subjectID string) (*model.Subject, error)
	GetRolesWithPermissions(ctx context.Context, subjectID string) ([]model.Role, error)
	GetRole(ctx context.Context, roleID string) (*model.Role, error)
}

// PolicyStore returns the active attribute-based policies for a
// (resource type, action) pair, ordered by ascending priority.
type PolicyStore interface {
	FindActivePolicies(ctx context.Context, resourceType, action string) ([]*model.Policy, error)
}

// ActivityLog exposes a subject's recent activity and login history for the
// behavioral condition and the risk scorer.
type ActivityLog interface {
	RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error)
	FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error)
}
