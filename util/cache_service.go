// util/cache_service.go

package util

import (
	"context"

	"github.com/aria7-op/schoolguard/db"
	"github.com/aria7-op/schoolguard/model"
)

// CacheService is the cache abstraction injected into the engine's
// collaborators. The engine itself never touches it.
type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	return db.GetCachedSubject(ctx, subjectID)
}

func (c *CacheService) SetSubject(ctx context.Context, subject model.Subject) error {
	return db.CacheSubject(ctx, &subject)
}

func (c *CacheService) DeleteSubject(ctx context.Context, subjectID string) error {
	return db.DeleteCachedSubject(ctx, subjectID)
}

func (c *CacheService) GetPolicySet(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	return db.GetCachedPolicySet(ctx, resourceType, action)
}

func (c *CacheService) SetPolicySet(ctx context.Context, resourceType, action string, policies []*model.Policy) error {
	return db.CachePolicySet(ctx, resourceType, action, policies)
}

func (c *CacheService) DeletePolicySet(ctx context.Context, resourceType, action string) error {
	return db.DeleteCachedPolicySet(ctx, resourceType, action)
}
