// test/mock/access.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/aria7-op/schoolguard/audit"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

// MockAccessService is a mock implementation of service.IAccessService
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) EvaluateAccess(ctx context.Context, request pdp_model.AccessRequest) (*pdp_model.Decision, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pdp_model.Decision), args.Error(1)
}

func (m *MockAccessService) EffectivePermissions(ctx context.Context, subjectID string) ([]string, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAccessService) QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]audit.AccessLog, error) {
	args := m.Called(ctx, from, to, subjectID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.AccessLog), args.Error(1)
}
