package engine

import (
	"context"
	"time"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	"github.com/aria7-op/schoolguard/model"
)

type fakeIdentityStore struct {
	subjects map[string]*model.Subject
	roles    map[string][]model.Role
	roleByID map[string]*model.Role
	err      error
}

func (f *fakeIdentityStore) GetSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	subject, ok := f.subjects[subjectID]
	if !ok {
		return nil, sg_errors.ErrSubjectNotFound
	}
	return subject, nil
}

func (f *fakeIdentityStore) GetRolesWithPermissions(ctx context.Context, subjectID string) ([]model.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	roles, ok := f.roles[subjectID]
	if !ok {
		return nil, sg_errors.ErrSubjectNotFound
	}
	return roles, nil
}

func (f *fakeIdentityStore) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roleByID[roleID]
	if !ok {
		return nil, sg_errors.ErrRoleNotFound
	}
	return role, nil
}

type fakePolicyStore struct {
	policies []*model.Policy
	err      error
}

func (f *fakePolicyStore) FindActivePolicies(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matching []*model.Policy
	for _, policy := range f.policies {
		if policy.ResourceType == resourceType && policy.Action == action && policy.IsActive {
			matching = append(matching, policy)
		}
	}
	return matching, nil
}

type panickingPolicyStore struct{}

func (panickingPolicyStore) FindActivePolicies(ctx context.Context, resourceType, action string) ([]*model.Policy, error) {
	panic("policy store exploded")
}

type fakeActivityLog struct {
	activities []model.Activity
	logins     []model.LoginAttempt
	err        error
}

func (f *fakeActivityLog) RecentActivity(ctx context.Context, subjectID string, since time.Time) ([]model.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	var recent []model.Activity
	for _, activity := range f.activities {
		if activity.SubjectID == subjectID && activity.Timestamp.After(since) {
			recent = append(recent, activity)
		}
	}
	return recent, nil
}

func (f *fakeActivityLog) FailedLogins(ctx context.Context, subjectID string, since time.Time) ([]model.LoginAttempt, error) {
	if f.err != nil {
		return nil, f.err
	}
	var failed []model.LoginAttempt
	for _, attempt := range f.logins {
		if attempt.SubjectID == subjectID && !attempt.Success && attempt.Timestamp.After(since) {
			failed = append(failed, attempt)
		}
	}
	return failed, nil
}

func emptyStores() (*fakeIdentityStore, *fakePolicyStore, *fakeActivityLog) {
	identity := &fakeIdentityStore{
		subjects: map[string]*model.Subject{},
		roles:    map[string][]model.Role{},
		roleByID: map[string]*model.Role{},
	}
	return identity, &fakePolicyStore{}, &fakeActivityLog{}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Wednesday 2024-07-10, inside business hours.
var wednesday11 = time.Date(2024, time.July, 10, 11, 0, 0, 0, time.UTC)
