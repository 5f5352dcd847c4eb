// util/validation_util.go

package util

import (
	"fmt"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	"github.com/aria7-op/schoolguard/model"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidateAccessRequest enforces the caller contract at the boundary:
// subject id, resource type and action are required; everything else is
// optional and defaults to deny inside the engine.
func (v *ValidationUtil) ValidateAccessRequest(request pdp_model.AccessRequest) error {
	if request.Subject.ID == "" {
		return fmt.Errorf("%w: subject id cannot be empty", sg_errors.ErrInvalidAccessRequest)
	}
	if request.Resource.Type == "" {
		return sg_errors.ErrMissingResourceType
	}
	if request.Action == "" {
		return sg_errors.ErrMissingAction
	}
	return nil
}

func (v *ValidationUtil) ValidatePolicy(policy model.Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	if policy.Effect != model.EffectAllow && policy.Effect != model.EffectDeny {
		return fmt.Errorf("policy effect must be either %q or %q", model.EffectAllow, model.EffectDeny)
	}
	if policy.Priority < 0 {
		return fmt.Errorf("policy priority cannot be negative")
	}
	if policy.ResourceType == "" {
		return fmt.Errorf("policy must name a resource type")
	}
	if policy.Action == "" {
		return fmt.Errorf("policy must name an action")
	}
	return nil
}
