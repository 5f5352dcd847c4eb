package errors

import "errors"

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrRoleNotFound    = errors.New("role not found")
	ErrPolicyNotFound  = errors.New("policy not found")

	ErrMissingResourceType  = errors.New("access request is missing resource type")
	ErrMissingAction        = errors.New("access request is missing action")
	ErrInvalidAccessRequest = errors.New("invalid access request")

	ErrPolicyEvaluation  = errors.New("policy evaluation failed")
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
)
