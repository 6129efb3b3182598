package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// MissingScopeError is returned when a school bank is requested without a
// school id to resolve it.
type MissingScopeError struct {
	Role string `json:"role"`
}

func (e *MissingScopeError) Error() string {
	return fmt.Sprintf("school id is required for role %q", e.Role)
}

// UnauthorizedRoleError means the role may not perform the operation at all.
type UnauthorizedRoleError struct {
	Role      string `json:"role"`
	Operation string `json:"operation"`
}

func (e *UnauthorizedRoleError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("a user role is required to %s", e.Operation)
	}
	return fmt.Sprintf("role %q is not allowed to %s", e.Role, e.Operation)
}

// ScopeAccessError means the role is valid but targets a bank it does not own.
type ScopeAccessError struct {
	Role      string `json:"role"`
	Requested string `json:"requested"`
	Caller    string `json:"caller"`
}

func (e *ScopeAccessError) Error() string {
	return fmt.Sprintf("role %q in %s cannot access %s", e.Role, e.Caller, e.Requested)
}

// ForbiddenFieldError means a payload field falls outside the caller's
// assignment.
type ForbiddenFieldError struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (e *ForbiddenFieldError) Error() string {
	return fmt.Sprintf("you are not assigned to %s %q", e.Field, e.Value)
}

type NotOwnerError struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("question %s was not created by user %s", e.QuestionID, e.UserID)
}

type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StoreError wraps a failed storage call. Its message never includes the
// underlying driver error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage operation %q failed", e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// StatusCode maps an error from any layer to its HTTP status.
func StatusCode(err error) int {
	var (
		validationErrs ValidationErrors
		validationErr  *ValidationError
		missingScope   *MissingScopeError
		unauthorized   *UnauthorizedRoleError
		scopeAccess    *ScopeAccessError
		forbidden      *ForbiddenFieldError
		notOwner       *NotOwnerError
		notFound       *NotFoundError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErrs), errors.As(err, &validationErr), errors.As(err, &missingScope):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized), errors.As(err, &scopeAccess), errors.As(err, &forbidden), errors.As(err, &notOwner):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDenied reports whether err is any of the authorization denials.
func IsDenied(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}
