package services

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// storeError translates a repository failure. A keyed miss becomes a
// NotFoundError for resource/id; anything else is an opaque StoreError.
func storeError(op, resource, id string, err error) error {
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return apperrors.NewNotFound(resource, id)
	}
	return apperrors.NewStoreError(op, fmt.Errorf("failed to %s: %w", op, err))
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err)
}

// IsUnauthorized checks if error is any of the access denials
func IsUnauthorized(err error) bool {
	return apperrors.IsDenied(err)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return apperrors.StatusCode(err) == http.StatusBadRequest
}
