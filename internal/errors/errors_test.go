package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation list", ValidationErrors{{Field: "subject", Message: "is required"}}, http.StatusBadRequest},
		{"single validation", NewValidationError("grade", "is required", nil), http.StatusBadRequest},
		{"missing scope", &MissingScopeError{Role: "teacher"}, http.StatusBadRequest},
		{"unauthorized role", &UnauthorizedRoleError{Role: "student", Operation: "read questions"}, http.StatusForbidden},
		{"wrong scope", &ScopeAccessError{Role: "teacher", Requested: "school:b", Caller: "school:a"}, http.StatusForbidden},
		{"forbidden field", &ForbiddenFieldError{Field: "subject", Value: "Science"}, http.StatusForbidden},
		{"not owner", &NotOwnerError{UserID: "u1", QuestionID: "q1"}, http.StatusForbidden},
		{"not found", NewNotFound("question", "q1"), http.StatusNotFound},
		{"store", NewStoreError("list questions", errors.New("connection refused")), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFound("question", "q2")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestStoreErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := NewStoreError("add question", cause)

	assert.NotContains(t, err.Error(), "password")
	assert.ErrorIs(t, err, cause)
}

func TestDenialHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("question", "x")))
	assert.False(t, IsNotFound(&NotOwnerError{}))
	assert.True(t, IsDenied(&NotOwnerError{}))
	assert.False(t, IsDenied(&MissingScopeError{}))
}
