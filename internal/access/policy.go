// Package access decides whether a caller may act on a resolved bank.
// Every check is a pure function of its inputs.
package access

import (
	"strings"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
)

var (
	globalAuthors = []models.UserRole{models.RoleOUPCreator, models.RoleContentCreator, models.RoleOUPAdmin}
	schoolAuthors = []models.UserRole{models.RoleTeacher, models.RoleSchoolAdmin}
)

func hasRole(role models.UserRole, allowed []models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CanRead is true iff the role is oup-admin or the requested bank is the
// caller's own.
func CanRead(role models.UserRole, requested, caller scope.Scope) bool {
	if role == models.RoleOUPAdmin {
		return true
	}
	return requested == caller
}

// AuthorizeRead is CanRead with a reason attached to the denial.
func AuthorizeRead(auth *models.AuthContext, requested scope.Scope) error {
	if auth.Role == models.RoleOUPAdmin {
		return nil
	}
	caller, err := scope.CallerScope(auth)
	if err != nil {
		return err
	}
	if !CanRead(auth.Role, requested, caller) {
		return &apperrors.ScopeAccessError{
			Role:      string(auth.Role),
			Requested: requested.Key(),
			Caller:    caller.Key(),
		}
	}
	return nil
}

// authorizeWrite checks the role against the bank kind and, for school banks,
// that the bank is the caller's own.
func authorizeWrite(auth *models.AuthContext, target scope.Scope, operation string) error {
	if target.IsGlobal() {
		if !hasRole(auth.Role, globalAuthors) {
			return &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: operation + " in the OUP bank"}
		}
		return nil
	}

	if !hasRole(auth.Role, schoolAuthors) {
		return &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: operation + " in a school bank"}
	}
	caller, err := scope.CallerScope(auth)
	if err != nil {
		return err
	}
	if caller != target {
		return &apperrors.ScopeAccessError{Role: string(auth.Role), Requested: target.Key(), Caller: caller.Key()}
	}
	return nil
}

// CanCreate authorizes a new question. Teachers are further limited to their
// assigned subjects and grades.
func CanCreate(auth *models.AuthContext, target scope.Scope, payload *models.Question) error {
	if err := authorizeWrite(auth, target, "create questions"); err != nil {
		return err
	}

	if auth.Role == models.RoleTeacher {
		if !auth.HasSubject(payload.Subject) {
			return &apperrors.ForbiddenFieldError{Field: "subject", Value: payload.Subject}
		}
		if !auth.HasGrade(payload.Grade) {
			return &apperrors.ForbiddenFieldError{Field: "grade", Value: payload.Grade}
		}
	}
	return nil
}

// CanMutate authorizes update and delete. Admins may change any question in
// their bank, everyone else only their own.
func CanMutate(auth *models.AuthContext, target scope.Scope, existing *models.Question) error {
	if err := authorizeWrite(auth, target, "modify questions"); err != nil {
		return err
	}
	if auth.Role.IsAdmin() {
		return nil
	}
	if strings.TrimSpace(auth.UserID) == "" || existing.CreatedBy != auth.UserID {
		return &apperrors.NotOwnerError{UserID: auth.UserID, QuestionID: existing.ID}
	}
	return nil
}

// CanManageCatalog gates subject, book and chapter writes.
func CanManageCatalog(auth *models.AuthContext) error {
	if auth.Role != models.RoleOUPAdmin {
		return &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: "manage the catalog"}
	}
	return nil
}

// CanBrowseCatalog allows every role the portal knows about.
func CanBrowseCatalog(auth *models.AuthContext) error {
	switch auth.Role {
	case models.RoleOUPAdmin, models.RoleOUPCreator, models.RoleContentCreator,
		models.RoleSchoolAdmin, models.RoleTeacher, models.RoleStudent,
		models.RoleModerator, models.RoleAdmin:
		return nil
	}
	return &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: "browse the catalog"}
}

// CanOverseeSchools gates the cross-school listing.
func CanOverseeSchools(auth *models.AuthContext) error {
	if auth.Role != models.RoleOUPAdmin {
		return &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: "view all school banks"}
	}
	return nil
}
