// Package scope maps a request onto the single question bank it addresses.
package scope

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

type Kind string

const (
	KindGlobal Kind = "global"
	KindSchool Kind = "school"
)

// Scope names one bank: the global OUP bank or a single school's bank.
type Scope struct {
	Kind     Kind
	SchoolID string
}

func Global() Scope {
	return Scope{Kind: KindGlobal}
}

func School(schoolID string) Scope {
	return Scope{Kind: KindSchool, SchoolID: schoolID}
}

func (s Scope) IsGlobal() bool {
	return s.Kind == KindGlobal
}

// Key is the stable identifier used as the storage partition and stats key.
func (s Scope) Key() string {
	if s.Kind == KindSchool {
		return "school:" + s.SchoolID
	}
	return string(KindGlobal)
}

func (s Scope) String() string {
	return s.Key()
}

// Source is the display label stamped on questions read from this bank.
func (s Scope) Source() models.QuestionSource {
	if s.Kind == KindSchool {
		return models.SourceSchool
	}
	return models.SourceOUP
}

// Parse is the inverse of Key.
func Parse(key string) (Scope, error) {
	if key == string(KindGlobal) {
		return Global(), nil
	}
	if id, ok := strings.CutPrefix(key, "school:"); ok && id != "" {
		return School(id), nil
	}
	return Scope{}, fmt.Errorf("invalid scope key %q", key)
}

type Bank string

const (
	BankOUP    Bank = "oup"
	BankSchool Bank = "school"
)

// Request describes which bank a call asks for. SchoolID is an explicit
// target and overrides the caller's own school.
type Request struct {
	Bank     Bank
	SchoolID string
}

// Resolve maps a request to exactly one scope. It does not authorize.
func Resolve(auth *models.AuthContext, req Request) (Scope, error) {
	if req.Bank == BankOUP {
		return Global(), nil
	}

	schoolID := strings.TrimSpace(req.SchoolID)
	if schoolID == "" {
		schoolID = strings.TrimSpace(auth.SchoolID)
	}
	if schoolID == "" {
		return Scope{}, &apperrors.MissingScopeError{Role: string(auth.Role)}
	}
	return School(schoolID), nil
}

// CallerScope returns the bank a caller's role is bound to.
func CallerScope(auth *models.AuthContext) (Scope, error) {
	switch auth.Role {
	case models.RoleOUPAdmin, models.RoleOUPCreator, models.RoleContentCreator:
		return Global(), nil
	case models.RoleTeacher, models.RoleSchoolAdmin:
		schoolID := strings.TrimSpace(auth.SchoolID)
		if schoolID == "" {
			return Scope{}, &apperrors.MissingScopeError{Role: string(auth.Role)}
		}
		return School(schoolID), nil
	default:
		return Scope{}, &apperrors.UnauthorizedRoleError{Role: string(auth.Role), Operation: "access question banks"}
	}
}
