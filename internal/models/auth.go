package models

import "strings"

type UserRole string

const (
	RoleOUPAdmin       UserRole = "oup-admin"
	RoleOUPCreator     UserRole = "oup-creator"
	RoleContentCreator UserRole = "content_creator"
	RoleSchoolAdmin    UserRole = "school-admin"
	RoleTeacher        UserRole = "teacher"
	RoleStudent        UserRole = "student"
	RoleModerator      UserRole = "moderator"
	RoleAdmin          UserRole = "admin"
)

// ParseRole maps the role spellings used across clients onto one constant.
func ParseRole(value string) UserRole {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "content-creator", "content_creator", "contentcreator":
		return RoleContentCreator
	case "school_admin", "school-admin", "schooladmin":
		return RoleSchoolAdmin
	case "oup_admin", "oup-admin":
		return RoleOUPAdmin
	case "oup_creator", "oup-creator":
		return RoleOUPCreator
	}
	return UserRole(normalized)
}

// IsAdmin reports whether the role may mutate any question in its bank.
func (r UserRole) IsAdmin() bool {
	return r == RoleOUPAdmin || r == RoleSchoolAdmin
}

// AuthContext is the caller identity asserted for a single request.
type AuthContext struct {
	UserID           string   `json:"userId"`
	UserName         string   `json:"userName"`
	Role             UserRole `json:"userRole"`
	SchoolID         string   `json:"schoolId,omitempty"`
	SchoolName       string   `json:"schoolName,omitempty"`
	AssignedSubjects []string `json:"assignedSubjects,omitempty"`
	AssignedGrades   []string `json:"assignedGrades,omitempty"`
}

// HasSubject reports whether subject is in the caller's assignment list.
// The match is exact so stats never split one subject across spellings.
func (a *AuthContext) HasSubject(subject string) bool {
	subject = strings.TrimSpace(subject)
	for _, s := range a.AssignedSubjects {
		if strings.TrimSpace(s) == subject {
			return true
		}
	}
	return false
}

// HasGrade compares grades after "Grade " normalization.
func (a *AuthContext) HasGrade(grade string) bool {
	grade = NormalizeGrade(grade)
	for _, g := range a.AssignedGrades {
		if NormalizeGrade(g) == grade {
			return true
		}
	}
	return false
}

// SplitList parses a comma separated header value, dropping empty entries.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
