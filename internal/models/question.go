package models

import (
	"strings"
	"time"
)

type QuestionType string

const (
	QuestionTypeMCQ            QuestionType = "mcq"
	QuestionTypeFillBlanks     QuestionType = "fillblanks"
	QuestionTypeMatching       QuestionType = "matching"
	QuestionTypeOrdering       QuestionType = "ordering"
	QuestionTypeCategorization QuestionType = "categorization"
)

// QuestionTypes lists every supported question type in display order.
var QuestionTypes = []QuestionType{
	QuestionTypeMCQ,
	QuestionTypeFillBlanks,
	QuestionTypeMatching,
	QuestionTypeOrdering,
	QuestionTypeCategorization,
}

func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeMCQ
}

// HasBlanks reports whether questions of this type carry a blanks map.
func (t QuestionType) HasBlanks() bool {
	return t == QuestionTypeFillBlanks
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// ParseDifficulty accepts any letter case and returns the canonical level.
func ParseDifficulty(value string) (DifficultyLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

type QuestionSource string

const (
	SourceOUP    QuestionSource = "oup"
	SourceSchool QuestionSource = "school"
)

// Question is a single assessable item stored in exactly one bank. Source and
// SchoolID are display copies of the bank it lives in.
type Question struct {
	ID            string          `json:"id"`
	Subject       string          `json:"subject"`
	Grade         string          `json:"grade"`
	Book          string          `json:"book"`
	Chapter       string          `json:"chapter"`
	Topic         string          `json:"topic"`
	SLO           string          `json:"slo"`
	Type          QuestionType    `json:"type"`
	Difficulty    DifficultyLevel `json:"difficulty"`
	QuestionText  string          `json:"questionText"`
	Content       string          `json:"content,omitempty"`
	Options       []string        `json:"options"`
	CorrectAnswer string          `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
	Blanks        map[string]any  `json:"blanks"`

	CreatedBy     string    `json:"createdBy"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedBy     string    `json:"updatedBy"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Source   QuestionSource `json:"source,omitempty"`
	SchoolID string         `json:"schoolId,omitempty"`
}

// Text returns the question body, preferring questionText over content.
func (q *Question) Text() string {
	if strings.TrimSpace(q.QuestionText) != "" {
		return q.QuestionText
	}
	return q.Content
}

// QuestionFilters narrows a bank listing. Empty values and the "all" sentinel
// place no constraint.
type QuestionFilters struct {
	Subject    string `form:"subject" json:"subject,omitempty"`
	Grade      string `form:"grade" json:"grade,omitempty"`
	Book       string `form:"book" json:"book,omitempty"`
	Chapter    string `form:"chapter" json:"chapter,omitempty"`
	Difficulty string `form:"difficulty" json:"difficulty,omitempty"`
	Type       string `form:"type" json:"type,omitempty"`
}

// FilterAll is the filter value that means "no constraint".
const FilterAll = "all"

const gradePrefix = "Grade "

// NormalizeGrade prefixes a bare grade value with "Grade ".
func NormalizeGrade(grade string) string {
	grade = strings.TrimSpace(grade)
	if grade == "" || strings.HasPrefix(grade, gradePrefix) {
		return grade
	}
	return gradePrefix + grade
}
