package models

import "time"

// ScopeStats holds the denormalized counters for one bank.
type ScopeStats struct {
	ScopeKey              string         `json:"-"`
	TotalQuestions        int            `json:"totalQuestions"`
	QuestionsBySubject    map[string]int `json:"questionsBySubject"`
	QuestionsByGrade      map[string]int `json:"questionsByGrade"`
	QuestionsByDifficulty map[string]int `json:"questionsByDifficulty"`
	QuestionsByType       map[string]int `json:"questionsByType"`
	LastUpdated           *time.Time     `json:"lastUpdated,omitempty"`

	SchoolID   string `json:"schoolId,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
}

// NewScopeStats returns an empty record with initialized count maps.
func NewScopeStats(scopeKey string) *ScopeStats {
	return &ScopeStats{
		ScopeKey:              scopeKey,
		QuestionsBySubject:    map[string]int{},
		QuestionsByGrade:      map[string]int{},
		QuestionsByDifficulty: map[string]int{},
		QuestionsByType:       map[string]int{},
	}
}

// StatsMeta carries the optional descriptive fields merged into a stats record.
type StatsMeta struct {
	SchoolName string
}
