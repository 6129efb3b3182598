package postgres

import (
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"gorm.io/datatypes"
)

// questionRecord is the stored form of a question. ScopeKey names the
// collection the question was written into.
type questionRecord struct {
	ID            string                      `gorm:"primaryKey;size:36"`
	ScopeKey      string                      `gorm:"not null;size:150;index"`
	SchoolID      string                      `gorm:"size:120;index"`
	Subject       string                      `gorm:"size:200"`
	Grade         string                      `gorm:"size:50"`
	Book          string                      `gorm:"size:300"`
	Chapter       string                      `gorm:"size:300"`
	Topic         string                      `gorm:"size:300"`
	SLO           string                      `gorm:"column:slo;size:500"`
	Type          string                      `gorm:"size:30"`
	Difficulty    string                      `gorm:"size:20"`
	QuestionText  string                      `gorm:"type:text"`
	Content       string                      `gorm:"type:text"`
	Options       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CorrectAnswer string                      `gorm:"type:text"`
	Explanation   string                      `gorm:"type:text"`
	Blanks        datatypes.JSONMap           `gorm:"type:jsonb"`
	CreatedBy     string                      `gorm:"size:120;index"`
	CreatedByName string                      `gorm:"size:200"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime:false"`
	UpdatedBy     string                      `gorm:"size:120"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime:false"`
}

func (questionRecord) TableName() string {
	return "questions"
}

func newQuestionRecord(s scope.Scope, q *models.Question) *questionRecord {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	blanks := q.Blanks
	if blanks == nil {
		blanks = map[string]any{}
	}

	return &questionRecord{
		ID:            q.ID,
		ScopeKey:      s.Key(),
		SchoolID:      s.SchoolID,
		Subject:       q.Subject,
		Grade:         q.Grade,
		Book:          q.Book,
		Chapter:       q.Chapter,
		Topic:         q.Topic,
		SLO:           q.SLO,
		Type:          string(q.Type),
		Difficulty:    string(q.Difficulty),
		QuestionText:  q.QuestionText,
		Content:       q.Content,
		Options:       datatypes.JSONSlice[string](options),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Blanks:        datatypes.JSONMap(blanks),
		CreatedBy:     q.CreatedBy,
		CreatedByName: q.CreatedByName,
		CreatedAt:     q.CreatedAt,
		UpdatedBy:     q.UpdatedBy,
		UpdatedAt:     q.UpdatedAt,
	}
}

func (r *questionRecord) toModel() *models.Question {
	return &models.Question{
		ID:            r.ID,
		Subject:       r.Subject,
		Grade:         r.Grade,
		Book:          r.Book,
		Chapter:       r.Chapter,
		Topic:         r.Topic,
		SLO:           r.SLO,
		Type:          models.QuestionType(r.Type),
		Difficulty:    models.DifficultyLevel(r.Difficulty),
		QuestionText:  r.QuestionText,
		Content:       r.Content,
		Options:       []string(r.Options),
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Blanks:        map[string]any(r.Blanks),
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.CreatedByName,
		CreatedAt:     r.CreatedAt,
		UpdatedBy:     r.UpdatedBy,
		UpdatedAt:     r.UpdatedAt,
	}
}

type countMap = datatypes.JSONType[map[string]int]

// statsRecord holds one bank's counters, keyed by the scope key.
type statsRecord struct {
	ScopeKey              string   `gorm:"primaryKey;size:150"`
	SchoolID              string   `gorm:"size:120;index"`
	SchoolName            string   `gorm:"size:300"`
	TotalQuestions        int      `gorm:"not null;default:0"`
	QuestionsBySubject    countMap `gorm:"type:jsonb"`
	QuestionsByGrade      countMap `gorm:"type:jsonb"`
	QuestionsByDifficulty countMap `gorm:"type:jsonb"`
	QuestionsByType       countMap `gorm:"type:jsonb"`
	LastUpdated           time.Time
}

func (statsRecord) TableName() string {
	return "question_bank_stats"
}

func newStatsRecord(stats *models.ScopeStats) *statsRecord {
	record := &statsRecord{
		ScopeKey:              stats.ScopeKey,
		SchoolID:              stats.SchoolID,
		SchoolName:            stats.SchoolName,
		TotalQuestions:        stats.TotalQuestions,
		QuestionsBySubject:    datatypes.NewJSONType(nonNil(stats.QuestionsBySubject)),
		QuestionsByGrade:      datatypes.NewJSONType(nonNil(stats.QuestionsByGrade)),
		QuestionsByDifficulty: datatypes.NewJSONType(nonNil(stats.QuestionsByDifficulty)),
		QuestionsByType:       datatypes.NewJSONType(nonNil(stats.QuestionsByType)),
	}
	if stats.LastUpdated != nil {
		record.LastUpdated = *stats.LastUpdated
	}
	return record
}

func (r *statsRecord) toModel() *models.ScopeStats {
	lastUpdated := r.LastUpdated
	return &models.ScopeStats{
		ScopeKey:              r.ScopeKey,
		SchoolID:              r.SchoolID,
		SchoolName:            r.SchoolName,
		TotalQuestions:        r.TotalQuestions,
		QuestionsBySubject:    nonNil(r.QuestionsBySubject.Data()),
		QuestionsByGrade:      nonNil(r.QuestionsByGrade.Data()),
		QuestionsByDifficulty: nonNil(r.QuestionsByDifficulty.Data()),
		QuestionsByType:       nonNil(r.QuestionsByType.Data()),
		LastUpdated:           &lastUpdated,
	}
}

func nonNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
