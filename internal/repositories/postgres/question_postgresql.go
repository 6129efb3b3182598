package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("question-bank-service/postgres")

func startSpan(ctx context.Context, name string, s scope.Scope) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("qbank.scope", s.Key())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

// ListByScope retrieves the whole collection for a bank
func (q *QuestionPostgreSQL) ListByScope(ctx context.Context, s scope.Scope) (_ []*models.Question, err error) {
	ctx, span := startSpan(ctx, "questions.list", s)
	defer func() { endSpan(span, err) }()

	var records []questionRecord
	if err := q.db.WithContext(ctx).
		Where("scope_key = ?", s.Key()).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	questions := make([]*models.Question, 0, len(records))
	for i := range records {
		questions = append(questions, records[i].toModel())
	}
	span.SetAttributes(attribute.Int("qbank.count", len(questions)))
	return questions, nil
}

// GetByID retrieves a question from a bank by ID
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, s scope.Scope, id string) (_ *models.Question, err error) {
	ctx, span := startSpan(ctx, "questions.get", s)
	defer func() { endSpan(span, err) }()

	var record questionRecord
	if err := q.db.WithContext(ctx).
		Where("scope_key = ? AND id = ?", s.Key(), id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return record.toModel(), nil
}

// Create inserts a question into a bank and assigns its ID
func (q *QuestionPostgreSQL) Create(ctx context.Context, s scope.Scope, question *models.Question) (err error) {
	ctx, span := startSpan(ctx, "questions.create", s)
	defer func() { endSpan(span, err) }()

	question.ID = uuid.NewString()
	record := newQuestionRecord(s, question)
	if err := q.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// Update replaces a stored question. The bank it lives in never changes.
func (q *QuestionPostgreSQL) Update(ctx context.Context, s scope.Scope, question *models.Question) (err error) {
	ctx, span := startSpan(ctx, "questions.update", s)
	defer func() { endSpan(span, err) }()

	record := newQuestionRecord(s, question)
	result := q.db.WithContext(ctx).
		Model(&questionRecord{}).
		Where("scope_key = ? AND id = ?", s.Key(), question.ID).
		Select("*").
		Omit("id", "scope_key", "school_id", "created_by", "created_at").
		Updates(record)
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

// Delete removes a question from a bank
func (q *QuestionPostgreSQL) Delete(ctx context.Context, s scope.Scope, id string) (err error) {
	ctx, span := startSpan(ctx, "questions.delete", s)
	defer func() { endSpan(span, err) }()

	result := q.db.WithContext(ctx).
		Where("scope_key = ? AND id = ?", s.Key(), id).
		Delete(&questionRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}
