package validator

import (
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct {
	structValidator *validator.Validate
}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator(structValidator *validator.Validate) *QuestionValidator {
	return &QuestionValidator{structValidator: structValidator}
}

// questionRules mirrors the fields a new question must carry
type questionRules struct {
	Subject      string `json:"subject" validate:"required"`
	Grade        string `json:"grade" validate:"required,grade_label"`
	Book         string `json:"book" validate:"required"`
	Chapter      string `json:"chapter" validate:"required"`
	Type         string `json:"type" validate:"required,question_type"`
	Difficulty   string `json:"difficulty" validate:"omitempty,difficulty_level"`
	QuestionText string `json:"questionText" validate:"required_without=Content"`
	Content      string `json:"content"`
}

// ValidateNew checks the required classification and text of a new question
func (v *QuestionValidator) ValidateNew(question *models.Question) ValidationErrors {
	rules := questionRules{
		Subject:      strings.TrimSpace(question.Subject),
		Grade:        strings.TrimSpace(question.Grade),
		Book:         strings.TrimSpace(question.Book),
		Chapter:      strings.TrimSpace(question.Chapter),
		Type:         strings.TrimSpace(string(question.Type)),
		Difficulty:   strings.TrimSpace(string(question.Difficulty)),
		QuestionText: strings.TrimSpace(question.QuestionText),
		Content:      strings.TrimSpace(question.Content),
	}
	return v.validate(rules)
}

// ValidateMerged re-checks a question after a partial update was applied
func (v *QuestionValidator) ValidateMerged(question *models.Question) ValidationErrors {
	return v.ValidateNew(question)
}

func (v *QuestionValidator) validate(rules questionRules) ValidationErrors {
	if err := v.structValidator.Struct(rules); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}
