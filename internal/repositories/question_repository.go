package repositories

import (
	"context"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
)

// QuestionRepository addresses one collection per bank. Questions never move
// between banks: the bank passed on write decides where a question lives.
type QuestionRepository interface {
	// ListByScope returns every question in the bank in store order.
	ListByScope(ctx context.Context, s scope.Scope) ([]*models.Question, error)
	GetByID(ctx context.Context, s scope.Scope, id string) (*models.Question, error)

	// Create stores the question and assigns its ID.
	Create(ctx context.Context, s scope.Scope, question *models.Question) error
	Update(ctx context.Context, s scope.Scope, question *models.Question) error
	Delete(ctx context.Context, s scope.Scope, id string) error
}
