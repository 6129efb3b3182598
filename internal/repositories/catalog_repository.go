package repositories

import (
	"context"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

// CatalogRepository stores the subject > book > chapter hierarchy.
type CatalogRepository interface {
	// Subjects
	ListSubjects(ctx context.Context) ([]*models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	UpdateSubject(ctx context.Context, subject *models.Subject) error
	// DeleteSubject removes the subject with its books and chapters.
	DeleteSubject(ctx context.Context, id string) error

	// Books
	GetBook(ctx context.Context, id string) (*models.Book, error)
	ListBooksBySubjectName(ctx context.Context, subjectName string) ([]*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id string) error

	// Chapters, ordered by chapter number
	ListChapters(ctx context.Context, bookID string) ([]*models.Chapter, error)
	GetChapter(ctx context.Context, bookID, chapterID string) (*models.Chapter, error)
	CreateChapter(ctx context.Context, chapter *models.Chapter) error
	UpdateChapter(ctx context.Context, chapter *models.Chapter) error
	DeleteChapter(ctx context.Context, bookID, chapterID string) error
}
