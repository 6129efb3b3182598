package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogPostgreSQL struct {
	db *gorm.DB
}

func NewCatalogPostgreSQL(db *gorm.DB) repositories.CatalogRepository {
	return &CatalogPostgreSQL{db: db}
}

// ===== SUBJECTS =====

func (c *CatalogPostgreSQL) ListSubjects(ctx context.Context) ([]*models.Subject, error) {
	var subjects []*models.Subject
	if err := c.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order("grade ASC, title ASC")
		}).
		Order("name ASC").
		Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

func (c *CatalogPostgreSQL) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := c.db.WithContext(ctx).Preload("Books").First(&subject, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

func (c *CatalogPostgreSQL) CreateSubject(ctx context.Context, subject *models.Subject) error {
	subject.ID = uuid.NewString()
	if err := c.db.WithContext(ctx).Omit("Books").Create(subject).Error; err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (c *CatalogPostgreSQL) UpdateSubject(ctx context.Context, subject *models.Subject) error {
	result := c.db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("id = ?", subject.ID).
		Updates(map[string]interface{}{"name": subject.Name})
	if result.Error != nil {
		return fmt.Errorf("failed to update subject: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

// DeleteSubject removes a subject together with its books and their chapters
func (c *CatalogPostgreSQL) DeleteSubject(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bookIDs []string
		if err := tx.Model(&models.Book{}).Where("subject_id = ?", id).Pluck("id", &bookIDs).Error; err != nil {
			return fmt.Errorf("failed to load subject books: %w", err)
		}

		if len(bookIDs) > 0 {
			if err := tx.Where("book_id IN ?", bookIDs).Delete(&models.Chapter{}).Error; err != nil {
				return fmt.Errorf("failed to delete chapters: %w", err)
			}
			if err := tx.Where("id IN ?", bookIDs).Delete(&models.Book{}).Error; err != nil {
				return fmt.Errorf("failed to delete books: %w", err)
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.Subject{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete subject: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrRecordNotFound
		}
		return nil
	})
}

// ===== BOOKS =====

func (c *CatalogPostgreSQL) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := c.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// ListBooksBySubjectName looks books up through their subject's display name
func (c *CatalogPostgreSQL) ListBooksBySubjectName(ctx context.Context, subjectName string) ([]*models.Book, error) {
	var books []*models.Book
	if err := c.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.id = books.subject_id").
		Where("subjects.name = ?", subjectName).
		Order("books.grade ASC, books.title ASC").
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books by subject: %w", err)
	}
	return books, nil
}

func (c *CatalogPostgreSQL) CreateBook(ctx context.Context, book *models.Book) error {
	book.ID = uuid.NewString()
	book.Chapters = 0
	if err := c.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (c *CatalogPostgreSQL) UpdateBook(ctx context.Context, book *models.Book) error {
	result := c.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]interface{}{
			"title":       book.Title,
			"grade":       book.Grade,
			"description": book.Description,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

func (c *CatalogPostgreSQL) DeleteBook(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.Chapter{}).Error; err != nil {
			return fmt.Errorf("failed to delete chapters: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Book{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrRecordNotFound
		}
		return nil
	})
}

// ===== CHAPTERS =====

func (c *CatalogPostgreSQL) ListChapters(ctx context.Context, bookID string) ([]*models.Chapter, error) {
	var chapters []*models.Chapter
	if err := c.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("chapter_no ASC").
		Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

func (c *CatalogPostgreSQL) GetChapter(ctx context.Context, bookID, chapterID string) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := c.db.WithContext(ctx).
		Where("book_id = ? AND id = ?", bookID, chapterID).
		First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// CreateChapter stores the chapter and refreshes the book's chapter count
func (c *CatalogPostgreSQL) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	chapter.ID = models.ChapterID(chapter.ChapterNo)
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chapter).Error; err != nil {
			return fmt.Errorf("failed to create chapter: %w", err)
		}
		return refreshChapterCount(tx, chapter.BookID)
	})
}

func (c *CatalogPostgreSQL) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	result := c.db.WithContext(ctx).
		Model(&models.Chapter{}).
		Where("book_id = ? AND id = ?", chapter.BookID, chapter.ID).
		Updates(map[string]interface{}{
			"chapter_name": chapter.ChapterName,
			"topic":        chapter.Topic,
			"description":  chapter.Description,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update chapter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

func (c *CatalogPostgreSQL) DeleteChapter(ctx context.Context, bookID, chapterID string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("book_id = ? AND id = ?", bookID, chapterID).Delete(&models.Chapter{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete chapter: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrRecordNotFound
		}
		return refreshChapterCount(tx, bookID)
	})
}

func refreshChapterCount(tx *gorm.DB, bookID string) error {
	var count int64
	if err := tx.Model(&models.Chapter{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count chapters: %w", err)
	}
	if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Update("chapters", count).Error; err != nil {
		return fmt.Errorf("failed to update chapter count: %w", err)
	}
	return nil
}
