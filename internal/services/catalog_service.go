package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/access"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
)

// CatalogService manages the subject > book > chapter hierarchy that
// question classification refers to.
type CatalogService interface {
	ListSubjects(ctx context.Context, auth *models.AuthContext) ([]*models.Subject, error)
	CreateSubject(ctx context.Context, auth *models.AuthContext, req *SubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, auth *models.AuthContext, id string, req *SubjectRequest) error
	DeleteSubject(ctx context.Context, auth *models.AuthContext, id string) error

	ListBooksBySubject(ctx context.Context, auth *models.AuthContext, subjectName string) ([]*models.Book, error)
	CreateBook(ctx context.Context, auth *models.AuthContext, subjectID string, req *BookRequest) (*models.Book, error)
	UpdateBook(ctx context.Context, auth *models.AuthContext, id string, req *BookRequest) error
	DeleteBook(ctx context.Context, auth *models.AuthContext, id string) error

	ListChapters(ctx context.Context, auth *models.AuthContext, bookID string) ([]*models.Chapter, error)
	CreateChapter(ctx context.Context, auth *models.AuthContext, bookID string, req *ChapterRequest) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, auth *models.AuthContext, bookID, chapterID string, req *ChapterRequest) error
	DeleteChapter(ctx context.Context, auth *models.AuthContext, bookID, chapterID string) error
}

type SubjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type BookRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Grade       string `json:"grade" validate:"required,grade_label"`
	Description string `json:"description"`
}

type ChapterRequest struct {
	ChapterNo   int    `json:"chapterNo" validate:"required,min=1"`
	ChapterName string `json:"chapterName" validate:"required,max=300"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

type catalogService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewCatalogService(repo repositories.Repository, validator *validator.Validator, logger *slog.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		logger:    logger.With("service", "question-bank", "component", "catalog"),
	}
}

// ===== SUBJECTS =====

func (s *catalogService) ListSubjects(ctx context.Context, auth *models.AuthContext) ([]*models.Subject, error) {
	if err := access.CanBrowseCatalog(auth); err != nil {
		return nil, err
	}
	subjects, err := s.repo.Catalog().ListSubjects(ctx)
	if err != nil {
		return nil, storeError("list subjects", "subject", "", err)
	}
	return subjects, nil
}

func (s *catalogService) CreateSubject(ctx context.Context, auth *models.AuthContext, req *SubjectRequest) (*models.Subject, error) {
	if err := s.authorizeWrite(auth, req); err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Catalog().CreateSubject(ctx, subject); err != nil {
		return nil, storeError("create subject", "subject", "", err)
	}
	s.logger.Info("Subject created", "subject_id", subject.ID, "user_id", auth.UserID)
	return subject, nil
}

func (s *catalogService) UpdateSubject(ctx context.Context, auth *models.AuthContext, id string, req *SubjectRequest) error {
	if err := s.authorizeWrite(auth, req); err != nil {
		return err
	}
	subject := &models.Subject{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Catalog().UpdateSubject(ctx, subject); err != nil {
		return storeError("update subject", "subject", id, err)
	}
	return nil
}

func (s *catalogService) DeleteSubject(ctx context.Context, auth *models.AuthContext, id string) error {
	if err := access.CanManageCatalog(auth); err != nil {
		return err
	}
	if err := s.repo.Catalog().DeleteSubject(ctx, id); err != nil {
		return storeError("delete subject", "subject", id, err)
	}
	s.logger.Info("Subject deleted", "subject_id", id, "user_id", auth.UserID)
	return nil
}

// ===== BOOKS =====

func (s *catalogService) ListBooksBySubject(ctx context.Context, auth *models.AuthContext, subjectName string) ([]*models.Book, error) {
	if err := access.CanBrowseCatalog(auth); err != nil {
		return nil, err
	}
	if strings.TrimSpace(subjectName) == "" {
		return nil, NewValidationError("subject", "subject name is required", subjectName)
	}
	books, err := s.repo.Catalog().ListBooksBySubjectName(ctx, strings.TrimSpace(subjectName))
	if err != nil {
		return nil, storeError("list books", "book", "", err)
	}
	return books, nil
}

func (s *catalogService) CreateBook(ctx context.Context, auth *models.AuthContext, subjectID string, req *BookRequest) (*models.Book, error) {
	if err := s.authorizeWrite(auth, req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Catalog().GetSubject(ctx, subjectID); err != nil {
		return nil, storeError("get subject", "subject", subjectID, err)
	}

	book := &models.Book{
		SubjectID:   subjectID,
		Title:       strings.TrimSpace(req.Title),
		Grade:       models.NormalizeGrade(req.Grade),
		Description: req.Description,
	}
	if err := s.repo.Catalog().CreateBook(ctx, book); err != nil {
		return nil, storeError("create book", "book", "", err)
	}
	return book, nil
}

func (s *catalogService) UpdateBook(ctx context.Context, auth *models.AuthContext, id string, req *BookRequest) error {
	if err := s.authorizeWrite(auth, req); err != nil {
		return err
	}
	book := &models.Book{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Grade:       models.NormalizeGrade(req.Grade),
		Description: req.Description,
	}
	if err := s.repo.Catalog().UpdateBook(ctx, book); err != nil {
		return storeError("update book", "book", id, err)
	}
	return nil
}

func (s *catalogService) DeleteBook(ctx context.Context, auth *models.AuthContext, id string) error {
	if err := access.CanManageCatalog(auth); err != nil {
		return err
	}
	if err := s.repo.Catalog().DeleteBook(ctx, id); err != nil {
		return storeError("delete book", "book", id, err)
	}
	return nil
}

// ===== CHAPTERS =====

func (s *catalogService) ListChapters(ctx context.Context, auth *models.AuthContext, bookID string) ([]*models.Chapter, error) {
	if err := access.CanBrowseCatalog(auth); err != nil {
		return nil, err
	}
	if _, err := s.repo.Catalog().GetBook(ctx, bookID); err != nil {
		return nil, storeError("get book", "book", bookID, err)
	}
	chapters, err := s.repo.Catalog().ListChapters(ctx, bookID)
	if err != nil {
		return nil, storeError("list chapters", "chapter", "", err)
	}
	return chapters, nil
}

func (s *catalogService) CreateChapter(ctx context.Context, auth *models.AuthContext, bookID string, req *ChapterRequest) (*models.Chapter, error) {
	if err := s.authorizeWrite(auth, req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Catalog().GetBook(ctx, bookID); err != nil {
		return nil, storeError("get book", "book", bookID, err)
	}

	chapter := &models.Chapter{
		BookID:      bookID,
		ChapterNo:   req.ChapterNo,
		ChapterName: strings.TrimSpace(req.ChapterName),
		Topic:       req.Topic,
		Description: req.Description,
	}
	if err := s.repo.Catalog().CreateChapter(ctx, chapter); err != nil {
		return nil, storeError("create chapter", "chapter", models.ChapterID(req.ChapterNo), err)
	}
	return chapter, nil
}

func (s *catalogService) UpdateChapter(ctx context.Context, auth *models.AuthContext, bookID, chapterID string, req *ChapterRequest) error {
	if err := s.authorizeWrite(auth, req); err != nil {
		return err
	}
	chapter := &models.Chapter{
		ID:          chapterID,
		BookID:      bookID,
		ChapterName: strings.TrimSpace(req.ChapterName),
		Topic:       req.Topic,
		Description: req.Description,
	}
	if err := s.repo.Catalog().UpdateChapter(ctx, chapter); err != nil {
		return storeError("update chapter", "chapter", chapterID, err)
	}
	return nil
}

func (s *catalogService) DeleteChapter(ctx context.Context, auth *models.AuthContext, bookID, chapterID string) error {
	if err := access.CanManageCatalog(auth); err != nil {
		return err
	}
	if err := s.repo.Catalog().DeleteChapter(ctx, bookID, chapterID); err != nil {
		return storeError("delete chapter", "chapter", chapterID, err)
	}
	return nil
}

// authorizeWrite checks the role first, then the payload.
func (s *catalogService) authorizeWrite(auth *models.AuthContext, req interface{}) error {
	if err := access.CanManageCatalog(auth); err != nil {
		return err
	}
	return s.validator.ValidateStruct(req)
}
