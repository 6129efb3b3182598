package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryQuestions keeps one ordered collection per scope key.
type memoryQuestions struct {
	mu     sync.Mutex
	banks  map[string][]*models.Question
	nextID int
	err    error
}

func newMemoryQuestions() *memoryQuestions {
	return &memoryQuestions{banks: make(map[string][]*models.Question)}
}

func cloneQuestion(q *models.Question) *models.Question {
	c := *q
	c.Options = append([]string(nil), q.Options...)
	return &c
}

func (m *memoryQuestions) ListByScope(_ context.Context, s scope.Scope) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []*models.Question
	for _, q := range m.banks[s.Key()] {
		result = append(result, cloneQuestion(q))
	}
	return result, nil
}

func (m *memoryQuestions) GetByID(_ context.Context, s scope.Scope, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.banks[s.Key()] {
		if q.ID == id {
			return cloneQuestion(q), nil
		}
	}
	return nil, repositories.ErrRecordNotFound
}

func (m *memoryQuestions) Create(_ context.Context, s scope.Scope, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	q.ID = fmt.Sprintf("q-%d", m.nextID)
	m.banks[s.Key()] = append(m.banks[s.Key()], cloneQuestion(q))
	return nil
}

func (m *memoryQuestions) Update(_ context.Context, s scope.Scope, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.banks[s.Key()] {
		if existing.ID == q.ID {
			m.banks[s.Key()][i] = cloneQuestion(q)
			return nil
		}
	}
	return repositories.ErrRecordNotFound
}

func (m *memoryQuestions) Delete(_ context.Context, s scope.Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bank := m.banks[s.Key()]
	for i, existing := range bank {
		if existing.ID == id {
			m.banks[s.Key()] = append(bank[:i], bank[i+1:]...)
			return nil
		}
	}
	return repositories.ErrRecordNotFound
}

// memoryStats applies the same merge rules as the postgres upsert.
type memoryStats struct {
	mu      sync.Mutex
	records map[string]*models.ScopeStats
	upserts int
}

func newMemoryStats() *memoryStats {
	return &memoryStats{records: make(map[string]*models.ScopeStats)}
}

func (m *memoryStats) Upsert(_ context.Context, stats *models.ScopeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	next := *stats
	if prev, ok := m.records[stats.ScopeKey]; ok {
		if next.SchoolName == "" {
			next.SchoolName = prev.SchoolName
		}
		if next.SchoolID == "" {
			next.SchoolID = prev.SchoolID
		}
	}
	m.records[stats.ScopeKey] = &next
	return nil
}

func (m *memoryStats) Get(_ context.Context, scopeKey string) (*models.ScopeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[scopeKey]; ok {
		c := *rec
		return &c, nil
	}
	return nil, repositories.ErrRecordNotFound
}

func (m *memoryStats) ListSchools(_ context.Context) ([]*models.ScopeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.ScopeStats
	for key, rec := range m.records {
		if key != "global" {
			c := *rec
			result = append(result, &c)
		}
	}
	return result, nil
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Upsert(ctx context.Context, stats *models.ScopeStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) Get(ctx context.Context, scopeKey string) (*models.ScopeStats, error) {
	args := m.Called(ctx, scopeKey)
	stats, _ := args.Get(0).(*models.ScopeStats)
	return stats, args.Error(1)
}

func (m *MockStatsRepository) ListSchools(ctx context.Context) ([]*models.ScopeStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).([]*models.ScopeStats)
	return stats, args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListSubjects(ctx context.Context) ([]*models.Subject, error) {
	args := m.Called(ctx)
	subjects, _ := args.Get(0).([]*models.Subject)
	return subjects, args.Error(1)
}

func (m *MockCatalogRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	args := m.Called(ctx, id)
	subject, _ := args.Get(0).(*models.Subject)
	return subject, args.Error(1)
}

func (m *MockCatalogRepository) CreateSubject(ctx context.Context, subject *models.Subject) error {
	return m.Called(ctx, subject).Error(0)
}

func (m *MockCatalogRepository) UpdateSubject(ctx context.Context, subject *models.Subject) error {
	return m.Called(ctx, subject).Error(0)
}

func (m *MockCatalogRepository) DeleteSubject(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) GetBook(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockCatalogRepository) ListBooksBySubjectName(ctx context.Context, subjectName string) ([]*models.Book, error) {
	args := m.Called(ctx, subjectName)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockCatalogRepository) CreateBook(ctx context.Context, book *models.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockCatalogRepository) UpdateBook(ctx context.Context, book *models.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *MockCatalogRepository) DeleteBook(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) ListChapters(ctx context.Context, bookID string) ([]*models.Chapter, error) {
	args := m.Called(ctx, bookID)
	chapters, _ := args.Get(0).([]*models.Chapter)
	return chapters, args.Error(1)
}

func (m *MockCatalogRepository) GetChapter(ctx context.Context, bookID, chapterID string) (*models.Chapter, error) {
	args := m.Called(ctx, bookID, chapterID)
	chapter, _ := args.Get(0).(*models.Chapter)
	return chapter, args.Error(1)
}

func (m *MockCatalogRepository) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	return m.Called(ctx, chapter).Error(0)
}

func (m *MockCatalogRepository) UpdateChapter(ctx context.Context, chapter *models.Chapter) error {
	return m.Called(ctx, chapter).Error(0)
}

func (m *MockCatalogRepository) DeleteChapter(ctx context.Context, bookID, chapterID string) error {
	return m.Called(ctx, bookID, chapterID).Error(0)
}

// fakeRepository wires the stores together behind repositories.Repository
type fakeRepository struct {
	questions repositories.QuestionRepository
	stats     repositories.StatsRepository
	catalog   repositories.CatalogRepository
}

func (r *fakeRepository) Question() repositories.QuestionRepository { return r.questions }
func (r *fakeRepository) Stats() repositories.StatsRepository       { return r.stats }
func (r *fakeRepository) Catalog() repositories.CatalogRepository   { return r.catalog }
func (r *fakeRepository) Ping(context.Context) error                { return nil }
