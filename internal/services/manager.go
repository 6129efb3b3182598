package services

import (
	"log/slog"

	"github.com/SAP-F-2025/question-bank-service/internal/cache"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/SAP-F-2025/question-bank-service/pkg/objectstore"
)

// ServiceManager hands out the services used by the HTTP layer
type ServiceManager interface {
	Question() QuestionService
	Stats() StatsService
	Catalog() CatalogService
	ImportExport() ImportExportService
}

// Dependencies bundles the collaborators every service is built from
type Dependencies struct {
	Repo      repositories.Repository
	Locker    cache.ScopeLocker
	Publisher events.Publisher
	Archiver  objectstore.Archiver
	Validator *validator.Validator
	Logger    *slog.Logger

	RecomputeOnUpdate bool
}

type serviceManager struct {
	question     QuestionService
	stats        StatsService
	catalog      CatalogService
	importExport ImportExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Locker == nil {
		deps.Locker = cache.NewNoopScopeLocker()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}

	stats := NewStatsService(deps.Repo, deps.Publisher, deps.Logger)
	question := NewQuestionService(deps.Repo, stats, deps.Locker, deps.Publisher, deps.Validator, deps.Logger,
		QuestionServiceConfig{RecomputeOnUpdate: deps.RecomputeOnUpdate})

	return &serviceManager{
		question:     question,
		stats:        stats,
		catalog:      NewCatalogService(deps.Repo, deps.Validator, deps.Logger),
		importExport: NewImportExportService(question, deps.Archiver, deps.Logger),
	}
}

func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Stats() StatsService               { return m.stats }
func (m *serviceManager) Catalog() CatalogService           { return m.catalog }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
