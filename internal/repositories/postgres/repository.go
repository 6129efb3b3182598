package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	question repositories.QuestionRepository
	stats    repositories.StatsRepository
	catalog  repositories.CatalogRepository
}

// NewRepository wires every store onto one database handle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:       db,
		question: NewQuestionPostgreSQL(db),
		stats:    NewStatsPostgreSQL(db),
		catalog:  NewCatalogPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Stats() repositories.StatsRepository       { return r.stats }
func (r *repository) Catalog() repositories.CatalogRepository   { return r.catalog }

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&questionRecord{},
		&statsRecord{},
		&models.Subject{},
		&models.Book{},
		&models.Chapter{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
