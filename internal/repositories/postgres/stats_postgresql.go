package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsPostgreSQL struct {
	db *gorm.DB
}

func NewStatsPostgreSQL(db *gorm.DB) repositories.StatsRepository {
	return &StatsPostgreSQL{db: db}
}

// Upsert writes a stats record, replacing counters and keeping stored
// descriptive fields the caller left empty
func (r *StatsPostgreSQL) Upsert(ctx context.Context, stats *models.ScopeStats) (err error) {
	ctx, span := tracer.Start(ctx, "stats.upsert")
	defer func() { endSpan(span, err) }()

	record := newStatsRecord(stats)
	columns := []string{
		"total_questions",
		"questions_by_subject",
		"questions_by_grade",
		"questions_by_difficulty",
		"questions_by_type",
		"last_updated",
	}
	if record.SchoolID != "" {
		columns = append(columns, "school_id")
	}
	if record.SchoolName != "" {
		columns = append(columns, "school_name")
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope_key"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(record).Error; err != nil {
		return fmt.Errorf("failed to upsert stats for %s: %w", stats.ScopeKey, err)
	}
	return nil
}

func (r *StatsPostgreSQL) Get(ctx context.Context, scopeKey string) (*models.ScopeStats, error) {
	var record statsRecord
	if err := r.db.WithContext(ctx).
		Where("scope_key = ?", scopeKey).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return record.toModel(), nil
}

// ListSchools returns the stats record of every school bank
func (r *StatsPostgreSQL) ListSchools(ctx context.Context) ([]*models.ScopeStats, error) {
	var records []statsRecord
	if err := r.db.WithContext(ctx).
		Where("scope_key LIKE ?", "school:%").
		Order("school_id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list school stats: %w", err)
	}

	result := make([]*models.ScopeStats, 0, len(records))
	for i := range records {
		result = append(result, records[i].toModel())
	}
	return result, nil
}
