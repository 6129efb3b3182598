package repositories

import (
	"context"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

// StatsRepository persists one ScopeStats record per bank.
type StatsRepository interface {
	// Upsert writes the record with merge semantics: count maps, the total
	// and lastUpdated are replaced, empty descriptive fields keep their
	// stored value.
	Upsert(ctx context.Context, stats *models.ScopeStats) error
	Get(ctx context.Context, scopeKey string) (*models.ScopeStats, error)
	ListSchools(ctx context.Context) ([]*models.ScopeStats, error)
}
