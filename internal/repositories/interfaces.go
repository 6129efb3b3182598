package repositories

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by every store when a keyed lookup misses.
var ErrRecordNotFound = errors.New("record not found")

// Repository groups the stores backing the service.
type Repository interface {
	Question() QuestionRepository
	Stats() StatsRepository
	Catalog() CatalogRepository

	// Ping checks that the underlying database answers.
	Ping(ctx context.Context) error
}
