package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/access"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
)

// StatsService maintains the denormalized per-bank counters.
type StatsService interface {
	// Recompute rebuilds the counters of one bank from a full scan and
	// upserts them. Callers treat a failure as non-fatal.
	Recompute(ctx context.Context, s scope.Scope, meta models.StatsMeta) (*models.ScopeStats, error)
	Get(ctx context.Context, auth *models.AuthContext, s scope.Scope) (*models.ScopeStats, error)
	ListSchools(ctx context.Context, auth *models.AuthContext) ([]*models.ScopeStats, error)
}

type statsService struct {
	repo      repositories.Repository
	publisher events.Publisher
	logger    *ServiceLogger
	now       func() time.Time
}

func NewStatsService(repo repositories.Repository, publisher events.Publisher, logger *slog.Logger) StatsService {
	return &statsService{
		repo:      repo,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "question-bank", Component: "stats"}),
		now:       time.Now,
	}
}

func (s *statsService) Recompute(ctx context.Context, sc scope.Scope, meta models.StatsMeta) (*models.ScopeStats, error) {
	questions, err := s.repo.Question().ListByScope(ctx, sc)
	if err != nil {
		return nil, storeError("list questions for stats", "scope", sc.Key(), err)
	}

	stats := aggregate(sc, questions)
	if !sc.IsGlobal() {
		stats.SchoolID = sc.SchoolID
		stats.SchoolName = meta.SchoolName
	}
	updated := s.now().UTC()
	stats.LastUpdated = &updated

	if err := s.repo.Stats().Upsert(ctx, stats); err != nil {
		return nil, storeError("upsert stats", "stats", sc.Key(), err)
	}

	event := events.NewEvent(events.EventStatsRecomputed, sc.Key(), events.StatsRecomputedEvent{
		TotalQuestions: stats.TotalQuestions,
		LastUpdated:    updated,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.LogSecondaryFailure(ctx, "publish stats event", sc.Key(), err)
	}
	return stats, nil
}

// aggregate buckets every question of a bank. Missing difficulty counts as Medium.
func aggregate(sc scope.Scope, questions []*models.Question) *models.ScopeStats {
	stats := models.NewScopeStats(sc.Key())
	stats.TotalQuestions = len(questions)

	for _, q := range questions {
		difficulty := models.DifficultyMedium
		if parsed, ok := models.ParseDifficulty(string(q.Difficulty)); ok {
			difficulty = parsed
		}
		stats.QuestionsBySubject[q.Subject]++
		stats.QuestionsByGrade[q.Grade]++
		stats.QuestionsByDifficulty[string(difficulty)]++
		stats.QuestionsByType[string(q.Type)]++
	}
	return stats
}

func (s *statsService) Get(ctx context.Context, auth *models.AuthContext, sc scope.Scope) (*models.ScopeStats, error) {
	if err := access.AuthorizeRead(auth, sc); err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats().Get(ctx, sc.Key())
	if errors.Is(err, repositories.ErrRecordNotFound) {
		empty := models.NewScopeStats(sc.Key())
		if !sc.IsGlobal() {
			empty.SchoolID = sc.SchoolID
		}
		return empty, nil
	}
	if err != nil {
		return nil, storeError("get stats", "stats", sc.Key(), err)
	}
	return stats, nil
}

func (s *statsService) ListSchools(ctx context.Context, auth *models.AuthContext) ([]*models.ScopeStats, error) {
	if err := access.CanOverseeSchools(auth); err != nil {
		return nil, err
	}

	all, err := s.repo.Stats().ListSchools(ctx)
	if err != nil {
		return nil, storeError("list school stats", "stats", "school:*", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].SchoolID < all[j].SchoolID })
	return all, nil
}
