package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/access"
	"github.com/SAP-F-2025/question-bank-service/internal/cache"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
)

// QuestionService is the role-scoped entry point for reading and writing one bank.
type QuestionService interface {
	List(ctx context.Context, auth *models.AuthContext, s scope.Scope, filters models.QuestionFilters) ([]*models.Question, error)
	Get(ctx context.Context, auth *models.AuthContext, s scope.Scope, id string) (*models.Question, error)
	Create(ctx context.Context, auth *models.AuthContext, s scope.Scope, payload *models.Question) (string, error)
	// CreateBatch creates each payload independently and recomputes stats
	// once. errs[i] is nil when payloads[i] was stored as ids[i].
	CreateBatch(ctx context.Context, auth *models.AuthContext, s scope.Scope, payloads []*models.Question) (ids []string, errs []error)
	Update(ctx context.Context, auth *models.AuthContext, s scope.Scope, id string, patch *QuestionPatch) error
	Delete(ctx context.Context, auth *models.AuthContext, s scope.Scope, id string) error
}

// QuestionPatch is a partial update. Nil fields are left unchanged. The bank
// a question lives in cannot be patched.
type QuestionPatch struct {
	Subject       *string         `json:"subject"`
	Grade         *string         `json:"grade"`
	Book          *string         `json:"book"`
	Chapter       *string         `json:"chapter"`
	Topic         *string         `json:"topic"`
	SLO           *string         `json:"slo"`
	Type          *string         `json:"type"`
	Difficulty    *string         `json:"difficulty"`
	QuestionText  *string         `json:"questionText"`
	Content       *string         `json:"content"`
	Options       *[]string       `json:"options"`
	CorrectAnswer *string         `json:"correctAnswer"`
	Explanation   *string         `json:"explanation"`
	Blanks        *map[string]any `json:"blanks"`
}

// apply merges the patch into q and returns the json names of changed fields.
func (p *QuestionPatch) apply(q *models.Question) []string {
	var changed []string
	setString := func(name string, src *string, dst *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			changed = append(changed, name)
		}
	}

	setString("subject", p.Subject, &q.Subject)
	if p.Grade != nil {
		q.Grade = models.NormalizeGrade(*p.Grade)
		changed = append(changed, "grade")
	}
	setString("book", p.Book, &q.Book)
	setString("chapter", p.Chapter, &q.Chapter)
	setString("topic", p.Topic, &q.Topic)
	setString("slo", p.SLO, &q.SLO)
	if p.Type != nil {
		q.Type = models.QuestionType(strings.TrimSpace(*p.Type))
		changed = append(changed, "type")
	}
	if p.Difficulty != nil {
		q.Difficulty = models.DifficultyLevel(strings.TrimSpace(*p.Difficulty))
		if parsed, ok := models.ParseDifficulty(*p.Difficulty); ok {
			q.Difficulty = parsed
		}
		changed = append(changed, "difficulty")
	}
	setString("questionText", p.QuestionText, &q.QuestionText)
	setString("content", p.Content, &q.Content)
	if p.Options != nil {
		q.Options = *p.Options
		changed = append(changed, "options")
	}
	setString("correctAnswer", p.CorrectAnswer, &q.CorrectAnswer)
	setString("explanation", p.Explanation, &q.Explanation)
	if p.Blanks != nil {
		q.Blanks = *p.Blanks
		changed = append(changed, "blanks")
	}
	return changed
}

// statsFields are the fields whose change moves a question between buckets.
var statsFields = map[string]bool{"subject": true, "grade": true, "difficulty": true, "type": true}

func touchesStats(changed []string) bool {
	for _, name := range changed {
		if statsFields[name] {
			return true
		}
	}
	return false
}

type QuestionServiceConfig struct {
	RecomputeOnUpdate bool
}

type questionService struct {
	repo      repositories.Repository
	stats     StatsService
	locker    cache.ScopeLocker
	publisher events.Publisher
	validator *validator.Validator
	logger    *ServiceLogger
	config    QuestionServiceConfig
	now       func() time.Time
}

func NewQuestionService(
	repo repositories.Repository,
	stats StatsService,
	locker cache.ScopeLocker,
	publisher events.Publisher,
	validator *validator.Validator,
	logger *slog.Logger,
	config QuestionServiceConfig,
) QuestionService {
	return &questionService{
		repo:      repo,
		stats:     stats,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "question-bank", Component: "questions"}),
		config:    config,
		now:       time.Now,
	}
}

// ===== READS =====

func (s *questionService) List(ctx context.Context, auth *models.AuthContext, sc scope.Scope, filters models.QuestionFilters) ([]*models.Question, error) {
	op := s.logger.WithOperation(ctx, "list_questions", auth.UserID, sc.Key())

	if err := access.AuthorizeRead(auth, sc); err != nil {
		op.LogResult("", err)
		return nil, err
	}

	all, err := s.repo.Question().ListByScope(ctx, sc)
	if err != nil {
		err = storeError("list questions", "scope", sc.Key(), err)
		op.LogResult("", err)
		return nil, err
	}

	matcher := newFilterMatcher(filters)
	result := make([]*models.Question, 0, len(all))
	for _, q := range all {
		if matcher.matches(q) {
			tagSource(q, sc)
			result = append(result, q)
		}
	}
	return result, nil
}

func (s *questionService) Get(ctx context.Context, auth *models.AuthContext, sc scope.Scope, id string) (*models.Question, error) {
	if err := access.AuthorizeRead(auth, sc); err != nil {
		s.logger.WithOperation(ctx, "get_question", auth.UserID, sc.Key()).LogResult(id, err)
		return nil, err
	}

	q, err := s.repo.Question().GetByID(ctx, sc, id)
	if err != nil {
		return nil, storeError("get question", "question", id, err)
	}
	tagSource(q, sc)
	return q, nil
}

// tagSource stamps the display copies of the bank a question was read from.
func tagSource(q *models.Question, sc scope.Scope) {
	q.Source = sc.Source()
	if !sc.IsGlobal() {
		q.SchoolID = sc.SchoolID
	}
}

type filterMatcher struct {
	subject, grade, book, chapter, difficulty, questionType string
}

// active drops empty values and the "all" sentinel.
func active(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, models.FilterAll) {
		return ""
	}
	return value
}

func newFilterMatcher(f models.QuestionFilters) filterMatcher {
	return filterMatcher{
		subject:      active(f.Subject),
		grade:        models.NormalizeGrade(active(f.Grade)),
		book:         active(f.Book),
		chapter:      active(f.Chapter),
		difficulty:   active(f.Difficulty),
		questionType: active(f.Type),
	}
}

func (m filterMatcher) matches(q *models.Question) bool {
	switch {
	case m.subject != "" && q.Subject != m.subject:
		return false
	case m.grade != "" && models.NormalizeGrade(q.Grade) != m.grade:
		return false
	case m.book != "" && q.Book != m.book:
		return false
	case m.chapter != "" && q.Chapter != m.chapter:
		return false
	case m.difficulty != "" && !strings.EqualFold(string(q.Difficulty), m.difficulty):
		return false
	case m.questionType != "" && string(q.Type) != m.questionType:
		return false
	}
	return true
}

// ===== WRITES =====

func (s *questionService) Create(ctx context.Context, auth *models.AuthContext, sc scope.Scope, payload *models.Question) (string, error) {
	op := s.logger.WithOperation(ctx, "create_question", auth.UserID, sc.Key())

	var id string
	err := s.withScopeLock(ctx, sc, func() error {
		var err error
		if id, err = s.insert(ctx, auth, sc, payload); err != nil {
			return err
		}
		s.recompute(ctx, auth, sc)
		return nil
	})
	op.LogResult(id, err)
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.EventQuestionCreated, sc, auth, payload, nil)
	return id, nil
}

func (s *questionService) CreateBatch(ctx context.Context, auth *models.AuthContext, sc scope.Scope, payloads []*models.Question) ([]string, []error) {
	ids := make([]string, len(payloads))
	errs := make([]error, len(payloads))

	ran := false
	lockErr := s.withScopeLock(ctx, sc, func() error {
		ran = true
		created := 0
		for i, payload := range payloads {
			if ids[i], errs[i] = s.insert(ctx, auth, sc, payload); errs[i] == nil {
				created++
			}
		}
		if created > 0 {
			s.recompute(ctx, auth, sc)
		}
		return nil
	})
	if !ran {
		for i := range errs {
			errs[i] = lockErr
		}
		return ids, errs
	}

	var stored []string
	for i, id := range ids {
		if errs[i] == nil {
			stored = append(stored, id)
		}
	}
	if len(stored) > 0 {
		s.emit(ctx, events.NewEvent(events.EventQuestionsBulk, sc.Key(), events.QuestionsImportedEvent{
			QuestionIDs: stored,
			ActorID:     auth.UserID,
		}))
	}
	return ids, errs
}

// insert authorizes, validates, applies defaults and stores one question.
func (s *questionService) insert(ctx context.Context, auth *models.AuthContext, sc scope.Scope, payload *models.Question) (string, error) {
	q := *payload
	q.Subject = strings.TrimSpace(q.Subject)
	q.Grade = models.NormalizeGrade(q.Grade)
	q.Book = strings.TrimSpace(q.Book)
	q.Chapter = strings.TrimSpace(q.Chapter)

	if err := access.CanCreate(auth, sc, &q); err != nil {
		return "", err
	}
	if errs := s.validator.Question().ValidateNew(&q); len(errs) > 0 {
		return "", errs
	}

	applyDefaults(&q)

	now := s.now().UTC()
	q.ID = ""
	q.CreatedBy = auth.UserID
	q.CreatedByName = auth.UserName
	q.CreatedAt = now
	q.UpdatedBy = auth.UserID
	q.UpdatedAt = now
	q.Source = sc.Source()
	q.SchoolID = ""
	if !sc.IsGlobal() {
		q.SchoolID = sc.SchoolID
	}

	if err := s.repo.Question().Create(ctx, sc, &q); err != nil {
		return "", storeError("create question", "question", "", err)
	}
	payload.ID = q.ID
	return q.ID, nil
}

// applyDefaults fills difficulty and strips the type specific fields that do
// not apply to the question type.
func applyDefaults(q *models.Question) {
	if parsed, ok := models.ParseDifficulty(string(q.Difficulty)); ok {
		q.Difficulty = parsed
	} else {
		q.Difficulty = models.DifficultyMedium
	}

	if !q.Type.HasOptions() || q.Options == nil {
		q.Options = []string{}
	}
	if !q.Type.HasBlanks() || q.Blanks == nil {
		q.Blanks = map[string]any{}
	}
}

func (s *questionService) Update(ctx context.Context, auth *models.AuthContext, sc scope.Scope, id string, patch *QuestionPatch) error {
	op := s.logger.WithOperation(ctx, "update_question", auth.UserID, sc.Key())

	var (
		changed  []string
		existing *models.Question
	)
	err := s.withScopeLock(ctx, sc, func() error {
		var err error
		if existing, err = s.repo.Question().GetByID(ctx, sc, id); err != nil {
			return storeError("get question", "question", id, err)
		}
		if err := access.CanMutate(auth, sc, existing); err != nil {
			return err
		}

		changed = patch.apply(existing)
		if errs := s.validator.Question().ValidateMerged(existing); len(errs) > 0 {
			return errs
		}
		existing.UpdatedBy = auth.UserID
		existing.UpdatedAt = s.now().UTC()

		if err := s.repo.Question().Update(ctx, sc, existing); err != nil {
			return storeError("update question", "question", id, err)
		}
		if s.config.RecomputeOnUpdate && touchesStats(changed) {
			s.recompute(ctx, auth, sc)
		}
		return nil
	})
	op.LogResult(id, err)
	if err != nil {
		return err
	}

	s.publish(ctx, events.EventQuestionUpdated, sc, auth, existing, changed)
	return nil
}

func (s *questionService) Delete(ctx context.Context, auth *models.AuthContext, sc scope.Scope, id string) error {
	op := s.logger.WithOperation(ctx, "delete_question", auth.UserID, sc.Key())

	var existing *models.Question
	err := s.withScopeLock(ctx, sc, func() error {
		var err error
		if existing, err = s.repo.Question().GetByID(ctx, sc, id); err != nil {
			return storeError("get question", "question", id, err)
		}
		if err := access.CanMutate(auth, sc, existing); err != nil {
			return err
		}
		if err := s.repo.Question().Delete(ctx, sc, id); err != nil {
			return storeError("delete question", "question", id, err)
		}
		s.recompute(ctx, auth, sc)
		return nil
	})
	op.LogResult(id, err)
	if err != nil {
		return err
	}

	s.publish(ctx, events.EventQuestionDeleted, sc, auth, existing, nil)
	return nil
}

// ===== SECONDARY WRITES =====

// withScopeLock runs fn holding the bank's write lock. A lock that cannot be
// taken is logged and fn runs unlocked.
func (s *questionService) withScopeLock(ctx context.Context, sc scope.Scope, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, sc.Key())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.logger.LogSecondaryFailure(ctx, "acquire scope lock", sc.Key(), err)
		return fn()
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.LogSecondaryFailure(ctx, "release scope lock", sc.Key(), err)
		}
	}()
	return fn()
}

// recompute refreshes the bank's stats. Failures never reach the caller.
func (s *questionService) recompute(ctx context.Context, auth *models.AuthContext, sc scope.Scope) {
	meta := models.StatsMeta{}
	if !sc.IsGlobal() && auth.SchoolID == sc.SchoolID {
		meta.SchoolName = auth.SchoolName
	}
	if _, err := s.stats.Recompute(ctx, sc, meta); err != nil {
		s.logger.LogSecondaryFailure(ctx, "recompute stats", sc.Key(), err)
	}
}

func (s *questionService) publish(ctx context.Context, eventType events.EventType, sc scope.Scope, auth *models.AuthContext, q *models.Question, changed []string) {
	s.emit(ctx, events.NewEvent(eventType, sc.Key(), events.QuestionChangedEvent{
		QuestionID: q.ID,
		Subject:    q.Subject,
		Grade:      q.Grade,
		Type:       string(q.Type),
		ActorID:    auth.UserID,
		ActorRole:  string(auth.Role),
		Changed:    changed,
	}))
}

func (s *questionService) emit(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.LogSecondaryFailure(ctx, "publish "+string(event.Type), event.Scope, err)
	}
}
