package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/SAP-F-2025/question-bank-service/internal/cache"
	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/pkg/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	questions *memoryQuestions
	stats     *memoryStats
	publisher *events.MemoryPublisher
	archiver  *objectstore.MemoryArchiver
	services  ServiceManager
}

func newFixture(t *testing.T, recomputeOnUpdate bool) *fixture {
	t.Helper()
	f := &fixture{
		questions: newMemoryQuestions(),
		stats:     newMemoryStats(),
		publisher: events.NewMemoryPublisher(discardLogger()),
		archiver:  objectstore.NewMemoryArchiver(),
	}
	f.services = NewServiceManager(Dependencies{
		Repo:              &fakeRepository{questions: f.questions, stats: f.stats, catalog: &MockCatalogRepository{}},
		Publisher:         f.publisher,
		Archiver:          f.archiver,
		Logger:            discardLogger(),
		RecomputeOnUpdate: recomputeOnUpdate,
	})
	return f
}

var (
	oupCreator = &models.AuthContext{UserID: "u-oup", UserName: "OUP Author", Role: models.RoleOUPCreator}
	oupAdmin   = &models.AuthContext{UserID: "u-admin", UserName: "OUP Admin", Role: models.RoleOUPAdmin}
	student    = &models.AuthContext{UserID: "u-student", Role: models.RoleStudent, SchoolID: "s1"}
)

func teacher(id, schoolID string) *models.AuthContext {
	return &models.AuthContext{
		UserID:           id,
		UserName:         "Teacher " + id,
		Role:             models.RoleTeacher,
		SchoolID:         schoolID,
		SchoolName:       "Springfield High",
		AssignedSubjects: []string{"Math"},
		AssignedGrades:   []string{"5"},
	}
}

func schoolAdmin(schoolID string) *models.AuthContext {
	return &models.AuthContext{UserID: "u-sa", Role: models.RoleSchoolAdmin, SchoolID: schoolID, SchoolName: "Springfield High"}
}

func payload(subject, grade string) *models.Question {
	return &models.Question{
		Subject:      subject,
		Grade:        grade,
		Book:         "Book 1",
		Chapter:      "chapter_1",
		Type:         models.QuestionTypeMCQ,
		QuestionText: "What is 2 + 2?",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateGlobalQuestion(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	id, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), payload("Math", "Grade 5"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	q, err := f.services.Question().Get(ctx, oupCreator, scope.Global(), id)
	require.NoError(t, err)
	assert.Equal(t, models.SourceOUP, q.Source)
	assert.Empty(t, q.SchoolID)
	assert.Equal(t, "u-oup", q.CreatedBy)
	assert.Equal(t, "OUP Author", q.CreatedByName)
	assert.Equal(t, q.CreatedBy, q.UpdatedBy)
	assert.Equal(t, q.CreatedAt, q.UpdatedAt)
	assert.Equal(t, models.DifficultyMedium, q.Difficulty)
	assert.Equal(t, []string{}, q.Options)
	assert.Empty(t, q.Blanks)

	stats, err := f.services.Stats().Get(ctx, oupCreator, scope.Global())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalQuestions)
	assert.Equal(t, 1, stats.QuestionsBySubject["Math"])
	assert.Equal(t, 1, stats.QuestionsByGrade["Grade 5"])
	assert.Equal(t, 1, stats.QuestionsByDifficulty["Medium"])
	assert.Equal(t, 1, stats.QuestionsByType["mcq"])
	assert.NotNil(t, stats.LastUpdated)

	assert.Len(t, f.publisher.OfType(events.EventQuestionCreated), 1)
	assert.Len(t, f.publisher.OfType(events.EventStatsRecomputed), 1)
}

func TestCreateStripsFieldsForOtherTypes(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	p := payload("Math", "Grade 5")
	p.Type = models.QuestionTypeOrdering
	p.Options = []string{"a", "b"}
	p.Blanks = map[string]any{"1": "x"}
	p.Difficulty = "hard"

	id, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), p)
	require.NoError(t, err)

	q, err := f.services.Question().Get(ctx, oupCreator, scope.Global(), id)
	require.NoError(t, err)
	assert.Empty(t, q.Options)
	assert.Empty(t, q.Blanks)
	assert.Equal(t, models.DifficultyHard, q.Difficulty)
}

func TestTeacherCreateOutsideAssignment(t *testing.T) {
	tests := []struct {
		name  string
		q     *models.Question
		field string
	}{
		{name: "unassigned subject", q: payload("Science", "5"), field: "subject"},
		{name: "unassigned grade", q: payload("Math", "Grade 6"), field: "grade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			_, err := f.services.Question().Create(context.Background(), teacher("t1", "s1"), scope.School("s1"), tt.q)

			var forbidden *apperrors.ForbiddenFieldError
			require.ErrorAs(t, err, &forbidden)
			assert.Equal(t, tt.field, forbidden.Field)
			assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
			assert.Empty(t, f.questions.banks["school:s1"])
			assert.Zero(t, f.stats.upserts)
		})
	}
}

func TestTeacherCreatesInOwnSchool(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	author := teacher("t1", "s1")

	id, err := f.services.Question().Create(ctx, author, scope.School("s1"), payload("Math", "5"))
	require.NoError(t, err)

	q, err := f.services.Question().Get(ctx, author, scope.School("s1"), id)
	require.NoError(t, err)
	assert.Equal(t, "Grade 5", q.Grade)
	assert.Equal(t, "s1", q.SchoolID)
	assert.Equal(t, models.SourceSchool, q.Source)

	all, err := f.services.Question().List(ctx, author, scope.School("s1"), models.QuestionFilters{Grade: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	stats, err := f.services.Stats().Get(ctx, author, scope.School("s1"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalQuestions)
	assert.Equal(t, "s1", stats.SchoolID)
	assert.Equal(t, "Springfield High", stats.SchoolName)

	// Another school's teacher cannot write here
	_, err = f.services.Question().Create(ctx, teacher("t2", "s2"), scope.School("s1"), payload("Math", "5"))
	var denied *apperrors.ScopeAccessError
	assert.ErrorAs(t, err, &denied)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	seed := []*models.Question{
		{Subject: "Math", Grade: "Grade 5", Difficulty: "Easy", Type: models.QuestionTypeMCQ},
		{Subject: "Math", Grade: "Grade 6", Difficulty: "Hard", Type: models.QuestionTypeOrdering},
		{Subject: "Science", Grade: "5", Difficulty: "medium", Type: models.QuestionTypeMatching},
	}
	for _, q := range seed {
		q.Book, q.Chapter, q.QuestionText = "Book 1", "chapter_1", "text"
		_, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), q)
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		filters models.QuestionFilters
		want    int
	}{
		{name: "no filters", filters: models.QuestionFilters{}, want: 3},
		{name: "all sentinel", filters: models.QuestionFilters{Subject: "all", Grade: "all", Difficulty: "all", Type: "all"}, want: 3},
		{name: "subject", filters: models.QuestionFilters{Subject: "Math"}, want: 2},
		{name: "bare grade", filters: models.QuestionFilters{Grade: "5"}, want: 2},
		{name: "prefixed grade", filters: models.QuestionFilters{Grade: "Grade 6"}, want: 1},
		{name: "difficulty any case", filters: models.QuestionFilters{Difficulty: "HARD"}, want: 1},
		{name: "type", filters: models.QuestionFilters{Type: "matching"}, want: 1},
		{name: "combined", filters: models.QuestionFilters{Subject: "Math", Grade: "5"}, want: 1},
		{name: "no match", filters: models.QuestionFilters{Book: "Book 2"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.services.Question().List(ctx, oupCreator, scope.Global(), tt.filters)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			for _, q := range got {
				assert.Equal(t, models.SourceOUP, q.Source)
			}
		})
	}
}

func TestReadIsolation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.services.Question().Create(ctx, teacher("t1", "s2"), scope.School("s2"), payload("Math", "5"))
	require.NoError(t, err)

	_, err = f.services.Question().List(ctx, teacher("t9", "s1"), scope.School("s2"), models.QuestionFilters{})
	var scopeErr *apperrors.ScopeAccessError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, "school:s2", scopeErr.Requested)
	assert.Equal(t, "school:s1", scopeErr.Caller)

	_, err = f.services.Question().List(ctx, teacher("t9", "s1"), scope.Global(), models.QuestionFilters{})
	assert.True(t, apperrors.IsDenied(err))

	_, err = f.services.Question().List(ctx, student, scope.School("s1"), models.QuestionFilters{})
	var roleErr *apperrors.UnauthorizedRoleError
	assert.ErrorAs(t, err, &roleErr)

	got, err := f.services.Question().List(ctx, oupAdmin, scope.School("s2"), models.QuestionFilters{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s2", got[0].SchoolID)
}

func TestDeleteRecomputesStats(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), payload("Math", "Grade 5"))
	require.NoError(t, err)
	_, err = f.services.Question().Create(ctx, oupCreator, scope.Global(), payload("Science", "Grade 5"))
	require.NoError(t, err)

	require.NoError(t, f.services.Question().Delete(ctx, oupCreator, scope.Global(), first))

	stats, err := f.services.Stats().Get(ctx, oupCreator, scope.Global())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalQuestions)
	assert.NotContains(t, stats.QuestionsBySubject, "Math")
	assert.Len(t, f.publisher.OfType(events.EventQuestionDeleted), 1)

	err = f.services.Question().Delete(ctx, oupCreator, scope.Global(), first)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))

	after, err := f.services.Stats().Get(ctx, oupCreator, scope.Global())
	require.NoError(t, err)
	assert.Equal(t, stats.TotalQuestions, after.TotalQuestions)
	assert.Len(t, f.publisher.OfType(events.EventQuestionDeleted), 1)
}

func TestUpdateOwnership(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	owner := teacher("t1", "s1")

	id, err := f.services.Question().Create(ctx, owner, scope.School("s1"), payload("Math", "5"))
	require.NoError(t, err)

	err = f.services.Question().Update(ctx, teacher("t2", "s1"), scope.School("s1"), id, &QuestionPatch{Explanation: strPtr("mine now")})
	var notOwner *apperrors.NotOwnerError
	require.ErrorAs(t, err, &notOwner)

	err = f.services.Question().Delete(ctx, teacher("t2", "s1"), scope.School("s1"), id)
	assert.ErrorAs(t, err, &notOwner)

	admin := schoolAdmin("s1")
	require.NoError(t, f.services.Question().Update(ctx, admin, scope.School("s1"), id, &QuestionPatch{Explanation: strPtr("reviewed")}))

	q, err := f.services.Question().Get(ctx, admin, scope.School("s1"), id)
	require.NoError(t, err)
	assert.Equal(t, "reviewed", q.Explanation)
	assert.Equal(t, "u-sa", q.UpdatedBy)
	assert.Equal(t, "t1", q.CreatedBy)
	assert.Equal(t, "s1", q.SchoolID)
	assert.False(t, q.UpdatedAt.Before(q.CreatedAt))
}

func TestUpdateMissingQuestion(t *testing.T) {
	f := newFixture(t, true)
	err := f.services.Question().Update(context.Background(), oupCreator, scope.Global(), "nope", &QuestionPatch{Topic: strPtr("x")})

	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.ID)
}

func TestUpdateRecomputeRules(t *testing.T) {
	tests := []struct {
		name              string
		recomputeOnUpdate bool
		patch             *QuestionPatch
		wantUpserts       int
	}{
		{name: "non classification field", recomputeOnUpdate: true, patch: &QuestionPatch{Explanation: strPtr("because")}, wantUpserts: 1},
		{name: "difficulty change", recomputeOnUpdate: true, patch: &QuestionPatch{Difficulty: strPtr("hard")}, wantUpserts: 2},
		{name: "disabled", recomputeOnUpdate: false, patch: &QuestionPatch{Subject: strPtr("Science")}, wantUpserts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.recomputeOnUpdate)
			ctx := context.Background()

			id, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), payload("Math", "Grade 5"))
			require.NoError(t, err)
			require.NoError(t, f.services.Question().Update(ctx, oupCreator, scope.Global(), id, tt.patch))

			assert.Equal(t, tt.wantUpserts, f.stats.upserts)
			assert.Len(t, f.publisher.OfType(events.EventQuestionUpdated), 1)
		})
	}
}

func TestUpdateRejectsInvalidMerge(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	id, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), payload("Math", "Grade 5"))
	require.NoError(t, err)

	err = f.services.Question().Update(ctx, oupCreator, scope.Global(), id, &QuestionPatch{Subject: strPtr(" ")})
	var validationErrs ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Equal(t, "subject", validationErrs[0].Field)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *models.Question)
		field  string
	}{
		{name: "missing book", mutate: func(q *models.Question) { q.Book = "" }, field: "book"},
		{name: "missing text", mutate: func(q *models.Question) { q.QuestionText = "" }, field: "questionText"},
		{name: "unknown type", mutate: func(q *models.Question) { q.Type = "essay" }, field: "type"},
		{name: "unknown difficulty", mutate: func(q *models.Question) { q.Difficulty = "extreme" }, field: "difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			q := payload("Math", "Grade 5")
			tt.mutate(q)

			_, err := f.services.Question().Create(context.Background(), oupCreator, scope.Global(), q)
			var validationErrs ValidationErrors
			require.ErrorAs(t, err, &validationErrs)
			assert.Equal(t, tt.field, validationErrs[0].Field)
			assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
		})
	}

	t.Run("content substitutes for text", func(t *testing.T) {
		f := newFixture(t, true)
		q := payload("Math", "Grade 5")
		q.QuestionText, q.Content = "", "Fill the blank"
		_, err := f.services.Question().Create(context.Background(), oupCreator, scope.Global(), q)
		assert.NoError(t, err)
	})
}

func TestStatsFailureDoesNotFailWrite(t *testing.T) {
	questions := newMemoryQuestions()
	statsRepo := &MockStatsRepository{}
	statsRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *models.ScopeStats) bool {
		return s.ScopeKey == "global" && s.TotalQuestions == 1
	})).Return(errors.New("connection reset")).Once()

	manager := NewServiceManager(Dependencies{
		Repo:              &fakeRepository{questions: questions, stats: statsRepo},
		Publisher:         events.NewMemoryPublisher(discardLogger()),
		Logger:            discardLogger(),
		RecomputeOnUpdate: true,
	})

	id, err := manager.Question().Create(context.Background(), oupCreator, scope.Global(), payload("Math", "Grade 5"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, questions.banks["global"], 1)
	statsRepo.AssertExpectations(t)
}

func TestSecondaryFailuresAreIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.publisher.Err = errors.New("broker down")

	_, err := f.services.Question().Create(context.Background(), oupCreator, scope.Global(), payload("Math", "Grade 5"))
	assert.NoError(t, err)
}

type busyLocker struct{ calls int }

func (l *busyLocker) Lock(context.Context, string) (cache.UnlockFunc, error) {
	l.calls++
	return nil, cache.ErrLockNotAcquired
}

func TestBusyLockStillWrites(t *testing.T) {
	questions := newMemoryQuestions()
	locker := &busyLocker{}
	manager := NewServiceManager(Dependencies{
		Repo:      &fakeRepository{questions: questions, stats: newMemoryStats()},
		Locker:    locker,
		Publisher: events.NewMemoryPublisher(discardLogger()),
		Logger:    discardLogger(),
	})

	_, err := manager.Question().Create(context.Background(), oupCreator, scope.Global(), payload("Math", "Grade 5"))
	require.NoError(t, err)
	assert.Equal(t, 1, locker.calls)
	assert.Len(t, questions.banks["global"], 1)
}

// waitingLocker never acquires and gives up when the caller's context ends.
type waitingLocker struct{}

func (waitingLocker) Lock(ctx context.Context, _ string) (cache.UnlockFunc, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCreateBatchCancelledBeforeLock(t *testing.T) {
	questions := newMemoryQuestions()
	publisher := events.NewMemoryPublisher(discardLogger())
	manager := NewServiceManager(Dependencies{
		Repo:      &fakeRepository{questions: questions, stats: newMemoryStats()},
		Locker:    waitingLocker{},
		Publisher: publisher,
		Logger:    discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ids, errs := manager.Question().CreateBatch(ctx, oupCreator, scope.Global(),
		[]*models.Question{payload("Math", "Grade 5"), payload("Science", "Grade 6")})

	require.Len(t, errs, 2)
	for i := range errs {
		assert.Empty(t, ids[i])
		assert.ErrorIs(t, errs[i], context.Canceled)
	}
	assert.Empty(t, questions.banks["global"])
	assert.Empty(t, publisher.OfType(events.EventQuestionsBulk))
}

func TestStoreErrorsAreOpaque(t *testing.T) {
	f := newFixture(t, true)
	f.questions.err = errors.New("pq: password authentication failed")

	_, err := f.services.Question().List(context.Background(), oupCreator, scope.Global(), models.QuestionFilters{})
	var storeErr *apperrors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.NotContains(t, err.Error(), "password")
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(err))
}
