package services

import (
	"bytes"
	"context"
	"testing"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var templateHeaders = []interface{}{
	"chapter", "difficulty", "questionType", "question",
	"optionA", "optionB", "optionC", "optionD", "correctAnswer", "explanation",
}

func TestImportQuestions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	data := buildWorkbook(t, [][]interface{}{
		{"# Grade: 5, Subject: Math, Book: Book 1"},
		{},
		templateHeaders,
		{"chapter_1", "EASY", "MCQ", "2 + 2 = ?", "3", "4", "", "", "B", "basic sums"},
		{"chapter_1", "MEDIUM", "ORDERING", "Order the numbers", "", "", "", "", "1,2,3", ""},
		{"", "HARD", "MCQ", "No chapter here", "a", "", "", "", "A", ""},
		{"chapter_2", "INSANE", "ESSAY", "Write about maths"},
		{},
	})

	summary, err := f.services.ImportExport().ImportQuestions(ctx, oupCreator, scope.Global(), "math.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.ErrorCount)
	assert.Len(t, summary.CreatedQuestions, 2)
	require.Len(t, summary.Errors, 4)
	assert.Equal(t, 6, summary.Errors[0].Row)
	assert.Equal(t, "chapter", summary.Errors[0].Column)
	assert.Equal(t, "options", summary.Errors[1].Column)
	assert.Equal(t, 7, summary.Errors[2].Row)

	// One recompute for the whole file
	assert.Equal(t, 1, f.stats.upserts)
	assert.Len(t, f.publisher.OfType(events.EventQuestionsBulk), 1)

	require.NotEmpty(t, summary.ArchivedAs)
	archived, ok := f.archiver.Object(summary.ArchivedAs)
	require.True(t, ok)
	assert.Equal(t, data, archived)

	mcq, err := f.services.Question().Get(ctx, oupCreator, scope.Global(), summary.CreatedQuestions[0])
	require.NoError(t, err)
	assert.Equal(t, "Grade 5", mcq.Grade)
	assert.Equal(t, "Math", mcq.Subject)
	assert.Equal(t, []string{"3", "4"}, mcq.Options)
	assert.Equal(t, "4", mcq.CorrectAnswer)
	assert.Equal(t, models.DifficultyEasy, mcq.Difficulty)
}

func TestImportRejectsWholeFile(t *testing.T) {
	validRows := [][]interface{}{
		{"# Grade: 5, Subject: Science, Book: Book 1"},
		{},
		templateHeaders,
		{"chapter_1", "EASY", "ORDERING", "Sort these"},
	}

	tests := []struct {
		name     string
		auth     *models.AuthContext
		filename string
		data     func(t *testing.T) []byte
		status   int
	}{
		{
			name:     "not xlsx",
			auth:     oupCreator,
			filename: "questions.csv",
			data:     func(t *testing.T) []byte { return []byte("a,b") },
			status:   400,
		},
		{
			name:     "no metadata",
			auth:     oupCreator,
			filename: "questions.xlsx",
			data: func(t *testing.T) []byte {
				return buildWorkbook(t, [][]interface{}{{"title"}, {}, templateHeaders, {"chapter_1", "EASY", "MCQ", "q"}})
			},
			status: 400,
		},
		{
			name:     "teacher outside assignment",
			auth:     teacher("t1", "s1"),
			filename: "questions.xlsx",
			data:     func(t *testing.T) []byte { return buildWorkbook(t, validRows) },
			status:   403,
		},
		{
			name:     "student",
			auth:     student,
			filename: "questions.xlsx",
			data:     func(t *testing.T) []byte { return buildWorkbook(t, validRows) },
			status:   403,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			target := scope.School("s1")

			_, err := f.services.ImportExport().ImportQuestions(context.Background(), tt.auth, target, tt.filename, tt.data(t))
			require.Error(t, err)
			assert.Equal(t, tt.status, apperrors.StatusCode(err))
			assert.Empty(t, f.questions.banks[target.Key()])
		})
	}
}

func TestExportQuestions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	mcq := payload("Math", "Grade 5")
	mcq.Options = []string{"3", "4"}
	mcq.CorrectAnswer = "4"
	_, err := f.services.Question().Create(ctx, oupCreator, scope.Global(), mcq)
	require.NoError(t, err)

	other := payload("Science", "Grade 6")
	other.Type = models.QuestionTypeFillBlanks
	_, err = f.services.Question().Create(ctx, oupCreator, scope.Global(), other)
	require.NoError(t, err)

	data, err := f.services.ImportExport().ExportQuestions(ctx, oupCreator, scope.Global(), models.QuestionFilters{Subject: "Math"})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Questions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "subject", rows[0][0])
	assert.Equal(t, "Math", rows[1][0])
	assert.Equal(t, "MEDIUM", rows[1][4])
	assert.Equal(t, "MCQ", rows[1][5])
	assert.Equal(t, "B", rows[1][11])
	assert.Equal(t, "OUP Author", rows[1][13])

	_, err = f.services.ImportExport().ExportQuestions(ctx, teacher("t1", "s1"), scope.Global(), models.QuestionFilters{})
	assert.True(t, apperrors.IsDenied(err))
}
