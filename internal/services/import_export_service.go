package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/access"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/pkg/objectstore"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Questions"

	// Template layout: metadata on row 1, headers on row 3, data from row 4.
	metadataRow = 0
	headerRow   = 2
	firstRow    = 3
)

// ImportExportService moves whole banks in and out of xlsx workbooks
type ImportExportService interface {
	ImportQuestions(ctx context.Context, auth *models.AuthContext, s scope.Scope, filename string, data []byte) (*models.ImportSummary, error)
	ExportQuestions(ctx context.Context, auth *models.AuthContext, s scope.Scope, filters models.QuestionFilters) ([]byte, error)
}

type importExportService struct {
	questions QuestionService
	archiver  objectstore.Archiver
	logger    *slog.Logger
	now       func() time.Time
}

func NewImportExportService(questions QuestionService, archiver objectstore.Archiver, logger *slog.Logger) ImportExportService {
	return &importExportService{
		questions: questions,
		archiver:  archiver,
		logger:    logger.With("service", "question-bank", "component", "import_export"),
		now:       time.Now,
	}
}

// ===== IMPORT OPERATIONS =====

var importTypes = map[string]models.QuestionType{
	"MCQ":               models.QuestionTypeMCQ,
	"FILL_IN_THE_BLANK": models.QuestionTypeFillBlanks,
	"MATCHING":          models.QuestionTypeMatching,
	"ORDERING":          models.QuestionTypeOrdering,
	"CATEGORIZATION":    models.QuestionTypeCategorization,
}

var optionColumns = []string{"optiona", "optionb", "optionc", "optiond"}

func (s *importExportService) ImportQuestions(ctx context.Context, auth *models.AuthContext, sc scope.Scope, filename string, data []byte) (*models.ImportSummary, error) {
	start := s.now()

	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".xlsx" {
		return nil, NewValidationError("file", "only .xlsx files are supported", ext)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("file", "file is not a readable workbook", filename)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "workbook has no sheets", filename)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) <= firstRow {
		return nil, NewValidationError("file", "workbook must contain metadata, a header row and at least one data row", len(rows))
	}

	meta, err := parseMetadata(rows[metadataRow])
	if err != nil {
		return nil, err
	}

	// Every row shares the metadata subject and grade, so one check covers
	// the teacher assignment rules for the whole file.
	if err := access.CanCreate(auth, sc, &models.Question{Subject: meta.Subject, Grade: meta.Grade}); err != nil {
		return nil, err
	}

	headerMap := make(map[string]int)
	for i, header := range rows[headerRow] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"chapter", "questiontype", "question"} {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	summary := &models.ImportSummary{
		CreatedQuestions: []string{},
		Errors:           []models.ImportValidationError{},
	}

	var (
		payloads []*models.Question
		rowNums  []int
	)
	for i := firstRow; i < len(rows); i++ {
		if isBlankRow(rows[i]) {
			continue
		}
		summary.TotalRows++

		rowNum := i + 1
		question, rowErrors := parseRow(rows[i], headerMap, rowNum, meta)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
			continue
		}
		payloads = append(payloads, question)
		rowNums = append(rowNums, rowNum)
	}

	if len(payloads) > 0 {
		ids, errs := s.questions.CreateBatch(ctx, auth, sc, payloads)
		for i := range payloads {
			if errs[i] != nil {
				summary.ErrorCount++
				summary.Errors = append(summary.Errors, models.ImportValidationError{
					Row:     rowNums[i],
					Message: errs[i].Error(),
				})
				continue
			}
			summary.SuccessCount++
			summary.CreatedQuestions = append(summary.CreatedQuestions, ids[i])
		}
	}

	summary.ArchivedAs = s.archive(ctx, sc, filename, data)
	summary.ProcessingTime = s.now().Sub(start)

	s.logger.Info("Excel import completed",
		"scope", sc.Key(),
		"user_id", auth.UserID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

// parseMetadata reads "# Grade: G, Subject: S, Book: B".
func parseMetadata(row []string) (*models.ImportMetadata, error) {
	line := strings.TrimSpace(strings.Join(row, ","))
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))

	meta := &models.ImportMetadata{}
	for _, part := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "grade":
			meta.Grade = models.NormalizeGrade(value)
		case "subject":
			meta.Subject = value
		case "book":
			meta.Book = value
		}
	}

	var errs ValidationErrors
	if meta.Grade == "" {
		errs = append(errs, *NewValidationError("grade", "metadata row must name a grade", nil))
	}
	if meta.Subject == "" {
		errs = append(errs, *NewValidationError("subject", "metadata row must name a subject", nil))
	}
	if meta.Book == "" {
		errs = append(errs, *NewValidationError("book", "metadata row must name a book", nil))
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return meta, nil
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, headerMap map[string]int, column string) string {
	if idx, ok := headerMap[column]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseRow(row []string, headerMap map[string]int, rowNum int, meta *models.ImportMetadata) (*models.Question, []models.ImportValidationError) {
	var errs []models.ImportValidationError
	fail := func(column, message, value string) {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Column: column, Message: message, Value: value})
	}

	chapter := cell(row, headerMap, "chapter")
	if chapter == "" {
		fail("chapter", "chapter is required", "")
	}
	text := cell(row, headerMap, "question")
	if text == "" {
		fail("question", "question is required", "")
	}

	difficulty := models.DifficultyMedium
	if raw := cell(row, headerMap, "difficulty"); raw != "" {
		parsed, ok := models.ParseDifficulty(raw)
		if !ok {
			fail("difficulty", "difficulty must be EASY, MEDIUM or HARD", raw)
		}
		difficulty = parsed
	}

	rawType := cell(row, headerMap, "questiontype")
	questionType, ok := importTypes[strings.ToUpper(rawType)]
	if !ok {
		fail("questionType", "questionType must be MCQ, FILL_IN_THE_BLANK, MATCHING, ORDERING or CATEGORIZATION", rawType)
	}

	answer := cell(row, headerMap, "correctanswer")
	var options []string
	if questionType == models.QuestionTypeMCQ {
		var letters []string
		for i, col := range optionColumns {
			if option := cell(row, headerMap, col); option != "" {
				options = append(options, option)
				letters = append(letters, string(rune('A'+i)))
			}
		}
		if len(options) < 2 {
			fail("options", "MCQ questions need at least two options", "")
		}

		resolved := ""
		for i, letter := range letters {
			if strings.EqualFold(answer, letter) {
				resolved = options[i]
			}
		}
		if resolved == "" {
			fail("correctAnswer", "correctAnswer must be the letter of a filled option", answer)
		}
		answer = resolved
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &models.Question{
		Subject:       meta.Subject,
		Grade:         meta.Grade,
		Book:          meta.Book,
		Chapter:       chapter,
		Type:          questionType,
		Difficulty:    difficulty,
		QuestionText:  text,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   cell(row, headerMap, "explanation"),
	}, nil
}

// archive keeps a copy of the upload. Failures are logged only.
func (s *importExportService) archive(ctx context.Context, sc scope.Scope, filename string, data []byte) string {
	if s.archiver == nil {
		return ""
	}
	key := fmt.Sprintf("imports/%s/%s-%s",
		strings.ReplaceAll(sc.Key(), ":", "/"),
		s.now().UTC().Format("20060102T150405"),
		filepath.Base(filename))

	stored, err := s.archiver.Archive(ctx, key, data, xlsxContentType)
	if err != nil {
		s.logger.Warn("Failed to archive import", "scope", sc.Key(), "key", key, "error", err)
		return ""
	}
	return stored
}

// ===== EXPORT OPERATIONS =====

var exportHeaders = []interface{}{
	"subject", "grade", "book", "chapter", "difficulty", "questionType", "question",
	"optionA", "optionB", "optionC", "optionD", "correctAnswer", "explanation", "createdByName",
}

func exportType(t models.QuestionType) string {
	for label, known := range importTypes {
		if known == t {
			return label
		}
	}
	return strings.ToUpper(string(t))
}

func (s *importExportService) ExportQuestions(ctx context.Context, auth *models.AuthContext, sc scope.Scope, filters models.QuestionFilters) ([]byte, error) {
	questions, err := s.questions.List(ctx, auth, sc, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write Excel header: %w", err)
	}

	for i, q := range questions {
		row := questionToRow(q)
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to address Excel row: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cellName, &row); err != nil {
			return nil, fmt.Errorf("failed to write Excel row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func questionToRow(q *models.Question) []interface{} {
	options := make([]string, len(optionColumns))
	copy(options, q.Options)

	answer := q.CorrectAnswer
	for i, option := range options {
		if option != "" && option == q.CorrectAnswer {
			answer = string(rune('A' + i))
		}
	}

	return []interface{}{
		q.Subject, q.Grade, q.Book, q.Chapter,
		strings.ToUpper(string(q.Difficulty)), exportType(q.Type), q.Text(),
		options[0], options[1], options[2], options[3],
		answer, q.Explanation, q.CreatedByName,
	}
}

