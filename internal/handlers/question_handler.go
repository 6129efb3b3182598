package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/auth"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

const (
	maxImportSize   = 10 << 20
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// QuestionHandler serves one bank: the global OUP bank or the school bank
// of the caller.
type QuestionHandler struct {
	BaseHandler
	bank         scope.Bank
	questions    services.QuestionService
	stats        services.StatsService
	importExport services.ImportExportService
}

func NewQuestionHandler(
	bank scope.Bank,
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:  NewBaseHandler(logger),
		bank:         bank,
		questions:    serviceManager.Question(),
		stats:        serviceManager.Stats(),
		importExport: serviceManager.ImportExport(),
	}
}

// resolve picks the bank addressed by the request. School routes accept an
// explicit schoolId query parameter, else the caller's own school.
func (h *QuestionHandler) resolve(c *gin.Context) (*models.AuthContext, scope.Scope, bool) {
	caller := auth.FromContext(c)
	s, err := scope.Resolve(caller, scope.Request{Bank: h.bank, SchoolID: c.Query("schoolId")})
	if err != nil {
		h.handleServiceError(c, err)
		return nil, scope.Scope{}, false
	}
	return caller, s, true
}

func (h *QuestionHandler) fail(c *gin.Context, operation string, err error) {
	monitoring.RecordQuestionOperation(operation, string(h.bank), statusOf(err))
	h.handleServiceError(c, err)
}

func (h *QuestionHandler) succeed(operation string, status int) {
	monitoring.RecordQuestionOperation(operation, string(h.bank), status)
}

// ListQuestions lists the questions of a bank
// @Summary List questions
// @Description Lists questions of the bank, filtered by classification. "all" disables a filter.
// @Tags questions
// @Produce json
// @Param subject query string false "Subject"
// @Param grade query string false "Grade, with or without the Grade prefix"
// @Param book query string false "Book"
// @Param chapter query string false "Chapter"
// @Param difficulty query string false "Difficulty"
// @Param type query string false "Question type"
// @Success 200 {object} QuestionListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{bank}/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	var filters models.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	questions, err := h.questions.List(c.Request.Context(), caller, s, filters)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	h.succeed("list", http.StatusOK)

	resp := QuestionListResponse{
		Success:   true,
		Questions: questions,
		Total:     len(questions),
	}
	if !s.IsGlobal() {
		resp.SchoolID = s.SchoolID
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuestion retrieves a question by ID
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /{bank}/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := pathID(c, "id")
	if id == "" {
		return
	}
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	question, err := h.questions.Get(c.Request.Context(), caller, s, id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	h.succeed("get", http.StatusOK)

	c.JSON(http.StatusOK, gin.H{"success": true, "question": question})
}

// CreateQuestion creates a new question
// @Summary Create question
// @Description Creates a question in the bank. Teachers are limited to their assigned subjects and grades.
// @Tags questions
// @Accept json
// @Produce json
// @Param question body models.Question true "Question data"
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{bank}/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question", "bank", h.bank)

	var payload models.Question
	if !h.bindJSON(c, &payload) {
		return
	}
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	id, err := h.questions.Create(c.Request.Context(), caller, s, &payload)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	h.succeed("create", http.StatusCreated)

	c.JSON(http.StatusCreated, CreatedResponse{
		Success:    true,
		QuestionID: id,
		Message:    "Question created successfully",
	})
}

// UpdateQuestion updates an existing question
// @Summary Update question
// @Description Applies a partial update. Non-admins may only update their own questions.
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param question body services.QuestionPatch true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /{bank}/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := pathID(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Updating question", "bank", h.bank, "question_id", id)

	var patch services.QuestionPatch
	if !h.bindJSON(c, &patch) {
		return
	}
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.questions.Update(c.Request.Context(), caller, s, id, &patch); err != nil {
		h.fail(c, "update", err)
		return
	}
	h.succeed("update", http.StatusOK)

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Question updated successfully"})
}

// DeleteQuestion deletes a question
// @Summary Delete question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /{bank}/questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := pathID(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Deleting question", "bank", h.bank, "question_id", id)

	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), caller, s, id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	h.succeed("delete", http.StatusOK)

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Question deleted successfully"})
}

// GetStats returns the aggregate counters of the bank
// @Summary Bank statistics
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /{bank}/stats [get]
func (h *QuestionHandler) GetStats(c *gin.Context) {
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	stats, err := h.stats.Get(c.Request.Context(), caller, s)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ImportQuestions creates questions from an uploaded workbook
// @Summary Import questions from Excel
// @Description Row 1 carries "# Grade: G, Subject: S, Book: B", row 3 the headers.
// @Tags import-export
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Excel file (.xlsx)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /{bank}/questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions", "bank", h.bank)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "File is required", nil, err.Error())
		return
	}
	data, reason, err := readWorkbookUpload(fileHeader)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, reason, nil, err.Error())
		return
	}

	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	summary, err := h.importExport.ImportQuestions(c.Request.Context(), caller, s, fileHeader.Filename, data)
	if err != nil {
		h.fail(c, "import", err)
		return
	}
	h.succeed("import", http.StatusOK)
	monitoring.RecordImport(string(h.bank), summary.SuccessCount, summary.ErrorCount)

	c.JSON(http.StatusOK, gin.H{
		"success": summary.ErrorCount == 0,
		"message": fmt.Sprintf("Imported %d of %d questions", summary.SuccessCount, summary.TotalRows),
		"summary": summary,
	})
}

// ExportQuestions downloads the bank as a workbook
// @Summary Export questions to Excel
// @Tags import-export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /{bank}/questions/export [get]
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	caller, s, ok := h.resolve(c)
	if !ok {
		return
	}

	var filters models.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	data, err := h.importExport.ExportQuestions(c.Request.Context(), caller, s, filters)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	h.succeed("export", http.StatusOK)

	filename := exportFileName(s, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
