package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/question-bank-service/internal/access"
	"github.com/SAP-F-2025/question-bank-service/internal/auth"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// OversightHandler lets the OUP admin look across every school bank.
type OversightHandler struct {
	BaseHandler
	questions services.QuestionService
	stats     services.StatsService
}

func NewOversightHandler(serviceManager services.ServiceManager, logger utils.Logger) *OversightHandler {
	return &OversightHandler{
		BaseHandler: NewBaseHandler(logger),
		questions:   serviceManager.Question(),
		stats:       serviceManager.Stats(),
	}
}

// ListSchoolBanks returns the stats record of every school bank
// @Summary List school question banks
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /admin/question-banks [get]
func (h *OversightHandler) ListSchoolBanks(c *gin.Context) {
	schools, err := h.stats.ListSchools(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"schoolQBs":    schools,
		"totalSchools": len(schools),
	})
}

// GetSchoolBank lists the questions of one school bank
// @Summary Get a school question bank
// @Tags admin
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} QuestionListResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/question-banks/{schoolId} [get]
func (h *OversightHandler) GetSchoolBank(c *gin.Context) {
	schoolID := pathID(c, "schoolId")
	if schoolID == "" {
		return
	}
	caller := auth.FromContext(c)
	if err := access.CanOverseeSchools(caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	var filters models.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	questions, err := h.questions.List(c.Request.Context(), caller, scope.School(schoolID), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuestionListResponse{
		Success:   true,
		SchoolID:  schoolID,
		Questions: questions,
		Total:     len(questions),
	})
}
