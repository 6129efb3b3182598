package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	oupHandler       *QuestionHandler
	schoolHandler    *QuestionHandler
	oversightHandler *OversightHandler
	catalogHandler   *CatalogHandler
	store            Pinger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	store Pinger,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		oupHandler:       NewQuestionHandler(scope.BankOUP, serviceManager, logger),
		schoolHandler:    NewQuestionHandler(scope.BankSchool, serviceManager, logger),
		oversightHandler: NewOversightHandler(serviceManager, logger),
		catalogHandler:   NewCatalogHandler(serviceManager.Catalog(), logger),
		store:            store,
	}
}

func registerBank(group *gin.RouterGroup, h *QuestionHandler) {
	questions := group.Group("/questions")
	{
		questions.GET("", h.ListQuestions)
		questions.POST("", h.CreateQuestion)
		questions.GET("/export", h.ExportQuestions)
		questions.POST("/import", h.ImportQuestions)
		questions.GET("/:id", h.GetQuestion)
		questions.PUT("/:id", h.UpdateQuestion)
		questions.DELETE("/:id", h.DeleteQuestion)
	}
	group.GET("/stats", h.GetStats)
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	v1 := router.Group("/api/v1")
	{
		registerBank(v1.Group("/oup"), hm.oupHandler)
		registerBank(v1.Group("/school"), hm.schoolHandler)

		admin := v1.Group("/admin/question-banks")
		{
			admin.GET("", hm.oversightHandler.ListSchoolBanks)
			admin.GET("/:schoolId", hm.oversightHandler.GetSchoolBank)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/subjects", hm.catalogHandler.ListSubjects)
			catalog.POST("/subjects", hm.catalogHandler.CreateSubject)
			catalog.PUT("/subjects/:subjectId", hm.catalogHandler.UpdateSubject)
			catalog.DELETE("/subjects/:subjectId", hm.catalogHandler.DeleteSubject)
			catalog.POST("/subjects/:subjectId/books", hm.catalogHandler.CreateBook)

			catalog.GET("/books", hm.catalogHandler.ListBooks)
			catalog.PUT("/books/:bookId", hm.catalogHandler.UpdateBook)
			catalog.DELETE("/books/:bookId", hm.catalogHandler.DeleteBook)
			catalog.GET("/books/:bookId/chapters", hm.catalogHandler.ListChapters)
			catalog.POST("/books/:bookId/chapters", hm.catalogHandler.CreateChapter)
			catalog.PUT("/books/:bookId/chapters/:chapterId", hm.catalogHandler.UpdateChapter)
			catalog.DELETE("/books/:bookId/chapters/:chapterId", hm.catalogHandler.DeleteChapter)
		}
	}
}

// HealthCheck reports service and database status
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code, database := "healthy", http.StatusOK, "up"
	if hm.store != nil {
		if err := hm.store.Ping(ctx); err != nil {
			status, code, database = "unhealthy", http.StatusServiceUnavailable, "down"
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"service":  "question-bank-service",
		"database": database,
	})
}
