package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/question-bank-service/internal/auth"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the subject > book > chapter hierarchy.
type CatalogHandler struct {
	BaseHandler
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: NewBaseHandler(logger),
		catalog:     catalog,
	}
}

// ===== SUBJECTS =====

// ListSubjects lists subjects with their books
// @Summary List subjects
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /catalog/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalog.ListSubjects(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subjects": subjects})
}

// CreateSubject creates a subject
// @Summary Create subject
// @Tags catalog
// @Accept json
// @Produce json
// @Param subject body services.SubjectRequest true "Subject"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /catalog/subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	h.LogRequest(c, "Creating subject")

	var req services.SubjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subject, err := h.catalog.CreateSubject(c.Request.Context(), auth.FromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "subject": subject})
}

func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	id := pathID(c, "subjectId")
	if id == "" {
		return
	}

	var req services.SubjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.catalog.UpdateSubject(c.Request.Context(), auth.FromContext(c), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Subject updated successfully"})
}

// DeleteSubject deletes a subject with its books and chapters
// @Summary Delete subject
// @Tags catalog
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} MessageResponse
// @Router /catalog/subjects/{subjectId} [delete]
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	id := pathID(c, "subjectId")
	if id == "" {
		return
	}
	h.LogRequest(c, "Deleting subject", "subject_id", id)

	if err := h.catalog.DeleteSubject(c.Request.Context(), auth.FromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Subject deleted successfully"})
}

// ===== BOOKS =====

// ListBooks lists the books of a subject, looked up by name
// @Summary List books by subject
// @Tags catalog
// @Param subject query string true "Subject name"
// @Success 200 {object} map[string]interface{}
// @Router /catalog/books [get]
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	books, err := h.catalog.ListBooksBySubject(c.Request.Context(), auth.FromContext(c), c.Query("subject"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "books": books})
}

func (h *CatalogHandler) CreateBook(c *gin.Context) {
	subjectID := pathID(c, "subjectId")
	if subjectID == "" {
		return
	}

	var req services.BookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	book, err := h.catalog.CreateBook(c.Request.Context(), auth.FromContext(c), subjectID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "book": book})
}

func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	id := pathID(c, "bookId")
	if id == "" {
		return
	}

	var req services.BookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.catalog.UpdateBook(c.Request.Context(), auth.FromContext(c), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Book updated successfully"})
}

func (h *CatalogHandler) DeleteBook(c *gin.Context) {
	id := pathID(c, "bookId")
	if id == "" {
		return
	}

	if err := h.catalog.DeleteBook(c.Request.Context(), auth.FromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Book deleted successfully"})
}

// ===== CHAPTERS =====

// ListChapters lists the chapters of a book ordered by chapter number
// @Summary List chapters
// @Tags catalog
// @Param bookId path string true "Book ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /catalog/books/{bookId}/chapters [get]
func (h *CatalogHandler) ListChapters(c *gin.Context) {
	bookID := pathID(c, "bookId")
	if bookID == "" {
		return
	}

	chapters, err := h.catalog.ListChapters(c.Request.Context(), auth.FromContext(c), bookID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chapters": chapters})
}

func (h *CatalogHandler) CreateChapter(c *gin.Context) {
	bookID := pathID(c, "bookId")
	if bookID == "" {
		return
	}

	var req services.ChapterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	chapter, err := h.catalog.CreateChapter(c.Request.Context(), auth.FromContext(c), bookID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "chapter": chapter})
}

func (h *CatalogHandler) UpdateChapter(c *gin.Context) {
	bookID := pathID(c, "bookId")
	if bookID == "" {
		return
	}
	chapterID := pathID(c, "chapterId")
	if chapterID == "" {
		return
	}

	var req services.ChapterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.catalog.UpdateChapter(c.Request.Context(), auth.FromContext(c), bookID, chapterID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Chapter updated successfully"})
}

func (h *CatalogHandler) DeleteChapter(c *gin.Context) {
	bookID := pathID(c, "bookId")
	if bookID == "" {
		return
	}
	chapterID := pathID(c, "chapterId")
	if chapterID == "" {
		return
	}

	if err := h.catalog.DeleteChapter(c.Request.Context(), auth.FromContext(c), bookID, chapterID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Chapter deleted successfully"})
}
