package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/scope"
	"github.com/gin-gonic/gin"
)

// pathID reads a required path parameter. On failure it has already
// answered 400 and returns "".
func pathID(c *gin.Context, param string) string {
	id := strings.TrimSpace(c.Param(param))
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: "ID cannot be empty",
		})
	}
	return id
}

// readWorkbookUpload returns the bytes of an uploaded .xlsx file, or a
// client-facing reason it was refused.
func readWorkbookUpload(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	if fileHeader.Size > maxImportSize {
		return nil, "File is too large", fmt.Errorf("maximum size is %d MB", maxImportSize>>20)
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".xlsx" {
		return nil, "Only .xlsx files are supported", fmt.Errorf("got %q", ext)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "Unable to read file", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		return nil, "Unable to read file", err
	}
	return data, "", nil
}

// exportFileName is questions-<bank>-<date>.xlsx, e.g.
// questions-school-s1-20250101.xlsx.
func exportFileName(s scope.Scope, now time.Time) string {
	return fmt.Sprintf("questions-%s-%s.xlsx",
		strings.ReplaceAll(s.Key(), ":", "-"), now.UTC().Format("20060102"))
}
