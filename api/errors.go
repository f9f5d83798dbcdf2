package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"supplishare/apperror"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusOf 將錯誤分類對應到 HTTP 狀態碼
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrInvalidFileType):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeErrorBody(c *gin.Context, status int, kind, message string) {
	c.JSON(status, ErrorResponse{Error: kind, Message: message})
}

// logError 只有伺服器端的錯誤才以 Error 等級記錄
func logError(c *gin.Context, op string, status int, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", attrs...)
		return
	}
	slog.Debug("Request rejected", attrs...)
}

func writeError(c *gin.Context, op string, err error) {
	status := statusOf(err)
	logError(c, op, status, err)
	writeErrorBody(c, status, apperror.Kind(err), apperror.Message(err))
}
