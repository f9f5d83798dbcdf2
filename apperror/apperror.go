// Package apperror 定義服務層回傳的錯誤分類，HTTP 狀態碼只在 api 邊界對應
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrNotFound        = errors.New("not found")
	ErrTransaction     = errors.New("transaction failure")
	ErrStore           = errors.New("store failure")
)

type AppError struct {
	Err     error  // 錯誤分類
	Message string // 給使用者看的訊息
	Cause   error  // 原始錯誤
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func Validation(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message}
}

func InvalidFileType(filename, mimeType string) *AppError {
	return &AppError{
		Err:     ErrInvalidFileType,
		Message: fmt.Sprintf("Invalid file type for %q (%s). Please upload only images.", filename, mimeType),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func Transaction(cause error) *AppError {
	return &AppError{Err: ErrTransaction, Message: "transaction rolled back", Cause: cause}
}

func Store(message string, cause error) *AppError {
	return &AppError{Err: ErrStore, Message: message, Cause: cause}
}

// Kind 回傳錯誤的分類名稱，未分類的錯誤視為 internal_error
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInvalidFileType):
		return "invalid_file_type"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransaction):
		return "transaction_failure"
	case errors.Is(err, ErrStore):
		return "store_failure"
	}
	return "internal_error"
}

// Message 回傳可以顯示給使用者的訊息
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An internal error occurred"
}
