package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"supplishare/apperror"
)

func TestKind(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: apperror.Validation("title is required"), want: "validation_error"},
		{name: "invalid file type", err: apperror.InvalidFileType("a.pdf", "application/pdf"), want: "invalid_file_type"},
		{name: "not found", err: apperror.NotFound("user", "a@b.com"), want: "not_found"},
		{name: "transaction", err: apperror.Transaction(cause), want: "transaction_failure"},
		{name: "store", err: apperror.Store("upload failed", cause), want: "store_failure"},
		{name: "wrapped", err: fmt.Errorf("[op] Fail, err=%w", apperror.NotFound("listing", "1")), want: "not_found"},
		{name: "unknown", err: cause, want: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.Kind(tt.err))
		})
	}
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := fmt.Errorf("wrapped: %w", apperror.Transaction(cause))

	assert.ErrorIs(t, err, apperror.ErrTransaction)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transaction rolled back", apperror.Message(err))
	assert.Equal(t, "An internal error occurred", apperror.Message(cause))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "user not found: a@b.com", apperror.NotFound("user", "a@b.com").Error())
	assert.Equal(t, "upload failed: boom", apperror.Store("upload failed", errors.New("boom")).Error())
}
