package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("network_time", "network_time is required")

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "INVALID_NETWORK_TIME", err.Code)
	assert.Equal(t, "network_time", err.Field())
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"configuration", NewConfigurationError("POLICY_MISSING", "missing"), ErrorTypeConfiguration, true},
		{"wrapped insufficient data", fmt.Errorf("train: %w", NewInsufficientDataError("TOO_FEW", "few")), ErrorTypeInsufficientData, true},
		{"mismatched type", NewNotFoundError("model"), ErrorTypeValidation, false},
		{"plain error", errors.New("boom"), ErrorTypeInternal, false},
		{"nil", nil, ErrorTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestAppError_WithCauseAndDetails(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError("append failed").
		WithCause(cause).
		WithDetails(map[string]interface{}{"path": "feedback.jsonl"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "append failed: disk full", err.Error())
	assert.Equal(t, "feedback.jsonl", err.Details["path"])

	appErr, ok := As(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))

	base := NewExternalError("intel", "timeout")
	wrapped := Wrap(base, "lookup")
	assert.True(t, IsType(wrapped, ErrorTypeExternal))
	assert.Contains(t, wrapped.Error(), "intel service error: timeout")
}
