package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
)

func TestVersionConflict(t *testing.T) {
	err := errors.NewVersionConflictError(3, 2)

	assert.True(t, errors.IsVersionConflict(err))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, 409, errors.GetStatusCode(err))

	expected, actual, ok := errors.ConflictVersions(err)
	require.True(t, ok)
	assert.Equal(t, uint32(3), expected)
	assert.Equal(t, uint32(2), actual)
}

func TestVersionConflict_SurvivesWrapping(t *testing.T) {
	err := errors.Wrap(errors.NewVersionConflictError(5, 4), "committing lot")

	assert.True(t, errors.IsVersionConflict(err))
	_, _, ok := errors.ConflictVersions(err)
	assert.True(t, ok)
}

func TestDuplicateIsNotVersionConflict(t *testing.T) {
	err := errors.NewDuplicateError("auction")

	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	assert.False(t, errors.IsVersionConflict(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		errType    errors.ErrorType
		retryable  bool
		statusCode int
	}{
		{"validation", errors.NewValidationError("BAD_INPUT", "nope"), errors.ErrorTypeValidation, false, 400},
		{"not found", errors.NewNotFoundError("lot"), errors.ErrorTypeNotFound, false, 404},
		{"state", errors.NewStateError("LOTS_LOCKED", "nope"), errors.ErrorTypeState, false, 422},
		{"internal", errors.NewInternalError("boom"), errors.ErrorTypeInternal, true, 500},
		{"unrecoverable", errors.NewUnrecoverableError("gave up"), errors.ErrorTypeUnrecoverable, false, 503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.IsType(tt.err, tt.errType))
			assert.Equal(t, tt.retryable, errors.IsRetryable(tt.err))
			assert.Equal(t, tt.statusCode, errors.GetStatusCode(tt.err))
		})
	}
}

func TestWithCauseAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := errors.NewInternalError("sequence source unavailable").WithCause(cause)

	assert.Contains(t, err.Error(), "socket closed")
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsType_PlainError(t *testing.T) {
	assert.False(t, errors.IsType(fmt.Errorf("plain"), errors.ErrorTypeInternal))
	assert.Equal(t, 500, errors.GetStatusCode(fmt.Errorf("plain")))
}
