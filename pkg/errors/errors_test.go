package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/clinicops/clinic-flow/backend/pkg/errors"
)

func TestIsType(t *testing.T) {
	err := apperrors.NewEmptyQueueError("no waiting entries")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmptyQueue))
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestIsType_SeesThroughWrapping(t *testing.T) {
	inner := apperrors.NewAllocationConflictError("queue number taken", nil)
	wrapped := fmt.Errorf("max retry attempts (3) exceeded: %w", inner)

	assert.True(t, apperrors.IsType(wrapped, apperrors.ErrorTypeAllocationConflict))
}

func TestRetryable(t *testing.T) {
	assert.True(t, apperrors.Retryable(apperrors.NewAllocationConflictError("queue number taken", nil)))
	assert.False(t, apperrors.Retryable(apperrors.NewNotFoundError("missing")))
	assert.False(t, apperrors.Retryable(apperrors.NewInvalidStateError("wrong state")))
	assert.False(t, apperrors.Retryable(fmt.Errorf("plain error")))
}

func TestAppError_Error(t *testing.T) {
	plain := apperrors.NewNotFoundError("station not found")
	assert.Equal(t, "NOT_FOUND: station not found", plain.Error())

	wrapped := apperrors.NewTransactionFailedError("commit failed", fmt.Errorf("connection reset"))
	assert.Contains(t, wrapped.Error(), "TRANSACTION_FAILED")
	assert.Contains(t, wrapped.Error(), "connection reset")
}
