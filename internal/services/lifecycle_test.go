package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/loan-manager/internal/models"
)

func TestDecideInitialStatus(t *testing.T) {
	tests := []struct {
		score int
		want  models.ApplicationStatus
	}{
		{300, models.ApplicationStatusRejected},
		{599, models.ApplicationStatusRejected},
		{600, models.ApplicationStatusPending},
		{650, models.ApplicationStatusPending},
		{699, models.ApplicationStatusPending},
		{700, models.ApplicationStatusApproved},
		{850, models.ApplicationStatusApproved},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DecideInitialStatus(tt.score), "credit score %d", tt.score)
	}
}

func TestValidateTransition(t *testing.T) {
	const (
		pending  = models.ApplicationStatusPending
		approved = models.ApplicationStatusApproved
		rejected = models.ApplicationStatusRejected
	)

	tests := []struct {
		from, to models.ApplicationStatus
		wantErr  error
	}{
		{pending, pending, nil},
		{pending, approved, nil},
		{pending, rejected, nil},
		{approved, approved, nil},
		{approved, rejected, nil},
		{approved, pending, ErrInvalidTransition},
		{rejected, rejected, nil},
		{rejected, pending, nil},
		{rejected, approved, ErrInvalidTransition},
		{pending, "archived", ErrValidationFailed},
	}

	for _, tt := range tests {
		err := ValidateTransition(tt.from, tt.to)
		if tt.wantErr == nil {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			continue
		}
		assert.True(t, errors.Is(err, tt.wantErr), "%s -> %s: got %v", tt.from, tt.to, err)
	}
}

func TestApprovalRate(t *testing.T) {
	assert.Equal(t, 0.0, ApprovalRate(0, 0))
	assert.Equal(t, 0.0, ApprovalRate(0, 4))
	assert.Equal(t, 50.0, ApprovalRate(2, 4))
	assert.Equal(t, 100.0, ApprovalRate(3, 3))
}

func TestAppErrorStatusCodes(t *testing.T) {
	assert.Equal(t, 400, validationError(nil).StatusCode())
	assert.Equal(t, 400, duplicateEmailError(nil).StatusCode())
	assert.Equal(t, 400, invalidIDError("x").StatusCode())
	assert.Equal(t, 400, invalidTransitionError("x").StatusCode())
	assert.Equal(t, 404, notFoundError("x").StatusCode())
	assert.Equal(t, 500, aggregationError("x", errors.New("boom")).StatusCode())
	assert.Equal(t, 500, internalError("x", errors.New("boom")).StatusCode())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(aggregationError("monthly statistics", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrAggregationFailure))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: loan_applications.email")))
	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_loan_applications_email"`)))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
}
