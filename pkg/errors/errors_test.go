package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Kinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		state      bool
		notFound   bool
	}{
		{name: "validation", err: NewValidationError("amount", "must be positive"), validation: true},
		{name: "loan not found", err: WrapLoanNotFound("L1"), notFound: true},
		{name: "payment request not found", err: WrapPaymentRequestNotFound("R1"), notFound: true},
		{name: "not active", err: WrapLoanNotActive("L1", "closed"), state: true},
		{name: "not closed", err: WrapLoanNotClosed("L1", "active"), state: true},
		{name: "transition", err: WrapInvalidTransition("L1", "closed", "active"), state: true},
		{name: "database", err: WrapDatabaseError(errors.New("boom"))},
		{name: "lock contention", err: WrapLockError("L1", ErrLockNotAcquired), state: true},
		{name: "lock backend", err: WrapLockError("L1", errors.New("dial tcp: refused"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.state, IsInvalidState(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestBusinessError_WrappedChain(t *testing.T) {
	err := fmt.Errorf("confirm: %w", WrapLoanNotFound("L9"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrLoanNotFound))
	assert.False(t, errors.Is(err, ErrPaymentRequestNotFound))

	var be *BusinessError
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, ErrCodeLoanNotFound, be.Code)
	assert.Contains(t, err.Error(), "Loan with ID L9 not found")
}

func TestBusinessError_ErrorString(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR: stars: must be between 1 and 5",
		NewValidationError("stars", "must be between 1 and 5").Error())
	assert.Equal(t, "DATABASE_ERROR: database operation failed (boom)",
		WrapDatabaseError(errors.New("boom")).Error())
}
