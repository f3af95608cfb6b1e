package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every BusinessError belongs to at most one of them and
// matches it through errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
)

// Domain errors
var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrPaymentRequestNotFound = errors.New("payment request not found")
	ErrProfileNotFound        = errors.New("lender profile not found")
	ErrProfileIncomplete      = errors.New("lender profile is incomplete")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrLoanNotActive          = errors.New("loan is not active")
	ErrLoanNotClosed          = errors.New("loan is not closed")
	ErrPaymentAlreadyResolved = errors.New("payment request already resolved")
	ErrLockNotAcquired        = errors.New("loan is locked by another operation")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Kind    error
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func (e *BusinessError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodePaymentRequestNotFound = "PAYMENT_REQUEST_NOT_FOUND"
	ErrCodeProfileNotFound        = "PROFILE_NOT_FOUND"
	ErrCodeProfileIncomplete      = "PROFILE_INCOMPLETE"
	ErrCodeInvalidTransition      = "INVALID_STATUS_TRANSITION"
	ErrCodeLoanNotActive          = "LOAN_NOT_ACTIVE"
	ErrCodeLoanNotClosed          = "LOAN_NOT_CLOSED"
	ErrCodePaymentAlreadyResolved = "PAYMENT_ALREADY_RESOLVED"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
	ErrCodeLockError              = "LOCK_ERROR"
)

// NewValidationError rejects malformed input before anything is computed.
func NewValidationError(field, message string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Kind:    ErrValidation,
	}
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeLoanNotFound,
		Message: fmt.Sprintf("Loan with ID %s not found", loanID),
		Kind:    ErrNotFound,
		Err:     ErrLoanNotFound,
	}
}

func WrapPaymentRequestNotFound(requestID string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodePaymentRequestNotFound,
		Message: fmt.Sprintf("Payment request with ID %s not found", requestID),
		Kind:    ErrNotFound,
		Err:     ErrPaymentRequestNotFound,
	}
}

func WrapProfileNotFound() *BusinessError {
	return &BusinessError{
		Code:    ErrCodeProfileNotFound,
		Message: "Lender profile has not been filled in",
		Kind:    ErrNotFound,
		Err:     ErrProfileNotFound,
	}
}

func WrapProfileIncomplete() *BusinessError {
	return &BusinessError{
		Code:    ErrCodeProfileIncomplete,
		Message: "Lender profile must be completed before creating loans",
		Kind:    ErrInvalidState,
		Err:     ErrProfileIncomplete,
	}
}

func WrapInvalidTransition(loanID, from, to string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("Loan with ID %s cannot move from %s to %s", loanID, from, to),
		Kind:    ErrInvalidState,
		Err:     ErrInvalidTransition,
	}
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeLoanNotActive,
		Message: fmt.Sprintf("Loan with ID %s is %s, payments require an active loan", loanID, status),
		Kind:    ErrInvalidState,
		Err:     ErrLoanNotActive,
	}
}

func WrapLoanNotClosed(loanID, status string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeLoanNotClosed,
		Message: fmt.Sprintf("Loan with ID %s is %s, ratings require a closed loan", loanID, status),
		Kind:    ErrInvalidState,
		Err:     ErrLoanNotClosed,
	}
}

func WrapPaymentAlreadyResolved(requestID, status string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodePaymentAlreadyResolved,
		Message: fmt.Sprintf("Payment request with ID %s is already %s", requestID, status),
		Kind:    ErrInvalidState,
		Err:     ErrPaymentAlreadyResolved,
	}
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// WrapLockError reports a failed lock acquisition. Contention is a state
// conflict the caller may retry; anything else is infrastructure.
func WrapLockError(loanID string, err error) *BusinessError {
	be := NewBusinessError(
		ErrCodeLockError,
		fmt.Sprintf("Could not lock loan with ID %s", loanID),
		err,
	)
	if errors.Is(err, ErrLockNotAcquired) {
		be.Message = fmt.Sprintf("Loan with ID %s is being modified, try again", loanID)
		be.Kind = ErrInvalidState
	}
	return be
}

// IsValidation, IsInvalidState and IsNotFound classify an error chain.
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
