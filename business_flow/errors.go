// Package businessflow contains the core business logic and use cases for the gestiones queue
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrNombresRequired  = errors.New("nombres is required")
	ErrIDRequired       = errors.New("gestion id is required")
	ErrInvalidEstado    = errors.New("estado is invalid")
	ErrInvalidGestionID = errors.New("gestion id is invalid")

	// Allocation errors
	ErrAllocationConflict = errors.New("could not confirm a unique gestion id")
	ErrAllocationTimeout  = errors.New("gestion id allocation timed out")
	ErrSpaceExhausted     = errors.New("gestion id space exhausted at Z999")

	// Backing store errors
	ErrBackingStore = errors.New("backing store error")

	// Gestion errors
	ErrGestionNotFound = errors.New("gestion not found")

	// Archive errors
	ErrNothingToExport = errors.New("no gestiones to export")
	ErrArchiveRunning  = errors.New("archive already running")
)

// Stable error codes surfaced to API clients
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAllocationConflict = "ALLOCATION_CONFLICT"
	CodeAllocationTimeout  = "ALLOCATION_TIMEOUT"
	CodeSpaceExhausted     = "SPACE_EXHAUSTED"
	CodeBackingStore       = "BACKING_STORE_ERROR"
	CodeGestionNotFound    = "GESTION_NOT_FOUND"
	CodeNothingToExport    = "NOTHING_TO_EXPORT"
	CodeExcelWrite         = "EXCEL_WRITE_ERROR"
	CodeArchiveRunning     = "ARCHIVE_RUNNING"
	CodeArchiveWrite       = "ARCHIVE_WRITE_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// newValidationError wraps cause so that both IsValidation and the specific sentinel match
func newValidationError(message string, cause error) *BusinessError {
	return NewBusinessError(CodeValidation, message, errors.Join(ErrValidation, cause))
}

// newStoreError tags a failure of a read/append/update call against the backing store
func newStoreError(op string, err error) *BusinessError {
	return NewBusinessErrorf(CodeBackingStore, "backing store %s failed", errors.Join(ErrBackingStore, err), op)
}

// ErrorCode returns the BusinessError code carried by err, or "" if there is none
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsRetryable reports whether the caller may simply resubmit the request.
// SpaceExhausted and validation failures are not retryable.
func IsRetryable(err error) bool {
	return IsAllocationConflict(err) || IsAllocationTimeout(err) || IsBackingStoreError(err)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNombresRequired(err error) bool {
	return errors.Is(err, ErrNombresRequired)
}

func IsInvalidEstado(err error) bool {
	return errors.Is(err, ErrInvalidEstado)
}

func IsAllocationConflict(err error) bool {
	return errors.Is(err, ErrAllocationConflict)
}

func IsAllocationTimeout(err error) bool {
	return errors.Is(err, ErrAllocationTimeout)
}

func IsSpaceExhausted(err error) bool {
	return errors.Is(err, ErrSpaceExhausted)
}

func IsBackingStoreError(err error) bool {
	return errors.Is(err, ErrBackingStore)
}

func IsGestionNotFound(err error) bool {
	return errors.Is(err, ErrGestionNotFound)
}

func IsNothingToExport(err error) bool {
	return errors.Is(err, ErrNothingToExport)
}

func IsArchiveRunning(err error) bool {
	return errors.Is(err, ErrArchiveRunning)
}
