package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons identify the caller-input failures of the collection desk.
const (
	ReasonInvalidRange           = "INVALID_RANGE"
	ReasonValidation             = "VALIDATION_ERROR"
	ReasonDuplicateReceiptNumber = "DUPLICATE_RECEIPT_NUMBER"
	ReasonBookExhausted          = "BOOK_EXHAUSTED"
	ReasonBookInUse              = "BOOK_IN_USE"
	ReasonNotFound               = "NOT_FOUND"
	ReasonExternalPosting        = "EXTERNAL_POSTING_ERROR"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is reports whether target carries the same reason, so that
// errors.Is(err, ErrBookExhausted) matches any exhausted-book error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Reason == "" || t.Reason == "" {
		return e == t
	}
	return e.Reason == t.Reason
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Reason: ReasonNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}

	ErrInvalidRange           = &AppError{Code: http.StatusBadRequest, Reason: ReasonInvalidRange, Message: "Invalid page range"}
	ErrValidation             = &AppError{Code: http.StatusUnprocessableEntity, Reason: ReasonValidation, Message: "Validation failed"}
	ErrDuplicateReceiptNumber = &AppError{Code: http.StatusConflict, Reason: ReasonDuplicateReceiptNumber, Message: "Duplicate receipt numbers"}
	ErrBookExhausted          = &AppError{Code: http.StatusConflict, Reason: ReasonBookExhausted, Message: "Receipt book has no unused pages"}
	ErrBookInUse              = &AppError{Code: http.StatusConflict, Reason: ReasonBookInUse, Message: "Receipt book is in use"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  ReasonValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldValidationError is a validation error on a single field
func NewFieldValidationError(field, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  ReasonValidation,
		Message: message,
		Errors:  []FieldError{{Field: field, Message: message}},
	}
}

// NewInvalidRangeError creates an invalid page range error
func NewInvalidRangeError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonInvalidRange,
		Message: message,
	}
}

// NewDuplicateReceiptError lists the conflicting receipt numbers
func NewDuplicateReceiptError(numbers []int) *AppError {
	fieldErrors := make([]FieldError, len(numbers))
	for i, n := range numbers {
		fieldErrors[i] = FieldError{
			Field:   "receipt_number",
			Message: fmt.Sprintf("receipt number %d is used more than once in this cycle", n),
		}
	}
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonDuplicateReceiptNumber,
		Message: fmt.Sprintf("Duplicate receipt numbers: %v", numbers),
		Errors:  fieldErrors,
	}
}

// NewBookExhaustedError creates an exhausted book error
func NewBookExhaustedError(label string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonBookExhausted,
		Message: fmt.Sprintf("Receipt book %s has no unused pages", label),
	}
}

// NewBookInUseError creates a book-in-use error
func NewBookInUseError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  ReasonBookInUse,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Reason:  ReasonNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
