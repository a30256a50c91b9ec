package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases
var (
	ErrNotFound    = errors.New("resource not found")
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("conflict")
	ErrInternal    = errors.New("internal server error")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("service unavailable")
)

// Deal engine errors
var (
	ErrComparisonFull = errors.New("comparison list is full")
	ErrFetchFailed    = errors.New("catalog fetch failed")
	ErrStaleResponse  = errors.New("catalog response superseded by a newer fetch")
	ErrUnknownProduct = errors.New("product not in current snapshot")
)

// Shopper-facing messages
const (
	MsgComparisonFull = "Maximum 4 terméket lehet egyszerre összehasonlítani."
	MsgFetchFailed    = "Nem sikerült betölteni az ajánlatokat. Kérjük, próbálja újra később."
	MsgAssistantDown  = "Nem sikerült választ kapni az AI-tól. Kérjük, próbálja újra később."
)

// AppError wraps errors with HTTP status and user-friendly message
type AppError struct {
	Err        error  // Original error (for logging)
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Field      string // Optional field name for validation errors
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for common errors

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// ComparisonFull is the rejection returned when a fifth product is compared.
func ComparisonFull() *AppError {
	return &AppError{
		Err:        ErrComparisonFull,
		Message:    MsgComparisonFull,
		StatusCode: http.StatusConflict,
	}
}

// FetchFailed wraps an upstream catalog failure.
func FetchFailed(err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrFetchFailed, err),
		Message:    MsgFetchFailed,
		StatusCode: http.StatusBadGateway,
	}
}

func Unavailable(message string) *AppError {
	return &AppError{
		Err:        ErrUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// GetStatusCode extracts HTTP status from error, defaults to 500
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Check sentinel errors
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrComparisonFull), errors.Is(err, ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage extracts user message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrComparisonFull):
		return MsgComparisonFull
	case errors.Is(err, ErrFetchFailed):
		return MsgFetchFailed
	}
	return err.Error()
}

// AssistantFailed wraps a failed or malformed assistant completion.
func AssistantFailed(err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrUnavailable, err),
		Message:    MsgAssistantDown,
		StatusCode: http.StatusBadGateway,
	}
}
