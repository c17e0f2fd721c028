package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure classes of the pipeline. Configuration problems are fatal at
// startup; everything else is contained to the unit it names (a fetch, a
// document, a customer, a date) and never escapes the surrounding loop.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransientIO   = errors.New("transient i/o error")
	ErrExtraction    = errors.New("extraction failed")
	ErrVerdictParse  = errors.New("verdict parse error")
	ErrDateParse     = errors.New("date parse error")
	ErrNotFound      = errors.New("resource not found")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
