// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidationFailed         ErrorKind = "VALIDATION_FAILED"
	KindDuplicateEmail           ErrorKind = "DUPLICATE_EMAIL"
	KindNotFound                 ErrorKind = "NOT_FOUND"
	KindInvalidIDFormat          ErrorKind = "INVALID_ID_FORMAT"
	KindInvalidTransition        ErrorKind = "INVALID_TRANSITION"
	KindInternalAggregationError ErrorKind = "INTERNAL_AGGREGATION_ERROR"
	KindInternal                 ErrorKind = "INTERNAL_ERROR"
)

// AppError is the typed failure every service operation returns.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

// Sentinels for errors.Is; only Kind is compared.
var (
	ErrValidationFailed   = &AppError{Kind: KindValidationFailed}
	ErrDuplicateEmail     = &AppError{Kind: KindDuplicateEmail}
	ErrNotFound           = &AppError{Kind: KindNotFound}
	ErrInvalidIDFormat    = &AppError{Kind: KindInvalidIDFormat}
	ErrInvalidTransition  = &AppError{Kind: KindInvalidTransition}
	ErrAggregationFailure = &AppError{Kind: KindInternalAggregationError}
	ErrInternal           = &AppError{Kind: KindInternal}
)

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidationFailed, KindDuplicateEmail, KindInvalidIDFormat, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func validationError(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidationFailed, Message: "Validation failed", Fields: fields}
}

func duplicateEmailError(err error) *AppError {
	return &AppError{
		Kind:    KindDuplicateEmail,
		Message: "An application with this email already exists",
		Fields:  map[string]string{"email": "An application with this email already exists"},
		Err:     err,
	}
}

func notFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func invalidIDError(id string) *AppError {
	return &AppError{Kind: KindInvalidIDFormat, Message: fmt.Sprintf("Invalid application id format: %q", id)}
}

func invalidTransitionError(message string) *AppError {
	return &AppError{Kind: KindInvalidTransition, Message: message}
}

func internalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

func aggregationError(metric string, err error) *AppError {
	return &AppError{Kind: KindInternalAggregationError, Message: "Failed to compute " + metric, Err: err}
}

// isDuplicateKey recognises unique violations from either driver, translated or not.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
