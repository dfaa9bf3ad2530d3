// Package apperrors defines the fixed error taxonomy for the pattern
// analysis pipeline. Every failure path exits with exactly one ErrorCode;
// handlers map codes to HTTP statuses without inspecting error text.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is one of the fixed pipeline failure classifications.
type ErrorCode string

const (
	CodeInsufficientEligibleEntries ErrorCode = "InsufficientEligibleEntries"
	CodeInsufficientCredits         ErrorCode = "InsufficientCredits"
	CodeModelTimeout                ErrorCode = "ModelTimeout"
	CodeModelRateLimited            ErrorCode = "ModelRateLimited"
	CodeModelQuotaExceeded          ErrorCode = "ModelQuotaExceeded"
	CodeModelProviderError          ErrorCode = "ModelProviderError"
	CodeSchemaValidationFailed      ErrorCode = "SchemaValidationFailed"
	CodeSettlementError             ErrorCode = "SettlementError"
	CodePersistenceError            ErrorCode = "PersistenceError"
	CodeAuthError                   ErrorCode = "AuthError"
)

// PipelineError is a structured pipeline failure carrying its code and
// optional caller-facing context (e.g. the estimated cost on an
// InsufficientCredits rejection, the violated rule on a validation failure).
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a caller-facing context value and returns e.
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a PipelineError with the given code and message.
func New(code ErrorCode, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// Wrap creates a PipelineError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err. Unclassified errors are treated
// as persistence failures, the pipeline's only unclassified failure mode.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodePersistenceError
}

// AsPipelineError extracts a *PipelineError from err, or wraps it as a
// persistence failure if it is not one.
func AsPipelineError(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return Wrap(CodePersistenceError, "internal error", err)
}

// HTTPStatus maps an ErrorCode to its HTTP response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInsufficientEligibleEntries:
		return http.StatusBadRequest
	case CodeAuthError:
		return http.StatusUnauthorized
	case CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case CodeModelRateLimited:
		return http.StatusTooManyRequests
	case CodeModelTimeout, CodeModelQuotaExceeded, CodeModelProviderError,
		CodeSchemaValidationFailed, CodeSettlementError, CodePersistenceError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
