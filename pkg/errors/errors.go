package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"genquota-server/internal/domain"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation            ErrorType = "validation"
	ErrorTypeQuotaExhausted        ErrorType = "quota_exhausted"
	ErrorTypeConcurrencyConflict   ErrorType = "concurrency_conflict"
	ErrorTypePremiumModelForbidden ErrorType = "premium_model_forbidden"
	ErrorTypeProviderTimeout       ErrorType = "provider_timeout"
	ErrorTypeProviderFailure       ErrorType = "provider_failure"
	ErrorTypeAuthRejected          ErrorType = "auth_rejected"
	ErrorTypeStoreUnavailable      ErrorType = "store_unavailable"
	ErrorTypeInternal              ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType             `json:"type"`
	Message    string                `json:"message"`
	Details    string                `json:"details,omitempty"`
	StatusCode int                   `json:"-"`
	Quota      *domain.QuotaSnapshot `json:"-"`
	Cause      error                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthRejectedError creates a caller-credential error
func NewAuthRejectedError(message string, statusCode int) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthRejected,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// FromDomain maps a service error onto the HTTP taxonomy.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var quotaErr *domain.QuotaExhaustedError
	var validationErr *domain.ValidationError
	switch {
	case stderrors.As(err, &quotaErr):
		quota := quotaErr.Quota
		return &AppError{Type: ErrorTypeQuotaExhausted, Message: "No generations remaining", StatusCode: http.StatusPaymentRequired, Quota: &quota, Cause: err}
	case stderrors.As(err, &validationErr):
		return &AppError{Type: ErrorTypeValidation, Message: validationErr.Error(), StatusCode: http.StatusBadRequest, Cause: err}
	case stderrors.Is(err, domain.ErrQuotaExhausted):
		return &AppError{Type: ErrorTypeQuotaExhausted, Message: "No generations remaining", StatusCode: http.StatusPaymentRequired, Cause: err}
	case stderrors.Is(err, domain.ErrConcurrencyConflict):
		return &AppError{Type: ErrorTypeConcurrencyConflict, Message: "Generation already in progress", StatusCode: http.StatusTooManyRequests, Cause: err}
	case stderrors.Is(err, domain.ErrPremiumModelForbidden):
		return &AppError{Type: ErrorTypePremiumModelForbidden, Message: "Pro model requires active subscription", StatusCode: http.StatusForbidden, Cause: err}
	case stderrors.Is(err, domain.ErrProviderTimeout):
		return &AppError{Type: ErrorTypeProviderTimeout, Message: "Generation timed out. Please try again.", StatusCode: http.StatusGatewayTimeout, Cause: err}
	case stderrors.Is(err, domain.ErrProviderEmpty):
		return &AppError{Type: ErrorTypeProviderFailure, Message: "Generation failed. The model returned no content.", StatusCode: http.StatusInternalServerError, Cause: err}
	case stderrors.Is(err, domain.ErrProviderFailure):
		return &AppError{Type: ErrorTypeProviderFailure, Message: "Generation failed. Please try again.", StatusCode: http.StatusInternalServerError, Cause: err}
	case stderrors.Is(err, domain.ErrInvalidWebhookPayload):
		return &AppError{Type: ErrorTypeValidation, Message: "Invalid webhook payload", StatusCode: http.StatusBadRequest, Cause: err}
	case stderrors.Is(err, domain.ErrStoreUnavailable):
		return &AppError{Type: ErrorTypeStoreUnavailable, Message: "Internal server error", StatusCode: http.StatusInternalServerError, Cause: err}
	default:
		return NewInternalError("Internal server error", err)
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}
