package domain

import "errors"

// Domain errors
var (
	ErrQuotaExhausted        = errors.New("no generations remaining")
	ErrConcurrencyConflict   = errors.New("generation already in progress")
	ErrPremiumModelForbidden = errors.New("pro model requires active subscription")
	ErrProviderTimeout       = errors.New("generation timed out")
	ErrProviderEmpty         = errors.New("model returned no content")
	ErrProviderFailure       = errors.New("generation provider failed")
	ErrStoreUnavailable      = errors.New("usage store unavailable")
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)

// QuotaExhaustedError carries the counters the client needs to render its balance.
type QuotaExhaustedError struct {
	Quota QuotaSnapshot
}

func (e *QuotaExhaustedError) Error() string {
	return ErrQuotaExhausted.Error()
}

func (e *QuotaExhaustedError) Is(target error) bool {
	return target == ErrQuotaExhausted
}

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
