package domain

import (
	"context"
	"time"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetLogFormat() string
	GetAppSecret() string
	GetRedisURL() string
	GetRevenueCatAPIKey() string
	GetRevenueCatProjectID() string
	GetRevenueCatBaseURL() string
	GetWebhookSecret() string
	GetGCPProjectID() string
	GetGCPLocation() string
	GetGoogleCredentialsFile() string
	GetLimits() Limits
	GetLockTTL() time.Duration
	GetGenerationTimeout() time.Duration
	GetSubscriptionCheckTimeout() time.Duration
	GetSubUsageTTL() time.Duration
	GetWebhookDedupTTL() time.Duration
	GetModelCatalog() ModelCatalog
	GetCreditPacksFile() string
	GetMaxBodyBytes() int64
	GetSupabaseURL() string
	GetSupabaseKey() string
}

// UsageLedger stores the per-device counters. Every method is a single-key atomic operation.
type UsageLedger interface {
	Read(ctx context.Context, deviceID, period string) (UsageCounters, error)
	Increment(ctx context.Context, key CounterKey, delta int64) (int64, error)
	SetWithExpiry(ctx context.Context, key CounterKey, value int64, ttl time.Duration) error
	// Charge deducts one generation from the counter of the given tier.
	Charge(ctx context.Context, deviceID, period string, tier Tier) error
	AddCredits(ctx context.Context, deviceID string, credits int64) (int64, error)
	ResetSubscriptionUsage(ctx context.Context, deviceID, period string) error
}

// ConcurrencyGate keeps at most one generation in flight per device.
type ConcurrencyGate interface {
	Acquire(ctx context.Context, deviceID string) (bool, error)
	Release(ctx context.Context, deviceID string) error
}

// SubscriptionStatusSource reports whether a device holds an active premium entitlement.
// Lookup failures are reported as false, never as an error.
type SubscriptionStatusSource interface {
	IsActive(ctx context.Context, deviceID string) bool
}

// GenerationProvider is the opaque generative model.
type GenerationProvider interface {
	Generate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error)
}

// EventDeduplicator remembers which webhook events were already applied.
type EventDeduplicator interface {
	// Claim returns true the first time an event id is seen.
	Claim(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// BillingEventJournal records applied billing events for reconciliation.
type BillingEventJournal interface {
	Record(ctx context.Context, rec BillingEventRecord) error
}

// EntitlementService resolves whether a device may generate.
type EntitlementService interface {
	Resolve(ctx context.Context, deviceID string) (EntitlementDecision, error)
	Decide(ctx context.Context, deviceID string, subscribed bool) (EntitlementDecision, error)
	Status(ctx context.Context, deviceID string) (*StatusReport, error)
}

// GenerationService runs one generation attempt end to end.
type GenerationService interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// WebhookService ingests billing events.
type WebhookService interface {
	Apply(ctx context.Context, event BillingEvent) (WebhookResult, error)
}
