package domain

// Tier is the funding source charged for a generation.
type Tier string

const (
	TierSubscription Tier = "subscription"
	TierCredits      Tier = "credits"
	TierFree         Tier = "free"
)

// Limits are the configured allowances.
type Limits struct {
	// FreeLimit is lifetime, not per period.
	FreeLimit       int64
	SubMonthlyLimit int64
}

// EntitlementDecision is computed fresh for every generation attempt and never stored.
type EntitlementDecision struct {
	Allowed         bool
	Tier            Tier
	Counters        UsageCounters
	IsProSubscriber bool
}

// DecideEntitlement applies the tier precedence: subscription, then credits, then free.
// It is a pure function of its inputs.
func DecideEntitlement(c UsageCounters, subscribed bool, limits Limits) EntitlementDecision {
	d := EntitlementDecision{
		Counters:        c,
		IsProSubscriber: subscribed,
	}

	switch {
	case subscribed && c.SubUsed < limits.SubMonthlyLimit:
		d.Allowed, d.Tier = true, TierSubscription
	case c.Credits > 0:
		d.Allowed, d.Tier = true, TierCredits
	case c.FreeUsed < limits.FreeLimit:
		d.Allowed, d.Tier = true, TierFree
	default:
		d.Tier = TierFree
	}
	return d
}

// QuotaSnapshot is the counter view returned to clients.
type QuotaSnapshot struct {
	FreeUsed  int64 `json:"freeUsed"`
	FreeLimit int64 `json:"freeLimit"`
	Credits   int64 `json:"credits"`
	SubUsed   int64 `json:"subUsed"`
	SubLimit  int64 `json:"subLimit"`
}

// NewQuotaSnapshot combines counters with the configured limits.
func NewQuotaSnapshot(c UsageCounters, limits Limits) QuotaSnapshot {
	return QuotaSnapshot{
		FreeUsed:  c.FreeUsed,
		FreeLimit: limits.FreeLimit,
		Credits:   c.Credits,
		SubUsed:   c.SubUsed,
		SubLimit:  limits.SubMonthlyLimit,
	}
}

// SubscriptionStatus is the subscription part of a status report.
type SubscriptionStatus struct {
	Active         bool  `json:"active"`
	Used           int64 `json:"used"`
	Limit          int64 `json:"limit"`
	ProModelAccess bool  `json:"proModelAccess"`
}

// StatusReport is the read-only view served by the status endpoint.
type StatusReport struct {
	FreeUsed     int64              `json:"freeUsed"`
	FreeLimit    int64              `json:"freeLimit"`
	Credits      int64              `json:"credits"`
	Subscription SubscriptionStatus `json:"subscription"`
}
