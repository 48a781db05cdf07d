package domain

import (
	"fmt"
	"time"
)

// PeriodLayout formats the billing period key (UTC calendar month).
const PeriodLayout = "2006-01"

// PeriodKey returns the billing period containing t.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// Counter identifies one of the per-device usage counters.
type Counter string

const (
	CounterFree         Counter = "free"
	CounterCredits      Counter = "credits"
	CounterSubscription Counter = "sub_used"
)

// CounterKey addresses a single counter in the ledger. Period is only
// meaningful for CounterSubscription.
type CounterKey struct {
	Counter  Counter
	DeviceID string
	Period   string
}

// String returns the store key for the counter.
func (k CounterKey) String() string {
	if k.Counter == CounterSubscription {
		return fmt.Sprintf("%s:%s:%s", k.Counter, k.DeviceID, k.Period)
	}
	return fmt.Sprintf("%s:%s", k.Counter, k.DeviceID)
}

// FreeKey is the lifetime free-usage counter for a device.
func FreeKey(deviceID string) CounterKey {
	return CounterKey{Counter: CounterFree, DeviceID: deviceID}
}

// CreditsKey is the purchased-credit balance for a device.
func CreditsKey(deviceID string) CounterKey {
	return CounterKey{Counter: CounterCredits, DeviceID: deviceID}
}

// SubscriptionKey is the subscription usage counter for a device in a period.
func SubscriptionKey(deviceID, period string) CounterKey {
	return CounterKey{Counter: CounterSubscription, DeviceID: deviceID, Period: period}
}

// UsageCounters is a point-in-time snapshot of a device's counters.
type UsageCounters struct {
	FreeUsed int64 `json:"freeUsed"`
	Credits  int64 `json:"credits"`
	SubUsed  int64 `json:"subUsed"`
}
