package domain

import "testing"

var testLimits = Limits{FreeLimit: 5, SubMonthlyLimit: 100}

func TestDecideEntitlement(t *testing.T) {
	tests := []struct {
		name        string
		counters    UsageCounters
		subscribed  bool
		wantAllowed bool
		wantTier    Tier
	}{
		{
			name:        "Fresh device uses free tier",
			counters:    UsageCounters{},
			wantAllowed: true,
			wantTier:    TierFree,
		},
		{
			name:        "Credits consumed before free allowance",
			counters:    UsageCounters{FreeUsed: 1, Credits: 3},
			wantAllowed: true,
			wantTier:    TierCredits,
		},
		{
			name:        "Subscriber with quota and credits uses subscription",
			counters:    UsageCounters{Credits: 10, SubUsed: 99},
			subscribed:  true,
			wantAllowed: true,
			wantTier:    TierSubscription,
		},
		{
			name:        "Subscriber over monthly limit falls back to credits",
			counters:    UsageCounters{Credits: 2, SubUsed: 100},
			subscribed:  true,
			wantAllowed: true,
			wantTier:    TierCredits,
		},
		{
			name:        "Subscriber over monthly limit falls back to free",
			counters:    UsageCounters{FreeUsed: 4, SubUsed: 150},
			subscribed:  true,
			wantAllowed: true,
			wantTier:    TierFree,
		},
		{
			name:        "Sub usage ignored when not subscribed",
			counters:    UsageCounters{FreeUsed: 5, SubUsed: 0},
			wantAllowed: false,
		},
		{
			name:        "Everything exhausted",
			counters:    UsageCounters{FreeUsed: 5, Credits: 0, SubUsed: 100},
			subscribed:  true,
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideEntitlement(tt.counters, tt.subscribed, testLimits)
			if got.Allowed != tt.wantAllowed {
				t.Fatalf("expected allowed=%v, got %v", tt.wantAllowed, got.Allowed)
			}
			if tt.wantAllowed && got.Tier != tt.wantTier {
				t.Fatalf("expected tier %s, got %s", tt.wantTier, got.Tier)
			}
			if got.Counters != tt.counters {
				t.Fatalf("expected counters snapshot %+v, got %+v", tt.counters, got.Counters)
			}
			if got.IsProSubscriber != tt.subscribed {
				t.Fatalf("expected subscriber flag %v", tt.subscribed)
			}
		})
	}
}

func TestDecideEntitlement_NeverAllowsWhenExhausted(t *testing.T) {
	for free := int64(0); free <= 7; free++ {
		for credits := int64(0); credits <= 2; credits++ {
			for _, sub := range []int64{0, 50, 99, 100, 120} {
				for _, subscribed := range []bool{false, true} {
					c := UsageCounters{FreeUsed: free, Credits: credits, SubUsed: sub}
					d := DecideEntitlement(c, subscribed, testLimits)

					exhausted := free >= testLimits.FreeLimit && credits == 0 &&
						(!subscribed || sub >= testLimits.SubMonthlyLimit)
					if exhausted && d.Allowed {
						t.Fatalf("allowed exhausted device: %+v subscribed=%v", c, subscribed)
					}
					if !exhausted && !d.Allowed {
						t.Fatalf("denied device with allowance: %+v subscribed=%v", c, subscribed)
					}
					if subscribed && sub < testLimits.SubMonthlyLimit && d.Tier != TierSubscription {
						t.Fatalf("expected subscription tier for %+v, got %s", c, d.Tier)
					}
				}
			}
		}
	}
}

func TestNewQuotaSnapshot(t *testing.T) {
	s := NewQuotaSnapshot(UsageCounters{FreeUsed: 2, Credits: 7, SubUsed: 3}, testLimits)
	want := QuotaSnapshot{FreeUsed: 2, FreeLimit: 5, Credits: 7, SubUsed: 3, SubLimit: 100}
	if s != want {
		t.Fatalf("expected %+v, got %+v", want, s)
	}
}
