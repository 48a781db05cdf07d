package repository

import (
	"context"
	"fmt"
	"time"

	"genquota-server/internal/domain"

	"github.com/supabase-community/supabase-go"
)

const billingEventsTable = "billing_events"

// SupabaseBillingJournal appends applied billing events to the billing_events table.
type SupabaseBillingJournal struct {
	client *supabase.Client
	logger domain.Logger
	now    func() time.Time
}

func NewSupabaseBillingJournal(client *supabase.Client, logger domain.Logger) *SupabaseBillingJournal {
	return &SupabaseBillingJournal{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (j *SupabaseBillingJournal) Record(ctx context.Context, rec domain.BillingEventRecord) error {
	if j.client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	data := map[string]interface{}{
		"type":       rec.Type,
		"device_id":  rec.DeviceID,
		"credits":    rec.Credits,
		"result":     rec.Result,
		"applied_at": j.now().UTC(),
	}
	if rec.EventID != "" {
		data["event_id"] = rec.EventID
	}
	if rec.ProductID != "" {
		data["product_id"] = rec.ProductID
	}
	if rec.Period != "" {
		data["period"] = rec.Period
	}

	// Upsert on event_id so a redelivered event does not hit the unique constraint.
	_, _, err := j.client.From(billingEventsTable).Insert(data, rec.EventID != "", "event_id", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to record billing event: %w", err)
	}
	return nil
}

// NoopBillingJournal is used when Supabase is not configured.
type NoopBillingJournal struct{}

func (NoopBillingJournal) Record(context.Context, domain.BillingEventRecord) error { return nil }

var (
	_ domain.BillingEventJournal = (*SupabaseBillingJournal)(nil)
	_ domain.BillingEventJournal = NoopBillingJournal{}
)
