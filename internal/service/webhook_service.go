package service

import (
	"context"
	"fmt"
	"time"

	"genquota-server/internal/domain"
	"genquota-server/internal/metrics"
)

type WebhookServiceImpl struct {
	ledger  domain.UsageLedger
	dedup   domain.EventDeduplicator
	journal domain.BillingEventJournal
	packs   domain.CreditPacks
	metrics *metrics.Collector
	logger  domain.Logger
	now     func() time.Time
}

func NewWebhookService(
	ledger domain.UsageLedger,
	dedup domain.EventDeduplicator,
	journal domain.BillingEventJournal,
	packs domain.CreditPacks,
	collector *metrics.Collector,
	logger domain.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		ledger:  ledger,
		dedup:   dedup,
		journal: journal,
		packs:   packs,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
	}
}

// Apply updates the ledger for one billing event. An event with an id is
// applied at most once; a failed apply forgets the id so a redelivery can retry.
func (s *WebhookServiceImpl) Apply(ctx context.Context, event domain.BillingEvent) (domain.WebhookResult, error) {
	meta := event.Meta()

	if meta.ID != "" && s.dedup != nil {
		claimed, err := s.dedup.Claim(ctx, meta.ID)
		if err != nil {
			return "", fmt.Errorf("failed to claim webhook event: %w", err)
		}
		if !claimed {
			s.logger.Info("Duplicate webhook event ignored", "event_id", meta.ID, "type", meta.Type)
			s.metrics.WebhookEvent(meta.Type, string(domain.WebhookDuplicate))
			return domain.WebhookDuplicate, nil
		}
	}

	rec, err := s.apply(ctx, event)
	if err != nil {
		if meta.ID != "" && s.dedup != nil {
			if ferr := s.dedup.Forget(context.Background(), meta.ID); ferr != nil {
				s.logger.Error("Failed to forget webhook event", ferr, "event_id", meta.ID)
			}
		}
		s.metrics.WebhookEvent(meta.Type, "error")
		return "", err
	}

	s.metrics.WebhookEvent(meta.Type, rec.Result)
	if rec.Result == string(domain.WebhookApplied) && s.journal != nil {
		if err := s.journal.Record(ctx, rec); err != nil {
			s.logger.Warn("Failed to journal billing event", "event_id", meta.ID, "error", err.Error())
		}
	}
	return domain.WebhookResult(rec.Result), nil
}

func (s *WebhookServiceImpl) apply(ctx context.Context, event domain.BillingEvent) (domain.BillingEventRecord, error) {
	meta := event.Meta()
	rec := domain.BillingEventRecord{
		EventID:  meta.ID,
		Type:     meta.Type,
		DeviceID: meta.DeviceID,
	}

	switch e := event.(type) {
	case domain.CreditPurchase:
		rec.ProductID = e.ProductID
		credits := s.packs.Credits(e.ProductID)
		if credits <= 0 {
			// Subscription purchases arrive with the same event types.
			s.logger.Debug("Purchase is not a credit pack", "device_id", meta.DeviceID, "product_id", e.ProductID)
			rec.Result = string(domain.WebhookNoop)
			return rec, nil
		}
		balance, err := s.ledger.AddCredits(ctx, meta.DeviceID, credits)
		if err != nil {
			return rec, fmt.Errorf("failed to add credits: %w", err)
		}
		rec.Credits = credits
		rec.Result = string(domain.WebhookApplied)
		s.logger.Info("Credits added", "device_id", meta.DeviceID, "product_id", e.ProductID, "credits", credits, "balance", balance)

	case domain.SubscriptionRenewal:
		period := domain.PeriodKey(s.now())
		if err := s.ledger.ResetSubscriptionUsage(ctx, meta.DeviceID, period); err != nil {
			return rec, fmt.Errorf("failed to reset subscription usage: %w", err)
		}
		rec.Period = period
		rec.Result = string(domain.WebhookApplied)
		s.logger.Info("Subscription usage reset", "device_id", meta.DeviceID, "period", period)

	case domain.LifecycleEvent:
		rec.Result = string(domain.WebhookNoop)
		s.logger.Info("Lifecycle event acknowledged", "device_id", meta.DeviceID, "type", meta.Type)

	default:
		rec.Result = string(domain.WebhookIgnored)
		s.logger.Info("Unhandled webhook event type", "device_id", meta.DeviceID, "type", meta.Type)
	}
	return rec, nil
}

var _ domain.WebhookService = (*WebhookServiceImpl)(nil)
