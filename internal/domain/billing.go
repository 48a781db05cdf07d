package domain

import "strings"

// Billing provider event types.
const (
	EventNonRenewingPurchase = "NON_RENEWING_PURCHASE"
	EventInitialPurchase     = "INITIAL_PURCHASE"
	EventRenewal             = "RENEWAL"
	EventSubscriberAlias     = "SUBSCRIBER_ALIAS"
	EventTransfer            = "TRANSFER"
)

// WebhookPayload is the raw body posted by the billing provider.
type WebhookPayload struct {
	APIVersion string       `json:"api_version,omitempty"`
	Event      WebhookEvent `json:"event"`
}

// WebhookEvent is the event envelope inside a webhook payload.
type WebhookEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	AppUserID string `json:"app_user_id"`
	ProductID string `json:"product_id"`
}

// BillingEvent is a parsed webhook event. Implementations: CreditPurchase,
// SubscriptionRenewal, LifecycleEvent and UnknownEvent.
type BillingEvent interface {
	billingEvent()
	Meta() EventMeta
}

// EventMeta carries the fields every event has.
type EventMeta struct {
	ID       string
	Type     string
	DeviceID string
}

type CreditPurchase struct {
	EventMeta
	ProductID string
}

type SubscriptionRenewal struct {
	EventMeta
}

// LifecycleEvent is an aliasing or transfer event that needs no ledger change.
type LifecycleEvent struct {
	EventMeta
}

type UnknownEvent struct {
	EventMeta
}

func (CreditPurchase) billingEvent()      {}
func (SubscriptionRenewal) billingEvent() {}
func (LifecycleEvent) billingEvent()      {}
func (UnknownEvent) billingEvent()        {}

func (e EventMeta) Meta() EventMeta { return e }

// ParseBillingEvent validates a webhook payload and maps it onto a BillingEvent.
func ParseBillingEvent(p WebhookPayload) (BillingEvent, error) {
	meta := EventMeta{
		ID:       strings.TrimSpace(p.Event.ID),
		Type:     strings.TrimSpace(p.Event.Type),
		DeviceID: strings.TrimSpace(p.Event.AppUserID),
	}
	if meta.Type == "" || meta.DeviceID == "" {
		return nil, ErrInvalidWebhookPayload
	}

	switch meta.Type {
	case EventNonRenewingPurchase, EventInitialPurchase:
		return CreditPurchase{EventMeta: meta, ProductID: strings.TrimSpace(p.Event.ProductID)}, nil
	case EventRenewal:
		return SubscriptionRenewal{EventMeta: meta}, nil
	case EventSubscriberAlias, EventTransfer:
		return LifecycleEvent{EventMeta: meta}, nil
	default:
		return UnknownEvent{EventMeta: meta}, nil
	}
}

// CreditPacks maps a consumable product id to the credits it grants.
type CreditPacks map[string]int64

// DefaultCreditPacks is used when no credit-pack file is configured.
func DefaultCreditPacks() CreditPacks {
	return CreditPacks{"credits_25": 25}
}

// Credits returns the credits for a product, or 0 when it is not a credit pack.
func (p CreditPacks) Credits(productID string) int64 {
	return p[productID]
}

// WebhookResult describes what ingestion did with an event.
type WebhookResult string

const (
	WebhookApplied   WebhookResult = "applied"
	WebhookNoop      WebhookResult = "noop"
	WebhookDuplicate WebhookResult = "duplicate"
	WebhookIgnored   WebhookResult = "ignored"
)

// BillingEventRecord is the journal entry written for an applied event.
type BillingEventRecord struct {
	EventID   string `json:"event_id,omitempty"`
	Type      string `json:"type"`
	DeviceID  string `json:"device_id"`
	ProductID string `json:"product_id,omitempty"`
	Credits   int64  `json:"credits"`
	Period    string `json:"period,omitempty"`
	Result    string `json:"result"`
}
