package domain

import "strings"

// DefaultModel is used when the client does not name one.
const DefaultModel = "gemini-2.5-flash-image"

// ModelCatalog knows which models are reserved for subscribers.
type ModelCatalog struct {
	Default string
	Premium []string
}

// Resolve returns the model to use for a requested name.
func (c ModelCatalog) Resolve(requested string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	if c.Default != "" {
		return c.Default
	}
	return DefaultModel
}

// IsPremium reports whether the model requires an active subscription.
func (c ModelCatalog) IsPremium(model string) bool {
	for _, p := range c.Premium {
		if p == model {
			return true
		}
	}
	return false
}

// ModelAllowed returns whether a caller with the given subscription state may use model.
func (c ModelCatalog) ModelAllowed(model string, subscribed bool) bool {
	return subscribed || !c.IsPremium(model)
}
