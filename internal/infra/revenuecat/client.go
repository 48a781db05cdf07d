package revenuecat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"genquota-server/internal/domain"
)

// LookupFailureObserver is notified when a status lookup degrades to "not subscribed".
type LookupFailureObserver interface {
	SubscriptionLookupFailed(reason string)
}

// Client checks active entitlements through the RevenueCat v2 API.
type Client struct {
	baseURL    string
	projectID  string
	apiKey     string
	httpClient *http.Client
	logger     domain.Logger
	observer   LookupFailureObserver
}

func NewClient(baseURL, projectID, apiKey string, timeout time.Duration, logger domain.Logger, observer LookupFailureObserver) *Client {
	return &Client{
		baseURL:    baseURL,
		projectID:  projectID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		observer:   observer,
	}
}

type activeEntitlementsResponse struct {
	Items []struct {
		EntitlementID string `json:"entitlement_id"`
		ExpiresAt     *int64 `json:"expires_at"`
	} `json:"items"`
}

// IsActive reports whether the device has any active entitlement. The only
// entitlement configured is "pro", so any item counts. Every failure is
// reported as not subscribed so users degrade to the credits and free tiers.
func (c *Client) IsActive(ctx context.Context, deviceID string) bool {
	if c.apiKey == "" || c.projectID == "" {
		return false
	}

	active, err := c.activeEntitlements(ctx, deviceID)
	if err != nil {
		c.logger.Warn("Subscription lookup failed, treating as not subscribed", "device_id", deviceID, "error", err.Error())
		if c.observer != nil {
			c.observer.SubscriptionLookupFailed(failureReason(err))
		}
		return false
	}
	return active
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("entitlements API returned status: %d", e.code)
}

func (c *Client) activeEntitlements(ctx context.Context, deviceID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v2/projects/%s/customers/%s/active_entitlements",
		c.baseURL, url.PathEscape(c.projectID), url.PathEscape(deviceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &statusError{code: resp.StatusCode}
	}

	var result activeEntitlementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return len(result.Items) > 0, nil
}

func failureReason(err error) string {
	if _, ok := err.(*statusError); ok {
		return "status"
	}
	return "transport"
}

var _ domain.SubscriptionStatusSource = (*Client)(nil)
