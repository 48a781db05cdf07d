package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"genquota-server/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MockLogger) Info(msg string, args ...interface{})             { m.record(msg) }
func (m *MockLogger) Error(msg string, err error, args ...interface{}) { m.record(msg) }
func (m *MockLogger) Debug(msg string, args ...interface{})            { m.record(msg) }
func (m *MockLogger) Warn(msg string, args ...interface{})             { m.record(msg) }

// mockLedger is an in-memory UsageLedger keyed by CounterKey.String().
type mockLedger struct {
	mu       sync.Mutex
	values   map[string]int64
	charges  []domain.Tier
	readErr  error
	writeErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{values: make(map[string]int64)}
}

func (m *mockLedger) set(key domain.CounterKey, v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key.String()] = v
}

func (m *mockLedger) get(key domain.CounterKey) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key.String()]
}

func (m *mockLedger) chargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.charges)
}

func (m *mockLedger) Read(ctx context.Context, deviceID, period string) (domain.UsageCounters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return domain.UsageCounters{}, m.readErr
	}
	return domain.UsageCounters{
		FreeUsed: m.values[domain.FreeKey(deviceID).String()],
		Credits:  m.values[domain.CreditsKey(deviceID).String()],
		SubUsed:  m.values[domain.SubscriptionKey(deviceID, period).String()],
	}, nil
}

func (m *mockLedger) Increment(ctx context.Context, key domain.CounterKey, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.values[key.String()] += delta
	return m.values[key.String()], nil
}

func (m *mockLedger) SetWithExpiry(ctx context.Context, key domain.CounterKey, value int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.values[key.String()] = value
	return nil
}

func (m *mockLedger) Charge(ctx context.Context, deviceID, period string, tier domain.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.charges = append(m.charges, tier)
	switch tier {
	case domain.TierSubscription:
		m.values[domain.SubscriptionKey(deviceID, period).String()]++
	case domain.TierCredits:
		key := domain.CreditsKey(deviceID).String()
		if m.values[key] <= 0 {
			return domain.ErrInsufficientCredits
		}
		m.values[key]--
	default:
		m.values[domain.FreeKey(deviceID).String()]++
	}
	return nil
}

func (m *mockLedger) AddCredits(ctx context.Context, deviceID string, credits int64) (int64, error) {
	return m.Increment(ctx, domain.CreditsKey(deviceID), credits)
}

func (m *mockLedger) ResetSubscriptionUsage(ctx context.Context, deviceID, period string) error {
	return m.SetWithExpiry(ctx, domain.SubscriptionKey(deviceID, period), 0, 45*24*time.Hour)
}

type mockGate struct {
	mu         sync.Mutex
	held       map[string]bool
	acquires   int
	releases   int
	acquireErr error
}

func newMockGate() *mockGate {
	return &mockGate{held: make(map[string]bool)}
}

func (g *mockGate) Acquire(ctx context.Context, deviceID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.held[deviceID] {
		return false, nil
	}
	g.held[deviceID] = true
	g.acquires++
	return true, nil
}

func (g *mockGate) Release(ctx context.Context, deviceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, deviceID)
	g.releases++
	return nil
}

func (g *mockGate) isHeld(deviceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[deviceID]
}

type mockSubscriptions struct {
	active map[string]bool
	calls  int
	mu     sync.Mutex
}

func newMockSubscriptions(active ...string) *mockSubscriptions {
	m := &mockSubscriptions{active: make(map[string]bool)}
	for _, id := range active {
		m.active[id] = true
	}
	return m
}

func (m *mockSubscriptions) IsActive(ctx context.Context, deviceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.active[deviceID]
}

type mockProvider struct {
	generate func(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderResponse, error)
	requests []domain.ProviderRequest
}

func (m *mockProvider) Generate(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderResponse, error) {
	m.requests = append(m.requests, req)
	return m.generate(ctx, req)
}

func imageResponse() *domain.ProviderResponse {
	return &domain.ProviderResponse{
		FinishReason: "STOP",
		Parts:        []domain.ProviderPart{{MimeType: "image/png", Data: []byte("png-bytes")}},
	}
}

type mockDedup struct {
	seen     map[string]bool
	claimErr error
}

func newMockDedup() *mockDedup {
	return &mockDedup{seen: make(map[string]bool)}
}

func (m *mockDedup) Claim(ctx context.Context, eventID string) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *mockDedup) Forget(ctx context.Context, eventID string) error {
	delete(m.seen, eventID)
	return nil
}

type mockJournal struct {
	records []domain.BillingEventRecord
	err     error
}

func (m *mockJournal) Record(ctx context.Context, rec domain.BillingEventRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

var errStoreDown = errors.New("redis: connection refused")
