package service

import (
	"context"
	"fmt"
	"time"

	"genquota-server/internal/domain"

	"golang.org/x/sync/errgroup"
)

type EntitlementServiceImpl struct {
	ledger        domain.UsageLedger
	subscriptions domain.SubscriptionStatusSource
	limits        domain.Limits
	logger        domain.Logger
	now           func() time.Time
}

func NewEntitlementService(
	ledger domain.UsageLedger,
	subscriptions domain.SubscriptionStatusSource,
	limits domain.Limits,
	logger domain.Logger,
) *EntitlementServiceImpl {
	return &EntitlementServiceImpl{
		ledger:        ledger,
		subscriptions: subscriptions,
		limits:        limits,
		logger:        logger,
		now:           time.Now,
	}
}

// Resolve reads the counters and the subscription status concurrently and
// applies the tier precedence.
func (s *EntitlementServiceImpl) Resolve(ctx context.Context, deviceID string) (domain.EntitlementDecision, error) {
	counters, subscribed, err := s.load(ctx, deviceID)
	if err != nil {
		return domain.EntitlementDecision{}, err
	}
	return domain.DecideEntitlement(counters, subscribed, s.limits), nil
}

// Decide is Resolve with a subscription status the caller already looked up.
func (s *EntitlementServiceImpl) Decide(ctx context.Context, deviceID string, subscribed bool) (domain.EntitlementDecision, error) {
	counters, err := s.ledger.Read(ctx, deviceID, s.period())
	if err != nil {
		return domain.EntitlementDecision{}, fmt.Errorf("failed to read usage: %w", err)
	}
	return domain.DecideEntitlement(counters, subscribed, s.limits), nil
}

func (s *EntitlementServiceImpl) Status(ctx context.Context, deviceID string) (*domain.StatusReport, error) {
	counters, subscribed, err := s.load(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return &domain.StatusReport{
		FreeUsed:  counters.FreeUsed,
		FreeLimit: s.limits.FreeLimit,
		Credits:   counters.Credits,
		Subscription: domain.SubscriptionStatus{
			Active:         subscribed,
			Used:           counters.SubUsed,
			Limit:          s.limits.SubMonthlyLimit,
			ProModelAccess: subscribed,
		},
	}, nil
}

func (s *EntitlementServiceImpl) load(ctx context.Context, deviceID string) (domain.UsageCounters, bool, error) {
	var (
		counters   domain.UsageCounters
		subscribed bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.ledger.Read(gctx, deviceID, s.period())
		if err != nil {
			return fmt.Errorf("failed to read usage: %w", err)
		}
		counters = c
		return nil
	})
	g.Go(func() error {
		subscribed = s.subscriptions.IsActive(gctx, deviceID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.UsageCounters{}, false, err
	}
	return counters, subscribed, nil
}

func (s *EntitlementServiceImpl) period() string {
	return domain.PeriodKey(s.now())
}

var _ domain.EntitlementService = (*EntitlementServiceImpl)(nil)
