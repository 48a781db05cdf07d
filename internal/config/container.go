package config

import (
	"context"
	"fmt"

	"genquota-server/internal/domain"
	"genquota-server/internal/infra/redis"
	"genquota-server/internal/infra/revenuecat"
	"genquota-server/internal/infra/supabase"
	"genquota-server/internal/infra/vertexai"
	"genquota-server/internal/metrics"
	"genquota-server/internal/repository"
	"genquota-server/internal/service"

	goredis "github.com/go-redis/redis/v8"
)

// Container holds all application dependencies
type Container struct {
	Config  *AppConfig
	Logger  domain.Logger
	Metrics *metrics.Collector

	RedisClient *goredis.Client
	Provider    *vertexai.Provider

	UsageLedger        domain.UsageLedger
	ConcurrencyGate    domain.ConcurrencyGate
	EventDeduplicator  domain.EventDeduplicator
	BillingJournal     domain.BillingEventJournal
	SubscriptionSource domain.SubscriptionStatusSource

	EntitlementService domain.EntitlementService
	GenerationService  domain.GenerationService
	WebhookService     domain.WebhookService
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *AppConfig, logger domain.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	packs, err := LoadCreditPacks(cfg.GetCreditPacksFile())
	if err != nil {
		return nil, err
	}

	collector := metrics.New()

	redisClient, err := redis.NewClient(ctx, cfg.GetRedisURL(), logger)
	if err != nil {
		return nil, err
	}

	provider, err := vertexai.NewProvider(ctx, cfg.GetGCPProjectID(), cfg.GetGCPLocation(), cfg.GetGoogleCredentialsFile(), logger)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	// Initialize repositories
	ledger := repository.NewRedisUsageLedger(redisClient, cfg.GetSubUsageTTL(), logger)
	gate := repository.NewRedisConcurrencyGate(redisClient, cfg.GetLockTTL())
	dedup := repository.NewRedisEventDeduplicator(redisClient, cfg.GetWebhookDedupTTL())

	var journal domain.BillingEventJournal = repository.NoopBillingJournal{}
	supabaseClient, err := supabase.NewClient(cfg, logger)
	if err != nil {
		logger.Warn("Billing journal disabled", "error", err.Error())
	} else if supabaseClient != nil {
		journal = repository.NewSupabaseBillingJournal(supabaseClient, logger)
	}

	subscriptions := revenuecat.NewClient(
		cfg.GetRevenueCatBaseURL(),
		cfg.GetRevenueCatProjectID(),
		cfg.GetRevenueCatAPIKey(),
		cfg.GetSubscriptionCheckTimeout(),
		logger,
		collector,
	)
	if cfg.GetRevenueCatAPIKey() == "" {
		logger.Warn("REVENUECAT_API_KEY not set, every device is treated as not subscribed")
	}

	// Initialize services
	entitlementService := service.NewEntitlementService(ledger, subscriptions, cfg.GetLimits(), logger)
	generationService := service.NewGenerationService(
		ledger,
		gate,
		subscriptions,
		entitlementService,
		provider,
		cfg.GetModelCatalog(),
		cfg.GetLimits(),
		cfg.GetGenerationTimeout(),
		collector,
		logger,
	)
	webhookService := service.NewWebhookService(ledger, dedup, journal, packs, collector, logger)

	return &Container{
		Config:             cfg,
		Logger:             logger,
		Metrics:            collector,
		RedisClient:        redisClient,
		Provider:           provider,
		UsageLedger:        ledger,
		ConcurrencyGate:    gate,
		EventDeduplicator:  dedup,
		BillingJournal:     journal,
		SubscriptionSource: subscriptions,
		EntitlementService: entitlementService,
		GenerationService:  generationService,
		WebhookService:     webhookService,
	}, nil
}

// NewLedger opens only the usage ledger, for operator commands.
func NewLedger(ctx context.Context, cfg *AppConfig, logger domain.Logger) (domain.UsageLedger, func() error, error) {
	redisClient, err := redis.NewClient(ctx, cfg.GetRedisURL(), logger)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRedisUsageLedger(redisClient, cfg.GetSubUsageTTL(), logger), redisClient.Close, nil
}

// Close releases external clients.
func (c *Container) Close() error {
	var firstErr error
	if c.Provider != nil {
		if err := c.Provider.Close(); err != nil {
			firstErr = err
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
