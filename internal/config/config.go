package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"genquota-server/internal/domain"

	"gopkg.in/yaml.v3"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort               string
	LogLevel                 string
	LogFormat                string
	AppSecret                string
	RedisURL                 string
	RevenueCatAPIKey         string
	RevenueCatProjectID      string
	RevenueCatBaseURL        string
	WebhookSecret            string
	GCPProjectID             string
	GCPLocation              string
	GoogleCredentialsFile    string
	FreeLimit                int64
	SubMonthlyLimit          int64
	LockTTL                  time.Duration
	GenerationTimeout        time.Duration
	SubscriptionCheckTimeout time.Duration
	SubUsageTTL              time.Duration
	WebhookDedupTTL          time.Duration
	DefaultModel             string
	PremiumModels            []string
	CreditPacksFile          string
	MaxBodyBytes             int64
	SupabaseURL              string
	SupabaseKey              string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() *AppConfig {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:               getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:                 getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:                getEnvOrDefault("LOG_FORMAT", "json"),
		AppSecret:                getEnvOrDefault("APP_SECRET", ""),
		RedisURL:                 getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RevenueCatAPIKey:         getEnvOrDefault("REVENUECAT_API_KEY", ""),
		RevenueCatProjectID:      getEnvOrDefault("REVENUECAT_PROJECT_ID", ""),
		RevenueCatBaseURL:        getEnvOrDefault("REVENUECAT_BASE_URL", "https://api.revenuecat.com"),
		WebhookSecret:            getEnvOrDefault("REVENUECAT_WEBHOOK_SECRET", ""),
		GCPProjectID:             getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:              getEnvOrDefault("GCP_LOCATION", "us-central1"),
		GoogleCredentialsFile:    getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS_FILE", ""),
		FreeLimit:                getEnvInt64OrDefault("FREE_LIMIT", 5),
		SubMonthlyLimit:          getEnvInt64OrDefault("SUB_MONTHLY_LIMIT", 100),
		LockTTL:                  getEnvDurationOrDefault("LOCK_TTL", 120*time.Second),
		GenerationTimeout:        getEnvDurationOrDefault("GENERATION_TIMEOUT", 55*time.Second),
		SubscriptionCheckTimeout: getEnvDurationOrDefault("SUBSCRIPTION_CHECK_TIMEOUT", 5*time.Second),
		SubUsageTTL:              getEnvDurationOrDefault("SUB_USAGE_TTL", 45*24*time.Hour),
		WebhookDedupTTL:          getEnvDurationOrDefault("WEBHOOK_DEDUP_TTL", 7*24*time.Hour),
		DefaultModel:             getEnvOrDefault("DEFAULT_MODEL", domain.DefaultModel),
		PremiumModels:            getEnvListOrDefault("PREMIUM_MODELS", []string{"gemini-3-pro-image-preview"}),
		CreditPacksFile:          getEnvOrDefault("CREDIT_PACKS_FILE", ""),
		MaxBodyBytes:             getEnvInt64OrDefault("MAX_BODY_BYTES", 20*1024*1024), // 20MB default
		SupabaseURL:              getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:              getEnvOrDefault("SUPABASE_SERVICE_KEY", ""),
	}
}

// Validate rejects settings the service cannot run with
func (c *AppConfig) Validate() error {
	if c.FreeLimit < 0 {
		return fmt.Errorf("FREE_LIMIT must not be negative")
	}
	if c.SubMonthlyLimit <= 0 {
		return fmt.Errorf("SUB_MONTHLY_LIMIT must be positive")
	}
	for name, d := range map[string]time.Duration{
		"LOCK_TTL":                   c.LockTTL,
		"GENERATION_TIMEOUT":         c.GenerationTimeout,
		"SUBSCRIPTION_CHECK_TIMEOUT": c.SubscriptionCheckTimeout,
		"SUB_USAGE_TTL":              c.SubUsageTTL,
		"WEBHOOK_DEDUP_TTL":          c.WebhookDedupTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.GenerationTimeout >= c.LockTTL {
		return fmt.Errorf("GENERATION_TIMEOUT must be shorter than LOCK_TTL")
	}
	return nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns json or console
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetAppSecret returns the shared secret native clients send in X-App-Secret
func (c *AppConfig) GetAppSecret() string {
	return c.AppSecret
}

// GetRedisURL returns the Redis connection URL
func (c *AppConfig) GetRedisURL() string {
	return c.RedisURL
}

func (c *AppConfig) GetRevenueCatAPIKey() string {
	return c.RevenueCatAPIKey
}

func (c *AppConfig) GetRevenueCatProjectID() string {
	return c.RevenueCatProjectID
}

func (c *AppConfig) GetRevenueCatBaseURL() string {
	return strings.TrimRight(c.RevenueCatBaseURL, "/")
}

// GetWebhookSecret returns the bearer secret expected on billing webhooks
func (c *AppConfig) GetWebhookSecret() string {
	return c.WebhookSecret
}

func (c *AppConfig) GetGCPProjectID() string {
	return c.GCPProjectID
}

func (c *AppConfig) GetGCPLocation() string {
	return c.GCPLocation
}

func (c *AppConfig) GetGoogleCredentialsFile() string {
	return c.GoogleCredentialsFile
}

// GetLimits returns the free and subscription allowances
func (c *AppConfig) GetLimits() domain.Limits {
	return domain.Limits{FreeLimit: c.FreeLimit, SubMonthlyLimit: c.SubMonthlyLimit}
}

func (c *AppConfig) GetLockTTL() time.Duration {
	return c.LockTTL
}

func (c *AppConfig) GetGenerationTimeout() time.Duration {
	return c.GenerationTimeout
}

func (c *AppConfig) GetSubscriptionCheckTimeout() time.Duration {
	return c.SubscriptionCheckTimeout
}

func (c *AppConfig) GetSubUsageTTL() time.Duration {
	return c.SubUsageTTL
}

func (c *AppConfig) GetWebhookDedupTTL() time.Duration {
	return c.WebhookDedupTTL
}

// GetModelCatalog returns the default and subscriber-only models
func (c *AppConfig) GetModelCatalog() domain.ModelCatalog {
	return domain.ModelCatalog{Default: c.DefaultModel, Premium: c.PremiumModels}
}

func (c *AppConfig) GetCreditPacksFile() string {
	return c.CreditPacksFile
}

// GetMaxBodyBytes returns the maximum accepted request body size
func (c *AppConfig) GetMaxBodyBytes() int64 {
	return c.MaxBodyBytes
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

type creditPacksFile struct {
	CreditPacks map[string]int64 `yaml:"credit_packs"`
}

// LoadCreditPacks reads the product to credit-count table. An empty path yields the defaults.
func LoadCreditPacks(path string) (domain.CreditPacks, error) {
	if path == "" {
		return domain.DefaultCreditPacks(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credit packs: %w", err)
	}
	var f creditPacksFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credit packs: %w", err)
	}
	packs := make(domain.CreditPacks, len(f.CreditPacks))
	for product, credits := range f.CreditPacks {
		if credits <= 0 {
			return nil, fmt.Errorf("credit pack %q must grant a positive amount", product)
		}
		packs[product] = credits
	}
	return packs, nil
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
