package supabase

import (
	"fmt"

	"genquota-server/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// NewClient creates a Supabase client for the billing journal.
// It returns nil without error when Supabase is not configured.
func NewClient(config domain.Config, logger domain.Logger) (*supabase.Client, error) {
	supabaseURL := config.GetSupabaseURL()
	supabaseKey := config.GetSupabaseKey()

	if supabaseURL == "" || supabaseKey == "" {
		logger.Info("Supabase not configured, billing journal disabled")
		return nil, nil
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	logger.Info("Supabase client initialized successfully", "url", supabaseURL)
	return client, nil
}
