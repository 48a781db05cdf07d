package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"genquota-server/internal/domain"
	"genquota-server/internal/metrics"
)

// releaseTimeout bounds the lock release that runs after the request context may be gone.
const releaseTimeout = 5 * time.Second

const defaultImageMimeType = "image/png"

type GenerationServiceImpl struct {
	ledger        domain.UsageLedger
	gate          domain.ConcurrencyGate
	subscriptions domain.SubscriptionStatusSource
	entitlements  domain.EntitlementService
	provider      domain.GenerationProvider
	catalog       domain.ModelCatalog
	limits        domain.Limits
	timeout       time.Duration
	metrics       *metrics.Collector
	logger        domain.Logger
	now           func() time.Time
}

func NewGenerationService(
	ledger domain.UsageLedger,
	gate domain.ConcurrencyGate,
	subscriptions domain.SubscriptionStatusSource,
	entitlements domain.EntitlementService,
	provider domain.GenerationProvider,
	catalog domain.ModelCatalog,
	limits domain.Limits,
	timeout time.Duration,
	collector *metrics.Collector,
	logger domain.Logger,
) *GenerationServiceImpl {
	return &GenerationServiceImpl{
		ledger:        ledger,
		gate:          gate,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		provider:      provider,
		catalog:       catalog,
		limits:        limits,
		timeout:       timeout,
		metrics:       collector,
		logger:        logger,
		now:           time.Now,
	}
}

// Generate runs one generation attempt. The device is charged only when the
// provider returns content, and the concurrency gate is released on every path.
func (s *GenerationServiceImpl) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	images, err := validateGenerationRequest(&req)
	if err != nil {
		return nil, err
	}

	model := s.catalog.Resolve(req.ModelName)
	subscribed := s.subscriptions.IsActive(ctx, req.DeviceID)
	if !s.catalog.ModelAllowed(model, subscribed) {
		s.metrics.PremiumRejected()
		return nil, domain.ErrPremiumModelForbidden
	}

	acquired, err := s.gate.Acquire(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !acquired {
		s.metrics.ConcurrencyConflict()
		s.logger.Info("Generation already in progress", "device_id", req.DeviceID)
		return nil, domain.ErrConcurrencyConflict
	}
	defer s.release(req.DeviceID)

	decision, err := s.entitlements.Decide(ctx, req.DeviceID, subscribed)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.metrics.QuotaDenied()
		return nil, &domain.QuotaExhaustedError{Quota: domain.NewQuotaSnapshot(decision.Counters, s.limits)}
	}

	started := s.now()
	outcome := s.callProvider(ctx, domain.ProviderRequest{
		Model:       model,
		Prompt:      req.Prompt,
		Images:      images,
		AspectRatio: req.AspectRatio,
	})
	s.metrics.ObserveGeneration(outcome.Label(), string(decision.Tier), s.now().Sub(started))

	switch o := outcome.(type) {
	case domain.OutcomeSuccess:
		return s.charge(ctx, req.DeviceID, decision, o)
	case domain.OutcomeSafetyRejected:
		s.logger.Info("Generation rejected by content policy", "device_id", req.DeviceID, "reason", o.Reason)
		return &domain.GenerationResult{
			SafetyBlock: true,
			Reason:      o.Reason,
			Tier:        decision.Tier,
			Quota:       domain.NewQuotaSnapshot(decision.Counters, s.limits),
		}, nil
	case domain.OutcomeEmpty:
		s.logger.Warn("Model returned no content", "device_id", req.DeviceID, "model", model)
		return nil, domain.ErrProviderEmpty
	case domain.OutcomeTimeout:
		s.logger.Warn("Generation timed out", "device_id", req.DeviceID, "model", model, "timeout", s.timeout.String())
		return nil, domain.ErrProviderTimeout
	case domain.OutcomeProviderError:
		s.logger.Error("Generation provider failed", o.Err, "device_id", req.DeviceID, "model", model)
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, o.Err)
	default:
		return nil, fmt.Errorf("%w: unexpected outcome %T", domain.ErrProviderFailure, outcome)
	}
}

func (s *GenerationServiceImpl) callProvider(ctx context.Context, req domain.ProviderRequest) domain.Outcome {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(genCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return domain.OutcomeTimeout{}
		}
		return domain.OutcomeProviderError{Err: err}
	}
	if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return domain.OutcomeTimeout{}
	}
	return classifyOutcome(resp)
}

// classifyOutcome maps a provider response onto an outcome. Content-policy
// reasons win over any content that came back with them.
func classifyOutcome(resp *domain.ProviderResponse) domain.Outcome {
	if resp == nil {
		return domain.OutcomeEmpty{}
	}
	if domain.IsSafetyReason(resp.BlockReason) {
		return domain.OutcomeSafetyRejected{Reason: strings.ToUpper(resp.BlockReason)}
	}
	if domain.IsSafetyReason(resp.FinishReason) {
		return domain.OutcomeSafetyRejected{Reason: strings.ToUpper(resp.FinishReason)}
	}

	var success domain.OutcomeSuccess
	for _, part := range resp.Parts {
		switch {
		case len(part.Data) > 0:
			mime := part.MimeType
			if mime == "" {
				mime = defaultImageMimeType
			}
			success.ImageURL = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.Data)
		case part.Text != "":
			success.Text = part.Text
		}
	}
	if success.ImageURL == "" && success.Text == "" {
		return domain.OutcomeEmpty{}
	}
	return success
}

func (s *GenerationServiceImpl) charge(ctx context.Context, deviceID string, decision domain.EntitlementDecision, o domain.OutcomeSuccess) (*domain.GenerationResult, error) {
	period := domain.PeriodKey(s.now())

	if err := s.ledger.Charge(ctx, deviceID, period, decision.Tier); err != nil {
		if !errors.Is(err, domain.ErrInsufficientCredits) {
			return nil, fmt.Errorf("failed to charge generation: %w", err)
		}
		// Balance was spent elsewhere between the decision and the charge.
		s.logger.Warn("Credit balance already empty at charge time", "device_id", deviceID)
	}

	counters, err := s.ledger.Read(ctx, deviceID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}

	s.logger.Info("Generation completed", "device_id", deviceID, "tier", string(decision.Tier))
	return &domain.GenerationResult{
		ImageURL: o.ImageURL,
		Text:     o.Text,
		Tier:     decision.Tier,
		Quota:    domain.NewQuotaSnapshot(counters, s.limits),
	}, nil
}

func (s *GenerationServiceImpl) release(deviceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := s.gate.Release(ctx, deviceID); err != nil {
		s.logger.Error("Failed to release generation lock", err, "device_id", deviceID)
	}
}

// validateGenerationRequest decodes the images and normalizes the device id in place.
func validateGenerationRequest(req *domain.GenerationRequest) ([]domain.ProviderImage, error) {
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" || strings.TrimSpace(req.Prompt) == "" || req.Images == nil {
		return nil, &domain.ValidationError{Message: "Missing required fields"}
	}

	images := make([]domain.ProviderImage, 0, len(req.Images))
	for i, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, &domain.ValidationError{
				Field:   fmt.Sprintf("imageData[%d]", i),
				Message: "invalid base64 image data",
			}
		}
		images = append(images, domain.ProviderImage{MimeType: img.MimeType, Data: data})
	}
	return images, nil
}

var _ domain.GenerationService = (*GenerationServiceImpl)(nil)
