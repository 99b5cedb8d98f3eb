package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizard-app/quizard-api/internal/domain"
)

// quotaIndicators are the substrings that classify an upstream error as quota
// exhaustion. The provider exposes no typed error for this today, so the
// match is on message text; keep the whole heuristic inside IsQuotaError so a
// typed check can replace it in one place.
var quotaIndicators = []string{
	"quota",
	"rate limit",
	"resource exhausted",
	"429",
}

// IsQuotaError reports whether err looks like a provider quota or rate limit
// failure. The check is case-insensitive and matches wrapped error text.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range quotaIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// GenerateFunc issues one generation attempt against the named model.
// The policy only chooses the model argument; streaming progress callbacks
// inside the attempt pass through to the caller untouched.
type GenerateFunc func(ctx context.Context, model string) ([]*domain.Question, error)

// ModelFallbackPolicy retries a generation exactly once on a cheaper model
// when the primary model reports quota exhaustion. Any other failure
// propagates immediately, and a quota failure on the fallback model is final:
// there is no third tier.
//
// The policy is stateless and safe to share across concurrent runs.
type ModelFallbackPolicy struct {
	primaryModel  string
	fallbackModel string
	logger        *slog.Logger
}

// NewModelFallbackPolicy creates a policy over the given model pair.
// Returns an error if either model name is empty.
func NewModelFallbackPolicy(primaryModel, fallbackModel string, logger *slog.Logger) (*ModelFallbackPolicy, error) {
	if primaryModel == "" {
		return nil, fmt.Errorf("%w: primary model cannot be empty", ErrInvalidConfig)
	}
	if fallbackModel == "" {
		return nil, fmt.Errorf("%w: fallback model cannot be empty", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ModelFallbackPolicy{
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		logger:        logger.With("component", "model_fallback_policy"),
	}, nil
}

// PrimaryModel returns the model used for first attempts.
func (p *ModelFallbackPolicy) PrimaryModel() string {
	return p.primaryModel
}

// FallbackModel returns the model used for the single quota retry.
func (p *ModelFallbackPolicy) FallbackModel() string {
	return p.fallbackModel
}

// ExecuteWithFallback runs fn against the primary model, retrying exactly
// once on the fallback model when the failure is quota-classified.
func (p *ModelFallbackPolicy) ExecuteWithFallback(
	ctx context.Context,
	fn GenerateFunc,
) ([]*domain.Question, error) {
	questions, err := fn(ctx, p.primaryModel)
	if err == nil {
		return questions, nil
	}

	if !IsQuotaError(err) {
		return nil, err
	}

	p.logger.Warn("primary model quota exhausted, retrying with fallback model",
		"primary_model", p.primaryModel,
		"fallback_model", p.fallbackModel,
		"error", err)

	questions, err = fn(ctx, p.fallbackModel)
	if err == nil {
		return questions, nil
	}

	if IsQuotaError(err) {
		// Both tiers exhausted; surface a classified error for the caller.
		return nil, fmt.Errorf("%w: fallback model %s: %v",
			ErrQuotaExceeded, p.fallbackModel, err)
	}

	return nil, err
}
