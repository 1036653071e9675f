package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokencap/tokencap/internal/services/pricing"
	"github.com/tokencap/tokencap/internal/services/providers"
	"github.com/tokencap/tokencap/internal/services/tokenizer"
)

func intPtr(v int) *int {
	return &v
}

func newEstimator() *Estimator {
	return New(pricing.Default(), 4096)
}

func TestEstimateKnownModelWithCap(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   intPtr(50),
		InputTokens: 100,
	})

	assert.Equal(t, "openai/gpt-4o-mini", est.ResolvedModel)
	assert.Equal(t, 100, est.InputTokens)
	assert.Equal(t, 37, est.EstimatedOutputTokens)
	assert.Equal(t, tokenizer.ConfidenceHigh, est.Confidence)
	assert.False(t, est.PricingFallback)

	assert.InDelta(t, 0.000015, est.InputCostUsd, 1e-12)
	assert.InDelta(t, 37*0.60/1e6, est.OutputCostUsd, 1e-12)
	assert.InDelta(t, est.InputCostUsd+est.OutputCostUsd, est.TotalCostUsd, 1e-9)
}

func TestEstimateWithoutCapUsesModelDefault(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		InputTokens: 10,
	})

	// gpt-4o-mini documents a 16384 generation cap; estimate is half.
	assert.Equal(t, 8192, est.EstimatedOutputTokens)
	assert.Equal(t, tokenizer.ConfidenceMedium, est.Confidence)
}

func TestEstimateUnknownModelFallsBack(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderOpenAI,
		Model:       "experimental-model-x",
		MaxTokens:   intPtr(100),
		InputTokens: 10,
	})

	assert.True(t, est.PricingFallback)
	assert.Equal(t, tokenizer.ConfidenceLow, est.Confidence)
	assert.Equal(t, "openai/gpt-4o", est.ResolvedModel)
	assert.Positive(t, est.TotalCostUsd)
}

func TestEstimateAnthropicCapsConfidence(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderAnthropic,
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   intPtr(1000),
		InputTokens: 200,
	})

	// A client cap would normally mean high confidence, but the
	// Anthropic count is approximate.
	assert.Equal(t, tokenizer.ConfidenceMedium, est.Confidence)
	assert.False(t, est.PricingFallback)
}

func TestEstimateZeroTokensZeroCost(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   intPtr(1),
		InputTokens: 0,
	})

	assert.Zero(t, est.InputCostUsd)
	assert.Equal(t, 1, est.EstimatedOutputTokens)
}

func TestActualCostUsesResolvedRow(t *testing.T) {
	e := newEstimator()

	est := e.Estimate(&providers.ParsedRequest{
		Provider:    providers.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   intPtr(50),
		InputTokens: 100,
	})
	require.NotNil(t, est.Row)

	cost := e.ActualCost(est, 100, 50)
	assert.InDelta(t, 0.000045, cost.TotalUsd, 1e-12)
}
