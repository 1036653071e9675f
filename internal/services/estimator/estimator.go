// Package estimator turns a parsed request into a pre-execution cost
// estimate by combining the token counts with a pricing lookup.
package estimator

import (
	"github.com/tokencap/tokencap/internal/services/pricing"
	"github.com/tokencap/tokencap/internal/services/providers"
	"github.com/tokencap/tokencap/internal/services/tokenizer"
)

// CostEstimate is the admission currency: everything the budget
// controller and the response headers need, computed before any
// upstream byte is sent.
type CostEstimate struct {
	Provider              string               `json:"provider"`
	Model                 string               `json:"model"`
	ResolvedModel         string               `json:"resolvedModel"`
	InputTokens           int                  `json:"inputTokens"`
	EstimatedOutputTokens int                  `json:"estimatedOutputTokens"`
	InputCostUsd          float64              `json:"inputCostUsd"`
	OutputCostUsd         float64              `json:"outputCostUsd"`
	TotalCostUsd          float64              `json:"totalCostUsd"`
	Confidence            tokenizer.Confidence `json:"confidence"`
	PricingFallback       bool                 `json:"pricingFallback,omitempty"`

	// Row is the resolved pricing row, kept for follow-up math
	// (actual-cost pricing, safe-max-tokens advisories).
	Row *pricing.ModelPricing `json:"-"`
}

// Estimator is stateless; it owns no encoder or ledger handles.
type Estimator struct {
	catalog          *pricing.Catalog
	defaultMaxTokens int
}

// New builds an estimator against a catalog. defaultMaxTokens backs the
// output estimate when neither the request nor the catalog offers a cap.
func New(catalog *pricing.Catalog, defaultMaxTokens int) *Estimator {
	return &Estimator{
		catalog:          catalog,
		defaultMaxTokens: defaultMaxTokens,
	}
}

// Estimate prices a parsed request. It never fails: unknown models ride
// the fallback row at low confidence.
func (e *Estimator) Estimate(parsed *providers.ParsedRequest) *CostEstimate {
	row, fellBack := e.catalog.Resolve(parsed.Provider, parsed.Model)

	outputTokens, confidence := tokenizer.EstimateOutput(parsed.MaxTokens, row.DefaultMaxOutput, e.defaultMaxTokens)

	knownModel := tokenizer.ConfidenceHigh
	if fellBack {
		knownModel = tokenizer.ConfidenceLow
	}
	confidence = tokenizer.MinConfidence(confidence, knownModel)

	// The Anthropic count is a cl100k approximation, never high.
	if parsed.Provider == providers.ProviderAnthropic {
		confidence = tokenizer.MinConfidence(confidence, tokenizer.ConfidenceMedium)
	}

	cost := e.catalog.Calculate(row, parsed.InputTokens, outputTokens)

	return &CostEstimate{
		Provider:              parsed.Provider,
		Model:                 parsed.Model,
		ResolvedModel:         row.Key(),
		InputTokens:           parsed.InputTokens,
		EstimatedOutputTokens: outputTokens,
		InputCostUsd:          cost.InputUsd,
		OutputCostUsd:         cost.OutputUsd,
		TotalCostUsd:          cost.TotalUsd,
		Confidence:            confidence,
		PricingFallback:       fellBack,
		Row:                   row,
	}
}

// ActualCost prices a reported usage pair against the same row the
// estimate resolved, so estimate and charge can never disagree on price.
func (e *Estimator) ActualCost(est *CostEstimate, inputTokens, outputTokens int) pricing.Cost {
	return e.catalog.Calculate(est.Row, inputTokens, outputTokens)
}
