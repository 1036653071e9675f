package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tokencap/tokencap/internal/services/estimator"
)

// NewEstimateCommand creates the dry-run pricing command
func NewEstimateCommand() *cobra.Command {
	var provider, model string
	var inputTokens, maxTokens int

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price a hypothetical request",
		Long: `Build a synthetic request of roughly --input-tokens prompt tokens and
ask the gateway what it would cost. Nothing is forwarded upstream and
nothing is charged; the reported token count is the gateway's own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputTokens <= 0 {
				return fmt.Errorf("input-tokens must be positive")
			}
			if provider != "openai" && provider != "anthropic" {
				return fmt.Errorf("provider must be 'openai' or 'anthropic'")
			}

			body := map[string]interface{}{
				"provider": provider,
				"request":  syntheticRequest(model, inputTokens, maxTokens),
			}

			resp, err := APIRequest(http.MethodPost, "/v1/estimate", body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var result struct {
				Estimate *estimator.CostEstimate `json:"estimate"`
				Budget   *struct {
					RemainingUsd float64 `json:"remainingUsd"`
					WouldExceed  bool    `json:"wouldExceed"`
				} `json:"budget"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			if outputJSON {
				OutputJSON(result)
				return nil
			}

			est := result.Estimate
			fmt.Printf("Model: %s (priced as %s)\n", est.Model, est.ResolvedModel)
			fmt.Printf("Input tokens: %d\n", est.InputTokens)
			fmt.Printf("Estimated output tokens: %d\n", est.EstimatedOutputTokens)
			fmt.Printf("Input cost: $%.6f\n", est.InputCostUsd)
			fmt.Printf("Output cost: $%.6f\n", est.OutputCostUsd)
			fmt.Printf("Total: $%.6f\n", est.TotalCostUsd)
			fmt.Printf("Confidence: %s\n", est.Confidence)
			if est.PricingFallback {
				fmt.Printf("Pricing: fallback row (model not in catalog)\n")
			}
			if result.Budget != nil {
				fmt.Printf("Budget remaining: $%.6f\n", result.Budget.RemainingUsd)
				fmt.Printf("Would exceed: %v\n", result.Budget.WouldExceed)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "openai", "Request shape (openai or anthropic)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model name")
	cmd.Flags().IntVar(&inputTokens, "input-tokens", 0, "Approximate prompt size in tokens")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max_tokens the request would carry")

	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("input-tokens")

	return cmd
}

// syntheticRequest fabricates a provider-shaped body whose prompt counts
// to roughly n tokens. Both request shapes accept the same model,
// messages, and max_tokens fields for a plain text prompt.
func syntheticRequest(model string, n, maxTokens int) map[string]interface{} {
	text := strings.TrimSpace(strings.Repeat("token ", n))
	req := map[string]interface{}{
		"model": model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": text},
		},
	}
	if maxTokens > 0 {
		req["max_tokens"] = maxTokens
	}
	return req
}
