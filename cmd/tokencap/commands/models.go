package commands

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tokencap/tokencap/internal/services/pricing"
)

// NewModelsCommand creates the pricing catalog command
func NewModelsCommand() *cobra.Command {
	var provider string
	var includeDeprecated, cheapest bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List priced models",
		Long:  "List the gateway's pricing catalog with per-million token prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cheapest {
				if provider == "" {
					return fmt.Errorf("--cheapest requires --provider")
				}
				var row pricing.ModelPricing
				endpoint := "/v1/models?provider=" + url.QueryEscape(provider) + "&cheapest=true"
				if err := getJSON(endpoint, &row); err != nil {
					return err
				}
				if outputJSON {
					OutputJSON(row)
					return nil
				}
				fmt.Printf("Cheapest %s model: %s\n", row.Provider, row.Model)
				fmt.Printf("Input: $%.2f/M tokens\n", row.InputPricePerM)
				fmt.Printf("Output: $%.2f/M tokens\n", row.OutputPricePerM)
				fmt.Printf("Context window: %d\n", row.ContextWindow)
				return nil
			}

			params := url.Values{}
			if provider != "" {
				params.Set("provider", provider)
			}
			if includeDeprecated {
				params.Set("deprecated", "true")
			}
			endpoint := "/v1/models"
			if enc := params.Encode(); enc != "" {
				endpoint += "?" + enc
			}

			var listing struct {
				Count  int                     `json:"count"`
				Models []*pricing.ModelPricing `json:"models"`
			}
			if err := getJSON(endpoint, &listing); err != nil {
				return err
			}

			if outputJSON {
				OutputJSON(listing)
				return nil
			}

			headers := []string{"Provider", "Model", "Input $/M", "Output $/M", "Context", "Max Output"}
			var rows [][]string
			for _, row := range listing.Models {
				model := row.Model
				if row.Deprecated {
					model += " (deprecated)"
				}
				rows = append(rows, []string{
					row.Provider,
					model,
					fmt.Sprintf("%.2f", row.InputPricePerM),
					fmt.Sprintf("%.2f", row.OutputPricePerM),
					strconv.Itoa(row.ContextWindow),
					strconv.Itoa(row.DefaultMaxOutput),
				})
			}
			OutputTable(headers, rows)
			fmt.Printf("\n%d models\n", listing.Count)

			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Filter by provider")
	cmd.Flags().BoolVar(&includeDeprecated, "deprecated", false, "Include deprecated models")
	cmd.Flags().BoolVar(&cheapest, "cheapest", false, "Show only the cheapest model (requires --provider)")

	return cmd
}
