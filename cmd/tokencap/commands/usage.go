package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tokencap/tokencap/internal/models"
)

// NewUsageCommand creates the usage reporting command
func NewUsageCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show usage summary and recent requests",
		Long:  "Show the project's aggregated spend and its most recent charged requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary models.UsageSummary
			if err := getJSON("/v1/usage", &summary); err != nil {
				return err
			}

			var history struct {
				ProjectID string               `json:"project_id"`
				Count     int                  `json:"count"`
				Records   []models.UsageRecord `json:"records"`
			}
			endpoint := "/v1/usage/history"
			if limit > 0 {
				endpoint += fmt.Sprintf("?limit=%d", limit)
			}
			if err := getJSON(endpoint, &history); err != nil {
				return err
			}

			if outputJSON {
				OutputJSON(map[string]interface{}{
					"summary": summary,
					"records": history.Records,
				})
				return nil
			}

			fmt.Printf("Usage for project %s:\n", summary.ProjectID)
			fmt.Printf("Requests: %d\n", summary.TotalRequests)
			fmt.Printf("Input tokens: %d\n", summary.TotalInputTokens)
			fmt.Printf("Output tokens: %d\n", summary.TotalOutputTokens)
			fmt.Printf("Total cost: $%.6f\n", summary.TotalCostUsd)

			if summary.BudgetLimitUsd != nil {
				fmt.Printf("Budget: $%.2f\n", *summary.BudgetLimitUsd)
				if summary.BudgetSpentUsd != nil {
					fmt.Printf("Budget spent: $%.6f\n", *summary.BudgetSpentUsd)
				}
				if summary.BudgetRemaining != nil {
					fmt.Printf("Budget remaining: $%.6f\n", *summary.BudgetRemaining)
				}
			}

			if len(history.Records) == 0 {
				return nil
			}

			fmt.Println()
			headers := []string{"Date", "Provider", "Model", "Input", "Output", "Cost"}
			var rows [][]string
			for _, rec := range history.Records {
				rows = append(rows, []string{
					rec.CreatedAt.Format("2006-01-02 15:04"),
					rec.Provider,
					rec.Model,
					strconv.Itoa(rec.InputTokens),
					strconv.Itoa(rec.OutputTokens),
					fmt.Sprintf("$%.6f", rec.CostUsd),
				})
			}
			OutputTable(headers, rows)

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of recent requests to list (default 50, max 1000)")

	return cmd
}
