package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokencap/tokencap/internal/models"
)

// NewBudgetCommand creates the budget management command
func NewBudgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage project budgets",
		Long:  "View, set, reset, and delete the spend budget for a project",
	}

	cmd.AddCommand(newBudgetStatusCommand())
	cmd.AddCommand(newBudgetSetCommand())
	cmd.AddCommand(newBudgetResetCommand())
	cmd.AddCommand(newBudgetDeleteCommand())

	return cmd
}

func newBudgetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show budget status",
		Long:  "Show the limit, accumulated spend, and period of the project's budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			var b models.Budget
			if err := getJSON("/v1/budget", &b); err != nil {
				return err
			}
			printBudget(&b)
			return nil
		},
	}
}

func newBudgetSetCommand() *cobra.Command {
	var limit float64
	var periodDays int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set budget",
		Long:  "Create or replace the project budget; accumulated spend survives the update",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("limit must be positive")
			}

			body := map[string]interface{}{
				"limitUsd": limit,
			}
			if projectID != "" {
				body["projectId"] = projectID
			}
			if periodDays > 0 {
				body["periodDays"] = periodDays
			}

			resp, err := APIRequest(http.MethodPost, "/v1/budget", body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			fmt.Printf("Budget set for %s: $%.2f\n", projectLabel(), limit)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&limit, "limit", "l", 0, "Budget limit in USD")
	cmd.Flags().IntVar(&periodDays, "period-days", 0, "Budget period in days (0 = open-ended)")

	_ = cmd.MarkFlagRequired("limit")

	return cmd
}

func newBudgetResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset budget spend",
		Long:  "Zero the accumulated spend and restart the period; usage history is kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := APIRequest(http.MethodPost, "/v1/budget/reset", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			fmt.Printf("Budget reset for %s\n", projectLabel())
			return nil
		},
	}
}

func newBudgetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete budget",
		Long:  "Remove the project budget entirely; requests for the project are admitted unconditionally afterwards",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := APIRequest(http.MethodDelete, "/v1/budget", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				return apiError(resp)
			}

			fmt.Printf("Budget deleted for %s\n", projectLabel())
			return nil
		},
	}
}

func printBudget(b *models.Budget) {
	if outputJSON {
		OutputJSON(b)
		return
	}

	fmt.Printf("Project: %s\n", b.ProjectID)
	fmt.Printf("Limit: $%.2f\n", b.LimitUsd)
	fmt.Printf("Spent: $%.6f\n", b.SpentUsd)
	fmt.Printf("Remaining: $%.6f\n", b.Remaining())
	fmt.Printf("Utilization: %.1f%%\n", b.UtilizationPercent())
	fmt.Printf("Period start: %s\n", b.PeriodStart.Format("2006-01-02 15:04:05"))
	if b.PeriodEnd != nil {
		fmt.Printf("Period end: %s\n", b.PeriodEnd.Format("2006-01-02 15:04:05"))
		fmt.Printf("Expired: %v\n", b.IsExpired(time.Now()))
	} else {
		fmt.Printf("Period end: none\n")
	}
}
