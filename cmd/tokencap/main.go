package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokencap/tokencap/cmd/tokencap/commands"
)

var (
	gatewayURL string
	project    string
	outputJSON bool
	verbose    bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tokencap",
		Short: "tokencap gateway admin CLI",
		Long: `Inspect and manage budgets, usage and model pricing on a running
tokencap gateway over its HTTP API.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if gatewayURL == "" {
				gatewayURL = os.Getenv("TOKENCAP_GATEWAY_URL")
			}
			if gatewayURL == "" {
				gatewayURL = "http://localhost:8080"
			}
			commands.SetGateway(gatewayURL, project)
			commands.SetOutputJSON(outputJSON)
			commands.SetVerbose(verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway-url", "", "gateway base URL (default http://localhost:8080, or TOKENCAP_GATEWAY_URL)")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "project ID (empty uses the gateway's default project)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(commands.NewBudgetCommand())
	rootCmd.AddCommand(commands.NewUsageCommand())
	rootCmd.AddCommand(commands.NewModelsCommand())
	rootCmd.AddCommand(commands.NewEstimateCommand())

	return rootCmd
}
