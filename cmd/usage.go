package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var usageDays int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show aggregated generation usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "admin")
		if err != nil {
			return err
		}
		defer env.Close()

		since := time.Now().AddDate(0, 0, -usageDays)
		stats, err := env.Store.UsageStatsSince(cmd.Context(), since)
		if err != nil {
			return err
		}

		fmt.Printf("since %s\n", since.Format("2006-01-02 15:04"))
		fmt.Printf("  requests:          %d\n", stats.RequestCount)
		fmt.Printf("  prompt tokens:     %d\n", stats.PromptTokens)
		fmt.Printf("  completion tokens: %d\n", stats.CompletionTokens)
		fmt.Printf("  total cost:        $%.4f\n", stats.TotalCostUSD)
		return nil
	},
}

func init() {
	usageCmd.Flags().IntVar(&usageDays, "days", 1, "window size in days")
	rootCmd.AddCommand(usageCmd)
}
