package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

var icpsCmd = &cobra.Command{
	Use:   "icps",
	Short: "Manage industry persona records",
}

var icpsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List industries with persona records",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "admin")
		if err != nil {
			return err
		}
		defer env.Close()

		industries, err := env.Store.ListIndustries(cmd.Context())
		if err != nil {
			return err
		}
		for _, industry := range industries {
			fmt.Println(industry)
		}
		return nil
	},
}

var icpFlags struct {
	industry     string
	icpType      string
	naics        string
	persona      string
	instructions string
	painCategory string
	gtm          string
	profit       int
	ltv          int
	speed        int
	drivers      string
	negatives    string
	discovery    string
}

var icpsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update one industry persona record",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "admin")
		if err != nil {
			return err
		}
		defer env.Close()

		icpType := icpFlags.icpType
		if icpType == "" {
			icpType = model.ICPTypeDewpoint
		}

		err = env.Store.UpsertICP(cmd.Context(), model.IndustryContext{
			Industry:            icpFlags.industry,
			ICPType:             icpType,
			NAICSCode:           icpFlags.naics,
			Persona:             icpFlags.persona,
			PromptInstructions:  icpFlags.instructions,
			PrimaryPainCategory: icpFlags.painCategory,
			GTMPrimary:          icpFlags.gtm,
			ProfitScore:         icpFlags.profit,
			LTVScore:            icpFlags.ltv,
			SpeedToCloseScore:   icpFlags.speed,
			EconomicDrivers:     icpFlags.drivers,
			NegativeICPs:        icpFlags.negatives,
			DiscoveryGuidance:   icpFlags.discovery,
		})
		if err != nil {
			return err
		}
		fmt.Printf("icp %s/%s saved\n", icpFlags.industry, icpType)
		return nil
	},
}

func init() {
	icpsAddCmd.Flags().StringVar(&icpFlags.industry, "industry", "", "industry label (unique with --icp-type)")
	icpsAddCmd.Flags().StringVar(&icpFlags.icpType, "icp-type", "", "dewpoint (owner-facing) or internal (customer-facing)")
	icpsAddCmd.Flags().StringVar(&icpFlags.naics, "naics", "", "NAICS code")
	icpsAddCmd.Flags().StringVar(&icpFlags.persona, "persona", "", "target persona description")
	icpsAddCmd.Flags().StringVar(&icpFlags.instructions, "instructions", "", "strategic focus prompt instructions")
	icpsAddCmd.Flags().StringVar(&icpFlags.painCategory, "pain-category", "", "primary pain category")
	icpsAddCmd.Flags().StringVar(&icpFlags.gtm, "gtm", "", "go-to-market motion")
	icpsAddCmd.Flags().IntVar(&icpFlags.profit, "profit-score", 0, "profit score 1-5")
	icpsAddCmd.Flags().IntVar(&icpFlags.ltv, "ltv-score", 0, "LTV score 1-5")
	icpsAddCmd.Flags().IntVar(&icpFlags.speed, "speed-score", 0, "speed-to-close score 1-5")
	icpsAddCmd.Flags().StringVar(&icpFlags.drivers, "drivers", "", "economic drivers")
	icpsAddCmd.Flags().StringVar(&icpFlags.negatives, "negatives", "", "negative constraints to avoid")
	icpsAddCmd.Flags().StringVar(&icpFlags.discovery, "discovery", "", "discovery guidance")
	_ = icpsAddCmd.MarkFlagRequired("industry")
	_ = icpsAddCmd.MarkFlagRequired("persona")
	_ = icpsAddCmd.MarkFlagRequired("instructions")

	icpsCmd.AddCommand(icpsListCmd, icpsAddCmd)
	rootCmd.AddCommand(icpsCmd)
}
