package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/internal/orchestrator"
)

var generateFlags struct {
	industry string
	role     string
	pain     string
	size     string
	url      string
	stack    []string
	icpType  string
	debug    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate blueprints for one company profile",
	Long:  "Runs the full generation waterfall from the command line and prints the resulting blueprints as JSON. Useful for smoke-testing integrations without the HTTP server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "generate")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Executor.Generate(cmd.Context(), orchestrator.Request{
			Profile: model.CompanyProfile{
				Industry:  generateFlags.industry,
				Role:      generateFlags.role,
				PainPoint: generateFlags.pain,
				Size:      generateFlags.size,
				URL:       generateFlags.url,
				Stack:     generateFlags.stack,
				ICPType:   generateFlags.icpType,
			},
			CollectTrace: generateFlags.debug,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.industry, "industry", "", "company industry")
	generateCmd.Flags().StringVar(&generateFlags.role, "role", "", "contact role")
	generateCmd.Flags().StringVar(&generateFlags.pain, "pain", "", "primary pain point (required)")
	generateCmd.Flags().StringVar(&generateFlags.size, "size", "", "company size")
	generateCmd.Flags().StringVar(&generateFlags.url, "url", "", "company website")
	generateCmd.Flags().StringSliceVar(&generateFlags.stack, "stack", nil, "tech stack entries")
	generateCmd.Flags().StringVar(&generateFlags.icpType, "icp-type", "", "icp type: dewpoint or internal")
	generateCmd.Flags().BoolVar(&generateFlags.debug, "debug", false, "collect an execution trace")
	_ = generateCmd.MarkFlagRequired("pain")
	rootCmd.AddCommand(generateCmd)
}
