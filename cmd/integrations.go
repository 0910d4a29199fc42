package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
	"github.com/dewpoint-ai/blueprint-cli/internal/orchestrator"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage AI provider integrations",
}

var integrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled integrations in waterfall order with budget status",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "admin")
		if err != nil {
			return err
		}
		defer env.Close()

		integs, err := env.Store.ListEnabledIntegrations(cmd.Context())
		if err != nil {
			return err
		}
		ranked := orchestrator.Rank(integs)
		if len(ranked) == 0 {
			fmt.Println("no enabled integrations with credentials")
			return nil
		}

		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		for i, integ := range ranked {
			spent, err := env.Store.SumUsageSince(cmd.Context(), integ.ID, midnight)
			if err != nil {
				return err
			}
			status := "ok"
			if spent >= integ.DailyLimitUSD() {
				status = "over budget"
			}
			fmt.Printf("%d. %-24s provider=%-9s priority=%-4d spent=$%.4f/$%.2f %s\n",
				i+1, integ.Name, integ.ProviderKind(), integ.Priority, spent, integ.DailyLimitUSD(), status)
			if lastErr := integ.LastError(); lastErr != "" {
				fmt.Printf("   last error: %s\n", lastErr)
			}
		}
		return nil
	},
}

var integrationFlags struct {
	name       string
	provider   string
	key        string
	baseURL    string
	modelID    string
	priority   int
	dailyLimit float64
	disabled   bool
}

var integrationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update an integration (encrypts the key at rest)",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "admin")
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Crypter == nil {
			return eris.New("secret.passphrase must be configured to store credentials")
		}
		encrypted, err := env.Crypter.Encrypt(integrationFlags.key)
		if err != nil {
			return err
		}

		metadata := map[string]any{}
		if integrationFlags.modelID != "" {
			metadata["model"] = integrationFlags.modelID
		}
		if integrationFlags.dailyLimit > 0 {
			metadata["daily_limit_usd"] = integrationFlags.dailyLimit
		}

		id, err := env.Store.UpsertIntegration(cmd.Context(), model.Integration{
			Name:     integrationFlags.name,
			Provider: integrationFlags.provider,
			AuthType: "api_key",
			BaseURL:  integrationFlags.baseURL,
			APIKey:   encrypted,
			Metadata: metadata,
			Priority: integrationFlags.priority,
			Enabled:  !integrationFlags.disabled,
		})
		if err != nil {
			return err
		}
		fmt.Printf("integration %q saved (id %d)\n", integrationFlags.name, id)
		return nil
	},
}

func init() {
	integrationsAddCmd.Flags().StringVar(&integrationFlags.name, "name", "", "display name (unique)")
	integrationsAddCmd.Flags().StringVar(&integrationFlags.provider, "provider", "", "provider kind: openai, gemini, or anthropic (inferred from name when empty)")
	integrationsAddCmd.Flags().StringVar(&integrationFlags.key, "key", "", "API key (stored encrypted)")
	integrationsAddCmd.Flags().StringVar(&integrationFlags.baseURL, "base-url", "", "API base URL override")
	integrationsAddCmd.Flags().StringVar(&integrationFlags.modelID, "model", "", "model override")
	integrationsAddCmd.Flags().IntVar(&integrationFlags.priority, "priority", 0, "waterfall rank, lower tried first, 0 = unranked (last)")
	integrationsAddCmd.Flags().Float64Var(&integrationFlags.dailyLimit, "daily-limit", 0, "daily spend cap in USD (default 5.00)")
	integrationsAddCmd.Flags().BoolVar(&integrationFlags.disabled, "disabled", false, "save as disabled")
	_ = integrationsAddCmd.MarkFlagRequired("name")
	_ = integrationsAddCmd.MarkFlagRequired("key")

	integrationsCmd.AddCommand(integrationsListCmd, integrationsAddCmd)
	rootCmd.AddCommand(integrationsCmd)
}
