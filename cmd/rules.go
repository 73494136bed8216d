package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perfsieve.dev/pkg/perfsieve/internal/domain"
)

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the analysis rules",
		Long:  "List every rule with its effective severity and whether the current configuration enables it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := domain.ParseRuleSettings(viper.GetStringSlice(rulesDisabledKey), severityOverrides())
			if err != nil {
				return fmt.Errorf("rules config: %w", err)
			}

			return workflow.Rules(cmd.Context(), settings)
		},
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
