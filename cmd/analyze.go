package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	"perfsieve.dev/pkg/perfsieve/internal/domain"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

var analyzeParallelFlagValue int
var analyzeLanguageFlagValue string
var analyzeNoStoreFlagValue bool
var analyzeDisableFlagValue []string

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Analyze sources and report performance findings",
		Long:  analyzeLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := parseLanguageFlag(viper.GetString(analyzeLanguageKey))
			if err != nil {
				return err
			}

			rules, err := domain.ParseRuleSettings(viper.GetStringSlice(rulesDisabledKey), severityOverrides())
			if err != nil {
				return fmt.Errorf("rules config: %w", err)
			}

			reportsPath := m.Path(viper.GetString(outputFlagName))
			if viper.GetBool(analyzeNoStoreKey) {
				reportsPath = ""
			}

			_, err = workflow.Analyze(cmd.Context(), domain.AnalyzeArgs{
				Paths:    parsePaths(args),
				Language: language,
				Exclude:  viper.GetStringSlice(excludeConfigKey),
				Reports:  reportsPath,
				Threads:  viper.GetInt(analyzeParallelKey),
				Rules:    rules,
			})

			return err
		},
	}

	configureAnalyzeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func configureAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&analyzeParallelFlagValue, analyzeParallelFlag, "p", viper.GetInt(analyzeParallelKey), "number of parallel analysis workers")
	bindFlagToConfig(cmd.Flags().Lookup(analyzeParallelFlag), analyzeParallelKey)

	cmd.Flags().StringVarP(&analyzeLanguageFlagValue, analyzeLanguageFlag, "l", viper.GetString(analyzeLanguageKey), "source language: csharp, go or snapshot (default: detect)")
	bindFlagToConfig(cmd.Flags().Lookup(analyzeLanguageFlag), analyzeLanguageKey)

	cmd.Flags().BoolVar(&analyzeNoStoreFlagValue, analyzeNoStoreFlag, viper.GetBool(analyzeNoStoreKey), "do not write the report to the output directory")
	bindFlagToConfig(cmd.Flags().Lookup(analyzeNoStoreFlag), analyzeNoStoreKey)

	cmd.Flags().StringSliceVar(&analyzeDisableFlagValue, analyzeDisableFlag, viper.GetStringSlice(rulesDisabledKey), "rule IDs to skip (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(analyzeDisableFlag), rulesDisabledKey)
}

// parseLanguageFlag maps an empty value to auto-detection.
func parseLanguageFlag(value string) (adapter.Language, error) {
	if value == "" {
		return "", nil
	}

	language, err := adapter.ParseLanguage(value)
	if err != nil {
		return "", fmt.Errorf("--%s %q: %w", analyzeLanguageFlag, value, err)
	}

	return language, nil
}
