package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perfsieve.dev/pkg/perfsieve/internal/domain"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the last stored analysis report",
		Long:  "View the findings of the last analysis pass stored in the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
