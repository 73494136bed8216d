// Package cmd provides the root command and CLI setup for perfsieve.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	"perfsieve.dev/pkg/perfsieve/internal/controller"
	"perfsieve.dev/pkg/perfsieve/internal/domain"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
	"perfsieve.dev/pkg/perfsieve/internal/telemetry"
)

var fsAdapter adapter.SourceFSAdapter
var factsLoader adapter.FactsLoader
var findingStore adapter.FindingStore
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters source files.
var excludePatterns []string

var verboseFlag bool

// shutdownTelemetry flushes the tracer provider installed for the running command.
var shutdownTelemetry func(context.Context) error

func init() {
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	factsLoader = adapter.NewLocalFactsLoader(fsAdapter)
	findingStore = adapter.NewLocalFindingStore(fsAdapter)
	workflow = domain.NewWorkflow(factsLoader, findingStore, ui)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./src/...      recursively scan src directory
  - ./a ./b        scan multiple directories
  - facts.yaml     analyze a facts snapshot`

const rootLongDescription = `perfsieve is a static performance analyzer. It flags method calls in loop
conditions whose receiver never changes inside the loop, string concatenation
inside loops, and non-public classes that could be sealed.

` + pathPatternsHelp

const analyzeLongDescription = `Analyze the given paths (default: ./...) and report findings.

The source language is detected from the inputs unless --lang is given.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "perfsieve",
		Short:        "Static performance analyzer",
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE:  setupRun,
		PersistentPostRunE: finishRun,
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for analysis reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().String(traceExporterFlag, viper.GetString(telemetryTraceKey), "trace exporter: none or stdout")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(traceExporterFlag), telemetryTraceKey)

	cmd.PersistentFlags().String(metricsFileFlagName, viper.GetString(telemetryMetricsKey), "write pass metrics in Prometheus text format to this file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(metricsFileFlagName), telemetryMetricsKey)
}

// setupRun configures logging and tracing before any subcommand runs.
func setupRun(cmd *cobra.Command, _ []string) error {
	configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceVersion: buildVersion(),
		TraceExporter:  viper.GetString(telemetryTraceKey),
		Output:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	shutdownTelemetry = shutdown

	return nil
}

// finishRun flushes spans and exports metrics after a successful subcommand.
func finishRun(cmd *cobra.Command, _ []string) error {
	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(context.WithoutCancel(cmd.Context())); err != nil {
			return fmt.Errorf("flush traces: %w", err)
		}

		shutdownTelemetry = nil
	}

	if path := viper.GetString(telemetryMetricsKey); path != "" {
		if err := telemetry.WriteMetrics(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running pass.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{"./..."}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
