package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "perfsieve", configBaseName)
	assert.Equal(t, "perfsieve.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", analyzeParallelFlag)
	assert.Equal(t, "analyze.parallel", analyzeParallelKey)
	assert.Equal(t, "paths.exclude", excludeConfigKey)
	assert.Equal(t, ".perfsieve-reports", defaultReportsDir)
	assert.Equal(t, "PERFSIEVE", envPrefix)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, currentConfigVersion, viper.GetInt(configVersionKey))
	assert.Equal(t, defaultParallel, viper.GetInt(analyzeParallelKey))
	assert.Equal(t, defaultTraceExporter, viper.GetString(telemetryTraceKey))
	assert.Empty(t, viper.GetStringSlice(rulesDisabledKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "-4", want: slog.LevelDebug},
		{in: "loud", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.in, slog.LevelInfo))
		})
	}
}

func TestSeverityOverrides_RestoresRuleIDCase(t *testing.T) {
	viper.Set(rulesSeverityKey, map[string]any{"ps1002": "error"})
	t.Cleanup(func() { viper.Set(rulesSeverityKey, map[string]string{}) })

	assert.Equal(t, map[string]string{"PS1002": "error"}, severityOverrides())
}
