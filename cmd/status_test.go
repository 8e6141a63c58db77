package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("storage.path", t.TempDir())
	viper.Set("settings.type", "inmemory")
	viper.Set("app.id", "app1")
	viper.Set("telemetry.instrumentation_key", "ikey")

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"status"})
	require.NoError(t, rootCmd.Execute())

	result := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Contains(t, result, "crash_files")
	require.Contains(t, result, "status")
}

func TestAgentFailsWithoutRequiredConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("storage.path", t.TempDir())
	viper.Set("settings.type", "inmemory")

	rootCmd.SetArgs([]string{"flush"})
	require.Error(t, rootCmd.Execute())
}
