package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-nimitta/internal/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestStagesCommand(t *testing.T) {
	out := execute(t, "stages")
	assert.Contains(t, out, "Fourth Jhana")
	assert.Contains(t, out, "branch")
	assert.Contains(t, out, "skip-target")
	assert.Contains(t, out, "terminal")
	assert.Contains(t, out, "over 24 stages")
	assert.Contains(t, out, "at 120x:")
}

func TestConfigCommandWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimitta.yaml")
	out := execute(t, "config", "--out", path, "--mode", "automatic", "--fps", "30")
	assert.Contains(t, out, "wrote")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "automatic", cfg.Session.Mode)
	assert.Equal(t, 30, cfg.FPS)
}

func TestLoadConfigOnlyAppliesChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addPersistentFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--acceleration", "300"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Session.Acceleration)
	assert.Equal(t, "manual", cfg.Session.Mode)
	assert.Equal(t, 60, cfg.FPS)
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addPersistentFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--mode", "sideways"}))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func TestLogFileClosedAfterRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nimitta.log")
	cmd := &cobra.Command{Use: "x"}
	addPersistentFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Set("log-file", path))

	require.NoError(t, setupLogging(cmd, nil))
	require.NotNil(t, logFile)
	f := logFile
	log.Info().Msg("to the file")

	require.NoError(t, closeLog())
	assert.Nil(t, logFile)
	assert.Error(t, f.Close(), "already closed")
	assert.NoError(t, closeLog(), "closing twice is harmless")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to the file")
}
