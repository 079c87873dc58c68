package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-nimitta/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "nimitta",
	Short: "Nimitta presents the meditation path as timed light",
	Long: `Nimitta walks the Pa-Auk path stage by stage, cross-fading between
procedural visuals. It can run headless, serve a websocket UI, or draw
straight into the terminal.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: func(*cobra.Command, []string) error { return closeLog() },
}

// logFile is the --log-file handle, nil when logging to stderr.
var logFile *os.File

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	// post-run hooks are skipped when a command fails
	_ = closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	addPersistentFlags(rootCmd.PersistentFlags())
}

func addPersistentFlags(f *pflag.FlagSet) {
	f.String("config", "", "path to config.yaml (defaults when empty)")
	f.String("log-level", "info", "trace | debug | info | warn | error")
	f.String("log-file", "", "write logs to this file instead of stderr")
	f.String("stages", "", "stage table YAML (built-in path when empty)")
	f.String("mode", "", "manual | automatic (overrides config)")
	f.Float64("acceleration", 0, "automatic mode speed factor (overrides config)")
	f.Int("fps", 0, "frames per second (overrides config)")
	f.StringSlice("drivers", nil, "output drivers: fake, strip (overrides config)")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	zerolog.TimeFieldFormat = time.RFC3339
	if err := closeLog(); err != nil {
		return err
	}
	var out io.Writer = os.Stderr
	path, _ := cmd.Flags().GetString("log-file")
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		out = f
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: path != ""})

	level, _ := cmd.Flags().GetString("log-level")
	return setLevel(level)
}

// closeLog points logging back at stderr and closes the log file, if any.
func closeLog() error {
	if logFile == nil {
		return nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	f := logFile
	logFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func setLevel(s string) error {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// loadConfig reads --config, then applies the flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.Changed("stages") {
		cfg.Session.Stages, _ = f.GetString("stages")
	}
	if f.Changed("mode") {
		cfg.Session.Mode, _ = f.GetString("mode")
	}
	if f.Changed("acceleration") {
		cfg.Session.Acceleration, _ = f.GetFloat64("acceleration")
	}
	if f.Changed("fps") {
		cfg.FPS, _ = f.GetInt("fps")
	}
	if f.Changed("drivers") {
		cfg.Drivers, _ = f.GetStringSlice("drivers")
	}
	if !f.Changed("log-level") && cfg.LogLevel != "" {
		if err := setLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
