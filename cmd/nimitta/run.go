package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the path headless with the configured drivers",
	Long: `Drives the session with no UI. Useful with --mode automatic to play
the whole path onto an LED strip or into the logs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if d, _ := cmd.Flags().GetDuration("for"); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		if until, _ := cmd.Flags().GetBool("until-end"); until {
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(ctx)
			defer cancel()
			rt.cond.OnFrame(func(f sequence.Frame) {
				if f.Phase == sequence.PhaseTerminal {
					cancel()
				}
			})
		}
		if mode, _ := sequence.ParseMode(cfg.Session.Mode); mode == sequence.Manual {
			log.Warn().Msg("manual mode has no input when headless; use serve or view to step through")
		}

		start := time.Now()
		err = rt.cond.Run(ctx)
		st := rt.cond.Snapshot()
		log.Info().
			Int("stage", st.CurrentIndex).
			Str("clock", sequence.FormatClock(st.ElapsedSessionS)).
			Dur("wall", time.Since(start)).
			Uint64("frames", rt.cond.Frames()).
			Msg("run finished")
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("for", 0, "stop after this long (0 runs until interrupted)")
	runCmd.Flags().Bool("until-end", false, "stop once the final stage is fully shown")
}
