package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-nimitta/internal/driver/term"
	"github.com/coreman2200/funtimes-nimitta/internal/ws"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Draw the path in the terminal and step through it with the keyboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		// the screen owns the terminal; only log when a file was given
		if !cmd.Flags().Changed("log-file") {
			log.Logger = zerolog.Nop()
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sound, _ := cmd.Flags().GetBool("sound")
		v, err := term.Open(sound)
		if err != nil {
			return err
		}
		defer v.Close()

		rt, err := newRuntime(cfg, v)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if addr, _ := cmd.Flags().GetString("serve"); addr != "" {
			srv := ws.NewServer(rt.cond, rt.hub, rt.met, cfg.Server.BroadcastHz)
			rt.cond.OnFrame(srv.Broadcast)
			go func() {
				if err := listen(ctx, addr, srv.Handler()); err != nil {
					log.Error().Err(err).Msg("serve")
				}
			}()
		}
		wait := startLoop(ctx, rt.cond)

		err = v.Run(ctx, rt.cond)
		cancel()
		wait()
		return err
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().Bool("sound", true, "play a chime when the path completes")
	viewCmd.Flags().String("serve", "", "also serve the websocket API on this address")
}
