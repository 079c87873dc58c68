package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-nimitta/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the websocket frame, diagnostics and control API",
	Long: `Runs the session and exposes /ws, /diag and /control websockets plus
/health, /state, /stages and /metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		srv := ws.NewServer(rt.cond, rt.hub, rt.met, cfg.Server.BroadcastHz)
		rt.cond.OnFrame(srv.Broadcast)
		wait := startLoop(ctx, rt.cond)

		err = listen(ctx, cfg.Server.Addr, srv.Handler())
		cancel()
		wait()
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "HTTP listen address (overrides config)")
}
