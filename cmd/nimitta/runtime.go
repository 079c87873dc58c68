package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-nimitta/internal/app"
	"github.com/coreman2200/funtimes-nimitta/internal/config"
	diag "github.com/coreman2200/funtimes-nimitta/internal/diagnostics"
	"github.com/coreman2200/funtimes-nimitta/internal/driver/fake"
	"github.com/coreman2200/funtimes-nimitta/internal/driver/strip"
	"github.com/coreman2200/funtimes-nimitta/internal/metrics"
	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/render/scenes"
)

// runtime is everything one command needs to drive a session.
type runtime struct {
	cfg  *config.Config
	cond *app.Conductor
	hub  *diag.Hub
	met  *metrics.Metrics

	closers []func() error
}

func newRuntime(cfg *config.Config, extra ...render.Driver) (*runtime, error) {
	tbl, err := cfg.StageTable()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, hub: diag.NewHub(64), met: metrics.New()}

	drivers := append(rt.openDrivers(), extra...)
	eng, err := render.NewEngine(
		render.Dimensions{X: cfg.Dim.X, Y: cfg.Dim.Y},
		render.NewDispatcher(scenes.Registry()),
		render.MultiDriver(drivers),
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}
	eng.Post = cfg.PostParams()

	rt.cond, err = app.New(app.Options{
		Table:   tbl,
		Session: opts,
		Engine:  eng,
		Diag:    rt.hub,
		Metrics: rt.met,
		FPS:     cfg.FPS,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	log.Info().
		Int("stages", tbl.Len()).
		Str("mode", string(opts.Mode)).
		Float64("acceleration", opts.Acceleration).
		Int("drivers", len(drivers)).
		Msg("session ready")
	return rt, nil
}

// openDrivers opens the configured outputs. A driver that fails to open is
// reported and left out; the session still runs.
func (rt *runtime) openDrivers() []render.Driver {
	var out []render.Driver
	for _, name := range rt.cfg.Drivers {
		switch strings.ToLower(name) {
		case "fake":
			out = append(out, &fake.Driver{Every: rt.cfg.FPS})
		case "strip":
			s := rt.cfg.Strip
			d, err := strip.Open(strip.Options{
				Port:      s.Port,
				NumPixels: s.NumPixels,
				SpeedHz:   s.SpeedHz,
				Channels:  s.Channels,
				Post:      rt.cfg.PostParams(),
			})
			if err != nil {
				rt.missing(name, err)
				continue
			}
			out = append(out, d)
			rt.closers = append(rt.closers, d.Close)
		case "term":
			log.Debug().Msg("term driver is attached by the view command")
		}
	}
	return out
}

func (rt *runtime) missing(name string, err error) {
	log.Warn().Err(err).Str("driver", name).Msg("driver unavailable")
	rt.hub.Publish(diag.Diagnostic{
		Severity: diag.Warn,
		Code:     diag.DriverMissing,
		Summary:  "Driver unavailable: " + name,
		Detail:   err.Error(),
	})
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// startLoop runs the frame loop in the background. The returned func
// blocks until the loop has stopped.
func startLoop(ctx context.Context, c *app.Conductor) (wait func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			log.Error().Err(err).Msg("frame loop")
		}
	}()
	return func() { <-done }
}

// listen serves h on addr until ctx is done.
func listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown did not complete")
		return srv.Close()
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}
