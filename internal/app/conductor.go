package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-nimitta/internal/diagnostics"
	"github.com/coreman2200/funtimes-nimitta/internal/metrics"
	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// FrameListener receives every frame after it was rendered. Listeners run
// on the loop goroutine outside the lock and may call back into the
// Conductor.
type FrameListener func(f sequence.Frame)

type Options struct {
	Table   stage.Table
	Session sequence.Options
	Engine  *render.Engine // optional
	Diag    *diag.Hub      // optional
	Metrics *metrics.Metrics
	FPS     int
}

// Conductor is the single owner of a Session. The frame loop and every
// input event go through its lock, so a tick is never interleaved with an
// event.
type Conductor struct {
	mu   sync.Mutex
	sess *sequence.Session
	eng  *render.Engine
	hub  *diag.Hub
	met  *metrics.Metrics
	fps  int

	last      sequence.Frame
	frames    uint64
	lastErr   string
	listeners []FrameListener
}

func New(o Options) (*Conductor, error) {
	c := &Conductor{eng: o.Engine, hub: o.Diag, met: o.Metrics, fps: o.FPS}
	if c.fps <= 0 {
		c.fps = 60
	}
	hooks := []sequence.Hooks{diagHooks(o.Diag)}
	if o.Metrics != nil {
		hooks = append(hooks, o.Metrics.Hooks())
	}
	sess, err := sequence.NewSession(o.Table, o.Session, chainHooks(hooks...))
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	c.sess = sess
	c.last = sess.Frame(0)
	return c, nil
}

// OnFrame registers l. Call before Run.
func (c *Conductor) OnFrame(l FrameListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Run drives the session at the configured rate until ctx is done.
func (c *Conductor) Run(ctx context.Context) error {
	tick := time.NewTicker(time.Second / time.Duration(c.fps))
	defer tick.Stop()
	prev := time.Now()
	log.Info().Int("fps", c.fps).Str("mode", string(c.sess.Options().Mode)).Msg("frame loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", c.Frames()).Msg("frame loop stopped")
			return nil
		case now := <-tick.C:
			c.Step(now.Sub(prev).Seconds())
			prev = now
		}
	}
}

// Step runs one tick with a measured wall delta: session (clock, fade,
// blend), then dispatch and composite, then drivers, then listeners.
func (c *Conductor) Step(wallDeltaS float64) sequence.Frame {
	c.mu.Lock()
	start := time.Now()
	f := c.sess.Frame(wallDeltaS)
	if c.eng != nil {
		if err := c.eng.RenderFrame(f); err != nil {
			c.driverFailed(err)
		} else {
			c.lastErr = ""
		}
	}
	if c.met != nil {
		c.met.FrameSeconds.Observe(time.Since(start).Seconds())
	}
	c.last = f
	c.frames++
	ls := c.listeners
	c.mu.Unlock()

	for _, l := range ls {
		l(f)
	}
	return f
}

// driverFailed logs every failure but publishes only when the error changes.
func (c *Conductor) driverFailed(err error) {
	if c.met != nil {
		c.met.DriverErrors.Inc()
	}
	log.Debug().Err(err).Msg("driver write")
	if err.Error() == c.lastErr {
		return
	}
	c.lastErr = err.Error()
	if c.hub != nil {
		c.hub.Publish(diag.Diagnostic{
			Severity:     diag.Warn,
			Code:         diag.DriverFailed,
			Summary:      "Driver write failed",
			Detail:       err.Error(),
			LikelyCauses: []string{"device unplugged", "terminal closed"},
		})
	}
}

// Do runs fn with exclusive access to the session, between ticks.
func (c *Conductor) Do(fn func(s *sequence.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.sess)
}

// Apply executes a control command. The bool reports whether the session
// changed.
func (c *Conductor) Apply(cmd Command) (bool, error) {
	var applied bool
	var err error
	c.Do(func(s *sequence.Session) {
		switch cmd.Cmd {
		case CmdNext:
			applied = s.RequestAdvance(1)
		case CmdPrev:
			applied = s.RequestAdvance(-1)
		case CmdChoose:
			ch := sequence.ParseChoice(cmd.Choice)
			if ch == sequence.ChoiceNone {
				err = fmt.Errorf("unknown choice: %q", cmd.Choice)
				return
			}
			applied = s.Choose(ch)
		case CmdPause:
			s.Pause()
			applied = true
		case CmdResume:
			s.Resume()
			applied = true
		case CmdToggle:
			s.TogglePause()
			applied = true
		case CmdExit:
			s.Exit()
			applied = true
			if c.hub != nil {
				c.hub.Publish(diag.Diagnostic{Severity: diag.Info, Code: diag.SessionExit, Summary: "Session reset"})
			}
		case CmdJump:
			applied = s.Jump(cmd.Index)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Cmd)
		}
	})
	return applied, err
}

func (c *Conductor) Snapshot() sequence.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Snapshot()
}

// Last returns the most recent frame.
func (c *Conductor) Last() sequence.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Conductor) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Table is immutable and safe to share.
func (c *Conductor) Table() stage.Table { return c.sess.Table() }

func (c *Conductor) FPS() int { return c.fps }
