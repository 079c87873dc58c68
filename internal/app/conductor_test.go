package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diag "github.com/coreman2200/funtimes-nimitta/internal/diagnostics"
	"github.com/coreman2200/funtimes-nimitta/internal/metrics"
	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/render/scenes"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

type countingDriver struct {
	writes int
	err    error
}

func (d *countingDriver) Write(render.Output) error {
	d.writes++
	return d.err
}

func newConductor(t *testing.T, drv render.Driver, opts sequence.Options) (*Conductor, *diag.Hub, *metrics.Metrics) {
	t.Helper()
	tbl, err := stage.Default()
	require.NoError(t, err)
	eng, err := render.NewEngine(render.Dimensions{X: 8, Y: 4}, render.NewDispatcher(scenes.Registry()), drv)
	require.NoError(t, err)
	hub := diag.NewHub(32)
	met := metrics.New()
	c, err := New(Options{Table: tbl, Session: opts, Engine: eng, Diag: hub, Metrics: met, FPS: 120})
	require.NoError(t, err)
	return c, hub, met
}

func TestNewRejectsEmptyTable(t *testing.T) {
	_, err := New(Options{Table: stage.Table{}})
	assert.ErrorIs(t, err, stage.ErrEmptyTable)
}

func TestStepRendersAndNotifies(t *testing.T) {
	drv := &countingDriver{}
	c, _, met := newConductor(t, drv, sequence.DefaultOptions())

	var seen []int
	c.OnFrame(func(f sequence.Frame) { seen = append(seen, f.Stage.Index) })
	for i := 0; i < 3; i++ {
		c.Step(1.0 / 60)
	}
	assert.Equal(t, 3, drv.writes)
	assert.Equal(t, []int{0, 0, 0}, seen)
	assert.Equal(t, uint64(3), c.Frames())
	assert.Equal(t, uint64(3), frameSamples(t, met))
}

func frameSamples(t *testing.T, met *metrics.Metrics) uint64 {
	t.Helper()
	mfs, err := met.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "nimitta_frame_seconds" {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestApplyCommands(t *testing.T) {
	c, hub, met := newConductor(t, nil, sequence.DefaultOptions())
	events, cancel := hub.Subscribe(64)
	defer cancel()

	ok, err := c.Apply(Command{Cmd: CmdJump, Index: 8})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Apply(Command{Cmd: CmdNext})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, c.Snapshot().AwaitingChoice)

	_, err = c.Apply(Command{Cmd: CmdChoose, Choice: "maybe"})
	assert.Error(t, err)

	ok, err = c.Apply(Command{Cmd: CmdChoose, Choice: "vipassana"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 14, c.Snapshot().CurrentIndex)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Choices.WithLabelValues("skip")))

	ok, _ = c.Apply(Command{Cmd: CmdPrev})
	assert.False(t, ok, "the skipped stages stay closed")

	_, _ = c.Apply(Command{Cmd: CmdToggle})
	assert.True(t, c.Snapshot().Paused)
	_, _ = c.Apply(Command{Cmd: CmdResume})
	assert.False(t, c.Snapshot().Paused)

	ok, err = c.Apply(Command{Cmd: CmdExit})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Snapshot().CurrentIndex)
	assert.Equal(t, sequence.ChoiceNone, c.Snapshot().Choice)

	_, err = c.Apply(Command{Cmd: "dance"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	var codes []string
	for len(events) > 0 {
		codes = append(codes, (<-events).Code)
	}
	assert.Contains(t, codes, diag.BranchPrompt)
	assert.Contains(t, codes, diag.BranchChosen)
	assert.Contains(t, codes, diag.SessionExit)
}

func TestDriverFailurePublishedOnce(t *testing.T) {
	drv := &countingDriver{err: errors.New("unplugged")}
	c, hub, met := newConductor(t, drv, sequence.DefaultOptions())
	events, cancel := hub.Subscribe(16)
	defer cancel()

	for i := 0; i < 5; i++ {
		c.Step(0.016)
	}
	assert.Equal(t, 5.0, testutil.ToFloat64(met.DriverErrors))
	failures := 0
	for len(events) > 0 {
		if (<-events).Code == diag.DriverFailed {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestRunAdvancesAutomaticSession(t *testing.T) {
	opts := sequence.DefaultOptions()
	opts.Mode = sequence.Automatic
	opts.Acceleration = 100000
	c, _, _ := newConductor(t, nil, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	assert.Greater(t, c.Frames(), uint64(0))
	assert.Greater(t, c.Snapshot().CurrentIndex, 0)
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Command
		err  bool
	}{
		{"json number", map[string]any{"cmd": "jump", "index": float64(4)}, Command{Cmd: "jump", Index: 4}, false},
		{"string index", map[string]any{"cmd": "JUMP", "index": "7"}, Command{Cmd: "jump", Index: 7}, false},
		{"choice", map[string]any{"cmd": "choose", "choice": "skip"}, Command{Cmd: "choose", Choice: "skip"}, false},
		{"missing cmd", map[string]any{"index": 1}, Command{}, true},
		{"bad index", map[string]any{"cmd": "jump", "index": "seven"}, Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand(tt.raw)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
