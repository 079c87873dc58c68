package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// fakeRenderer adds a constant color for testing.
type fakeRenderer struct {
	mode    stage.RenderMode
	c       Color
	calls   int
	lastOp  float64
	lastP   stage.ParamBag
	explode bool
}

func (f *fakeRenderer) Mode() stage.RenderMode { return f.mode }
func (f *fakeRenderer) Render(dst []Color, _ Dimensions, _ float64, p stage.ParamBag, opacity float64) {
	f.calls++
	f.lastOp = opacity
	f.lastP = p
	if f.explode {
		panic("boom")
	}
	for i := range dst {
		Add(dst, i, f.c, opacity)
	}
}

// fakeDriver captures the last frame written.
type fakeDriver struct {
	last []Color
	err  error
}

func (d *fakeDriver) Write(o Output) error {
	d.last = make([]Color, len(o.Pixels))
	copy(d.last, o.Pixels)
	return d.err
}

func frameAt(prev, cur stage.Stage, blend float64) sequence.Frame {
	return sequence.Frame{
		Stage:         cur,
		Previous:      prev,
		Blend:         blend,
		Transitioning: blend < 1,
		Params:        stage.Blend(prev.Params, cur.Params, blend),
	}
}

func TestMixAlpha(t *testing.T) {
	n := 10
	a := make([]Color, n)
	b := make([]Color, n)
	dst := make([]Color, n)
	Fill(a, Color{1, 0, 0})
	Fill(b, Color{0, 0, 1})
	Mix(dst, a, b, 0.5)
	assert.InDelta(t, 0.5, dst[0].R, 0.01)
	assert.InDelta(t, 0.5, dst[0].B, 0.01)
}

func TestEngineCrossfade(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeRenderer{mode: stage.Jhana, c: Color{1, 0, 0}})
	reg.Register(&fakeRenderer{mode: stage.Arupa, c: Color{0, 0, 1}})
	drv := &fakeDriver{}
	e, err := NewEngine(Dimensions{X: 2, Y: 1}, NewDispatcher(reg), drv)
	require.NoError(t, err)
	// Disable tone mapping for deterministic tests.
	e.SetPost(PostPipeline{})

	a := stage.Stage{Index: 0, Mode: stage.Jhana}
	b := stage.Stage{Index: 1, Mode: stage.Arupa}

	require.NoError(t, e.RenderFrame(frameAt(a, a, 1)))
	assert.InDelta(t, 1, drv.last[0].R, 0.02)
	assert.InDelta(t, 0, drv.last[0].B, 0.02)

	require.NoError(t, e.RenderFrame(frameAt(a, b, 0.5)))
	assert.InDelta(t, 0.5, drv.last[0].R, 0.02)
	assert.InDelta(t, 0.5, drv.last[0].B, 0.02)
	assert.Equal(t, 2, e.Last.Layers)

	require.NoError(t, e.RenderFrame(frameAt(a, b, 1)))
	assert.InDelta(t, 0, drv.last[0].R, 0.02)
	assert.InDelta(t, 1, drv.last[0].B, 0.02)
	assert.Equal(t, 1, e.Last.Layers)
}

func TestEngineNibbanaBlackout(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeRenderer{mode: stage.NanaEquanimity, c: Color{1, 1, 1}})
	drv := &fakeDriver{}
	e, err := NewEngine(Dimensions{X: 1, Y: 1}, NewDispatcher(reg), drv)
	require.NoError(t, err)
	e.SetPost(PostPipeline{})

	prev := stage.Stage{Index: 22, Mode: stage.NanaEquanimity}
	end := stage.Stage{Index: 23, Mode: stage.Nibbana, Terminal: true}

	require.NoError(t, e.RenderFrame(frameAt(prev, end, 0.5)))
	assert.Greater(t, drv.last[0].R, float32(0.4), "outgoing layer still visible mid fade")

	require.NoError(t, e.RenderFrame(frameAt(prev, end, 0.95)))
	assert.Equal(t, Color{}, drv.last[0])
	assert.Zero(t, e.Last.Layers)
}

func TestEngineTerrorBackground(t *testing.T) {
	drv := &fakeDriver{}
	e, err := NewEngine(Dimensions{X: 1, Y: 1}, NewDispatcher(nil), drv)
	require.NoError(t, err)
	e.SetPost(PostPipeline{})

	s := stage.Stage{Index: 3, Mode: stage.NanaTerror}
	require.NoError(t, e.RenderFrame(frameAt(s, s, 1)))
	assert.Equal(t, terrorColor, drv.last[0])
}

func TestEngineReturnsDriverError(t *testing.T) {
	boom := errors.New("unplugged")
	e, err := NewEngine(Dimensions{X: 1, Y: 1}, nil, MultiDriver{&fakeDriver{}, &fakeDriver{err: boom}})
	require.NoError(t, err)
	s := stage.Stage{Mode: stage.Jhana}
	assert.ErrorIs(t, e.RenderFrame(frameAt(s, s, 1)), boom)
}

func TestNewEngineRejectsEmpty(t *testing.T) {
	_, err := NewEngine(Dimensions{}, nil, nil)
	assert.Error(t, err)
}

func TestShakeOffsetBounded(t *testing.T) {
	for i := 0; i < 500; i++ {
		dx, dy := shakeOffset(float64(i)*0.016, 1)
		assert.LessOrEqual(t, dx, ShakePx)
		assert.GreaterOrEqual(t, dx, -ShakePx)
		assert.LessOrEqual(t, dy, ShakePx)
		assert.GreaterOrEqual(t, dy, -ShakePx)
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{1, 1, 1}},
		{"#000000", Color{}},
		{"#500", Color{R: 85.0 / 255}},
		{"ff0000", Color{R: 1}},
		{"nope", Color{1, 1, 1}},
		{"", Color{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Hex(tt.in)
			assert.InDelta(t, tt.want.R, got.R, 1e-6)
			assert.InDelta(t, tt.want.G, got.G, 1e-6)
			assert.InDelta(t, tt.want.B, got.B, 1e-6)
		})
	}
}
