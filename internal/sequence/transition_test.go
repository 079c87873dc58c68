package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

func TestTransitionCompletes(t *testing.T) {
	tr := NewTransition(5, EaseSmooth)
	tr.Reset(0)
	assert.Equal(t, 1.0, tr.BlendFactor())

	tr.AdvanceTo(1)
	assert.True(t, tr.Active())
	assert.Equal(t, 0.0, tr.BlendFactor())
	assert.Equal(t, 0, tr.Previous())
	assert.Equal(t, 1, tr.Current())

	for i := 0; i < 40; i++ {
		tr.Tick(0.1)
		assert.True(t, tr.Active(), "still fading after %d ticks", i+1)
	}
	tr.Tick(1.5)
	assert.False(t, tr.Active())
	assert.Equal(t, 5.0, tr.Elapsed())
	assert.Equal(t, 1.0, tr.BlendFactor())

	tr.Tick(3)
	assert.Equal(t, 1.0, tr.BlendFactor(), "stays at 1 until the next advance")
	assert.Equal(t, 5.0, tr.Elapsed())
}

func TestTransitionEndsOnClampTick(t *testing.T) {
	tr := NewTransition(5, EaseSmooth)
	tr.AdvanceTo(1)
	tr.Tick(4.99)
	assert.True(t, tr.Active())
	tr.Tick(10)
	assert.False(t, tr.Active())
	assert.Equal(t, 5.0, tr.Elapsed())
}

func TestTransitionMidpoint(t *testing.T) {
	tr := NewTransition(4, EaseSmooth)
	tr.AdvanceTo(1)
	tr.Tick(1)
	assert.InDelta(t, Smoothstep(0.25), tr.BlendFactor(), 1e-12)
	tr.Tick(1)
	assert.InDelta(t, 0.5, tr.BlendFactor(), 1e-12)
}

func TestTransitionInterruptRestartsFromCurrent(t *testing.T) {
	tr := NewTransition(5, EaseSmooth)
	tr.AdvanceTo(1)
	tr.Tick(2.5)
	tr.AdvanceTo(2)

	assert.Equal(t, 1, tr.Previous(), "fade restarts from the interrupted stage")
	assert.Equal(t, 2, tr.Current())
	assert.Equal(t, 0.0, tr.Elapsed())
	assert.True(t, tr.Active())
}

func TestTransitionRenderParams(t *testing.T) {
	tbl := stage.Table{
		{Index: 0, Params: stage.ParamBag{Noise: 0.3, Focus: 0.1}},
		{Index: 1, Params: stage.ParamBag{Noise: 0.1, Focus: 0.5, Color: "#ffd700"}},
	}
	tr := NewTransition(2, EaseLinear)
	tr.Reset(0)
	assert.Equal(t, tbl[0].Params, tr.RenderParams(tbl))

	tr.AdvanceTo(1)
	tr.Tick(1)
	p := tr.RenderParams(tbl)
	assert.InDelta(t, 0.2, p.Noise, 1e-12)
	assert.InDelta(t, 0.3, p.Focus, 1e-12)
	assert.Equal(t, "#ffd700", p.Color)

	tr.Tick(1)
	assert.Equal(t, tbl[1].Params, tr.RenderParams(tbl))
}
