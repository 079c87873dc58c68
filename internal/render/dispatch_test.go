package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

func TestLayers(t *testing.T) {
	breath := stage.Stage{Index: 1, Mode: stage.SamathaBreath, Params: stage.ParamBag{Noise: 0.1, BreathVis: 0.8}}
	nimitta := stage.Stage{Index: 2, Mode: stage.SamathaNimitta, Params: stage.ParamBag{NimittaStr: 0.4, NimittaType: "smoke"}}
	breath2 := stage.Stage{Index: 0, Mode: stage.SamathaBreath, Params: stage.ParamBag{Noise: 0.3}}

	tests := []struct {
		name     string
		prev     stage.Stage
		cur      stage.Stage
		blend    float64
		opacity  []float64
		firstIdx int
	}{
		{"idle", nimitta, nimitta, 1, []float64{1}, 2},
		{"same mode fade", breath2, breath, 0.5, []float64{1}, 1},
		{"cross mode fade", breath, nimitta, 0.25, []float64{0.75, 0.25}, 1},
		{"fade just started", breath, nimitta, 0.005, []float64{0.995}, 1},
		{"fade nearly done", breath, nimitta, 0.995, []float64{0.995}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls := Layers(frameAt(tt.prev, tt.cur, tt.blend))
			if assert.Len(t, ls, len(tt.opacity)) {
				for i, l := range ls {
					assert.InDelta(t, tt.opacity[i], l.Opacity, 1e-9)
				}
				assert.Equal(t, tt.firstIdx, ls[0].Stage.Index)
			}
		})
	}
}

func TestLayersOutgoingUsesOwnParams(t *testing.T) {
	a := stage.Stage{Index: 0, Mode: stage.SamathaBreath, Params: stage.ParamBag{Noise: 0.3, BreathVis: 1}}
	b := stage.Stage{Index: 1, Mode: stage.Jhana, Params: stage.ParamBag{Level: 1, Color: "#fffdd0"}}
	ls := Layers(frameAt(a, b, 0.7))
	assert.Len(t, ls, 2)
	assert.Equal(t, 0.3, ls[0].Params.Noise)
	assert.Equal(t, "#fff", ls[0].Params.Color)
	assert.Equal(t, "#fffdd0", ls[1].Params.Color)
	assert.InDelta(t, 0.7, ls[1].Params.Level, 1e-9)
}

func TestDispatchUnknownModeIsNoop(t *testing.T) {
	d := NewDispatcher(nil)
	dst := make([]Color, 4)
	s := stage.Stage{Mode: stage.Nibbana}
	assert.False(t, d.Dispatch(dst, Dimensions{X: 2, Y: 2}, 0, s, s.Params, 1))
	assert.False(t, d.Dispatch(dst, Dimensions{X: 2, Y: 2}, 0, s, s.Params, 1))
	assert.Equal(t, make([]Color, 4), dst)
}

func TestDispatchRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	bad := &fakeRenderer{mode: stage.NanaTerror, explode: true}
	reg.Register(bad)
	d := NewDispatcher(reg)
	s := stage.Stage{Mode: stage.NanaTerror}
	assert.NotPanics(t, func() {
		assert.False(t, d.Dispatch(make([]Color, 1), Dimensions{X: 1, Y: 1}, 0, s, s.Params, 1))
	})
	assert.Equal(t, 1, bad.calls)
}

func TestDispatchFrameCountsGenerators(t *testing.T) {
	reg := NewRegistry()
	out := &fakeRenderer{mode: stage.NanaEquanimity}
	reg.Register(out)
	d := NewDispatcher(reg)
	prev := stage.Stage{Index: 22, Mode: stage.NanaEquanimity, Params: stage.ParamBag{Smooth: true}}
	end := stage.Stage{Index: 23, Mode: stage.Nibbana}

	n := d.DispatchFrame(make([]Color, 1), Dimensions{X: 1, Y: 1}, frameAt(prev, end, 0.4))
	assert.Equal(t, 1, n, "the finale has no generator")
	assert.InDelta(t, 0.6, out.lastOp, 1e-9)
	assert.True(t, out.lastP.Smooth)
}

func TestRegistryModesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeRenderer{mode: stage.NanaTerror})
	reg.Register(&fakeRenderer{mode: stage.Arupa})
	reg.Register(nil)
	assert.Equal(t, []stage.RenderMode{stage.Arupa, stage.NanaTerror}, reg.Modes())
}
