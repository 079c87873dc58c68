package render

import (
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// MinLayerOpacity is the opacity at or below which a fading layer is not drawn.
const MinLayerOpacity = 0.01

// Layer is one generator invocation planned for a frame.
type Layer struct {
	Stage   stage.Stage
	Params  stage.ParamBag
	Opacity float64
}

// Layers plans the dispatches for f. A fade between two different modes draws
// the outgoing stage at 1-blend with its own bag and the incoming stage at
// blend with the blended bag. Anything else is a single opaque layer.
func Layers(f sequence.Frame) []Layer {
	if !f.Transitioning || f.Previous.Index == f.Stage.Index || f.Previous.Mode == f.Stage.Mode {
		return []Layer{{Stage: f.Stage, Params: f.Params, Opacity: 1}}
	}
	out := make([]Layer, 0, 2)
	if o := 1 - f.Blend; o > MinLayerOpacity {
		out = append(out, Layer{
			Stage:   f.Previous,
			Params:  stage.Blend(f.Previous.Params, f.Stage.Params, 0),
			Opacity: o,
		})
	}
	if f.Blend > MinLayerOpacity {
		out = append(out, Layer{Stage: f.Stage, Params: f.Params, Opacity: f.Blend})
	}
	return out
}

// Dispatcher maps a stage's render mode to its generator. It is owned by the
// frame loop and not safe for concurrent use.
type Dispatcher struct {
	reg    *Registry
	missed map[stage.RenderMode]bool
}

func NewDispatcher(reg *Registry) *Dispatcher {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Dispatcher{reg: reg, missed: map[stage.RenderMode]bool{}}
}

func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch invokes the generator for s.Mode once. A mode with no generator
// draws nothing. A panicking generator is logged and treated the same way.
func (d *Dispatcher) Dispatch(dst []Color, dim Dimensions, t float64, s stage.Stage, p stage.ParamBag, opacity float64) (drawn bool) {
	r, ok := d.reg.Get(s.Mode)
	if !ok {
		if !d.missed[s.Mode] {
			d.missed[s.Mode] = true
			log.Debug().Str("mode", string(s.Mode)).Int("stage", s.Index).Msg("no generator for mode")
		}
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("mode", string(s.Mode)).Int("stage", s.Index).Msg("generator panicked")
			drawn = false
		}
	}()
	r.Render(dst, dim, t, p, opacity)
	return true
}

// DispatchFrame draws every planned layer of f into dst and returns how many
// generators ran.
func (d *Dispatcher) DispatchFrame(dst []Color, dim Dimensions, f sequence.Frame) int {
	n := 0
	for _, l := range Layers(f) {
		if d.Dispatch(dst, dim, f.TimeS, l.Stage, l.Params, l.Opacity) {
			n++
		}
	}
	return n
}
