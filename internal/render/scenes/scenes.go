// Package scenes holds one procedural generator per render mode. Every
// generator is a pure function of pixel position, time and the parameter bag,
// so the same frame always draws the same image.
package scenes

import (
	"math"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

type shader func(x, y, t float64, p stage.ParamBag) render.Color

// Scene adapts a shader to render.Renderer.
type Scene struct {
	mode  stage.RenderMode
	shade shader
}

func (s *Scene) Mode() stage.RenderMode { return s.mode }

func (s *Scene) Render(dst []render.Color, dim render.Dimensions, t float64, p stage.ParamBag, opacity float64) {
	render.Shade(dst, dim, opacity, func(x, y float64) render.Color { return s.shade(x, y, t, p) })
}

// All returns a generator for every mode except the finale, which is drawn
// as a blackout by the engine.
func All() []render.Renderer {
	return []render.Renderer{
		&Scene{stage.SamathaBreath, breath},
		&Scene{stage.SamathaNimitta, nimitta},
		&Scene{stage.Jhana, jhana},
		&Scene{stage.JhanaFactorsHeartbase, factors},
		&Scene{stage.Arupa, arupa},
		&Scene{stage.VipassanaRupa, kalapas},
		&Scene{stage.VipassanaNama, nama},
		&Scene{stage.TimeTunnel, tunnel},
		&Scene{stage.NanaRiseFall, riseFall},
		&Scene{stage.NanaDissolution, dissolution},
		&Scene{stage.NanaTerror, terror},
		&Scene{stage.NanaEquanimity, equanimity},
	}
}

// Registry returns a registry with All registered.
func Registry() *render.Registry {
	reg := render.NewRegistry()
	for _, r := range All() {
		reg.Register(r)
	}
	return reg
}

// hash2 maps an integer lattice point and seed to [0,1).
func hash2(x, y int, seed uint32) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + seed*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h) / float64(math.MaxUint32+1)
}

// valueNoise is smooth lattice noise in [0,1).
func valueNoise(x, y float64, seed uint32) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	sx := fx * fx * (3 - 2*fx)
	sy := fy * fy * (3 - 2*fy)
	a := hash2(ix, iy, seed)
	b := hash2(ix+1, iy, seed)
	c := hash2(ix, iy+1, seed)
	d := hash2(ix+1, iy+1, seed)
	top := a + (b-a)*sx
	bot := c + (d-c)*sx
	return top + (bot-top)*sy
}

// frameSeed changes rate times per second, for effects the original drew
// from a fresh random source every frame.
func frameSeed(t, rate float64) uint32 { return uint32(int64(t * rate)) }

func glow(r, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	return math.Exp(-(r * r) / (radius * radius))
}

func smoothEdge(r, radius, soft float64) float64 {
	if soft <= 0 {
		soft = 1e-3
	}
	v := (radius - r) / soft
	return math.Max(0, math.Min(1, v))
}

func gray(v float64) render.Color {
	f := float32(v)
	return render.Color{R: f, G: f, B: f}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
