package render

import (
	"sort"

	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

type Color struct{ R, G, B float32 }

// Dimensions of the framebuffer in pixels. Pixel (x, y) lives at y*X+x.
type Dimensions struct{ X, Y int }

func (d Dimensions) Len() int { return d.X * d.Y }

// Renderer draws one render mode. Render composites its layer into dst at the
// given opacity; it must not clear dst.
type Renderer interface {
	Mode() stage.RenderMode
	Render(dst []Color, dim Dimensions, t float64, p stage.ParamBag, opacity float64)
}

type Registry struct{ m map[stage.RenderMode]Renderer }

func NewRegistry() *Registry { return &Registry{m: map[stage.RenderMode]Renderer{}} }

func (r *Registry) Register(rr Renderer) {
	if rr == nil {
		return
	}
	r.m[rr.Mode()] = rr
}

func (r *Registry) Get(m stage.RenderMode) (Renderer, bool) {
	rr, ok := r.m[m]
	return rr, ok
}

// Modes lists the registered modes in a stable order.
func (r *Registry) Modes() []stage.RenderMode {
	out := make([]stage.RenderMode, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
