package scenes

import (
	"math"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// breath is the restless visual field behind closed eyes with the touching
// point glowing in time with the breath. noise sets how busy the field is;
// greyEmergence drains its color.
func breath(x, y, t float64, p stage.ParamBag) render.Color {
	n := p.Noise
	grey := math.Max(0, math.Min(1, p.GreyEmergence))

	// drifting colored grain
	s := frameSeed(t, 12)
	gx, gy := int(math.Floor((x+2)*24)), int(math.Floor((y+2)*24))
	r := hash2(gx, gy, s)
	g := hash2(gx, gy, s+101)
	b := hash2(gx, gy, s+202)
	l := (r + g + b) / 3
	r = r + (l-r)*grey
	g = g + (l-g)*grey
	b = b + (l-b)*grey
	field := 0.6 * n
	c := render.Color{R: float32(r * field), G: float32(g * field), B: float32(b * field)}

	// touching point below the nose
	in := (math.Sin(t*0.8) + 1) / 2
	d := math.Hypot(x, y+0.15)
	touch := p.BreathVis * (0.25 + 0.5*in) * glow(d, 0.08+0.04*p.Focus)
	c.R += float32(touch)
	c.G += float32(touch * 0.9)
	c.B += float32(touch * 0.8)
	return c
}

// nimitta draws the sign in its current form. nimittaStr is its brightness
// and focus pulls it together.
func nimitta(x, y, t float64, p stage.ParamBag) render.Color {
	str := p.NimittaStr
	focus := p.Focus
	// unfocused signs wander
	wx := (1 - focus) * 0.25 * math.Sin(t*0.37)
	wy := (1 - focus) * 0.2 * math.Cos(t*0.29)
	d := math.Hypot(x-wx, y-wy)
	radius := 0.55 - 0.25*focus

	switch p.NimittaType {
	case "smoke":
		v := valueNoise(x*3+t*0.3, y*3-t*0.2, 7)
		return gray(str * 0.6 * v * smoothEdge(d, radius+0.1, 0.3))
	case "cotton":
		body := smoothEdge(d, radius, 0.06)
		tex := 0.85 + 0.15*valueNoise(x*9, y*9, 11)
		return gray(str * body * tex)
	case "crystal":
		core := glow(d, radius*0.5)
		a := math.Atan2(y-wy, x-wx)
		rays := math.Pow(math.Abs(math.Cos(a*4+t*0.2)), 24) * glow(d, radius*1.6)
		v := str * (core + 0.35*rays)
		return render.Color{R: float32(v * 0.92), G: float32(v * 0.97), B: float32(v)}
	case "none":
		return render.Color{}
	default:
		v := valueNoise(x*2+t*0.1, y*2, 3)
		return gray(str * 0.3 * v * glow(d, radius*1.5))
	}
}
