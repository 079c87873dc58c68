package scenes

import (
	"math"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

var (
	kalapaColors = []render.Color{
		render.Hex("#d4af37"), // earth
		render.Hex("#ecf0f1"), // water
		render.Hex("#e74c3c"), // fire
		render.Hex("#95a5a6"), // wind
	}
	heartRed   = render.Hex("#c0392b")
	mindBlue   = render.Hex("#3498db")
	pastGold   = render.Hex("#d4af37")
	futureBlue = render.Hex("#2980b9")
	ashGrey    = render.Hex("#555")
	calmBlue   = render.Color{R: 100.0 / 255, G: 200.0 / 255, B: 1}
)

// kalapas fills the body with flickering clusters of the four elements.
// chaos raises the density.
func kalapas(x, y, t float64, p stage.ParamBag) render.Color {
	if math.Hypot(x, y) > 0.8 {
		return render.Color{}
	}
	s := frameSeed(t, 20)
	cx, cy := int(math.Floor((x+1)*40)), int(math.Floor((y+1)*40))
	if hash2(cx, cy, s) > 0.12+0.3*p.Chaos {
		return render.Color{}
	}
	return kalapaColors[int(hash2(cx, cy, s+9)*4)%4]
}

// nama is the heart base with the stream of mind moments circling it.
func nama(x, y, t float64, _ stage.ParamBag) render.Color {
	c := heartRed.Scale(0.5 * (smoothEdge(math.Hypot(x, y), 0.1, 0.02) + 0.6*glow(math.Hypot(x, y), 0.2)))
	const moments = 17
	for i := 0; i < moments; i++ {
		a := float64(i)/moments*2*math.Pi + t*0.5
		r := 0.33 + math.Sin(t*2+float64(i))*0.033
		mx, my := math.Cos(a)*r, math.Sin(a)*r
		v := smoothEdge(math.Hypot(x-mx, y-my), 0.017, 0.01)
		c.R += mindBlue.R * float32(v)
		c.G += mindBlue.G * float32(v)
		c.B += mindBlue.B * float32(v)
	}
	return c
}

// tunnel draws rings rushing past: into the past for dir < 0, into the future
// otherwise.
func tunnel(x, y, t float64, p stage.ParamBag) render.Color {
	dir := p.Dir
	if dir == 0 {
		dir = -1
	}
	speed := orDefault(p.Speed, 2)
	col := futureBlue
	if dir < 0 {
		col = pastGold
	}
	r := math.Hypot(x, y)
	v := 0.0
	for i := 0; i < 20; i++ {
		z := math.Mod(t*100*speed+float64(i)*100, 2000)
		if dir < 0 {
			z = 2000 - z
		}
		scale := 300 / (z + 10)
		if scale > 5 {
			continue
		}
		v += glow(r-scale*0.33, 0.01) * math.Min(1, z/1000)
	}
	return col.Scale(math.Min(1, v))
}

// riseFall is golden points flashing in and out. flicker is the share of
// points dark on any frame.
func riseFall(x, y, t float64, p stage.ParamBag) render.Color {
	flicker := orDefault(p.Flicker, 0.9)
	s := frameSeed(t, 15)
	cx, cy := int(math.Floor((x+2)*20)), int(math.Floor((y+2)*20))
	if hash2(cx, cy, s) <= flicker {
		return render.Color{}
	}
	col := render.Hex(p.Color)
	if p.Color == "" {
		col = render.Hex("#ffd700")
	}
	return col.Scale(0.5 + 0.5*hash2(cx, cy, s+3))
}

// dissolution is ash shrinking away. decay is how quickly each mote fades.
func dissolution(x, y, t float64, p stage.ParamBag) render.Color {
	decay := orDefault(p.Decay, 0.98)
	cx, cy := int(math.Floor((x+2)*18)), int(math.Floor((y+2)*18))
	if hash2(cx, cy, 21) > 0.35 {
		return render.Color{}
	}
	// each mote lives for a cycle offset by its own phase
	life := math.Mod(t*0.5+hash2(cx, cy, 22)*4, 4)
	size := math.Pow(decay, life*30)
	return ashGrey.Scale(size)
}

// terror throws short red cracks across the field.
func terror(x, y, t float64, _ stage.ParamBag) render.Color {
	s := frameSeed(t, 10)
	// stretch cells along a per-cell angle so lit cells read as streaks
	cx := int(math.Floor((x + 2) * 6))
	cy := int(math.Floor((y + 2) * 6))
	if hash2(cx, cy, s) > 0.2 {
		return render.Color{}
	}
	a := hash2(cx, cy, s+1) * math.Pi
	lx := (x+2)*6 - float64(cx) - 0.5
	ly := (y+2)*6 - float64(cy) - 0.5
	d := math.Abs(-math.Sin(a)*lx + math.Cos(a)*ly)
	return heartRed.Scale(smoothEdge(d, 0.05, 0.03))
}

// equanimity is a calm stream flowing left to right.
func equanimity(x, y, t float64, p stage.ParamBag) render.Color {
	speed := 0.25
	if p.Smooth {
		speed = 0.15
	}
	v := 0.0
	for i := 0; i < 7; i++ {
		band := -0.9 + float64(i)*0.3
		wy := band + math.Sin(x*3+t+float64(i))*0.05
		v += glow(y-wy, 0.012)
	}
	// dotted so the flow is visible
	dots := 0.5 + 0.5*math.Sin((x-t*speed)*40)
	return calmBlue.Scale(0.5 * v * dots)
}
