package scenes

import (
	"math"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

var white = render.Color{R: 1, G: 1, B: 1}

// jhana is a radial gradient: white core, the stage color at a fifth of the
// radius, black at the edge. Higher levels spread wider.
func jhana(x, y, _ float64, p stage.ParamBag) render.Color {
	c := render.Hex(p.Color)
	level := orDefault(p.Level, 1)
	radius := 2 * (0.6 + level*0.1)
	f := math.Hypot(x, y) / radius
	switch {
	case f >= 1:
		return render.Color{}
	case f <= 0.2:
		return lerpColor(white, c, f/0.2)
	default:
		return c.Scale(1 - (f-0.2)/0.8)
	}
}

type factor struct {
	name  string
	color render.Color
	// lowest and highest jhana the factor is present in
	from, to int
}

var jhanaFactors = []factor{
	{"vitakka", render.Hex("#e74c3c"), 1, 1},
	{"vicara", render.Hex("#e67e22"), 1, 1},
	{"piti", render.Hex("#f1c40f"), 1, 2},
	{"sukha", render.Hex("#2ecc71"), 1, 3},
	{"ekaggata", render.Hex("#9b59b6"), 1, 4},
}

// factors shows the heart base with the five factors around it. Those absent
// at jhanaLevel are dimmed.
func factors(x, y, t float64, p stage.ParamBag) render.Color {
	level := int(math.Round(orDefault(p.JhanaLevel, 1)))
	pulse := 0.8 + 0.2*math.Sin(t*2)

	heart := glow(math.Hypot(x, y), 0.12) * pulse
	c := render.Color{R: float32(heart), G: float32(heart * 0.3), B: float32(heart * 0.3)}

	for i, f := range jhanaFactors {
		a := -math.Pi/2 + float64(i)*2*math.Pi/5
		fx, fy := math.Cos(a)*0.6, math.Sin(a)*0.6
		w := 0.25
		if level >= f.from && level <= f.to {
			w = 1
		}
		g := glow(math.Hypot(x-fx, y-fy), 0.1) * w
		c.R += f.color.R * float32(g)
		c.G += f.color.G * float32(g)
		c.B += f.color.B * float32(g)
	}
	// equanimity settles in at the fourth jhana
	if level >= 4 {
		ring := glow(math.Abs(math.Hypot(x, y)-0.85), 0.03) * 0.5
		c.R += float32(ring)
		c.G += float32(ring)
		c.B += float32(ring)
	}
	return c
}

// arupa draws the four immaterial bases, chosen by subType.
func arupa(x, y, t float64, p stage.ParamBag) render.Color {
	r := math.Hypot(x, y)
	switch p.SubType {
	case "consciousness":
		// rings spreading from the centre
		v := 0.0
		for i := 0; i < 15; i++ {
			rr := math.Mod(t*0.075+float64(i)*0.15, 2)
			v += glow(r-rr, 0.012)
		}
		v *= 0.15
		return render.Color{R: float32(v * 100 / 255), G: float32(v * 200 / 255), B: float32(v)}
	case "nothing":
		return render.Color{}
	case "neither":
		v := 0.03 * valueNoise(x*2+t*0.05, y*2, 17)
		return gray(v)
	default:
		// points streaming outward through boundless space
		if r < 1e-3 {
			return render.Color{}
		}
		a := math.Atan2(y, x)
		lane := int(math.Floor((a + math.Pi) / (2 * math.Pi) * 96))
		phase := hash2(lane, 0, 5)
		pos := math.Mod(t*0.4+phase*2, 2)
		return gray(glow(r-pos, 0.02) * 0.9)
	}
}

func lerpColor(a, b render.Color, t float64) render.Color {
	f := float32(t)
	return render.Color{
		R: a.R + (b.R-a.R)*f,
		G: a.G + (b.G-a.G)*f,
		B: a.B + (b.B-a.B)*f,
	}
}
