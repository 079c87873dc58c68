package fake

import (
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
)

// Summary is the compact description of the most recent frame.
type Summary struct {
	Frame int
	Stage int
	Avg   render.Color
	First render.Color
}

// Driver logs a summary of every Every-th frame (first pixel & avg), useful
// for headless runs and tests.
type Driver struct {
	Every int
	Count int
	Last  Summary
}

func (d *Driver) Write(o render.Output) error {
	d.Count++
	d.Last = Summarize(o.Pixels)
	d.Last.Frame = d.Count
	d.Last.Stage = o.Frame.Stage.Index

	every := d.Every
	if every <= 0 {
		every = 1
	}
	if d.Count%every != 0 {
		return nil
	}
	log.Debug().
		Int("frame", d.Count).
		Int("stage", d.Last.Stage).
		Str("phase", string(o.Frame.Phase)).
		Float64("blend", o.Frame.Blend).
		Floats32("avg", []float32{d.Last.Avg.R, d.Last.Avg.G, d.Last.Avg.B}).
		Floats32("first", []float32{d.Last.First.R, d.Last.First.G, d.Last.First.B}).
		Msg("frame")
	return nil
}

// Summarize averages buf. An empty buffer summarizes to black.
func Summarize(buf []render.Color) Summary {
	var s Summary
	if len(buf) == 0 {
		return s
	}
	var r, g, b float64
	for i := range buf {
		r += float64(buf[i].R)
		g += float64(buf[i].G)
		b += float64(buf[i].B)
	}
	n := float64(len(buf))
	s.Avg = render.Color{R: float32(r / n), G: float32(g / n), B: float32(b / n)}
	s.First = buf[0]
	return s
}
