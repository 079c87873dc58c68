package render

import (
	"errors"
	"math"
	"time"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

var (
	backgroundColor = Color{R: 2.0 / 255, G: 2.0 / 255, B: 2.0 / 255}
	terrorColor     = Color{R: 26.0 / 255, G: 5.0 / 255, B: 5.0 / 255}
)

// ShakePx is the largest framebuffer offset applied by the shake flag.
const ShakePx = 2

// Output is one composited frame handed to drivers. Pixels is reused by the
// next frame; drivers must copy what they keep.
type Output struct {
	Dim    Dimensions
	Pixels []Color
	Frame  sequence.Frame
}

// Driver abstracts an output (terminal, LED strip, log sink).
type Driver interface {
	Write(o Output) error
}

// MultiDriver writes to every driver and joins their errors.
type MultiDriver []Driver

func (m MultiDriver) Write(o Output) error {
	var errs []error
	for _, d := range m {
		if err := d.Write(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Engine composites the dispatched layers of a frame into a framebuffer,
// applies post-processing, then writes to the driver.
type Engine struct {
	Dim  Dimensions
	Disp *Dispatcher
	Drv  Driver
	Post PostParams

	// framebuffers
	Out     []Color
	scratch []Color

	post PostPipeline

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		PostMS   float64
		TotalMS  float64
		Layers   int
	}
}

// NewEngine allocates buffers and returns an Engine with preview post wired.
func NewEngine(dim Dimensions, disp *Dispatcher, drv Driver) (*Engine, error) {
	if dim.X <= 0 || dim.Y <= 0 {
		return nil, errors.New("invalid dimensions")
	}
	if disp == nil {
		disp = NewDispatcher(nil)
	}
	n := dim.Len()
	return &Engine{
		Dim:     dim,
		Disp:    disp,
		Drv:     drv,
		Out:     make([]Color, n),
		scratch: make([]Color, n),
		post:    PreviewPost(),
	}, nil
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// RenderFrame draws f, post-processes and writes the result.
func (e *Engine) RenderFrame(f sequence.Frame) error {
	start := time.Now()
	e.Last.Layers = e.compose(f)
	renderDone := time.Now()

	if e.post.ToneMap != nil {
		e.post.ToneMap(e.Out, e.Post)
	}
	if e.post.Limiter != nil {
		e.post.Limiter(e.Out, e.Post)
	}
	e.Last.PostMS = float64(time.Since(renderDone).Microseconds()) / 1000.0
	e.Last.RenderMS = float64(renderDone.Sub(start).Microseconds()) / 1000.0

	var err error
	if e.Drv != nil {
		err = e.Drv.Write(Output{Dim: e.Dim, Pixels: e.Out, Frame: f})
	}
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0
	return err
}

func (e *Engine) compose(f sequence.Frame) int {
	// the finale fades to black and stays there
	if f.Stage.Mode == stage.Nibbana && f.Blend > 0.9 {
		Fill(e.Out, Color{})
		return 0
	}
	if f.Stage.Mode == stage.NanaTerror && f.Blend > 0.5 {
		Fill(e.Out, terrorColor)
	} else {
		Fill(e.Out, backgroundColor)
	}
	n := e.Disp.DispatchFrame(e.Out, e.Dim, f)
	if f.Params.Shake && f.Blend > 0.5 {
		dx, dy := shakeOffset(f.TimeS, f.Blend)
		e.shift(dx, dy)
	}
	return n
}

// shakeOffset is a deterministic jitter in [-ShakePx, ShakePx] scaled by blend.
func shakeOffset(t, blend float64) (int, int) {
	mag := ShakePx * blend
	jx := math.Sin(t*91.7) * math.Cos(t*13.1)
	jy := math.Sin(t*47.3+1.3) * math.Cos(t*7.9)
	return int(math.Round(jx * mag)), int(math.Round(jy * mag))
}

func (e *Engine) shift(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	copy(e.scratch, e.Out)
	for y := 0; y < e.Dim.Y; y++ {
		sy := y - dy
		for x := 0; x < e.Dim.X; x++ {
			sx := x - dx
			i := y*e.Dim.X + x
			if sx < 0 || sy < 0 || sx >= e.Dim.X || sy >= e.Dim.Y {
				e.Out[i] = Color{}
				continue
			}
			e.Out[i] = e.scratch[sy*e.Dim.X+sx]
		}
	}
}
