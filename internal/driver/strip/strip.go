package strip

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
)

// Options configure the ambient strip.
type Options struct {
	Port      string // SPI port, empty for the first one found
	NumPixels int
	SpeedHz   int
	Channels  int
	Post      render.PostParams
}

// Driver reduces each frame to a row of LEDs and draws it on a WS281x
// strip over SPI, or on the console when no SPI port is available.
type Driver struct {
	opts     Options
	drawer   display.Drawer
	hardware bool

	px  []render.Color
	img *image.NRGBA
}

// Open initializes periph and the strip. A missing SPI port is not an
// error; the driver prints to the console instead.
func Open(o Options) (*Driver, error) {
	if o.NumPixels <= 0 {
		return nil, errors.New("strip: num_pixels must be positive")
	}
	if o.Channels == 0 {
		o.Channels = 3
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("strip: host init: %w", err)
	}
	port, err := spireg.Open(o.Port)
	if err != nil {
		log.Warn().Err(err).Msg("strip: no SPI port, printing at the console")
		return New(screen.New(o.NumPixels), o, false), nil
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: o.NumPixels,
		Channels:  o.Channels,
		Freq:      physic.Frequency(o.SpeedHz) * physic.Hertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("strip: nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		log.Warn().Err(err).Msg("strip: initial halt")
	}
	log.Info().Str("port", o.Port).Int("pixels", o.NumPixels).Msg("strip: ready")
	return New(d, o, true), nil
}

// New wraps an already opened drawer.
func New(d display.Drawer, o Options, hardware bool) *Driver {
	return &Driver{
		opts:     o,
		drawer:   d,
		hardware: hardware,
		px:       make([]render.Color, o.NumPixels),
		img:      image.NewNRGBA(image.Rect(0, 0, o.NumPixels, 1)),
	}
}

// Hardware reports whether a real strip is attached.
func (d *Driver) Hardware() bool { return d.hardware }

func (d *Driver) Write(o render.Output) error {
	Downsample(d.px, o.Pixels, o.Dim)
	render.ApplyLED(d.px, d.opts.Post)
	fillImage(d.img, d.px)
	if err := d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{}); err != nil {
		return fmt.Errorf("strip: draw: %w", err)
	}
	return nil
}

// Close blanks the strip.
func (d *Driver) Close() error {
	return d.drawer.Halt()
}

// Downsample averages src into len(dst) pixels, one vertical band of the
// framebuffer per pixel.
func Downsample(dst, src []render.Color, dim render.Dimensions) {
	n := len(dst)
	if n == 0 {
		return
	}
	if dim.X <= 0 || dim.Y <= 0 || len(src) < dim.Len() {
		render.Fill(dst, render.Color{})
		return
	}
	for i := 0; i < n; i++ {
		x0 := i * dim.X / n
		x1 := (i + 1) * dim.X / n
		if x1 <= x0 {
			x1 = x0 + 1
		}
		var r, g, b float32
		count := 0
		for y := 0; y < dim.Y; y++ {
			row := y * dim.X
			for x := x0; x < x1 && x < dim.X; x++ {
				c := src[row+x]
				r += c.R
				g += c.G
				b += c.B
				count++
			}
		}
		if count == 0 {
			dst[i] = render.Color{}
			continue
		}
		inv := 1 / float32(count)
		dst[i] = render.Color{R: r * inv, G: g * inv, B: b * inv}
	}
}

func fillImage(img *image.NRGBA, px []render.Color) {
	for i, c := range px {
		img.SetNRGBA(i, 0, color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255})
	}
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
