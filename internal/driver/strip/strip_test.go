package strip

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
)

type memDrawer struct {
	img    *image.NRGBA
	halted bool
	err    error
}

func (m *memDrawer) String() string { return "mem" }

func (m *memDrawer) Halt() error {
	m.halted = true
	return nil
}

func (m *memDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (m *memDrawer) Bounds() image.Rectangle { return m.img.Bounds() }
func (m *memDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if m.err != nil {
		return m.err
	}
	draw.Draw(m.img, r, src, sp, draw.Src)
	return nil
}

func TestDownsample(t *testing.T) {
	dim := render.Dimensions{X: 4, Y: 2}
	src := []render.Color{
		{R: 1}, {R: 1}, {G: 1}, {G: 0},
		{R: 1}, {R: 1}, {G: 1}, {G: 0},
	}
	dst := make([]render.Color, 2)
	Downsample(dst, src, dim)
	assert.InDelta(t, 1.0, dst[0].R, 1e-6)
	assert.InDelta(t, 0.0, dst[0].G, 1e-6)
	assert.InDelta(t, 0.5, dst[1].G, 1e-6)
}

func TestDownsampleMorePixelsThanColumns(t *testing.T) {
	dim := render.Dimensions{X: 2, Y: 1}
	src := []render.Color{{R: 1}, {B: 1}}
	dst := make([]render.Color, 4)
	Downsample(dst, src, dim)
	assert.InDelta(t, 1.0, dst[0].R, 1e-6)
	assert.InDelta(t, 1.0, dst[3].B, 1e-6)
}

func TestDownsampleShortSource(t *testing.T) {
	dst := []render.Color{{R: 1}}
	Downsample(dst, nil, render.Dimensions{X: 2, Y: 2})
	assert.Equal(t, render.Color{}, dst[0])
}

func TestWriteDrawsStrip(t *testing.T) {
	m := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 2, 1))}
	d := New(m, Options{NumPixels: 2, Channels: 3}, false)
	assert.False(t, d.Hardware())

	out := render.Output{
		Dim:    render.Dimensions{X: 2, Y: 1},
		Pixels: []render.Color{{R: 1}, {B: 2}},
	}
	require.NoError(t, d.Write(out))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, m.img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, m.img.NRGBAAt(1, 0))

	require.NoError(t, d.Close())
	assert.True(t, m.halted)
}

func TestWriteWrapsDrawError(t *testing.T) {
	boom := errors.New("boom")
	m := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 1, 1)), err: boom}
	d := New(m, Options{NumPixels: 1}, true)
	err := d.Write(render.Output{Dim: render.Dimensions{X: 1, Y: 1}, Pixels: []render.Color{{}}})
	assert.ErrorIs(t, err, boom)
}

func TestTo8(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{3, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, to8(tt.in), "to8(%v)", tt.in)
	}
}
