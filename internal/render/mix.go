package render

import (
	"strconv"
	"strings"
)

// Mix blends two framebuffers (a,b) into dst using alpha (0..1).
// Channels are linear; no gamma assumed.
func Mix(dst, a, b []Color, alpha float64) {
	if alpha <= 0 {
		copy(dst, a)
		return
	}
	if alpha >= 1 {
		copy(dst, b)
		return
	}
	af := float32(1.0 - alpha)
	bf := float32(alpha)
	for i := range dst {
		dst[i].R = a[i].R*af + b[i].R*bf
		dst[i].G = a[i].G*af + b[i].G*bf
		dst[i].B = a[i].B*af + b[i].B*bf
	}
}

// Add accumulates c into dst[i] weighted by opacity. Two layers drawn at
// 1-a and a sum to the same result as Mix at a.
func Add(dst []Color, i int, c Color, opacity float64) {
	if i < 0 || i >= len(dst) {
		return
	}
	o := float32(opacity)
	dst[i].R += c.R * o
	dst[i].G += c.G * o
	dst[i].B += c.B * o
}

// Shade evaluates fn for every pixel and adds the result at opacity. fn gets
// coordinates centred on the frame, with y scaled so the shorter side spans
// [-1, 1].
func Shade(dst []Color, dim Dimensions, opacity float64, fn func(x, y float64) Color) {
	if dim.X <= 0 || dim.Y <= 0 || opacity <= 0 {
		return
	}
	half := float64(min(dim.X, dim.Y)) / 2
	cx := float64(dim.X-1) / 2
	cy := float64(dim.Y-1) / 2
	for py := 0; py < dim.Y; py++ {
		for px := 0; px < dim.X; px++ {
			x := (float64(px) - cx) / half
			y := (float64(py) - cy) / half
			Add(dst, py*dim.X+px, fn(x, y), opacity)
		}
	}
}

func Fill(dst []Color, c Color) {
	for i := range dst {
		dst[i] = c
	}
}

func (c Color) Scale(s float64) Color {
	f := float32(s)
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

// Luma is the Rec. 709 luminance.
func (c Color) Luma() float32 { return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B }

// Hex parses #rgb or #rrggbb. Anything else is white.
func Hex(s string) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{1, 1, 1}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{1, 1, 1}
	}
	return Color{
		R: float32(v>>16&0xff) / 255,
		G: float32(v>>8&0xff) / 255,
		B: float32(v&0xff) / 255,
	}
}
