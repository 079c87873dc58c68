package render

import "math"

// PostParams drive the post stages. Zero values select the defaults.
type PostParams struct {
	ExposureEV  float64 `yaml:"exposure_ev" json:"exposureEV"`
	OutputGamma float64 `yaml:"output_gamma" json:"outputGamma"`

	// WhiteCap caps R+G+B per pixel in linear space (3 = no cap).
	WhiteCap float64 `yaml:"white_cap" json:"whiteCap"`
	// LEDChanMA is the current per color channel at full scale; WS2812 ~ 20.
	LEDChanMA float64 `yaml:"led_chan_ma" json:"ledChanMA"`
	// BudgetMA is the global current budget. 0 disables the budget stage.
	BudgetMA float64 `yaml:"budget_ma" json:"budgetMA"`
	// LimiterKnee is the fraction of the budget where soft limiting begins.
	LimiterKnee float64 `yaml:"limiter_knee" json:"limiterKnee"`
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	ToneMap func([]Color, PostParams)
	Limiter func([]Color, PostParams)
}

// PreviewPost tone maps for a display. There is no limiter on screens.
func PreviewPost() PostPipeline { return PostPipeline{ToneMap: FilmicToneMap} }

// FilmicToneMap applies exposure in EV, an ACES approximation and output
// gamma (default 2.2).
func FilmicToneMap(buf []Color, p PostParams) {
	inv := 1 / orFloat(p.OutputGamma, 2.2)
	gain := float32(math.Exp2(p.ExposureEV))
	for i, c := range buf {
		c = Color{R: aces(c.R * gain), G: aces(c.G * gain), B: aces(c.B * gain)}
		if inv != 1 {
			c = Color{R: gammaf(c.R, inv), G: gammaf(c.G, inv), B: gammaf(c.B, inv)}
		}
		buf[i] = c.clamp()
	}
}

// DefaultLimiter caps each pixel's R+G+B at WhiteCap, then scales the whole
// frame so the estimated strip current stays under BudgetMA. Between
// LimiterKnee and the budget the scale eases in instead of clipping.
func DefaultLimiter(buf []Color, p PostParams) {
	limit := float32(orFloat(p.WhiteCap, 3))
	for i, c := range buf {
		if sum := c.R + c.G + c.B; sum > limit {
			buf[i] = c.Scale(float64(limit / sum))
		}
	}
	if p.BudgetMA <= 0 {
		return
	}

	knee := p.LimiterKnee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	perChan := orFloat(p.LEDChanMA, 20)
	drawn := 0.0
	for _, c := range buf {
		drawn += float64(c.R+c.G+c.B) * perChan
	}
	if drawn <= 0 {
		return
	}

	load := drawn / p.BudgetMA
	switch {
	case load > 1:
		gainAll(buf, 1/load)
	case load > knee:
		// ease from 1 at the knee to 1/load at the budget
		t := (load - knee) / (1 - knee)
		gainAll(buf, 1-t*(1-1/load))
	}
}

// ApplyLED prepares a buffer for LEDs: exposure as a linear gain, the
// limiter, then a clamp. No tone curve and no gamma.
func ApplyLED(buf []Color, p PostParams) {
	if p.ExposureEV != 0 {
		gainAll(buf, math.Exp2(p.ExposureEV))
	}
	DefaultLimiter(buf, p)
	for i := range buf {
		buf[i] = buf[i].clamp()
	}
}

func gainAll(buf []Color, g float64) {
	for i := range buf {
		buf[i] = buf[i].Scale(g)
	}
}

func (c Color) clamp() Color {
	return Color{R: unit(c.R), G: unit(c.G), B: unit(c.B)}
}

func unit(x float32) float32 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func gammaf(x float32, p float64) float32 { return float32(math.Pow(float64(x), p)) }

func orFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// aces is the Narkowicz 2015 fit of the ACES filmic curve.
func aces(x float32) float32 {
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	return unit((x * (a*x + b)) / (x*(c*x+d) + e))
}
