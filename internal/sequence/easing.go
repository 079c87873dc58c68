package sequence

// Ease names the curve applied to raw fade progress.
type Ease string

const (
	EaseLinear Ease = "linear"
	EaseSmooth Ease = "smooth"
	EaseCubic  Ease = "cubic"
)

// clamp01 clamps x in [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Smoothstep is the classic 3x^2 - 2x^3 curve.
func Smoothstep(x float64) float64 {
	return x * x * (3 - 2*x)
}

// smootherstep (cubic-ish) for ease="cubic"
func smootherstep(x float64) float64 {
	// 6x^5 - 15x^4 + 10x^3
	return x * x * x * (x*(x*6-15) + 10)
}

// Apply eases x after clamping it to [0,1]. Unknown or empty names use
// smoothstep.
func (e Ease) Apply(x float64) float64 {
	x = clamp01(x)
	switch e {
	case EaseLinear:
		return x
	case EaseCubic:
		return smootherstep(x)
	default:
		return Smoothstep(x)
	}
}

// Valid reports whether e is empty or a known curve.
func (e Ease) Valid() bool {
	switch e {
	case "", EaseLinear, EaseSmooth, EaseCubic:
		return true
	}
	return false
}
