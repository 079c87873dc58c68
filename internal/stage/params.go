package stage

// ParamBag holds the recognized per-stage render parameters.
//
// Numeric fields interpolate linearly during a cross-fade and read as 0 when
// a stage does not set them. Categorical fields and flags have no continuous
// form and switch over at the midpoint of the fade.
type ParamBag struct {
	Noise         float64 `yaml:"noise,omitempty" json:"noise"`
	Focus         float64 `yaml:"focus,omitempty" json:"focus"`
	NimittaStr    float64 `yaml:"nimittaStr,omitempty" json:"nimittaStr"`
	BreathVis     float64 `yaml:"breathVis,omitempty" json:"breathVis"`
	Level         float64 `yaml:"level,omitempty" json:"level"`
	JhanaLevel    float64 `yaml:"jhanaLevel,omitempty" json:"jhanaLevel"`
	Chaos         float64 `yaml:"chaos,omitempty" json:"chaos"`
	Flicker       float64 `yaml:"flicker,omitempty" json:"flicker"`
	Decay         float64 `yaml:"decay,omitempty" json:"decay"`
	Speed         float64 `yaml:"speed,omitempty" json:"speed"`
	Dir           float64 `yaml:"dir,omitempty" json:"dir"`
	GreyEmergence float64 `yaml:"greyEmergence,omitempty" json:"greyEmergence"`

	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
	NimittaType string `yaml:"nimittaType,omitempty" json:"nimittaType,omitempty"`
	SubType     string `yaml:"subType,omitempty" json:"subType,omitempty"`
	Tint        string `yaml:"tint,omitempty" json:"tint,omitempty"`

	Shake  bool `yaml:"shake,omitempty" json:"shake,omitempty"`
	Smooth bool `yaml:"smooth,omitempty" json:"smooth,omitempty"`
}

const (
	defaultColor       = "#fff"
	defaultNimittaType = "clouds"
)

// Lerp interpolates a toward b. The endpoints are returned exactly.
func Lerp(a, b, t float64) float64 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}

// Blend sweeps the bag a toward b by t in [0,1]. It is one directional:
// Blend(a, b, t) is not Blend(b, a, 1-t) for the categorical fields.
func Blend(a, b ParamBag, t float64) ParamBag {
	out := ParamBag{
		Noise:         Lerp(a.Noise, b.Noise, t),
		Focus:         Lerp(a.Focus, b.Focus, t),
		NimittaStr:    Lerp(a.NimittaStr, b.NimittaStr, t),
		BreathVis:     Lerp(a.BreathVis, b.BreathVis, t),
		Level:         Lerp(a.Level, b.Level, t),
		JhanaLevel:    Lerp(a.JhanaLevel, b.JhanaLevel, t),
		Chaos:         Lerp(a.Chaos, b.Chaos, t),
		Flicker:       Lerp(a.Flicker, b.Flicker, t),
		Decay:         Lerp(a.Decay, b.Decay, t),
		Speed:         Lerp(a.Speed, b.Speed, t),
		Dir:           Lerp(a.Dir, b.Dir, t),
		GreyEmergence: Lerp(a.GreyEmergence, b.GreyEmergence, t),
	}

	// first half shows a, second half shows b
	second := t >= 0.5
	if a.Color != "" || b.Color != "" {
		out.Color = pick(second, orDefault(a.Color, defaultColor), orDefault(b.Color, defaultColor))
	}
	out.NimittaType = pick(second, orDefault(a.NimittaType, defaultNimittaType), orDefault(b.NimittaType, defaultNimittaType))
	out.SubType = pick(second, a.SubType, b.SubType)
	out.Tint = pick(second, a.Tint, b.Tint)

	// flags flip strictly after the midpoint
	out.Shake = a.Shake
	out.Smooth = a.Smooth
	if t > 0.5 {
		out.Shake = b.Shake
		out.Smooth = b.Smooth
	}
	return out
}

func pick(second bool, a, b string) string {
	if second {
		return b
	}
	return a
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
