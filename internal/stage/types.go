package stage

// RenderMode selects the visual generator used for a stage.
type RenderMode string

const (
	SamathaBreath         RenderMode = "SAMATHA_BREATH"
	SamathaNimitta        RenderMode = "SAMATHA_NIMITTA"
	Jhana                 RenderMode = "JHANA"
	JhanaFactorsHeartbase RenderMode = "JHANA_FACTORS_HEARTBASE"
	Arupa                 RenderMode = "ARUPA"
	VipassanaRupa         RenderMode = "VIPASSANA_RUPA"
	VipassanaNama         RenderMode = "VIPASSANA_NAMA"
	TimeTunnel            RenderMode = "TIME_TUNNEL"
	NanaRiseFall          RenderMode = "NANA_RISEFALL"
	NanaDissolution       RenderMode = "NANA_DISSOLUTION"
	NanaTerror            RenderMode = "NANA_TERROR"
	NanaEquanimity        RenderMode = "NANA_EQUANIMITY"
	Nibbana               RenderMode = "NIBBANA"
)

// Modes lists every known render mode in path order.
func Modes() []RenderMode {
	return []RenderMode{
		SamathaBreath, SamathaNimitta, Jhana, JhanaFactorsHeartbase, Arupa,
		VipassanaRupa, VipassanaNama, TimeTunnel, NanaRiseFall,
		NanaDissolution, NanaTerror, NanaEquanimity, Nibbana,
	}
}

// Known reports whether m is one of Modes.
func (m RenderMode) Known() bool {
	for _, k := range Modes() {
		if k == m {
			return true
		}
	}
	return false
}

// DefaultDurationS is used when a stage has no usable duration.
const DefaultDurationS = 1.0

// Stage is one step of the path. Stages are loaded once and never mutated;
// Index is the position in the owning Table.
type Stage struct {
	Index    int        `yaml:"-" json:"index"`
	ID       int        `yaml:"id" json:"id"`
	Category string     `yaml:"category" json:"category"`
	Title    string     `yaml:"title" json:"title"`
	Pali     string     `yaml:"pali,omitempty" json:"pali,omitempty"`
	Desc     string     `yaml:"desc" json:"desc"`
	Factors  []string   `yaml:"factors,omitempty" json:"factors,omitempty"`
	Mode     RenderMode `yaml:"mode" json:"mode"`
	Params   ParamBag   `yaml:"params,omitempty" json:"params"`

	DurationS   float64 `yaml:"duration_s,omitempty" json:"durationS"`
	BranchPoint bool    `yaml:"branch_point,omitempty" json:"branchPoint,omitempty"`
	SkipTarget  bool    `yaml:"skip_target,omitempty" json:"skipTarget,omitempty"`
	Terminal    bool    `yaml:"terminal,omitempty" json:"terminal,omitempty"`
}

// Duration returns the stage length in simulated seconds, falling back to
// DefaultDurationS so automatic mode always makes progress.
func (s Stage) Duration() float64 {
	if s.DurationS <= 0 {
		return DefaultDurationS
	}
	return s.DurationS
}
