package stage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultStages []byte

var (
	ErrEmptyTable       = errors.New("stage table has no stages")
	ErrManyBranchPoints = errors.New("stage table has more than one branch point")
	ErrSkipTarget       = errors.New("skip target must come after the branch point")
	ErrManySkipTargets  = errors.New("stage table has more than one skip target")
)

// Table is the ordered, read-only list of stages. Index order is the
// default linear path.
type Table []Stage

type tableFile struct {
	Stages []Stage `yaml:"stages"`
}

// Default returns the built-in 24 stage path.
func Default() (Table, error) {
	return Parse(defaultStages)
}

// Load reads a stage table from a YAML file.
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes and validates a YAML stage table.
func Parse(b []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	t := Table(f.Stages)
	for i := range t {
		t[i].Index = i
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the structural rules the engine relies on.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	branch, skip := -1, -1
	for i, s := range t {
		if s.BranchPoint {
			if branch != -1 {
				return ErrManyBranchPoints
			}
			branch = i
		}
		if s.SkipTarget {
			if skip != -1 {
				return ErrManySkipTargets
			}
			skip = i
		}
	}
	if skip != -1 && branch != -1 && skip <= branch {
		return fmt.Errorf("%w: branch=%d skip=%d", ErrSkipTarget, branch, skip)
	}
	return nil
}

func (t Table) Len() int { return len(t) }

// At returns the stage at i, or false when i is out of range.
func (t Table) At(i int) (Stage, bool) {
	if i < 0 || i >= len(t) {
		return Stage{}, false
	}
	return t[i], true
}

// Last returns the index of the final stage.
func (t Table) Last() int { return len(t) - 1 }

// TerminalIndex returns the first stage flagged terminal, or the last stage
// when none is.
func (t Table) TerminalIndex() int {
	for i, s := range t {
		if s.Terminal {
			return i
		}
	}
	return t.Last()
}

// BranchIndex returns the index of the branch stage or -1.
func (t Table) BranchIndex() int {
	for i, s := range t {
		if s.BranchPoint {
			return i
		}
	}
	return -1
}

// SkipTargetIndex returns the index of the stage the skip-ahead choice jumps
// to, or -1.
func (t Table) SkipTargetIndex() int {
	for i, s := range t {
		if s.SkipTarget {
			return i
		}
	}
	return -1
}

// IndexOfMode returns the first stage rendered with m, or -1.
func (t Table) IndexOfMode(m RenderMode) int {
	for i, s := range t {
		if s.Mode == m {
			return i
		}
	}
	return -1
}

// TotalDuration sums the configured durations in simulated seconds. Stages
// without a duration contribute nothing.
func (t Table) TotalDuration() float64 {
	total := 0.0
	for _, s := range t {
		if s.DurationS > 0 {
			total += s.DurationS
		}
	}
	return total
}
