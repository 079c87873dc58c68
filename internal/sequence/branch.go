package sequence

import "strings"

// Choice is the path picked at the branch stage.
type Choice int

const (
	ChoiceNone Choice = iota
	// ChoiceContinue carries on linearly through the immaterial absorptions.
	ChoiceContinue
	// ChoiceSkipAhead jumps straight to the skip-target stage.
	ChoiceSkipAhead
)

func (c Choice) String() string {
	switch c {
	case ChoiceContinue:
		return "continue"
	case ChoiceSkipAhead:
		return "skip"
	default:
		return "none"
	}
}

func (c Choice) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Choice) UnmarshalText(b []byte) error {
	*c = ParseChoice(string(b))
	return nil
}

// ParseChoice accepts the choice names used by the control surfaces.
func ParseChoice(s string) Choice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continue", "arupa", "linear":
		return ChoiceContinue
	case "skip", "skipahead", "skip_ahead", "vipassana":
		return ChoiceSkipAhead
	default:
		return ChoiceNone
	}
}

// BranchState enumerates the path branch states.
type BranchState string

const (
	BranchLinear   BranchState = "linear"
	BranchAwaiting BranchState = "awaiting_choice"
	BranchTaken    BranchState = "branched"
)

// PathBranch gates forward progress at the branch stage until a choice is
// made, then redirects the next-stage computation. A table without a branch
// stage (branchIndex < 0) is always linear.
type PathBranch struct {
	branchIndex int
	skipTarget  int

	state  BranchState
	choice Choice
}

func NewPathBranch(branchIndex, skipTarget int) *PathBranch {
	return &PathBranch{branchIndex: branchIndex, skipTarget: skipTarget, state: BranchLinear}
}

// Reset forgets the recorded choice.
func (b *PathBranch) Reset() {
	b.state = BranchLinear
	b.choice = ChoiceNone
}

func (b *PathBranch) State() BranchState { return b.state }
func (b *PathBranch) Choice() Choice     { return b.choice }
func (b *PathBranch) Awaiting() bool     { return b.state == BranchAwaiting }
func (b *PathBranch) BranchIndex() int   { return b.branchIndex }

// Forward resolves a forward request from cur. When prompt is true the
// request was dropped and the branch is (still) awaiting a choice.
func (b *PathBranch) Forward(cur int) (next int, prompt bool) {
	if b.branchIndex < 0 || cur != b.branchIndex {
		return cur + 1, false
	}
	switch b.state {
	case BranchLinear:
		b.state = BranchAwaiting
		return cur, true
	case BranchAwaiting:
		return cur, true
	default:
		return b.continuation(cur), false
	}
}

// Backward resolves a backward request from cur. Moving back is refused
// while a choice is pending and, once skip-ahead was taken, into the stages
// it bypassed.
func (b *PathBranch) Backward(cur int) (next int, ok bool) {
	if b.state == BranchAwaiting {
		return cur, false
	}
	next = cur - 1
	if b.skipped(next) {
		return cur, false
	}
	return next, true
}

// Allows reports whether a direct jump from cur to target respects the
// branch: nothing past the branch stage before a choice is recorded, and
// nothing inside a skipped range afterwards.
func (b *PathBranch) Allows(cur, target int) bool {
	if b.branchIndex < 0 {
		return true
	}
	if b.state != BranchTaken && target > b.branchIndex {
		return false
	}
	return !b.skipped(target)
}

// Choose records c while awaiting and returns the deferred target.
func (b *PathBranch) Choose(c Choice, cur int) (next int, ok bool) {
	if b.state != BranchAwaiting {
		return cur, false
	}
	if c != ChoiceContinue && c != ChoiceSkipAhead {
		return cur, false
	}
	b.choice = c
	b.state = BranchTaken
	return b.continuation(cur), true
}

func (b *PathBranch) continuation(cur int) int {
	if b.choice == ChoiceSkipAhead && b.skipTarget > cur {
		return b.skipTarget
	}
	return cur + 1
}

func (b *PathBranch) skipped(i int) bool {
	return b.state == BranchTaken && b.choice == ChoiceSkipAhead &&
		i > b.branchIndex && i < b.skipTarget
}
