package sequence

import "github.com/coreman2200/funtimes-nimitta/internal/stage"

// DefaultTransitionS is the cross-fade length in real seconds.
const DefaultTransitionS = 5.0

// Transition tracks the current and previous stage and the progress of the
// cross-fade between them. A new AdvanceTo during a fade restarts the fade
// from whatever stage was current; fades are never queued.
type Transition struct {
	duration float64
	ease     Ease

	prev, cur int
	elapsed   float64
	active    bool
}

// NewTransition returns a controller resting on stage 0.
func NewTransition(durationS float64, ease Ease) *Transition {
	if durationS <= 0 {
		durationS = DefaultTransitionS
	}
	return &Transition{duration: durationS, ease: ease}
}

// Reset parks the controller on index with no fade in progress.
func (tr *Transition) Reset(index int) {
	tr.prev = index
	tr.cur = index
	tr.elapsed = 0
	tr.active = false
}

// AdvanceTo starts a fresh fade from the current stage to next. Range checks
// are the caller's job.
func (tr *Transition) AdvanceTo(next int) {
	tr.prev = tr.cur
	tr.cur = next
	tr.elapsed = 0
	tr.active = true
}

// Tick adds real (unaccelerated) seconds to the fade. The fade ends on the
// tick that reaches the duration.
func (tr *Transition) Tick(dt float64) {
	if !tr.active || dt <= 0 {
		return
	}
	tr.elapsed += dt
	if tr.elapsed >= tr.duration {
		tr.elapsed = tr.duration
		tr.active = false
	}
}

func (tr *Transition) Current() int      { return tr.cur }
func (tr *Transition) Previous() int     { return tr.prev }
func (tr *Transition) Active() bool      { return tr.active }
func (tr *Transition) Elapsed() float64  { return tr.elapsed }
func (tr *Transition) Duration() float64 { return tr.duration }

// BlendFactor returns the eased fade progress, 1 once the fade is over.
func (tr *Transition) BlendFactor() float64 {
	if !tr.active {
		return 1
	}
	return tr.ease.Apply(tr.elapsed / tr.duration)
}

// RenderParams returns the parameter bag to render this frame: the blend of
// previous and current while fading between two different stages, otherwise
// the current stage's own bag.
func (tr *Transition) RenderParams(tbl stage.Table) stage.ParamBag {
	cur, ok := tbl.At(tr.cur)
	if !ok {
		return stage.ParamBag{}
	}
	if !tr.active || tr.prev == tr.cur {
		return cur.Params
	}
	prev, ok := tbl.At(tr.prev)
	if !ok {
		return cur.Params
	}
	return stage.Blend(prev.Params, cur.Params, tr.BlendFactor())
}
