package sequence

import (
	"fmt"
	"math"
	"strings"

	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// Mode selects how stages advance.
type Mode string

const (
	Manual    Mode = "manual"
	Automatic Mode = "automatic"
)

// ParseMode accepts "manual", "automatic" and the older "realtime".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return Manual, nil
	case "automatic", "auto", "realtime":
		return Automatic, nil
	}
	return "", fmt.Errorf("unknown mode: %s", s)
}

// DefaultMaxFrameDeltaS caps a single frame's wall-clock delta.
const DefaultMaxFrameDeltaS = 0.05

// Options are fixed for the lifetime of a Session.
type Options struct {
	Mode           Mode
	Acceleration   float64
	TransitionS    float64
	MaxFrameDeltaS float64
	Ease           Ease
}

func DefaultOptions() Options {
	return Options{
		Mode:           Manual,
		Acceleration:   DefaultAcceleration,
		TransitionS:    DefaultTransitionS,
		MaxFrameDeltaS: DefaultMaxFrameDeltaS,
		Ease:           EaseSmooth,
	}
}

// Hooks are optional callbacks fired synchronously from Session methods.
type Hooks struct {
	OnStageEnter   func(prev, cur stage.Stage)
	OnBranchPrompt func(at stage.Stage)
	OnChoice       func(c Choice, target stage.Stage)
	OnTerminal     func(s stage.Stage)
}

// Phase is the combined state of the transition and branch controllers.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseTransitioning  Phase = "transitioning"
	PhaseAwaitingChoice Phase = "awaiting_choice"
	PhaseTerminal       Phase = "terminal"
)

// State is a read-only snapshot of the session.
type State struct {
	CurrentIndex       int     `json:"current_index"`
	PreviousIndex      int     `json:"previous_index"`
	ElapsedSessionS    float64 `json:"elapsed_session_s"`
	ElapsedStageS      float64 `json:"elapsed_stage_s"`
	StageProgress      float64 `json:"stage_progress"`
	Paused             bool    `json:"paused"`
	Transitioning      bool    `json:"transitioning"`
	TransitionElapsedS float64 `json:"transition_elapsed_s"`
	Choice             Choice  `json:"choice"`
	AwaitingChoice     bool    `json:"awaiting_choice"`
	Phase              Phase   `json:"phase"`
}

// Frame is everything one tick hands to the presentation collaborators.
type Frame struct {
	Stage    stage.Stage
	Previous stage.Stage

	Phase         Phase
	Blend         float64
	Transitioning bool
	Params        stage.ParamBag

	SessionProgress float64
	StageProgress   float64
	ElapsedSessionS float64
	ElapsedStageS   float64

	Paused          bool
	AwaitingChoice  bool
	TerminalReached bool

	Breath float64
	DeltaS float64
	TimeS  float64
}

// Session owns the state of one run through the stage table. It is driven
// by a single frame loop and is not safe for concurrent use.
type Session struct {
	table stage.Table
	opts  Options
	hooks Hooks

	tr     *Transition
	branch *PathBranch
	clock  *Clock

	paused          bool
	terminalFired   bool
	terminalPending bool

	timeS       float64
	breathPhase float64
}

// NewSession validates the table and starts on stage 0.
func NewSession(tbl stage.Table, opts Options, h Hooks) (*Session, error) {
	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = Manual
	}
	if opts.Acceleration <= 0 {
		opts.Acceleration = DefaultAcceleration
	}
	if opts.TransitionS <= 0 {
		opts.TransitionS = DefaultTransitionS
	}
	if opts.MaxFrameDeltaS <= 0 {
		opts.MaxFrameDeltaS = DefaultMaxFrameDeltaS
	}
	s := &Session{
		table:  tbl,
		opts:   opts,
		hooks:  h,
		tr:     NewTransition(opts.TransitionS, opts.Ease),
		branch: NewPathBranch(tbl.BranchIndex(), tbl.SkipTargetIndex()),
		clock:  NewClock(opts.Acceleration),
	}
	s.tr.Reset(0)
	return s, nil
}

func (s *Session) Table() stage.Table { return s.table }
func (s *Session) Options() Options   { return s.opts }

// Current returns the stage being shown.
func (s *Session) Current() stage.Stage { return s.table[s.tr.Current()] }

// Paused is true when paused by the user or while a choice is pending.
func (s *Session) Paused() bool { return s.paused || s.branch.Awaiting() }

// BlendFactor is the eased cross-fade progress, 1 when no fade is running.
func (s *Session) BlendFactor() float64 { return s.tr.BlendFactor() }

// RenderParams is the parameter bag for the current tick.
func (s *Session) RenderParams() stage.ParamBag { return s.tr.RenderParams(s.table) }

func (s *Session) Phase() Phase {
	switch {
	case s.branch.Awaiting():
		return PhaseAwaitingChoice
	case s.tr.Active():
		return PhaseTransitioning
	case s.tr.Current() >= s.table.TerminalIndex():
		return PhaseTerminal
	default:
		return PhaseIdle
	}
}

func (s *Session) Snapshot() State {
	return State{
		CurrentIndex:       s.tr.Current(),
		PreviousIndex:      s.tr.Previous(),
		ElapsedSessionS:    s.clock.SessionS(),
		ElapsedStageS:      s.clock.StageS(),
		StageProgress:      s.clock.Progress(),
		Paused:             s.Paused(),
		Transitioning:      s.tr.Active(),
		TransitionElapsedS: s.tr.Elapsed(),
		Choice:             s.branch.Choice(),
		AwaitingChoice:     s.branch.Awaiting(),
		Phase:              s.Phase(),
	}
}

// RequestAdvance moves one stage in dir (+1 or -1). Manual mode only.
// Invalid requests are ignored; a forward request at the branch stage with
// no recorded choice raises the choice prompt instead.
func (s *Session) RequestAdvance(dir int) bool {
	if s.opts.Mode != Manual {
		return false
	}
	switch dir {
	case 1:
		return s.forward()
	case -1:
		next, ok := s.branch.Backward(s.tr.Current())
		if !ok {
			return false
		}
		return s.advanceTo(next)
	}
	return false
}

// Jump moves directly to index, subject to the branch rules. A pending
// choice re-raises the prompt.
func (s *Session) Jump(index int) bool {
	if s.branch.Awaiting() {
		s.prompt()
		return false
	}
	cur := s.tr.Current()
	if index == cur || !s.branch.Allows(cur, index) {
		return false
	}
	return s.advanceTo(index)
}

// Choose answers a pending branch prompt and performs the deferred advance.
// Outside of a pending prompt it does nothing.
func (s *Session) Choose(c Choice) bool {
	cur := s.tr.Current()
	next, ok := s.branch.Choose(c, cur)
	if !ok {
		return false
	}
	s.paused = false
	if s.hooks.OnChoice != nil {
		if target, found := s.table.At(next); found {
			s.hooks.OnChoice(c, target)
		}
	}
	s.advanceTo(next)
	return true
}

func (s *Session) Pause() { s.paused = true }

// Resume clears a user pause; a pending choice keeps the session paused.
func (s *Session) Resume() { s.paused = false }

func (s *Session) TogglePause() {
	s.paused = !s.paused
}

// Exit returns the session to its initial state and forgets the choice.
func (s *Session) Exit() {
	s.tr.Reset(0)
	s.branch.Reset()
	s.clock.Reset()
	s.paused = false
	s.terminalFired = false
	s.terminalPending = false
	s.timeS = 0
	s.breathPhase = 0
}

// Frame runs one tick: clock, then transition progress, then parameter
// blending. wallDeltaS is capped before any use. While a choice is pending
// nothing advances, but the frame is still produced.
func (s *Session) Frame(wallDeltaS float64) Frame {
	dt := wallDeltaS
	if dt < 0 {
		dt = 0
	}
	if dt > s.opts.MaxFrameDeltaS {
		dt = s.opts.MaxFrameDeltaS
	}
	s.timeS += dt

	if !s.branch.Awaiting() {
		if s.opts.Mode == Automatic && !s.paused {
			s.tickClock(dt)
		}
		s.tr.Tick(dt)
		s.tickBreath()
	}
	return s.frame(dt)
}

func (s *Session) tickClock(dt float64) {
	cur := s.Current()
	if !s.clock.Tick(dt, cur.Duration()) {
		return
	}
	if cur.Index >= s.table.TerminalIndex() {
		return
	}
	s.forward()
}

func (s *Session) tickBreath() {
	p := s.Current().Params
	if p.BreathVis <= 0.01 {
		return
	}
	if p.Noise > 0.3 {
		s.breathPhase += 0.08
	} else {
		s.breathPhase += 0.04
	}
}

func (s *Session) frame(dt float64) Frame {
	cur := s.Current()
	prev := s.table[s.tr.Previous()]
	f := Frame{
		Stage:           cur,
		Previous:        prev,
		Phase:           s.Phase(),
		Blend:           s.tr.BlendFactor(),
		Transitioning:   s.tr.Active(),
		Params:          s.tr.RenderParams(s.table),
		SessionProgress: s.sessionProgress(),
		StageProgress:   s.clock.Progress(),
		ElapsedSessionS: s.clock.SessionS(),
		ElapsedStageS:   s.clock.StageS(),
		Paused:          s.Paused(),
		AwaitingChoice:  s.branch.Awaiting(),
		TerminalReached: s.terminalPending,
		DeltaS:          dt,
		TimeS:           s.timeS,
	}
	if cur.Params.BreathVis > 0.01 {
		f.Breath = (math.Sin(s.breathPhase) + 1) / 2
	}
	s.terminalPending = false
	return f
}

func (s *Session) sessionProgress() float64 {
	if s.table.Len() <= 1 {
		return 1
	}
	return float64(s.tr.Current()) / float64(s.table.Last())
}

func (s *Session) forward() bool {
	next, prompt := s.branch.Forward(s.tr.Current())
	if prompt {
		s.prompt()
		return false
	}
	return s.advanceTo(next)
}

func (s *Session) prompt() {
	if s.hooks.OnBranchPrompt != nil {
		s.hooks.OnBranchPrompt(s.Current())
	}
}

func (s *Session) advanceTo(next int) bool {
	target, ok := s.table.At(next)
	if !ok {
		return false
	}
	prev := s.Current()
	s.tr.AdvanceTo(next)
	s.clock.ResetStage()
	if s.hooks.OnStageEnter != nil {
		s.hooks.OnStageEnter(prev, target)
	}
	if next == s.table.TerminalIndex() && !s.terminalFired {
		s.terminalFired = true
		s.terminalPending = true
		if s.hooks.OnTerminal != nil {
			s.hooks.OnTerminal(target)
		}
	}
	return true
}

// FormatClock renders simulated seconds as H:MM:SS.
func FormatClock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
