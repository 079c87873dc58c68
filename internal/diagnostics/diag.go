package diagnostics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes published by the engine.
const (
	StageEnter    = "STAGE.ENTER"
	BranchPrompt  = "BRANCH.PROMPT"
	BranchChosen  = "BRANCH.CHOSEN"
	TerminalCue   = "SESSION.TERMINAL"
	SessionExit   = "SESSION.EXIT"
	DriverFailed  = "DRIVER.WRITE_FAILED"
	DriverMissing = "DRIVER.UNAVAILABLE"
	FrameSlow     = "RENDER.SLOW"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Hub fans diagnostics out to subscribers and keeps the most recent ones for
// late joiners. Slow subscribers miss messages rather than block publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Diagnostic
	nextID int
	recent []Diagnostic
	keep   int
}

func NewHub(keep int) *Hub {
	if keep <= 0 {
		keep = 64
	}
	return &Hub{subs: map[int]chan Diagnostic{}, keep: keep}
}

func (h *Hub) Publish(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	logDiag(d)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, d)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// Subscribe returns a channel of future diagnostics and a cancel func that
// closes it.
func (h *Hub) Subscribe(buf int) (<-chan Diagnostic, func()) {
	ch := make(chan Diagnostic, buf)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Recent() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.recent...)
}

func logDiag(d Diagnostic) {
	var ev *zerolog.Event
	switch d.Severity {
	case Err:
		ev = log.Error()
	case Warn:
		ev = log.Warn()
	default:
		ev = log.Debug()
	}
	ev = ev.Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Fields(d.Evidence)
	}
	ev.Msg(d.Summary)
}
