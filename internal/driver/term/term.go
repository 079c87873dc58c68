package term

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-nimitta/internal/app"
	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
)

const helpLine = "n/→ next  p/← prev  space pause  a continue  v skip  x exit  q quit"

var (
	styleCategory = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleText     = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleFactor   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	stylePrompt   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
)

// Viewer draws composited frames into a terminal using half-block cells,
// two framebuffer rows per terminal row, with the stage panel underneath.
// It is a render.Driver; Run turns key presses into conductor commands.
type Viewer struct {
	screen tcell.Screen
	chime  *Chime

	mu     sync.Mutex
	status string
}

// Open initializes the terminal. sound enables the finale chime.
func Open(sound bool) (*Viewer, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("term: init: %w", err)
	}
	var c *Chime
	if sound {
		c = NewChime()
	}
	return New(s, c), nil
}

// New wraps an initialized screen.
func New(s tcell.Screen, c *Chime) *Viewer {
	return &Viewer{screen: s, chime: c}
}

func (v *Viewer) Close() error {
	v.chime.Close()
	v.screen.Fini()
	return nil
}

func (v *Viewer) Write(o render.Output) error {
	if o.Frame.TerminalReached {
		v.chime.Play()
	}
	s := v.screen
	s.Clear()
	rows := drawPixels(s, o)

	v.mu.Lock()
	status := v.status
	v.mu.Unlock()

	y := rows + 1
	for _, l := range panel(o.Frame) {
		drawText(s, 0, y, l.text, l.style)
		y++
	}
	if status != "" {
		drawText(s, 0, y, status, styleHelp)
	}
	s.Show()
	return nil
}

// Run forwards key presses to c until q/Esc is pressed or ctx is done.
func (v *Viewer) Run(ctx context.Context, c *app.Conductor) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if v.onKey(ev.Key(), ev.Rune(), c) {
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		}
	}
}

// onKey applies the command bound to a key and reports whether to quit.
func (v *Viewer) onKey(k tcell.Key, r rune, c *app.Conductor) bool {
	cmd, quit, ok := keyCommand(k, r)
	if quit {
		return true
	}
	if !ok {
		return false
	}
	applied, err := c.Apply(cmd)
	msg := ""
	switch {
	case err != nil:
		msg = err.Error()
		log.Warn().Err(err).Str("cmd", cmd.Cmd).Msg("term: command")
	case !applied:
		msg = cmd.Cmd + ": ignored"
	}
	v.mu.Lock()
	v.status = msg
	v.mu.Unlock()
	return false
}

func keyCommand(k tcell.Key, r rune) (cmd app.Command, quit, ok bool) {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return cmd, true, false
	case tcell.KeyRight:
		return app.Command{Cmd: app.CmdNext}, false, true
	case tcell.KeyLeft:
		return app.Command{Cmd: app.CmdPrev}, false, true
	case tcell.KeyRune:
	default:
		return cmd, false, false
	}
	switch r {
	case 'q':
		return cmd, true, false
	case 'n':
		return app.Command{Cmd: app.CmdNext}, false, true
	case 'p':
		return app.Command{Cmd: app.CmdPrev}, false, true
	case ' ':
		return app.Command{Cmd: app.CmdToggle}, false, true
	case 'a':
		return app.Command{Cmd: app.CmdChoose, Choice: "continue"}, false, true
	case 'v':
		return app.Command{Cmd: app.CmdChoose, Choice: "skip"}, false, true
	case 'x':
		return app.Command{Cmd: app.CmdExit}, false, true
	}
	return cmd, false, false
}

// drawPixels returns the number of terminal rows used.
func drawPixels(s tcell.Screen, o render.Output) int {
	if o.Dim.X <= 0 || o.Dim.Y <= 0 || len(o.Pixels) < o.Dim.Len() {
		return 0
	}
	rows := (o.Dim.Y + 1) / 2
	for cy := 0; cy < rows; cy++ {
		top := 2 * cy * o.Dim.X
		for x := 0; x < o.Dim.X; x++ {
			bottom := render.Color{}
			if 2*cy+1 < o.Dim.Y {
				bottom = o.Pixels[top+o.Dim.X+x]
			}
			st := tcell.StyleDefault.Foreground(toColor(o.Pixels[top+x])).Background(toColor(bottom))
			s.SetContent(x, cy, '▀', nil, st)
		}
	}
	return rows
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

type line struct {
	text  string
	style tcell.Style
}

func panel(f sequence.Frame) []line {
	st := f.Stage
	title := st.Title
	if st.Pali != "" {
		title += " (" + st.Pali + ")"
	}
	factors := "-"
	if len(st.Factors) > 0 {
		factors = strings.Join(st.Factors, " · ")
	}
	out := []line{
		{st.Category, styleCategory},
		{title, styleTitle},
		{st.Desc, styleText},
		{"factors: " + factors, styleFactor},
		{fmt.Sprintf("session %s  stage %3.0f%%  path %3.0f%%",
			sequence.FormatClock(f.ElapsedSessionS), f.StageProgress*100, f.SessionProgress*100), styleText},
		{phaseLine(f), styleText},
	}
	if st.Params.BreathVis > 0.01 {
		out = append(out, line{"breath " + bar(f.Breath, 10), styleText})
	}
	switch {
	case f.AwaitingChoice:
		out = append(out, line{"The path divides. [a] continue to the immaterial jhanas  [v] skip to insight", stylePrompt})
	case f.Phase == sequence.PhaseTerminal:
		out = append(out, line{"Path complete. [x] to begin again", stylePrompt})
	}
	return append(out, line{helpLine, styleHelp})
}

func phaseLine(f sequence.Frame) string {
	s := "phase " + string(f.Phase)
	if f.Transitioning {
		s += fmt.Sprintf(" %.2f", f.Blend)
	}
	if f.Paused && !f.AwaitingChoice {
		s += "  [paused]"
	}
	return s
}

func bar(v float64, width int) string {
	n := int(v*float64(width) + 0.5)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("▮", n) + strings.Repeat("▯", width-n)
}

func toColor(c render.Color) tcell.Color {
	return tcell.NewRGBColor(to8(c.R), to8(c.G), to8(c.B))
}

func to8(v float32) int32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return int32(v*255 + 0.5)
}
