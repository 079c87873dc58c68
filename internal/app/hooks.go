package app

import (
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-nimitta/internal/diagnostics"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// chainHooks calls every non-nil callback of hs in order.
func chainHooks(hs ...sequence.Hooks) sequence.Hooks {
	var out sequence.Hooks
	out.OnStageEnter = func(prev, cur stage.Stage) {
		for _, h := range hs {
			if h.OnStageEnter != nil {
				h.OnStageEnter(prev, cur)
			}
		}
	}
	out.OnBranchPrompt = func(at stage.Stage) {
		for _, h := range hs {
			if h.OnBranchPrompt != nil {
				h.OnBranchPrompt(at)
			}
		}
	}
	out.OnChoice = func(c sequence.Choice, target stage.Stage) {
		for _, h := range hs {
			if h.OnChoice != nil {
				h.OnChoice(c, target)
			}
		}
	}
	out.OnTerminal = func(s stage.Stage) {
		for _, h := range hs {
			if h.OnTerminal != nil {
				h.OnTerminal(s)
			}
		}
	}
	return out
}

// diagHooks logs session events and publishes them to hub.
func diagHooks(hub *diag.Hub) sequence.Hooks {
	publish := func(d diag.Diagnostic) {
		if hub != nil {
			hub.Publish(d)
		}
	}
	return sequence.Hooks{
		OnStageEnter: func(prev, cur stage.Stage) {
			log.Info().Int("stage", cur.Index).Str("mode", string(cur.Mode)).Str("title", cur.Title).Msg("stage enter")
			publish(diag.Diagnostic{
				Severity: diag.Info,
				Code:     diag.StageEnter,
				Summary:  cur.Title,
				Evidence: map[string]any{"stage": cur.Index, "from": prev.Index, "mode": string(cur.Mode)},
			})
		},
		OnBranchPrompt: func(at stage.Stage) {
			log.Info().Int("stage", at.Index).Msg("awaiting path choice")
			publish(diag.Diagnostic{
				Severity:       diag.Info,
				Code:           diag.BranchPrompt,
				Summary:        "Choose a path",
				Detail:         at.Title,
				SuggestedFixes: []string{"continue: immaterial absorptions", "skip: straight to insight"},
				Evidence:       map[string]any{"stage": at.Index},
			})
		},
		OnChoice: func(c sequence.Choice, target stage.Stage) {
			log.Info().Str("choice", c.String()).Int("stage", target.Index).Msg("path chosen")
			publish(diag.Diagnostic{
				Severity: diag.Info,
				Code:     diag.BranchChosen,
				Summary:  c.String(),
				Evidence: map[string]any{"choice": c.String(), "stage": target.Index},
			})
		},
		OnTerminal: func(s stage.Stage) {
			log.Info().Int("stage", s.Index).Msg("terminal stage reached")
			publish(diag.Diagnostic{Severity: diag.Info, Code: diag.TerminalCue, Summary: s.Title})
		},
	}
}
