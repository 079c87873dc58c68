package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

// Metrics owns its registry so several engines (and tests) can coexist.
type Metrics struct {
	Registry *prometheus.Registry

	StageEnters  *prometheus.CounterVec
	Choices      *prometheus.CounterVec
	Prompts      prometheus.Counter
	Terminals    prometheus.Counter
	DriverErrors prometheus.Counter
	CurrentStage prometheus.Gauge
	FrameSeconds prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimitta_stage_enters_total",
				Help: "Stages entered, by stage index and render mode",
			},
			[]string{"stage", "mode"},
		),
		Choices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimitta_branch_choices_total",
				Help: "Choices made at the branch stage",
			},
			[]string{"choice"},
		),
		Prompts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nimitta_branch_prompts_total",
			Help: "Times the branch prompt was raised",
		}),
		Terminals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nimitta_terminal_reached_total",
			Help: "Sessions that reached the terminal stage",
		}),
		DriverErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nimitta_driver_errors_total",
			Help: "Failed driver writes",
		}),
		CurrentStage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nimitta_current_stage",
			Help: "Index of the stage being shown",
		}),
		FrameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nimitta_frame_seconds",
			Help:    "Time spent producing one frame",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
		}),
	}
	m.Registry.MustRegister(
		m.StageEnters, m.Choices, m.Prompts, m.Terminals,
		m.DriverErrors, m.CurrentStage, m.FrameSeconds,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Hooks returns session hooks that record into m.
func (m *Metrics) Hooks() sequence.Hooks {
	return sequence.Hooks{
		OnStageEnter: func(_, cur stage.Stage) {
			m.StageEnters.WithLabelValues(strconv.Itoa(cur.Index), string(cur.Mode)).Inc()
			m.CurrentStage.Set(float64(cur.Index))
		},
		OnBranchPrompt: func(stage.Stage) { m.Prompts.Inc() },
		OnChoice:       func(c sequence.Choice, _ stage.Stage) { m.Choices.WithLabelValues(c.String()).Inc() },
		OnTerminal:     func(stage.Stage) { m.Terminals.Inc() },
	}
}
