package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-nimitta/internal/render"
	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
	"github.com/coreman2200/funtimes-nimitta/internal/stage"
)

type SessionCfg struct {
	Mode           string  `yaml:"mode"`         // "manual" | "automatic"
	Acceleration   float64 `yaml:"acceleration"` // automatic mode speed, e.g. 120
	TransitionS    float64 `yaml:"transition_s"`
	MaxFrameDeltaS float64 `yaml:"max_frame_delta_s"`
	Ease           string  `yaml:"ease"`             // "smooth" | "linear" | "cubic"
	Stages         string  `yaml:"stages,omitempty"` // stage table path; empty uses the built-in path
}

type Dim struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type PostCfg struct {
	ExposureEV  float64 `yaml:"exposure_ev"`
	OutputGamma float64 `yaml:"output_gamma"`
	WhiteCap    float64 `yaml:"white_cap"`
	LEDChanMA   float64 `yaml:"led_chan_ma"`
	BudgetMA    float64 `yaml:"budget_ma"`
	LimiterKnee float64 `yaml:"limiter_knee"`
}

type StripCfg struct {
	Port      string `yaml:"port"`       // SPI port name, empty for the first one
	NumPixels int    `yaml:"num_pixels"` // e.g. 60
	SpeedHz   int    `yaml:"speed_hz"`   // e.g. 2500000
	Channels  int    `yaml:"channels"`   // 3 for RGB, 4 for RGBW
}

type ServerCfg struct {
	Addr        string `yaml:"addr"`
	BroadcastHz int    `yaml:"broadcast_hz"`
}

type Config struct {
	Session SessionCfg `yaml:"session"`
	FPS     int        `yaml:"fps"`
	Dim     Dim        `yaml:"dim"`
	Drivers []string   `yaml:"drivers"` // any of "fake", "term", "strip"

	Post   PostCfg   `yaml:"post"`
	Strip  StripCfg  `yaml:"strip"`
	Server ServerCfg `yaml:"server"`

	LogLevel string `yaml:"log_level"`
}

var knownDrivers = map[string]bool{"fake": true, "term": true, "strip": true}

func Default() *Config {
	return &Config{
		Session: SessionCfg{
			Mode:           string(sequence.Manual),
			Acceleration:   sequence.DefaultAcceleration,
			TransitionS:    sequence.DefaultTransitionS,
			MaxFrameDeltaS: sequence.DefaultMaxFrameDeltaS,
			Ease:           string(sequence.EaseSmooth),
		},
		FPS:     60,
		Dim:     Dim{X: 64, Y: 32},
		Drivers: []string{"fake"},
		Post:    PostCfg{OutputGamma: 2.2, WhiteCap: 3, LEDChanMA: 20, LimiterKnee: 0.9},
		Strip:   StripCfg{NumPixels: 60, SpeedHz: 2500000, Channels: 3},
		Server:  ServerCfg{Addr: ":8080", BroadcastHz: 15},

		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := sequence.ParseMode(c.Session.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Session.Acceleration <= 0 {
		errs = append(errs, fmt.Errorf("acceleration must be positive, got %v", c.Session.Acceleration))
	}
	if c.Session.TransitionS <= 0 {
		errs = append(errs, fmt.Errorf("transition_s must be positive, got %v", c.Session.TransitionS))
	}
	if c.Session.MaxFrameDeltaS <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_delta_s must be positive, got %v", c.Session.MaxFrameDeltaS))
	}
	if c.Session.Ease != "" && !sequence.Ease(c.Session.Ease).Valid() {
		errs = append(errs, fmt.Errorf("unknown ease: %s", c.Session.Ease))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Dim.X <= 0 || c.Dim.Y <= 0 {
		errs = append(errs, fmt.Errorf("invalid dim %dx%d", c.Dim.X, c.Dim.Y))
	}
	for _, d := range c.Drivers {
		if !knownDrivers[strings.ToLower(d)] {
			errs = append(errs, fmt.Errorf("unknown driver: %s", d))
		}
	}
	if c.Strip.Channels != 0 && c.Strip.Channels != 3 && c.Strip.Channels != 4 {
		errs = append(errs, fmt.Errorf("strip channels must be 3 or 4, got %d", c.Strip.Channels))
	}
	return errors.Join(errs...)
}

// SessionOptions converts the session section.
func (c *Config) SessionOptions() (sequence.Options, error) {
	mode, err := sequence.ParseMode(c.Session.Mode)
	if err != nil {
		return sequence.Options{}, err
	}
	return sequence.Options{
		Mode:           mode,
		Acceleration:   c.Session.Acceleration,
		TransitionS:    c.Session.TransitionS,
		MaxFrameDeltaS: c.Session.MaxFrameDeltaS,
		Ease:           sequence.Ease(c.Session.Ease),
	}, nil
}

// StageTable loads the configured table, or the built-in one.
func (c *Config) StageTable() (stage.Table, error) {
	if c.Session.Stages == "" {
		return stage.Default()
	}
	t, err := stage.Load(c.Session.Stages)
	if err != nil {
		return nil, fmt.Errorf("load stages %s: %w", c.Session.Stages, err)
	}
	return t, nil
}

func (c *Config) PostParams() render.PostParams {
	return render.PostParams{
		ExposureEV:  c.Post.ExposureEV,
		OutputGamma: c.Post.OutputGamma,
		WhiteCap:    c.Post.WhiteCap,
		LEDChanMA:   c.Post.LEDChanMA,
		BudgetMA:    c.Post.BudgetMA,
		LimiterKnee: c.Post.LimiterKnee,
	}
}

// HasDriver reports whether name is among the configured drivers.
func (c *Config) HasDriver(name string) bool {
	for _, d := range c.Drivers {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}
