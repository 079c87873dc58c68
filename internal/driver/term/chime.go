package term

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"
)

const (
	chimeRate = beep.SampleRate(44100)
	chimeHz   = 432
	chimeLen  = 1500 * time.Millisecond
)

// Chime is the bell played once when the path completes. The zero value
// is silent.
type Chime struct {
	ok bool
}

// NewChime opens the speaker. Audio is optional: failure logs and returns
// a silent chime.
func NewChime() *Chime {
	if err := speaker.Init(chimeRate, chimeRate.N(time.Second/10)); err != nil {
		log.Warn().Err(err).Msg("audio init failed, chime disabled")
		return &Chime{}
	}
	return &Chime{ok: true}
}

func (c *Chime) Play() {
	if c == nil || !c.ok {
		return
	}
	sine, err := generators.SineTone(chimeRate, chimeHz)
	if err != nil {
		log.Warn().Err(err).Msg("chime tone")
		return
	}
	tone := beep.Take(chimeRate.N(chimeLen), sine)
	speaker.Play(&effects.Volume{Streamer: tone, Base: 2, Volume: -3})
}

func (c *Chime) Close() {
	if c == nil || !c.ok {
		return
	}
	speaker.Close()
	c.ok = false
}
