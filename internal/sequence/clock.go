package sequence

// DefaultAcceleration is the automatic-mode speed multiplier.
const DefaultAcceleration = 120.0

// SpeedPresets are the acceleration factors offered for automatic mode.
var SpeedPresets = []float64{1, 30, 60, 120, 300, 600}

// Clock accumulates simulated session and stage time in automatic mode.
// Gating on pause or a pending choice is done by the Session.
type Clock struct {
	acceleration float64

	sessionS float64
	stageS   float64
	progress float64
}

func NewClock(acceleration float64) *Clock {
	if acceleration <= 0 {
		acceleration = 1
	}
	return &Clock{acceleration: acceleration}
}

// Tick adds dt real seconds scaled by the acceleration factor and reports
// whether the stage's allotted duration has elapsed.
func (c *Clock) Tick(dt, stageDurationS float64) (due bool) {
	if dt <= 0 {
		return false
	}
	if stageDurationS <= 0 {
		stageDurationS = 1
	}
	a := dt * c.acceleration
	c.sessionS += a
	c.stageS += a
	c.progress = c.stageS / stageDurationS
	if c.progress > 1 {
		c.progress = 1
	}
	return c.stageS >= stageDurationS
}

// ResetStage zeroes stage-local time on a stage change.
func (c *Clock) ResetStage() {
	c.stageS = 0
	c.progress = 0
}

// Reset zeroes all accumulated time.
func (c *Clock) Reset() {
	c.sessionS = 0
	c.ResetStage()
}

func (c *Clock) Acceleration() float64 { return c.acceleration }
func (c *Clock) SessionS() float64     { return c.sessionS }
func (c *Clock) StageS() float64       { return c.stageS }
func (c *Clock) Progress() float64     { return c.progress }
