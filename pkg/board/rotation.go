package board

import "time"

const (
	DefaultFrameRate  = 30
	DefaultScrollStep = 4
	DefaultLineHeight = 16
	DefaultDwell      = 2 * time.Second
)

// RotationEngine counts down the dwell of the current feed pair, then scrolls it off
// one step per frame until the whole block has left the screen.
type RotationEngine struct {
	FrameRate  int
	Step       int
	LineHeight int
	Dwell      time.Duration

	ticksRemaining int
}

func NewRotationEngine(frameRate int, step int, lineHeight int, dwell time.Duration) *RotationEngine {
	r := &RotationEngine{
		FrameRate:  frameRate,
		Step:       step,
		LineHeight: lineHeight,
		Dwell:      dwell,
	}
	r.Reset()

	return r
}

// ResetValue is the tick budget of one dwell: frame rate × step × dwell seconds
func (r *RotationEngine) ResetValue() int {
	return int(float64(r.FrameRate*r.Step) * r.Dwell.Seconds())
}

func (r *RotationEngine) Reset() {
	r.ticksRemaining = r.ResetValue()
}

func (r *RotationEngine) TicksRemaining() int {
	return r.ticksRemaining
}

// Tick advances one frame and reports whether the current pair has fully scrolled off,
// in which case the counter has already been reset for the next pair.
func (r *RotationEngine) Tick(displayedLines int) bool {
	r.ticksRemaining -= r.Step

	if r.ticksRemaining < -(r.LineHeight * displayedLines) {
		r.Reset()
		return true
	}

	return false
}

// Offset is the vertical scroll to apply: zero while dwelling, negative while scrolling off
func (r *RotationEngine) Offset() int {
	if r.ticksRemaining < 0 {
		return r.ticksRemaining
	}

	return 0
}

// ForceSwitch cuts the dwell short so the scroll-off starts on the next frame
func (r *RotationEngine) ForceSwitch() {
	if r.ticksRemaining > 0 {
		r.ticksRemaining = 0
	}
}
