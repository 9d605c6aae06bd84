package board

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

const commandQueueSize = 16

// Renderer draws frames. Errors are logged by the loop and never stop it.
type Renderer interface {
	Render(frame ctdf.RenderFrame) error
}

// Published is the latest frame and status, readable from any goroutine
type Published struct {
	Frame       ctdf.RenderFrame
	Status      Status
	FrameNumber uint64
	PublishedAt time.Time
}

// Loop is the single goroutine that drives the dashboard at a fixed frame rate
type Loop struct {
	Dashboard   *Dashboard
	Renderer    Renderer
	Clock       Clock
	FramePeriod time.Duration

	commands    chan Command
	latest      atomic.Pointer[Published]
	frameNumber uint64
}

func NewLoop(dashboard *Dashboard, renderer Renderer, clock Clock, frameRate int) *Loop {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	return &Loop{
		Dashboard:   dashboard,
		Renderer:    renderer,
		Clock:       clock,
		FramePeriod: time.Second / time.Duration(frameRate),
		commands:    make(chan Command, commandQueueSize),
	}
}

// Send queues a command for the next frame without blocking. False when the queue is full.
func (l *Loop) Send(command Command) bool {
	select {
	case l.commands <- command:
		return true
	default:
		return false
	}
}

// Latest returns the most recently published frame, nil before the first frame
func (l *Loop) Latest() *Published {
	return l.latest.Load()
}

func (l *Loop) Run(ctx context.Context) error {
	log.Info().
		Dur("frameperiod", l.FramePeriod).
		Int("pages", len(l.Dashboard.Pages)).
		Msg("Starting frame loop")

	for {
		if ctx.Err() != nil {
			log.Info().Uint64("frames", l.frameNumber).Msg("Frame loop stopped")
			return nil
		}

		start := l.Clock.Now()
		l.RunFrame(start)
		remaining := l.Remaining(l.Clock.Now().Sub(start))

		if remaining <= 0 {
			continue
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// RunFrame performs one frame of work at now without pacing
func (l *Loop) RunFrame(now time.Time) {
	l.drainCommands()

	l.Dashboard.Tick(now)
	frame := l.Dashboard.Frame(now)

	if err := l.Renderer.Render(frame); err != nil {
		log.Error().Err(err).Uint64("frame", l.frameNumber).Msg("Failed to render frame")
	}

	l.frameNumber++
	l.latest.Store(&Published{
		Frame:       frame,
		Status:      l.Dashboard.Status(),
		FrameNumber: l.frameNumber,
		PublishedAt: now,
	})
}

func (l *Loop) drainCommands() {
	for {
		select {
		case command := <-l.commands:
			l.Dashboard.Apply(command)
		default:
			return
		}
	}
}

// Remaining is how long to sleep after a frame that took elapsed. A negative elapsed
// means the clock went backwards, which is logged and treated as no time left.
func (l *Loop) Remaining(elapsed time.Duration) time.Duration {
	if elapsed < 0 {
		log.Warn().Dur("elapsed", elapsed).Msg("Clock moved backwards during frame")
		return 0
	}

	if elapsed >= l.FramePeriod {
		return 0
	}

	return l.FramePeriod - elapsed
}
