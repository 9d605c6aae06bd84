package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
)

type recordingRenderer struct {
	mutex  sync.Mutex
	frames []ctdf.RenderFrame
	err    error
	after  func(count int)
}

func (r *recordingRenderer) Render(frame ctdf.RenderFrame) error {
	r.mutex.Lock()
	r.frames = append(r.frames, frame)
	count := len(r.frames)
	r.mutex.Unlock()

	if r.after != nil {
		r.after(count)
	}

	return r.err
}

func (r *recordingRenderer) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.frames)
}

func TestLoopRemaining(t *testing.T) {
	dashboard, _ := newTestDashboard(t, 1, 2, Options{})
	loop := NewLoop(dashboard, &recordingRenderer{}, RealClock{}, 20)

	assert.Equal(t, 50*time.Millisecond, loop.FramePeriod)
	assert.Equal(t, time.Duration(0), loop.Remaining(-time.Second))
	assert.Equal(t, 40*time.Millisecond, loop.Remaining(10*time.Millisecond))
	assert.Equal(t, time.Duration(0), loop.Remaining(50*time.Millisecond))
	assert.Equal(t, time.Duration(0), loop.Remaining(time.Minute))
}

func TestLoopRunFramePublishes(t *testing.T) {
	dashboard, _ := newTestDashboard(t, 1, 2, Options{})
	renderer := &recordingRenderer{}
	loop := NewLoop(dashboard, renderer, RealClock{}, 0)

	assert.Nil(t, loop.Latest())

	require.True(t, loop.Send(CommandTogglePlay))
	loop.RunFrame(t0)

	published := loop.Latest()
	require.NotNil(t, published)
	assert.Equal(t, uint64(1), published.FrameNumber)
	assert.Equal(t, t0, published.PublishedAt)
	assert.True(t, published.Status.Paused)
	assert.Len(t, published.Frame.Lines, 6)
	assert.Equal(t, 1, renderer.count())

	loop.RunFrame(t0.Add(time.Second))
	assert.Equal(t, uint64(2), loop.Latest().FrameNumber)
}

func TestLoopCommandQueueIsBounded(t *testing.T) {
	dashboard, _ := newTestDashboard(t, 1, 2, Options{})
	loop := NewLoop(dashboard, &recordingRenderer{}, RealClock{}, 30)

	for i := 0; i < commandQueueSize; i++ {
		require.True(t, loop.Send(CommandBrightnessDown))
	}
	assert.False(t, loop.Send(CommandBrightnessDown))

	loop.RunFrame(t0)
	assert.Equal(t, MinBrightness, dashboard.Brightness())
	assert.True(t, loop.Send(CommandReset))
}

func TestLoopRenderErrorsDoNotStopFrames(t *testing.T) {
	dashboard, _ := newTestDashboard(t, 1, 2, Options{})
	renderer := &recordingRenderer{err: errors.New("display unplugged")}
	loop := NewLoop(dashboard, renderer, RealClock{}, 30)

	loop.RunFrame(t0)
	loop.RunFrame(t0)

	assert.Equal(t, 2, renderer.count())
	assert.Equal(t, uint64(2), loop.Latest().FrameNumber)
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	dashboard, _ := newTestDashboard(t, 1, 2, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer := &recordingRenderer{after: func(count int) {
		if count == 3 {
			cancel()
		}
	}}
	loop := NewLoop(dashboard, renderer, RealClock{}, 100)

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("frame loop did not stop")
	}

	assert.Equal(t, 3, renderer.count())
}
