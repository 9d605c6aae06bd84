package display

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/board"
)

type recordingSink struct {
	mutex    sync.Mutex
	commands []board.Command
	full     bool
}

func (r *recordingSink) Send(command board.Command) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.full {
		return false
	}
	r.commands = append(r.commands, command)
	return true
}

func TestKeyboardMapsKeys(t *testing.T) {
	sink := &recordingSink{}
	keyboard := &Keyboard{Reader: strings.NewReader("a\n\x1b[C\x1b[Dp+-][rxz"), Sink: sink}

	require.NoError(t, keyboard.Run(context.Background()))

	assert.Equal(t, []board.Command{
		board.CommandNext,
		board.CommandNext,
		board.CommandPrevious,
		board.CommandTogglePlay,
		board.CommandBrightnessUp,
		board.CommandBrightnessDown,
		board.CommandPageNext,
		board.CommandPagePrevious,
		board.CommandReset,
	}, sink.commands)
}

func TestKeyboardQuits(t *testing.T) {
	for _, input := range []string{"aq", "a\x1b", "a\x1b\n"} {
		sink := &recordingSink{}
		quits := 0
		keyboard := &Keyboard{Reader: strings.NewReader(input + "aaa"), Sink: sink, Quit: func() { quits++ }}

		require.NoError(t, keyboard.Run(context.Background()))

		assert.Equal(t, 1, quits, "input %q", input)
		assert.Equal(t, []board.Command{board.CommandNext}, sink.commands, "keys after quit are ignored for %q", input)
	}
}

func TestKeyboardFullQueueDropsKeys(t *testing.T) {
	sink := &recordingSink{full: true}
	keyboard := &Keyboard{Reader: strings.NewReader("aaa"), Sink: sink}

	require.NoError(t, keyboard.Run(context.Background()))
	assert.Empty(t, sink.commands)
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("terminal gone")
}

func TestKeyboardStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- (&Keyboard{Reader: blockingReader{}, Sink: &recordingSink{}}).Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("keyboard did not stop")
	}
}

func TestKeyboardReturnsReadErrors(t *testing.T) {
	err := (&Keyboard{Reader: failingReader{}, Sink: &recordingSink{}}).Run(context.Background())

	assert.EqualError(t, err, "terminal gone")
}
