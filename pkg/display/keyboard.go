package display

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/board"
)

const keyEscape = 0x1b

var keyCommands = map[rune]board.Command{
	'a': board.CommandNext,
	'A': board.CommandNext,
	'b': board.CommandPrevious,
	'B': board.CommandPrevious,
	'p': board.CommandTogglePlay,
	' ': board.CommandTogglePlay,
	'r': board.CommandReset,
	'+': board.CommandBrightnessUp,
	'-': board.CommandBrightnessDown,
	']': board.CommandPageNext,
	'[': board.CommandPagePrevious,
}

// arrow keys arrive as ESC [ A..D
var arrowCommands = map[rune]board.Command{
	'A': board.CommandPrevious,
	'B': board.CommandNext,
	'C': board.CommandNext,
	'D': board.CommandPrevious,
}

// CommandSink takes commands without blocking, false when it is full
type CommandSink interface {
	Send(command board.Command) bool
}

// Keyboard turns key presses read from a terminal into board commands. Escape or q calls Quit.
// The terminal stays in its normal mode, so keys typed into a cooked terminal arrive once
// enter is pressed.
type Keyboard struct {
	Reader io.Reader
	Sink   CommandSink
	Quit   func()
}

// Run reads keys until the reader ends, a quit key is read or ctx is done. A read blocked on
// the terminal is left behind when ctx ends, it cannot be interrupted.
func (k *Keyboard) Run(ctx context.Context) error {
	keys := make(chan rune)
	readErr := make(chan error, 1)

	go func() {
		readErr <- k.read(ctx, keys)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				log.Debug().Msg("Keyboard input closed")
				return nil
			}
			return err
		case key := <-keys:
			if key == 'q' || key == keyEscape {
				log.Info().Msg("Quit requested from keyboard")
				if k.Quit != nil {
					k.Quit()
				}
				return nil
			}

			k.send(key)
		}
	}
}

func (k *Keyboard) send(key rune) {
	var command board.Command
	var ok bool

	if key < 0 {
		command, ok = arrowCommands[-key]
	} else {
		command, ok = keyCommands[key]
	}
	if !ok {
		return
	}

	if !k.Sink.Send(command) {
		log.Warn().Str("command", string(command)).Msg("Command queue full, dropping key press")
	}
}

// read decodes keys onto the channel. Arrow keys are passed as their negated final letter so
// they never collide with a plain escape.
func (k *Keyboard) read(ctx context.Context, keys chan<- rune) error {
	reader := bufio.NewReader(k.Reader)

	for {
		key, _, err := reader.ReadRune()
		if err != nil {
			return err
		}

		if key == keyEscape && reader.Buffered() >= 2 {
			if next, _ := reader.Peek(2); next[0] == '[' {
				key = -rune(next[1])
				reader.Discard(2)
			}
		}

		select {
		case keys <- key:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
