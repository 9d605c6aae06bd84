package board

import "fmt"

// Command is a user input from the remote control or a keyboard
type Command string

const (
	CommandNext           Command = "next"
	CommandPrevious       Command = "previous"
	CommandReset          Command = "reset"
	CommandTogglePlay     Command = "toggle_play"
	CommandBrightnessUp   Command = "lum_up"
	CommandBrightnessDown Command = "lum_down"
	CommandPageNext       Command = "page_next"
	CommandPagePrevious   Command = "page_prev"
)

var commandNames = map[string]Command{
	"dir_right":   CommandNext,
	"dir_down":    CommandNext,
	"next":        CommandNext,
	"dir_left":    CommandPrevious,
	"dir_up":      CommandPrevious,
	"previous":    CommandPrevious,
	"reset":       CommandReset,
	"toggle_play": CommandTogglePlay,
	"lum_up":      CommandBrightnessUp,
	"lum_down":    CommandBrightnessDown,
	"page_next":   CommandPageNext,
	"page_prev":   CommandPagePrevious,
}

// ParseCommand maps the remote control names (dir_left, lum_up, ...) onto commands
func ParseCommand(name string) (Command, error) {
	command, ok := commandNames[name]
	if !ok {
		return "", fmt.Errorf("unknown command %q", name)
	}

	return command, nil
}
