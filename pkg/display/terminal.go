package display

import (
	"bufio"
	"fmt"
	"io"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// TerminalRenderer prints frames with 24 bit ANSI colours. The scroll offset is turned into
// whole rows, so a scrolling pair moves one line at a time.
type TerminalRenderer struct {
	Writer      io.Writer
	LineHeight  int
	Rows        int
	ClearScreen bool
}

func NewTerminalRenderer(writer io.Writer, lineHeight int, rows int) *TerminalRenderer {
	return &TerminalRenderer{
		Writer:      writer,
		LineHeight:  lineHeight,
		Rows:        rows,
		ClearScreen: true,
	}
}

// FirstVisibleLine is how many lines have scrolled off the top at the given offset
func (t *TerminalRenderer) FirstVisibleLine(offset int) int {
	if offset >= 0 || t.LineHeight <= 0 {
		return 0
	}

	return -offset / t.LineHeight
}

func (t *TerminalRenderer) Render(frame ctdf.RenderFrame) error {
	writer := bufio.NewWriter(t.Writer)

	if t.ClearScreen {
		writer.WriteString("\x1b[H\x1b[2J")
	}

	first := t.FirstVisibleLine(frame.VerticalOffset)
	written := 0

	for i := first; i < len(frame.Lines); i++ {
		if t.Rows > 0 && written >= t.Rows {
			break
		}

		line := frame.Lines[i]
		colour := line.Colour.Scale(frame.Brightness)

		fmt.Fprintf(writer, "\x1b[38;2;%d;%d;%dm%s\x1b[0m\n", colour.R, colour.G, colour.B, line.Text)
		written++
	}

	return writer.Flush()
}
