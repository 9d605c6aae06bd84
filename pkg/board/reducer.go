package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/util"
)

const (
	DefaultLineWidth = 24

	LinesPerFeed = 2
	SlotsPerLine = 2

	PlaceholderEndReached = "end reached, refresh pending"
	PlaceholderNoData     = "no data"
	PlaceholderCheck      = "check connection"
)

// InvalidPolicy decides what happens to departures without a timestamp
type InvalidPolicy string

const (
	// InvalidSkip hides them entirely
	InvalidSkip InvalidPolicy = "skip"
	// InvalidConsume lets them take a slot showing an unknown countdown
	InvalidConsume InvalidPolicy = "consume"
)

// Reducer turns a feed snapshot into fixed width text lines. It has no failure path:
// every odd input becomes a placeholder.
type Reducer struct {
	LineWidth     int
	InvalidPolicy InvalidPolicy
}

func NewReducer(lineWidth int, policy InvalidPolicy) Reducer {
	if lineWidth < SlotsPerLine {
		lineWidth = DefaultLineWidth
	}
	if policy == "" {
		policy = InvalidSkip
	}

	return Reducer{LineWidth: lineWidth, InvalidPolicy: policy}
}

func (r Reducer) Header(feed *FeedState) string {
	return util.PadOrTrim(feed.Name, r.LineWidth)
}

// Lines returns exactly LinesPerFeed lines of exactly LineWidth runes each
func (r Reducer) Lines(feed *FeedState, now time.Time) []string {
	snapshot := feed.Snapshot()

	if snapshot.Empty() {
		return []string{
			util.PadOrTrim(PlaceholderNoData, r.LineWidth),
			util.PadOrTrim(PlaceholderCheck, r.LineWidth),
		}
	}

	departures := snapshot.Departures
	index := feed.Cursor()
	leftWidth := r.LineWidth / SlotsPerLine
	rightWidth := r.LineWidth - leftWidth

	lines := make([]string, 0, LinesPerFeed)
	for line := 0; line < LinesPerFeed; line++ {
		var builder strings.Builder

		for slot := 0; slot < SlotsPerLine; slot++ {
			index = r.nextDisplayable(departures, index, now)

			text := PlaceholderEndReached
			if index < len(departures) {
				text = r.formatSlot(departures[index], now)
			}

			width := leftWidth
			if slot == SlotsPerLine-1 {
				width = rightWidth
			}
			builder.WriteString(util.PadOrTrim(text, width))

			index++
		}

		lines = append(lines, builder.String())
	}

	return lines
}

func (r Reducer) nextDisplayable(departures []ctdf.Departure, index int, now time.Time) int {
	for index < len(departures) {
		departure := departures[index]

		switch {
		case !departure.Valid():
			if r.InvalidPolicy == InvalidConsume {
				return index
			}
		case departure.DepartedBy(now):
		default:
			return index
		}

		index++
	}

	return index
}

func (r Reducer) formatSlot(departure ctdf.Departure, now time.Time) string {
	if !departure.Valid() {
		return fmt.Sprintf("%s --:--", departure.Label)
	}

	text := departure.Label + " " + FormatCountdown(departure.EffectiveTime().Sub(now))

	if delay := departure.DelayMinutes(); delay != 0 {
		text += fmt.Sprintf("(%+d)", delay)
	}

	return text
}

// FormatCountdown renders m:ss below an hour and h:mm:ss above
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}

	seconds := int64(remaining / time.Second)
	minutes := seconds / 60
	seconds %= 60

	if minutes < 60 {
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	}

	return fmt.Sprintf("%d:%02d:%02d", minutes/60, minutes%60, seconds)
}
