package board

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/util"
)

const (
	MaxBrightness  uint8 = 255
	MinBrightness  uint8 = 15
	BrightnessStep uint8 = 24
)

type Page struct {
	Name  string
	Feeds []*FeedState
}

type Options struct {
	ShowClock   bool
	RotatePages bool
}

// Dashboard is the whole board: pages of feeds, which pair is on screen and how far it scrolled.
// It is owned by the frame loop goroutine.
type Dashboard struct {
	Pages     []*Page
	Scheduler *Scheduler
	Reducer   Reducer
	Rotation  *RotationEngine
	Options   Options

	page       int
	pair       int
	paused     bool
	brightness uint8
}

func NewDashboard(pages []*Page, scheduler *Scheduler, reducer Reducer, rotation *RotationEngine, options Options) *Dashboard {
	return &Dashboard{
		Pages:      pages,
		Scheduler:  scheduler,
		Reducer:    reducer,
		Rotation:   rotation,
		Options:    options,
		brightness: MaxBrightness,
	}
}

func (d *Dashboard) ActivePage() *Page {
	if d.page < 0 || d.page >= len(d.Pages) || len(d.Pages[d.page].Feeds) == 0 {
		return nil
	}

	return d.Pages[d.page]
}

func (d *Dashboard) PageIndex() int { return d.page }

func (d *Dashboard) PairIndex() int { return d.pair }

func (d *Dashboard) Paused() bool { return d.paused }

func (d *Dashboard) Brightness() uint8 { return d.brightness }

func (d *Dashboard) CurrentFeed() *FeedState {
	page := d.ActivePage()
	if page == nil {
		return nil
	}

	return page.Feeds[d.pair%len(page.Feeds)]
}

func (d *Dashboard) NextFeed() *FeedState {
	page := d.ActivePage()
	if page == nil {
		return nil
	}

	return page.Feeds[(d.pair+1)%len(page.Feeds)]
}

// Tick advances every feed of the active page and the rotation by one frame
func (d *Dashboard) Tick(now time.Time) {
	page := d.ActivePage()
	if page == nil {
		return
	}

	for _, feed := range page.Feeds {
		d.Scheduler.Advance(feed, now)
		feed.SyncCursor(now, d.Reducer.InvalidPolicy)
	}

	if d.paused {
		return
	}

	displayedLines := len(d.feedBlock(d.CurrentFeed(), now))
	if d.Rotation.Tick(displayedLines) {
		d.advancePair()
	}
}

func (d *Dashboard) advancePair() {
	page := d.ActivePage()
	if page == nil {
		return
	}

	d.pair = (d.pair + 1) % len(page.Feeds)

	if d.pair == 0 && d.Options.RotatePages && len(d.Pages) > 1 {
		d.setPage(d.page + 1)
	}
}

func (d *Dashboard) setPage(page int) {
	d.page = ((page % len(d.Pages)) + len(d.Pages)) % len(d.Pages)
	d.pair = 0
}

// Frame builds what the renderer draws this frame: the current feed block followed by the next
func (d *Dashboard) Frame(now time.Time) ctdf.RenderFrame {
	frame := ctdf.RenderFrame{
		VerticalOffset: d.Rotation.Offset(),
		Brightness:     d.brightness,
	}

	if d.ActivePage() == nil {
		missing := util.PadOrTrim(fmt.Sprintf("page %d missing", d.page), d.Reducer.LineWidth)
		for i := 0; i < 4; i++ {
			frame.Lines = append(frame.Lines, ctdf.NewDisplayLine(missing, ctdf.ColourWhite))
		}
		frame.VerticalOffset = 0
		return frame
	}

	frame.Lines = append(frame.Lines, d.feedBlock(d.CurrentFeed(), now)...)
	frame.Lines = append(frame.Lines, d.feedBlock(d.NextFeed(), now)...)

	return frame
}

func (d *Dashboard) feedBlock(feed *FeedState, now time.Time) []ctdf.DisplayLine {
	var block []ctdf.DisplayLine

	if d.Options.ShowClock {
		block = append(block, ctdf.NewDisplayLine(util.PadOrTrim("["+FormatClock(now)+"]", d.Reducer.LineWidth), ctdf.ColourClock))
	}

	block = append(block, ctdf.NewDisplayLine(d.Reducer.Header(feed), feed.Colour))
	for _, line := range d.Reducer.Lines(feed, now) {
		block = append(block, ctdf.NewDisplayLine(line, feed.Colour))
	}

	return block
}

// FormatClock renders the board clock, eg. "Oct-18 9:05:03"
func FormatClock(now time.Time) string {
	return fmt.Sprintf("%s-%02d %d:%02d:%02d", now.Format("Jan"), now.Day(), now.Hour(), now.Minute(), now.Second())
}

func (d *Dashboard) Apply(command Command) {
	page := d.ActivePage()

	switch command {
	case CommandNext:
		if d.paused {
			d.advancePair()
			d.Rotation.Reset()
		} else {
			d.Rotation.ForceSwitch()
		}
	case CommandPrevious:
		if page != nil {
			d.pair = (d.pair - 1 + len(page.Feeds)) % len(page.Feeds)
		}
		d.Rotation.Reset()
	case CommandPageNext:
		if len(d.Pages) > 0 {
			d.setPage(d.page + 1)
		}
		d.Rotation.Reset()
	case CommandPagePrevious:
		if len(d.Pages) > 0 {
			d.setPage(d.page - 1)
		}
		d.Rotation.Reset()
	case CommandReset:
		d.page = 0
		d.pair = 0
		d.paused = false
		d.brightness = MaxBrightness
		d.Rotation.Reset()
	case CommandTogglePlay:
		d.paused = !d.paused
	case CommandBrightnessUp:
		if d.brightness > MaxBrightness-BrightnessStep {
			d.brightness = MaxBrightness
		} else {
			d.brightness += BrightnessStep
		}
	case CommandBrightnessDown:
		if d.brightness < MinBrightness+BrightnessStep {
			d.brightness = MinBrightness
		} else {
			d.brightness -= BrightnessStep
		}
	default:
		log.Warn().Str("command", string(command)).Msg("Ignoring unknown command")
		return
	}

	log.Debug().
		Str("command", string(command)).
		Int("page", d.page).
		Int("pair", d.pair).
		Bool("paused", d.paused).
		Uint8("brightness", d.brightness).
		Msg("Applied command")
}
