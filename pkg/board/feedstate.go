package board

import (
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// FetchState is the per feed refresh state machine
type FetchState int

const (
	// FetchIdle has no request outstanding
	FetchIdle FetchState = iota
	// FetchInFlight has exactly one request outstanding
	FetchInFlight
	// FetchReady has a landed result waiting to be applied on the loop goroutine
	FetchReady
)

func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "idle"
	case FetchInFlight:
		return "in-flight"
	case FetchReady:
		return "ready"
	default:
		return "unknown"
	}
}

type fetchResult struct {
	snapshot *ctdf.FeedSnapshot
	err      error
}

// FeedState is one polling unit. Everything except the pending channel hand-off is only
// touched from the frame loop goroutine.
type FeedState struct {
	Name   string
	Colour ctdf.Colour
	Query  ctdf.FeedQuery

	snapshot *ctdf.FeedSnapshot
	cursor   int

	fetchState FetchState
	pending    chan fetchResult
	ready      *fetchResult

	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
}

func NewFeedState(name string, colour ctdf.Colour, query ctdf.FeedQuery) *FeedState {
	return &FeedState{
		Name:        name,
		Colour:      colour,
		Query:       query,
		snapshot:    ctdf.EmptySnapshot(),
		LastAttempt: ctdf.NeverFetched,
	}
}

func (f *FeedState) Snapshot() *ctdf.FeedSnapshot {
	return f.snapshot
}

func (f *FeedState) Cursor() int {
	return f.cursor
}

func (f *FeedState) FetchState() FetchState {
	return f.fetchState
}

// Seed installs a previously stored snapshot. Only valid before the frame loop starts
// and while no fetch is outstanding.
func (f *FeedState) Seed(snapshot *ctdf.FeedSnapshot) {
	if snapshot == nil || f.fetchState != FetchIdle {
		return
	}

	f.snapshot = snapshot
	f.cursor = 0
}

// SyncCursor moves the cursor past leading departures that have already left, and past
// invalid ones unless the policy lets them take a slot. It never moves backwards.
func (f *FeedState) SyncCursor(now time.Time, policy InvalidPolicy) {
	departures := f.snapshot.Departures

	for f.cursor < len(departures) {
		departure := departures[f.cursor]

		switch {
		case departure.DepartedBy(now):
		case !departure.Valid() && policy == InvalidSkip:
		default:
			return
		}

		f.cursor++
	}
}
