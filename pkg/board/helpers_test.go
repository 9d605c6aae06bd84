package board

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func timeAt(offset time.Duration) *time.Time {
	t := t0.Add(offset)
	return &t
}

// fakeFetcher answers from a queue of canned results and counts calls. When gate is set every
// fetch blocks until the gate is closed.
type fakeFetcher struct {
	mutex   sync.Mutex
	results []fakeResult
	calls   atomic.Int32
	gate    chan struct{}
}

type fakeResult struct {
	snapshot *ctdf.FeedSnapshot
	err      error
	panic    bool
}

func (f *fakeFetcher) push(results ...fakeResult) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.results = append(f.results, results...)
}

func (f *fakeFetcher) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	f.calls.Add(1)

	if f.gate != nil {
		<-f.gate
	}

	f.mutex.Lock()
	var result fakeResult
	if len(f.results) > 0 {
		result = f.results[0]
		f.results = f.results[1:]
	} else {
		result = fakeResult{err: errors.New("no canned result")}
	}
	f.mutex.Unlock()

	if result.panic {
		panic("fetcher exploded")
	}

	return result.snapshot, result.err
}

func snapshotOf(fetchedAt time.Time, departures ...ctdf.Departure) *ctdf.FeedSnapshot {
	return &ctdf.FeedSnapshot{Departures: departures, FetchedAt: fetchedAt}
}

func newTestFeed(name string) *FeedState {
	return NewFeedState(name, ctdf.Colour{R: 255}, ctdf.FeedQuery{Provider: ctdf.ProviderSBB, Origin: name + " origin", Destination: name + " destination", Limit: 10})
}

// waitLanded blocks until the outstanding fetch of feed has handed its result back
func waitLanded(t *testing.T, feed *FeedState) {
	t.Helper()

	pending := feed.pending
	require.NotNil(t, pending, "no fetch in flight")
	require.Eventually(t, func() bool {
		return len(pending) == 1
	}, 2*time.Second, time.Millisecond)
}
