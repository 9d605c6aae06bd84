package board

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/feeds"
)

const (
	DefaultRefreshInterval = 10 * time.Minute
	DefaultFetchTimeout    = 10 * time.Second
)

// Scheduler decides per feed whether a refresh is due and applies landed results.
// Advance never blocks and must only be called from the frame loop goroutine.
type Scheduler struct {
	Fetcher         feeds.Fetcher
	RefreshInterval time.Duration

	// FetchTimeout applies to providers missing from ProviderTimeouts
	FetchTimeout     time.Duration
	ProviderTimeouts map[string]time.Duration

	// base outlives every Advance call: fetches started from it run past the frame that
	// started them and only stop when the board shuts down.
	base context.Context
}

// NewScheduler starts every fetch from base, which should live as long as the board
func NewScheduler(base context.Context, fetcher feeds.Fetcher, refreshInterval time.Duration, fetchTimeout time.Duration) *Scheduler {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &Scheduler{
		Fetcher:         fetcher,
		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,
		base:            base,
	}
}

func (s *Scheduler) timeout(query ctdf.FeedQuery) time.Duration {
	if timeout, ok := s.ProviderTimeouts[query.Provider]; ok && timeout > 0 {
		return timeout
	}

	return s.FetchTimeout
}

// Due reports whether an idle feed should be refreshed at now
func (s *Scheduler) Due(feed *FeedState, now time.Time) bool {
	return now.Sub(feed.snapshot.FetchedAt) >= s.RefreshInterval &&
		now.Sub(feed.LastAttempt) >= s.RefreshInterval
}

func (s *Scheduler) Advance(feed *FeedState, now time.Time) {
	switch feed.fetchState {
	case FetchIdle:
		if s.Due(feed, now) {
			s.start(feed, now)
		}
		return
	case FetchInFlight:
		select {
		case result := <-feed.pending:
			feed.ready = &result
			feed.fetchState = FetchReady
		default:
			return
		}
	}

	if feed.fetchState == FetchReady {
		s.apply(feed, now)
	}
}

func (s *Scheduler) start(feed *FeedState, now time.Time) {
	fetchID := uuid.NewString()
	name := feed.Name
	query := feed.Query

	// Buffered so the fetch goroutine can always hand off and exit, even if nobody polls again
	pending := make(chan fetchResult, 1)

	feed.pending = pending
	feed.fetchState = FetchInFlight
	feed.LastAttempt = now

	log.Debug().Str("feed", feed.Name).Str("fetchid", fetchID).Msg("Starting feed refresh")

	go func() {
		ctx, cancel := context.WithTimeout(s.base, s.timeout(query))
		defer cancel()

		var result fetchResult
		recovered := panics.Try(func() {
			result.snapshot, result.err = s.Fetcher.Fetch(ctx, query)
		})
		if recovered != nil {
			result = fetchResult{err: &ctdf.FetchError{Kind: ctdf.FetchErrorPanic, Query: query, Err: recovered.AsError()}}
		}
		if result.err == nil && result.snapshot == nil {
			result.snapshot = &ctdf.FeedSnapshot{}
		}

		log.Debug().Str("feed", name).Str("fetchid", fetchID).Err(result.err).Msg("Feed refresh finished")

		pending <- result
	}()
}

func (s *Scheduler) apply(feed *FeedState, now time.Time) {
	result := feed.ready

	feed.ready = nil
	feed.pending = nil
	feed.fetchState = FetchIdle

	if result.err != nil {
		feed.LastError = result.err
		feed.ConsecutiveFailures++

		log.Warn().
			Err(result.err).
			Str("feed", feed.Name).
			Int("failures", feed.ConsecutiveFailures).
			Dur("retryin", s.RefreshInterval).
			Msg("Feed refresh failed, keeping previous departures")
		return
	}

	snapshot := result.snapshot
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = now
	}

	feed.snapshot = snapshot
	feed.cursor = 0
	feed.LastError = nil
	feed.ConsecutiveFailures = 0

	log.Info().
		Str("feed", feed.Name).
		Int("departures", len(snapshot.Departures)).
		Time("fetchedat", snapshot.FetchedAt).
		Msg("Feed refreshed")
}
