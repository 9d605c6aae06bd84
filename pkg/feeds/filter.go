package feeds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

// FilterEnv is what a feed filter expression can see, eg. `Label startsWith "S" && DelayMinutes < 5`
type FilterEnv struct {
	Label        string
	DelayMinutes int
	Valid        bool
	MinutesUntil int
}

func newFilterEnv(departure ctdf.Departure, now time.Time) FilterEnv {
	env := FilterEnv{
		Label:        departure.Label,
		DelayMinutes: departure.DelayMinutes(),
		Valid:        departure.Valid(),
	}
	if departure.Valid() {
		env.MinutesUntil = int(departure.EffectiveTime().Sub(now) / time.Minute)
	}

	return env
}

func CompileFilter(filter string) (*vm.Program, error) {
	program, err := expr.Compile(filter, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", filter, err)
	}

	return program, nil
}

// FilteredFetcher drops departures that do not match the query filter expression.
// Queries without a filter pass straight through.
type FilteredFetcher struct {
	Fetcher Fetcher

	mutex    sync.Mutex
	programs map[string]*vm.Program
}

func NewFilteredFetcher(fetcher Fetcher) *FilteredFetcher {
	return &FilteredFetcher{
		Fetcher:  fetcher,
		programs: map[string]*vm.Program{},
	}
}

func (f *FilteredFetcher) program(filter string) (*vm.Program, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if program, ok := f.programs[filter]; ok {
		return program, nil
	}

	program, err := CompileFilter(filter)
	if err != nil {
		return nil, err
	}
	f.programs[filter] = program

	return program, nil
}

func (f *FilteredFetcher) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	snapshot, err := f.Fetcher.Fetch(ctx, query)
	if err != nil || query.Filter == "" || snapshot == nil {
		return snapshot, err
	}

	program, err := f.program(query.Filter)
	if err != nil {
		return nil, err
	}

	now := snapshot.FetchedAt
	if now.IsZero() {
		now = time.Now()
	}

	filtered := &ctdf.FeedSnapshot{
		FetchedAt:  snapshot.FetchedAt,
		DataSource: snapshot.DataSource,
	}

	for _, departure := range snapshot.Departures {
		output, err := expr.Run(program, newFilterEnv(departure, now))
		if err != nil {
			log.Debug().Err(err).Str("feed", query.String()).Str("label", departure.Label).Msg("Filter evaluation failed, keeping departure")
			filtered.Departures = append(filtered.Departures, departure)
			continue
		}

		if keep, _ := output.(bool); keep {
			filtered.Departures = append(filtered.Departures, departure)
		}
	}

	return filtered, nil
}
