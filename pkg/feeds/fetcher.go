package feeds

import (
	"context"
	"fmt"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// Fetcher performs one round trip to an upstream API for a single feed
type Fetcher interface {
	Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error)
}

type FetcherFunc func(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error)

func (f FetcherFunc) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	return f(ctx, query)
}

// Registry picks the fetcher matching the query provider
type Registry struct {
	fetchers map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{
		fetchers: map[string]Fetcher{},
	}
}

func (r *Registry) Register(provider string, fetcher Fetcher) {
	r.fetchers[provider] = fetcher
}

func (r *Registry) Has(provider string) bool {
	_, ok := r.fetchers[provider]
	return ok
}

func (r *Registry) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	fetcher, ok := r.fetchers[query.Provider]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for provider %q", query.Provider)
	}

	return fetcher.Fetch(ctx, query)
}
