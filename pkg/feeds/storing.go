package feeds

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

// SnapshotSaver is the write half of a snapshot store
type SnapshotSaver interface {
	Save(ctx context.Context, key string, snapshot *ctdf.FeedSnapshot) error
}

// StoringFetcher persists every successful snapshot. Store failures are logged only.
type StoringFetcher struct {
	Fetcher Fetcher
	Store   SnapshotSaver
}

func (s *StoringFetcher) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	snapshot, err := s.Fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Save(ctx, query.Key(), snapshot); err != nil {
		log.Error().Err(err).Str("feed", query.String()).Msg("Failed to store snapshot")
	}

	return snapshot, nil
}
