package snapshotstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/departureboard/pkg/ctdf"
)

// Store keeps the last good snapshot of every feed so a restarted board can show departures
// straight away. Load returns nil, nil for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) (*ctdf.FeedSnapshot, error)
	Save(ctx context.Context, key string, snapshot *ctdf.FeedSnapshot) error
	Close() error
}

func encode(snapshot *ctdf.FeedSnapshot) ([]byte, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return payload, nil
}

func decode(payload []byte) (*ctdf.FeedSnapshot, error) {
	var snapshot ctdf.FeedSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &snapshot, nil
}

type loaded struct {
	key      string
	snapshot *ctdf.FeedSnapshot
}

// LoadAll fetches the given keys concurrently. Keys that are missing or fail to load are
// left out of the result, failures are only logged.
func LoadAll(ctx context.Context, store Store, keys []string) map[string]*ctdf.FeedSnapshot {
	p := pool.NewWithResults[loaded]().WithMaxGoroutines(8)

	for _, key := range keys {
		key := key
		p.Go(func() loaded {
			snapshot, err := store.Load(ctx, key)
			if err != nil {
				log.Error().Err(err).Str("key", key).Msg("Failed to load stored snapshot")
				return loaded{key: key}
			}

			return loaded{key: key, snapshot: snapshot}
		})
	}

	snapshots := map[string]*ctdf.FeedSnapshot{}
	for _, result := range p.Wait() {
		if result.snapshot != nil {
			snapshots[result.key] = result.snapshot
		}
	}

	return snapshots
}
