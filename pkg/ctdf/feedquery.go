package ctdf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	ProviderSBB    = "sbb"
	ProviderGTFSRT = "gtfsrt"
)

// FeedQuery describes what to ask the upstream API for a single feed.
// It is built once from the board configuration and never mutated.
type FeedQuery struct {
	Provider    string
	Origin      string
	Destination string
	Limit       int
	Fields      []string

	// Filter is an optional boolean expression evaluated against every departure
	Filter string
}

// Key identifies the snapshot a query produces. Filtered queries get a digest of the
// expression appended, so feeds on the same route with different filters never share a key.
func (q FeedQuery) Key() string {
	key := fmt.Sprintf("%s:%s:%s:%d", q.Provider, q.Origin, q.Destination, q.Limit)
	if q.Filter == "" {
		return key
	}

	digest := sha256.Sum256([]byte(q.Filter))
	return key + ":" + hex.EncodeToString(digest[:6])
}

func (q FeedQuery) String() string {
	return fmt.Sprintf("%s => %s (%s)", q.Origin, q.Destination, q.Provider)
}
