package ctdf

import "time"

// FeedSnapshot is the result of one successful fetch. Departures keep the upstream order,
// which is assumed to already be sorted by time.
type FeedSnapshot struct {
	Departures []Departure `json:"departures"`
	FetchedAt  time.Time   `json:"fetchedat"`

	DataSource *DataSource `json:"datasource,omitempty"`
}

// NeverFetched is the FetchedAt value of the initial empty snapshot
var NeverFetched = time.Unix(0, 0).UTC()

func EmptySnapshot() *FeedSnapshot {
	return &FeedSnapshot{
		FetchedAt: NeverFetched,
	}
}

func (s *FeedSnapshot) Empty() bool {
	return s == nil || len(s.Departures) == 0
}

func (s *FeedSnapshot) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Departures)
}
