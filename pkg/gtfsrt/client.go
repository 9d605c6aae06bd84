package gtfsrt

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"google.golang.org/protobuf/proto"
)

const defaultLimit = 10

// Client turns a GTFS-Realtime TripUpdates feed into departures between two stops
type Client struct {
	FeedURL      string
	APIKeyHeader string
	APIKey       string
	UserAgent    string
	HTTPClient   *http.Client
	Routes       RouteLabels

	// Now stamps fetches and decides which departures have already left. Defaults to time.Now.
	Now func() time.Time
}

func NewClient(feedURL string, apiKeyHeader string, apiKey string, timeout time.Duration, routes RouteLabels) *Client {
	return &Client{
		FeedURL:      feedURL,
		APIKeyHeader: apiKeyHeader,
		APIKey:       apiKey,
		UserAgent:    "curl/7.54.1",
		HTTPClient:   &http.Client{Timeout: timeout},
		Routes:       routes,
		Now:          time.Now,
	}
}

func (c *Client) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL, nil)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIKeyHeader != "" && c.APIKey != "" {
		req.Header.Set(c.APIKeyHeader, c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorStatus, Query: query, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	snapshot, err := ParseFeed(body, query, c.Routes, now)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorDecode, Query: query, Err: err}
	}

	snapshot.FetchedAt = now
	snapshot.DataSource = &ctdf.DataSource{
		OriginalFormat: "gtfs-rt",
		Provider:       "GTFS-RT",
		Dataset:        c.FeedURL,
		Identifier:     query.Key(),
	}

	return snapshot, nil
}

// ParseFeed finds every trip calling at the origin (and later at the destination when one is set)
// and returns one departure per trip, sorted by time with timeless entries last. Trips that left
// the origin by now are dropped before the limit applies, feeds keep listing them for a while.
func ParseFeed(data []byte, query ctdf.FeedQuery, routes RouteLabels, now time.Time) (*ctdf.FeedSnapshot, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(data, feed); err != nil {
		return nil, err
	}

	var departures []ctdf.Departure
	skipped := 0
	departed := 0

	for _, entity := range feed.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}
		if tripUpdate.GetTrip().GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED {
			skipped++
			continue
		}

		departure, ok := tripDeparture(tripUpdate, query, routes)
		if !ok {
			continue
		}
		if departure.DepartedBy(now) {
			departed++
			continue
		}

		departures = append(departures, departure)
	}

	sort.SliceStable(departures, func(i, j int) bool {
		a, b := departures[i], departures[j]
		if a.Valid() != b.Valid() {
			return a.Valid()
		}

		return a.EffectiveTime().Before(b.EffectiveTime())
	})

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(departures) > limit {
		departures = departures[:limit]
	}

	log.Debug().
		Str("origin", query.Origin).
		Int("entities", len(feed.GetEntity())).
		Int("cancelled", skipped).
		Int("departed", departed).
		Int("departures", len(departures)).
		Msg("Parsed GTFS-RT feed")

	return &ctdf.FeedSnapshot{Departures: departures}, nil
}

func tripDeparture(tripUpdate *gtfs.TripUpdate, query ctdf.FeedQuery, routes RouteLabels) (ctdf.Departure, bool) {
	updates := tripUpdate.GetStopTimeUpdate()

	originIndex := -1
	for i, update := range updates {
		if update.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED {
			continue
		}
		if matchesStop(update.GetStopId(), query.Origin) {
			originIndex = i
			break
		}
	}
	if originIndex < 0 {
		return ctdf.Departure{}, false
	}

	if query.Destination != "" {
		found := false
		for _, update := range updates[originIndex+1:] {
			if matchesStop(update.GetStopId(), query.Destination) {
				found = true
				break
			}
		}
		if !found {
			return ctdf.Departure{}, false
		}
	}

	origin := updates[originIndex]
	label := routes.Label(tripUpdate.GetTrip().GetRouteId())

	event := origin.GetDeparture()
	if event == nil || event.Time == nil {
		event = origin.GetArrival()
	}
	if event == nil || event.Time == nil {
		return ctdf.NewDeparture(nil, 0, label), true
	}

	// Feed times already include the delay, the board adds it back on
	delay := time.Duration(event.GetDelay()) * time.Second
	scheduledAt := time.Unix(event.GetTime(), 0).Add(-delay)

	return ctdf.NewDeparture(&scheduledAt, delay, label), true
}

// matchesStop accepts the exact stop id, or the id with a single direction suffix such as the
// MTA's platform ids (L08 matches L08N and L08S)
func matchesStop(stopID string, want string) bool {
	if want == "" {
		return false
	}
	if stopID == want {
		return true
	}

	if len(stopID) == len(want)+1 && strings.HasPrefix(stopID, want) {
		suffix := stopID[len(stopID)-1:]
		return suffix == "N" || suffix == "S"
	}

	return false
}
