package sbb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

const (
	DefaultBaseURL   = "http://transport.opendata.ch/v1/connections"
	DefaultUserAgent = "curl/7.54.1"
	DefaultLimit     = 10
)

var DefaultFields = []string{
	"connections/from/departureTimestamp",
	"connections/from/delay",
	"connections/sections/journey/category",
	"connections/sections/journey/number",
}

// Client fetches departures from the transport.opendata.ch connections endpoint
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func NewClient(baseURL string, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) RequestURL(query ctdf.FeedQuery) string {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	fields := query.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	values := url.Values{}
	values.Set("from", query.Origin)
	values.Set("to", query.Destination)
	values.Set("limit", strconv.Itoa(limit))
	for _, field := range fields {
		values.Add("fields[]", field)
	}

	return fmt.Sprintf("%s?%s", c.BaseURL, values.Encode())
}

func (c *Client) Fetch(ctx context.Context, query ctdf.FeedQuery) (*ctdf.FeedSnapshot, error) {
	requestURL := c.RequestURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorStatus, Query: query, StatusCode: resp.StatusCode}
	}

	jsonBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorNetwork, Query: query, Err: err}
	}

	snapshot, err := ParseConnections(jsonBytes)
	if err != nil {
		return nil, &ctdf.FetchError{Kind: ctdf.FetchErrorDecode, Query: query, Err: err}
	}

	snapshot.FetchedAt = time.Now()
	snapshot.DataSource = &ctdf.DataSource{
		OriginalFormat: "sbb-json",
		Provider:       "CH-opendata",
		Dataset:        c.BaseURL,
		Identifier:     query.Key(),
	}

	log.Debug().
		Str("origin", query.Origin).
		Str("destination", query.Destination).
		Int("departures", snapshot.Len()).
		Msg("Retrieved connections")

	return snapshot, nil
}

// ParseConnections keeps the API order, which is departure order
func ParseConnections(jsonBytes []byte) (*ctdf.FeedSnapshot, error) {
	var response ConnectionsResponse
	if err := json.Unmarshal(jsonBytes, &response); err != nil {
		return nil, err
	}
	if response.Connections == nil {
		return nil, errors.New("response has no connections array")
	}

	snapshot := &ctdf.FeedSnapshot{
		Departures: make([]ctdf.Departure, 0, len(response.Connections)),
	}
	for _, connection := range response.Connections {
		snapshot.Departures = append(snapshot.Departures, connection.Departure())
	}

	return snapshot, nil
}
