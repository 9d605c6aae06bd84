package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
)

const boardFixture = `
refresh_interval: PT5M
frame_rate: 60
dwell: 3s
show_clock: false
invalid_departures: consume
providers:
  gtfsrt:
    feed_url: https://example.invalid/gtfs-l
    routes_file: routes.txt
pages:
  - name: Home
    feeds:
      - name: Tram
        origin: "Zurich,Kappeli"
        destination: "Zurich,Letzipark West"
        colour: "#00ffff"
      - origin: L08
        provider: gtfsrt
        colour: [255, 128, 0]
        limit: 4
        filter: 'DelayMinutes < 10'
`

func TestParseDurations(t *testing.T) {
	tests := map[string]time.Duration{
		"10m":    10 * time.Minute,
		"1.5s":   1500 * time.Millisecond,
		"PT10M":  10 * time.Minute,
		"pt1h2m": time.Hour + 2*time.Minute,
		"PT30S":  30 * time.Second,
		" 2s ":   2 * time.Second,
	}

	for input, expected := range tests {
		parsed, err := ParseDuration(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, parsed, input)
	}

	for _, input := range []string{"", "ten minutes", "PTXM"} {
		_, err := ParseDuration(input)
		assert.Error(t, err, input)
	}
}

func TestDefault(t *testing.T) {
	config := Default()

	require.NoError(t, config.Validate())
	assert.Equal(t, 10*time.Minute, config.RefreshInterval.Duration())
	assert.Equal(t, 30, config.FrameRate)
	assert.Equal(t, 4, config.ScrollStep)
	assert.Equal(t, 16, config.LineHeight)
	assert.Equal(t, 24, config.LineWidth)
	assert.Equal(t, 2*time.Second, config.Dwell.Duration())
	assert.True(t, config.ShowClock)
	assert.Equal(t, 5, config.FeedCount())

	feed := config.Pages[0].Feeds[0]
	assert.Equal(t, "Freihofstrasse => HB", feed.Name)
	assert.Equal(t, ctdf.Colour{R: 255}, feed.DisplayColour())
	assert.Equal(t, ctdf.ProviderSBB, feed.Provider)
	assert.Equal(t, 10, feed.Limit)
}

func TestParse(t *testing.T) {
	config, err := Parse([]byte(boardFixture))
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, 5*time.Minute, config.RefreshInterval.Duration())
	assert.Equal(t, 60, config.FrameRate)
	assert.Equal(t, 3*time.Second, config.Dwell.Duration())
	assert.False(t, config.ShowClock)
	assert.True(t, config.RotatePages, "unset keys keep their default")
	assert.Equal(t, "consume", config.InvalidDepartures)
	assert.Equal(t, DefaultSBBURL, config.Providers.SBB.BaseURL)
	assert.Equal(t, "x-api-key", config.Providers.GTFSRT.APIKeyHeader)

	require.Len(t, config.Pages, 1)
	feeds := config.Pages[0].Feeds
	require.Len(t, feeds, 2)

	assert.Equal(t, ctdf.Colour{G: 255, B: 255}, feeds[0].DisplayColour())
	assert.Equal(t, ctdf.ProviderSBB, feeds[0].Provider)

	assert.Equal(t, "L08", feeds[1].Name)
	assert.Equal(t, ctdf.Colour{R: 255, G: 128}, feeds[1].DisplayColour())

	query := feeds[1].Query()
	assert.Equal(t, ctdf.ProviderGTFSRT, query.Provider)
	assert.Equal(t, 4, query.Limit)
	assert.Equal(t, "DelayMinutes < 10", query.Filter)
}

func TestParseWithoutPagesUsesDefaultBoard(t *testing.T) {
	config, err := Parse([]byte("frame_rate: 25\n"))
	require.NoError(t, err)

	assert.Equal(t, 25, config.FrameRate)
	assert.Equal(t, 5, config.FeedCount())
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("dwell: forever\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("pages:\n  - feeds:\n      - origin: A\n        colour: '#zzzzzz'\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	config := Default()
	config.FrameRate = 0
	config.LineWidth = 1
	config.InvalidDepartures = "hide"
	config.Pages = append(config.Pages,
		Page{Name: "empty"},
		Page{Name: "broken", Feeds: []Feed{
			{Name: "no origin", Destination: "B", Provider: ctdf.ProviderSBB},
			{Name: "bus", Origin: "A", Destination: "B", Provider: "bus"},
			{Name: "bad filter", Origin: "A", Destination: "B", Provider: ctdf.ProviderSBB, Filter: "Label +"},
			{Name: "gtfs", Origin: "A", Provider: ctdf.ProviderGTFSRT},
		}},
	)

	err := config.Validate()
	require.Error(t, err)

	for _, expected := range []string{
		"frame_rate",
		"line_width",
		"invalid_departures",
		"(empty) has no feeds",
		"no origin",
		`unknown provider "bus"`,
		"bad filter",
		"feed_url",
	} {
		assert.ErrorContains(t, err, expected)
	}
}

func TestApplyEnvironment(t *testing.T) {
	config := Default()

	err := config.ApplyEnvironment(map[string]string{
		"DEPARTUREBOARD_REFRESH_INTERVAL": "PT1M",
		"DEPARTUREBOARD_DWELL":            "500ms",
		"DEPARTUREBOARD_FRAME_RATE":       "10",
		"DEPARTUREBOARD_SBB_URL":          "http://localhost:8080/v1/connections",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Minute, config.RefreshInterval.Duration())
	assert.Equal(t, 500*time.Millisecond, config.Dwell.Duration())
	assert.Equal(t, 10, config.FrameRate)
	assert.Equal(t, "http://localhost:8080/v1/connections", config.Providers.SBB.BaseURL)

	assert.Error(t, config.ApplyEnvironment(map[string]string{"DEPARTUREBOARD_FRAME_RATE": "fast"}))
	assert.Error(t, config.ApplyEnvironment(map[string]string{"DEPARTUREBOARD_DWELL": "long"}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	config, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, config.FeedCount())

	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(boardFixture), 0o644))

	config, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Home", config.Pages[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("frame_rate: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "frame_rate")
}

func TestFetchTimeoutsPerProvider(t *testing.T) {
	config, err := Parse([]byte(`
providers:
  sbb:
    timeout: 4s
  gtfsrt:
    feed_url: https://example.invalid/gtfs-l
    timeout: PT30S
`))
	require.NoError(t, err)

	timeouts := config.FetchTimeouts()
	assert.Equal(t, 4*time.Second, timeouts[ctdf.ProviderSBB])
	assert.Equal(t, 30*time.Second, timeouts[ctdf.ProviderGTFSRT])
}
