package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/display"
	"github.com/travigo/departureboard/pkg/snapshotstore"
)

// sbbServer answers every connections request with two trams leaving in a few minutes
func sbbServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		now := time.Now().Unix()
		fmt.Fprintf(w, `{"connections": [
			{"from": {"departureTimestamp": %d, "delay": 1}, "sections": [{"journey": {"category": "T", "number": "14"}}]},
			{"from": {"departureTimestamp": %d}, "sections": [{"journey": {"category": "T", "number": "3"}}]}
		]}`, now+120, now+600)
	}))
	t.Cleanup(server.Close)

	return server
}

func testConfig(sbbURL string) *config.Config {
	cfg := config.Default()
	cfg.Providers.SBB.BaseURL = sbbURL
	cfg.Pages = []config.Page{
		{
			Name: "Home",
			Feeds: []config.Feed{
				{Name: "Freihofstrasse => HB", Origin: "Zurich,Freihofstrasse", Destination: "Zurich,Letzigrund", Provider: ctdf.ProviderSBB, Limit: 10},
				{Name: "Only T3", Origin: "Zurich,Kappeli", Destination: "Zurich,Letzipark West", Provider: ctdf.ProviderSBB, Limit: 10, Filter: `Label == "T3"`},
			},
		},
	}

	return cfg
}

func TestBuildPages(t *testing.T) {
	pages := BuildPages(config.Default())

	require.Len(t, pages, 1)
	require.Len(t, pages[0].Feeds, 5)
	assert.Equal(t, "Siemens => HB", pages[0].Feeds[1].Name)
	assert.Equal(t, ctdf.Colour{G: 255}, pages[0].Feeds[1].Colour)
	assert.Equal(t, "Zurich, Siemens", pages[0].Feeds[1].Query.Origin)
}

func TestBuildRenderer(t *testing.T) {
	cfg := config.Default()

	renderer, err := BuildRenderer(cfg, nil, "", 1)
	require.NoError(t, err)
	assert.IsType(t, display.NopRenderer{}, renderer)

	renderer, err = BuildRenderer(cfg, []string{RendererPNG}, filepath.Join(t.TempDir(), "out.png"), 1)
	require.NoError(t, err)
	assert.IsType(t, &display.PNGRenderer{}, renderer)

	renderer, err = BuildRenderer(cfg, []string{RendererTerminal, RendererPNG}, "out.png", 1)
	require.NoError(t, err)
	require.IsType(t, display.MultiRenderer{}, renderer)
	assert.Equal(t, 4, renderer.(display.MultiRenderer)[0].(*display.TerminalRenderer).Rows)

	_, err = BuildRenderer(cfg, []string{"hologram"}, "", 1)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()

	store, err := OpenStore(context.Background(), StoreNone, "", cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = OpenStore(context.Background(), StoreSQLite, filepath.Join(t.TempDir(), "board.db"), cfg)
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	_, err = OpenStore(context.Background(), "mongo", "", cfg)
	assert.Error(t, err)
}

func TestBuildFetcherWithoutGTFS(t *testing.T) {
	fetcher := BuildFetcher(config.Default(), nil)

	_, err := fetcher.Fetch(context.Background(), ctdf.FeedQuery{Provider: ctdf.ProviderGTFSRT, Origin: "L08"})

	assert.ErrorContains(t, err, "no fetcher registered")
}

func TestFetchAll(t *testing.T) {
	var requests atomic.Int32
	cfg := testConfig(sbbServer(t, &requests).URL)

	results := FetchAll(context.Background(), cfg)

	require.Len(t, results, 2)
	assert.Equal(t, int32(2), requests.Load())

	require.NoError(t, results[0].Err)
	assert.Equal(t, "Freihofstrasse => HB", results[0].Feed.Name)
	assert.Len(t, results[0].Snapshot.Departures, 2)

	require.NoError(t, results[1].Err)
	require.Len(t, results[1].Snapshot.Departures, 1)
	assert.Equal(t, "T3", results[1].Snapshot.Departures[0].Label)
}

func TestWarmStartSkipsFreshFeeds(t *testing.T) {
	ctx := context.Background()
	var requests atomic.Int32
	cfg := testConfig(sbbServer(t, &requests).URL)

	store, err := snapshotstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	defer store.Close()

	// first board run stores what it fetched
	first := BuildDashboard(ctx, cfg, BuildFetcher(cfg, store))
	loop := board.NewLoop(first, display.NopRenderer{}, board.RealClock{}, cfg.FrameRate)
	require.Eventually(t, func() bool {
		loop.RunFrame(time.Now())
		for _, feed := range first.Pages[0].Feeds {
			if feed.Snapshot().Empty() {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(2), requests.Load())

	// a restarted board is seeded and does not refetch
	second := BuildDashboard(ctx, cfg, BuildFetcher(cfg, store))
	assert.Equal(t, 2, Seed(ctx, store, second.Pages))

	feed := second.Pages[0].Feeds[1]
	require.Len(t, feed.Snapshot().Departures, 1)
	assert.Equal(t, "T3", feed.Snapshot().Departures[0].Label)

	loop = board.NewLoop(second, display.NopRenderer{}, board.RealClock{}, cfg.FrameRate)
	for i := 0; i < 10; i++ {
		loop.RunFrame(time.Now())
	}
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, board.FetchIdle, feed.FetchState())
}

func TestRunStopsOnCancel(t *testing.T) {
	var requests atomic.Int32
	cfg := testConfig(sbbServer(t, &requests).URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Config: cfg, Renderers: []string{RendererNone}})
	}()

	require.Eventually(t, func() bool { return requests.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("board did not stop")
	}
}

func TestRunStopsOnQuitKey(t *testing.T) {
	var requests atomic.Int32
	cfg := testConfig(sbbServer(t, &requests).URL)

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), Options{
			Config:    cfg,
			Renderers: []string{RendererNone},
			Keyboard:  strings.NewReader("aq"),
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("board did not stop on the quit key")
	}
}
