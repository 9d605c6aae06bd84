package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/departureboard/pkg/api"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/display"
	"github.com/travigo/departureboard/pkg/feeds"
	"github.com/travigo/departureboard/pkg/gtfsrt"
	"github.com/travigo/departureboard/pkg/redis_client"
	"github.com/travigo/departureboard/pkg/sbb"
	"github.com/travigo/departureboard/pkg/snapshotstore"
)

const (
	StoreNone   = "none"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"

	RendererTerminal = "terminal"
	RendererPNG      = "png"
	RendererNone     = "none"

	// snapshots outlive a few failed refreshes before redis forgets them
	redisExpiryRefreshes = 6
)

type Options struct {
	Config     *config.Config
	Renderers  []string
	PNGPath    string
	PNGEvery   int
	Listen     string
	Store      string
	SQLitePath string

	// Keyboard is read for key presses when set, usually os.Stdin
	Keyboard io.Reader
}

// BuildFetcher wires the provider clients behind the registry, the per feed filters and,
// when a store is given, snapshot persistence.
func BuildFetcher(cfg *config.Config, store feeds.SnapshotSaver) feeds.Fetcher {
	registry := feeds.NewRegistry()

	sbbProvider := cfg.Providers.SBB
	registry.Register(ctdf.ProviderSBB, sbb.NewClient(sbbProvider.BaseURL, sbbProvider.UserAgent, sbbProvider.Timeout.Duration()))

	if gtfsProvider := cfg.Providers.GTFSRT; gtfsProvider.FeedURL != "" {
		var routes gtfsrt.RouteLabels
		if gtfsProvider.RoutesFile != "" {
			var err error
			routes, err = gtfsrt.LoadRoutesFile(gtfsProvider.RoutesFile)
			if err != nil {
				log.Warn().Err(err).Str("path", gtfsProvider.RoutesFile).Msg("Failed to load GTFS routes, labelling by route id")
			} else {
				log.Info().Int("routes", len(routes)).Msg("Loaded GTFS routes")
			}
		}

		registry.Register(ctdf.ProviderGTFSRT, gtfsrt.NewClient(
			gtfsProvider.FeedURL,
			gtfsProvider.APIKeyHeader,
			gtfsProvider.APIKey,
			gtfsProvider.Timeout.Duration(),
			routes,
		))
	}

	var fetcher feeds.Fetcher = feeds.NewFilteredFetcher(registry)
	if store != nil {
		fetcher = &feeds.StoringFetcher{Fetcher: fetcher, Store: store}
	}

	return fetcher
}

func BuildPages(cfg *config.Config) []*board.Page {
	pages := make([]*board.Page, 0, len(cfg.Pages))

	for _, pageConfig := range cfg.Pages {
		page := &board.Page{Name: pageConfig.Name}

		for _, feedConfig := range pageConfig.Feeds {
			page.Feeds = append(page.Feeds, board.NewFeedState(feedConfig.Name, feedConfig.DisplayColour(), feedConfig.Query()))
		}

		pages = append(pages, page)
	}

	return pages
}

func BuildDashboard(ctx context.Context, cfg *config.Config, fetcher feeds.Fetcher) *board.Dashboard {
	scheduler := board.NewScheduler(ctx, fetcher, cfg.RefreshInterval.Duration(), board.DefaultFetchTimeout)
	scheduler.ProviderTimeouts = cfg.FetchTimeouts()

	return board.NewDashboard(
		BuildPages(cfg),
		scheduler,
		board.NewReducer(cfg.LineWidth, board.InvalidPolicy(cfg.InvalidDepartures)),
		board.NewRotationEngine(cfg.FrameRate, cfg.ScrollStep, cfg.LineHeight, cfg.Dwell.Duration()),
		board.Options{
			ShowClock:   cfg.ShowClock,
			RotatePages: cfg.RotatePages,
		},
	)
}

func BuildRenderer(cfg *config.Config, names []string, pngPath string, pngEvery int) (display.Renderer, error) {
	var renderers display.MultiRenderer

	for _, name := range names {
		switch name {
		case RendererTerminal:
			rows := 0
			if cfg.LineHeight > 0 {
				rows = cfg.Screen.Height / cfg.LineHeight
			}
			renderers = append(renderers, display.NewTerminalRenderer(os.Stdout, cfg.LineHeight, rows))
		case RendererPNG:
			renderers = append(renderers, display.NewPNGRenderer(pngPath, cfg.Screen.Width, cfg.Screen.Height, cfg.LineHeight, pngEvery))
		case RendererNone:
		default:
			return nil, fmt.Errorf("unknown renderer %q", name)
		}
	}

	switch len(renderers) {
	case 0:
		return display.NopRenderer{}, nil
	case 1:
		return renderers[0], nil
	default:
		return renderers, nil
	}
}

func OpenStore(ctx context.Context, kind string, sqlitePath string, cfg *config.Config) (snapshotstore.Store, error) {
	switch kind {
	case "", StoreNone:
		return nil, nil
	case StoreRedis:
		if err := redis_client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return snapshotstore.NewRedisStore(redis_client.Client, redisExpiryRefreshes*cfg.RefreshInterval.Duration()), nil
	case StoreSQLite:
		return snapshotstore.OpenSQLite(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// Seed gives every feed its last stored snapshot. Must run before the frame loop starts.
func Seed(ctx context.Context, store snapshotstore.Store, pages []*board.Page) int {
	var keys []string
	for _, page := range pages {
		for _, feed := range page.Feeds {
			keys = append(keys, feed.Query.Key())
		}
	}

	snapshots := snapshotstore.LoadAll(ctx, store, keys)

	seeded := 0
	for _, page := range pages {
		for _, feed := range page.Feeds {
			if snapshot, ok := snapshots[feed.Query.Key()]; ok {
				feed.Seed(snapshot)
				seeded++

				log.Debug().
					Str("feed", feed.Name).
					Int("departures", snapshot.Len()).
					Time("fetchedat", snapshot.FetchedAt).
					Msg("Seeded feed from store")
			}
		}
	}

	return seeded
}

// Run drives the board until ctx is cancelled, a quit key is pressed or the API server fails
func Run(ctx context.Context, options Options) error {
	cfg := options.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := OpenStore(ctx, options.Store, options.SQLitePath, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var saver feeds.SnapshotSaver
	if store != nil {
		saver = store
	}
	dashboard := BuildDashboard(ctx, cfg, BuildFetcher(cfg, saver))

	if store != nil {
		startTime := time.Now()
		seeded := Seed(ctx, store, dashboard.Pages)
		log.Info().
			Int("seeded", seeded).
			Int("feeds", cfg.FeedCount()).
			Str("store", options.Store).
			Dur("took", time.Since(startTime)).
			Msg("Warm started from snapshot store")
	}

	renderer, err := BuildRenderer(cfg, options.Renderers, options.PNGPath, options.PNGEvery)
	if err != nil {
		return err
	}

	loop := board.NewLoop(dashboard, renderer, board.RealClock{}, cfg.FrameRate)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return loop.Run(ctx)
	})
	if options.Keyboard != nil {
		keyboard := &display.Keyboard{Reader: options.Keyboard, Sink: loop, Quit: cancel}
		p.Go(func(ctx context.Context) error {
			return keyboard.Run(ctx)
		})
	}
	if options.Listen != "" {
		p.Go(func(ctx context.Context) error {
			return api.SetupServer(ctx, options.Listen, loop)
		})
	}

	return p.Wait()
}
