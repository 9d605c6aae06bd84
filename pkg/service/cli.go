package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/urfave/cli/v2"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   config.DefaultPath,
		Usage:   "board file, the built in Zurich board is used when it does not exist",
	}
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Live departure board",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the departure board",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:  "renderer",
						Value: cli.NewStringSlice(RendererTerminal),
						Usage: "where frames are drawn: terminal, png or none (repeatable)",
					},
					&cli.StringFlag{
						Name:  "png-path",
						Value: "output.png",
						Usage: "file written by the png renderer",
					},
					&cli.IntFlag{
						Name:  "png-every",
						Value: 1,
						Usage: "write every Nth frame to the png file",
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the remote control API, empty disables it",
					},
					&cli.BoolFlag{
						Name:  "keyboard",
						Usage: "read keys from stdin: a next pair, b previous, p pause, r reset, +/- brightness, ]/[ pages, q or esc quit",
					},
					&cli.StringFlag{
						Name:  "store",
						Value: StoreNone,
						Usage: "snapshot store for warm starts: none, redis or sqlite",
					},
					&cli.StringFlag{
						Name:  "sqlite-path",
						Value: "departureboard.db",
						Usage: "database file of the sqlite snapshot store",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(c.Context)
					defer cancel()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					go func() {
						<-signals // wait for signal
						log.Info().Msg("Shutting down")
						cancel()

						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					options := Options{
						Config:     cfg,
						Renderers:  c.StringSlice("renderer"),
						PNGPath:    c.String("png-path"),
						PNGEvery:   c.Int("png-every"),
						Listen:     c.String("listen"),
						Store:      c.String("store"),
						SQLitePath: c.String("sqlite-path"),
					}
					if c.Bool("keyboard") {
						options.Keyboard = os.Stdin
					}

					return Run(ctx, options)
				},
			},
			{
				Name:  "fetch",
				Usage: "fetch every configured feed once and print what the board would show",
				Flags: []cli.Flag{configFlag()},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					results := FetchAll(c.Context, cfg)
					reducer := board.NewReducer(cfg.LineWidth, board.InvalidPolicy(cfg.InvalidDepartures))
					now := time.Now()

					for _, result := range results {
						if result.Err != nil {
							log.Error().Err(result.Err).Str("feed", result.Feed.Name).Msg("Fetch failed")
							continue
						}

						pretty.Println(result.Snapshot)

						result.Feed.Seed(result.Snapshot)
						result.Feed.SyncCursor(now, reducer.InvalidPolicy)
						fmt.Println(reducer.Header(result.Feed))
						for _, line := range reducer.Lines(result.Feed, now) {
							fmt.Println(line)
						}
					}

					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "check a board file",
				Flags: []cli.Flag{configFlag()},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					for _, page := range cfg.Pages {
						for _, feed := range page.Feeds {
							log.Info().
								Str("page", page.Name).
								Str("feed", feed.Name).
								Str("query", feed.Query().String()).
								Str("colour", feed.DisplayColour().Hex()).
								Msg("Feed")
						}
					}

					log.Info().
						Int("pages", len(cfg.Pages)).
						Int("feeds", cfg.FeedCount()).
						Dur("refresh", cfg.RefreshInterval.Duration()).
						Msg("Board file is valid")

					return nil
				},
			},
		},
	}
}

type FetchResult struct {
	Feed     *board.FeedState
	Snapshot *ctdf.FeedSnapshot
	Err      error
}

// FetchAll fetches every feed of the board concurrently, results keep the board order
func FetchAll(ctx context.Context, cfg *config.Config) []FetchResult {
	fetcher := BuildFetcher(cfg, nil)
	p := pool.New().WithMaxGoroutines(8)

	var feedStates []*board.FeedState
	for _, page := range BuildPages(cfg) {
		feedStates = append(feedStates, page.Feeds...)
	}

	timeouts := cfg.FetchTimeouts()
	results := make([]FetchResult, len(feedStates))
	for i, feed := range feedStates {
		i, feed := i, feed
		p.Go(func() {
			fetchCtx, cancel := context.WithTimeout(ctx, timeouts[feed.Query.Provider])
			defer cancel()

			snapshot, err := fetcher.Fetch(fetchCtx, feed.Query)
			results[i] = FetchResult{Feed: feed, Snapshot: snapshot, Err: err}
		})
	}
	p.Wait()

	return results
}
