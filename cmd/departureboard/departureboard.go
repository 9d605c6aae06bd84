package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/service"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	// stdout belongs to the terminal renderer
	if os.Getenv("DEPARTUREBOARD_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = log.Output(os.Stderr)
	}

	if os.Getenv("DEPARTUREBOARD_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "departureboard",
		Description: "Live public transport departure board for LED matrix panels and terminals",

		Commands: []*cli.Command{
			service.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
