package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/api/routes"
)

func NewApp(board routes.Board) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	// The web remote sends its commands to the root path
	webApp.Get("/", routes.Control(board))
	webApp.Get("/control", routes.Control(board))

	webApp.Get("/frame", routes.Frame(board))
	webApp.Get("/status", routes.Status(board))
	webApp.Get("/version", routes.APIVersion)
	webApp.Get("/health", routes.Health(board))

	return webApp
}

// SetupServer serves the remote control API until ctx is cancelled
func SetupServer(ctx context.Context, listen string, board routes.Board) error {
	webApp := NewApp(board)

	go func() {
		<-ctx.Done()
		if err := webApp.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down web server")
		}
	}()

	log.Info().Str("listen", listen).Msg("Starting remote control API")

	return webApp.Listen(listen)
}
