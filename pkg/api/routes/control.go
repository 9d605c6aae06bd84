package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
)

// Control queues a remote control command, eg. GET /control?name=dir_right
func Control(b Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "A command name must be given",
			})
		}

		command, err := board.ParseCommand(name)
		if err != nil {
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if !b.Send(command) {
			c.Status(fiber.StatusServiceUnavailable)
			return c.JSON(fiber.Map{
				"error": "Command queue is full",
			})
		}

		return c.JSON(fiber.Map{
			"command": command,
		})
	}
}
