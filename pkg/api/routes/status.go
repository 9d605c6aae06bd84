package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

func Status(b Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		published := b.Latest()
		if published == nil {
			c.Status(fiber.StatusServiceUnavailable)
			return c.JSON(fiber.Map{
				"error": "Board has not started yet",
			})
		}

		groups := []string{"basic"}
		if c.QueryBool("detail", false) {
			groups = []string{"basic", "detailed"}
		}

		statusReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: groups,
		}, published.Status)
		if err != nil {
			c.Status(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sherrif could not reduce Status",
			})
		}

		return c.JSON(statusReduced)
	}
}

func Health(b Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b.Latest() == nil {
			c.Status(fiber.StatusServiceUnavailable)
			return c.JSON(fiber.Map{"status": "starting"})
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}
