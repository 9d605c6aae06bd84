package routes

import (
	"github.com/gofiber/fiber/v2"
)

func Frame(b Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		published := b.Latest()
		if published == nil {
			c.Status(fiber.StatusServiceUnavailable)
			return c.JSON(fiber.Map{
				"error": "No frame rendered yet",
			})
		}

		return c.JSON(fiber.Map{
			"frame":       published.FrameNumber,
			"publishedat": published.PublishedAt,
			"lines":       published.Frame.Lines,
			"offset":      published.Frame.VerticalOffset,
			"brightness":  published.Frame.Brightness,
		})
	}
}
