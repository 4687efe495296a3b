package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// errorHandler renders an error page for anything the handlers did not
// turn into a response themselves. Server errors are logged and shown
// without detail.
func (h *Handlers) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong on our side."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		h.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	if renderErr := h.render(c, code, "error", fiber.Map{
		"Title":   utils.StatusMessage(code),
		"Message": message,
	}); renderErr != nil {
		h.logger.Error("Rendering error page failed", "error", renderErr)
		return c.Status(code).SendString(utils.StatusMessage(code))
	}
	return nil
}
