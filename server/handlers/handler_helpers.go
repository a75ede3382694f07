package handlers

import (
	"bytes"

	"bizpilot/apperrors"

	"github.com/gofiber/fiber/v2"
)

// parseJSON decodes the request body into out. An empty body leaves out
// untouched so that missing fields surface as validation errors.
func parseJSON(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return apperrors.NewBadRequest("Invalid JSON body").WithInternal(err)
	}
	return nil
}
