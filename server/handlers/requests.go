package handlers

import (
	"bizpilot/apperrors"
	authmw "bizpilot/server/middleware/auth"
	"bizpilot/services/requests"

	"github.com/gofiber/fiber/v2"
)

// HandleSubmitRequest stores a request owned by the authenticated caller
func HandleSubmitRequest(rs *requests.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who, ok := authmw.Identity(c)
		if !ok {
			return apperrors.NewMissingToken()
		}

		var req RequestSubmit
		if err := parseJSON(c, &req); err != nil {
			return err
		}

		saved, err := rs.Submit(c.UserContext(), who, req.RequestText)
		if err != nil {
			return err
		}

		return c.JSON(ResponseSubmit{Success: true, ID: saved.ID})
	}
}

// HandleListRequests returns every request, oldest first
func HandleListRequests(rs *requests.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := rs.ListAll(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(all)
	}
}

func HandleUpdateStatus(rs *requests.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RequestUpdateStatus
		if err := parseJSON(c, &req); err != nil {
			return err
		}

		var err error
		switch {
		case req.ID != "":
			_, err = rs.UpdateStatusByID(c.UserContext(), req.ID, req.Status)
		case req.Index != nil:
			_, err = rs.UpdateStatus(c.UserContext(), *req.Index, req.Status)
		default:
			err = apperrors.NewValidationError("Index or id required")
		}
		if err != nil {
			return err
		}

		return c.JSON(ResponseSuccess{Success: true})
	}
}
