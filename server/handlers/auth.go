package handlers

import (
	authsvc "bizpilot/services/auth"

	"github.com/gofiber/fiber/v2"
)

func HandleSignup(as *authsvc.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RequestSignup
		if err := parseJSON(c, &req); err != nil {
			return err
		}

		if err := as.Signup(c.UserContext(), req.Email, req.Password); err != nil {
			return err
		}

		return c.JSON(ResponseSuccess{Success: true, Message: "Account created"})
	}
}

func HandleLogin(as *authsvc.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RequestLogin
		if err := parseJSON(c, &req); err != nil {
			return err
		}

		token, err := as.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}

		return c.JSON(ResponseLogin{Success: true, Token: token})
	}
}
