package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	api := app.Group("/api/v1")

	api.Post("/avv/check", h.Check)
	api.Post("/passcode/verify", h.VerifyPasscode)
	api.Post("/otp/request", h.RequestOTP)
	api.Post("/otp/verify", h.VerifyOTP)

	// setting a passcode requires an existing session (issued at signup via OTP)
	api.Post("/passcode", h.RequireSession(), h.CreatePasscode)
}
