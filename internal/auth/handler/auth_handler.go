package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	"github.com/onestepid/onestep-auth/internal/auth/dto"
	"github.com/onestepid/onestep-auth/internal/auth/service"
	"github.com/onestepid/onestep-auth/internal/avv"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
	"github.com/onestepid/onestep-auth/pkg/constant"
)

const sessionLocalKey = "session"

type AuthHandler struct {
	engine   *avv.Engine
	passcode *service.PasscodeService
	otp      *service.OTPService
	issuer   service.TokenIssuer
}

func NewAuthHandler(engine *avv.Engine, passcode *service.PasscodeService, otp *service.OTPService, issuer service.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		engine:   engine,
		passcode: passcode,
		otp:      otp,
		issuer:   issuer,
	}
}

// Check runs a single AVV check and returns its verdict.
func (h *AuthHandler) Check(c *fiber.Ctx) error {
	var input dto.CheckInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.CheckType == "" || input.Input == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "checkType and input are required"})
	}

	// connection metadata comes from the request itself unless the caller
	// supplied it explicitly
	if input.Context.IPAddress == "" {
		input.Context.IPAddress = c.IP()
	}
	if input.Context.UserAgent == "" {
		input.Context.UserAgent = string(c.Request().Header.UserAgent())
	}

	req := avv.CheckRequest{
		Type:    avv.CheckType(input.CheckType),
		Input:   input.Input,
		Context: input.Context,
	}
	if claims := sessionFromCtx(c); claims != nil {
		req.UserID = claims.UserID
	}

	verdict, err := h.engine.Check(c.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(verdict)
}

// CreatePasscode sets a new passcode for the authenticated user.
func (h *AuthHandler) CreatePasscode(c *fiber.Ctx) error {
	claims := sessionFromCtx(c)
	if claims == nil {
		return unauthorized(c)
	}

	var input dto.CreatePasscodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	feedback, err := h.passcode.Create(c.Context(), claims.UserID, input.Passcode)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	case errors.Is(err, apperrors.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrWeakSecret):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "passcode is too weak",
			"feedback": feedback,
		})
	case errors.Is(err, apperrors.ErrPersonalDataCorrelation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "passcode must not be related to your personal data",
		})
	case errors.Is(err, apperrors.ErrUserNotFound):
		return unauthorized(c)
	default:
		return internalError(c)
	}
}

// VerifyPasscode exchanges an identifier and passcode for a session. All
// authentication failures share one response shape so callers cannot probe
// which accounts exist.
func (h *AuthHandler) VerifyPasscode(c *fiber.Ctx) error {
	var input dto.VerifyPasscodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Identifier == "" || input.Passcode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier and passcode are required"})
	}

	cred, err := h.passcode.Verify(c.Context(), input.Identifier, input.Passcode)
	if err != nil {
		return h.verificationError(c, err)
	}

	return h.sessionResponse(c, cred)
}

// RequestOTP issues a one-time login code for the identified account.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var input dto.RequestOTPInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier is required"})
	}

	err := h.otp.Request(c.Context(), input.Identifier, c.IP())
	switch {
	case err == nil, errors.Is(err, apperrors.ErrUserNotFound):
		// do not reveal whether the account exists
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	case errors.Is(err, apperrors.ErrTooManyRequests):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
	default:
		return internalError(c)
	}
}

// VerifyOTP exchanges a delivered code for a session.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input dto.VerifyOTPInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Identifier == "" || input.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier and code are required"})
	}

	cred, err := h.otp.Verify(c.Context(), input.Identifier, input.Code)
	if err != nil {
		return h.verificationError(c, err)
	}

	return h.sessionResponse(c, cred)
}

// RequireSession authenticates requests from the session cookie or a bearer
// token and stores the verified claims on the request context.
func (h *AuthHandler) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(constant.SessionCookieName)
		if token == "" {
			if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			return unauthorized(c)
		}

		claims, err := h.issuer.Verify(token)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals(sessionLocalKey, claims)

		return c.Next()
	}
}

func (h *AuthHandler) sessionResponse(c *fiber.Ctx, cred *domain.SessionCredential) error {
	c.Cookie(&fiber.Cookie{
		Name:     constant.SessionCookieName,
		Value:    cred.Token,
		Expires:  cred.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return c.Status(fiber.StatusOK).JSON(dto.NewSessionOutput(cred))
}

func (h *AuthHandler) verificationError(c *fiber.Ctx, err error) error {
	if apperrors.IsSystem(err) {
		return internalError(c)
	}

	return unauthorized(c)
}

func sessionFromCtx(c *fiber.Ctx) *service.SessionClaims {
	claims, _ := c.Locals(sessionLocalKey).(*service.SessionClaims)
	return claims
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
