package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/service"
	"github.com/fileflow/fileflow-api/internal/utils"
)

// UserHandler manages authentication endpoints.
type UserHandler struct {
	users     service.UserService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserHandler builds a user handler instance.
func NewUserHandler(users service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches the public auth routes.
func (h *UserHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
	router.Post("/password-reset-request", h.requestPasswordReset)
}

func (h *UserHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.users.Login(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *UserHandler) requestPasswordReset(c *fiber.Ctx) error {
	var payload dto.PasswordResetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.users.RequestPasswordReset(c.UserContext(), payload); err != nil {
		return h.handleError(c, err)
	}

	// Always the same response so usernames cannot be probed.
	return utils.SendSuccess(c, "password reset requested", nil)
}

func (h *UserHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
