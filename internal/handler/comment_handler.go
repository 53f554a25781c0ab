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

// CommentHandler manages the reply endpoint; comments themselves live under
// the assignment routes.
type CommentHandler struct {
	comments  service.CommentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCommentHandler builds a comment handler instance.
func NewCommentHandler(comments service.CommentService, validate *validator.Validate, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		comments:  comments,
		validator: validate,
		logger:    logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CommentHandler) Register(router fiber.Router) {
	router.Post("/:id/replies", h.createReply)
}

func (h *CommentHandler) createReply(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReplyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reply, err := h.comments.CreateReply(c.UserContext(), id, currentUser(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reply posted", reply)
}

func (h *CommentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCommentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "comment not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
