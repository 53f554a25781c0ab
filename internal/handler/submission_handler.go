package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/service"
	"github.com/fileflow/fileflow-api/internal/utils"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// SubmissionHandler manages file upload and submission lifecycle endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	reviews     service.ReviewService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, reviews service.ReviewService, validate *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		reviews:     reviews,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Review routes
// are additionally guarded by role middleware in the router.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/upload", h.upload)
	router.Post("/:id/submit", h.submit)
	router.Post("/:id/resubmit", h.resubmit)
	router.Delete("/:id", h.withdraw)
}

// RegisterReviews attaches the reviewer decision routes.
func (h *SubmissionHandler) RegisterReviews(teamLeader, admin fiber.Router) {
	teamLeader.Post("/:id/review/team-leader", h.teamLeaderReview)
	admin.Post("/:id/review/admin", h.adminReview)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}

	if ownerID, err := parseQueryUint(c, "owner_id"); err == nil && ownerID != nil {
		filter.OwnerID = ownerID
	}
	if team := c.Query("team"); team != "" {
		filter.Team = &team
	}
	if stage := c.Query("stage"); stage != "" {
		filter.Stage = &stage
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.submissions.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	submission, err := h.submissions.Upload(c.UserContext(), currentUser(c), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.SubmitForReview(c.UserContext(), id, currentUser(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission sent for review", submission)
}

func (h *SubmissionHandler) resubmit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	submission, err := h.submissions.Resubmit(c.UserContext(), id, currentUser(c), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission resubmitted", submission)
}

func (h *SubmissionHandler) withdraw(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.submissions.Withdraw(c.UserContext(), id, currentUser(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission withdrawn", nil)
}

func (h *SubmissionHandler) teamLeaderReview(c *fiber.Ctx) error {
	return h.review(c, h.reviews.TeamLeaderReview)
}

func (h *SubmissionHandler) adminReview(c *fiber.Ctx) error {
	return h.review(c, h.reviews.AdminReview)
}

func (h *SubmissionHandler) review(c *fiber.Ctx, apply service.ReviewFunc) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := apply(c.UserContext(), id, currentUser(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review recorded", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the submission owner")
	case errors.Is(err, service.ErrAlreadyPublished):
		return utils.SendError(c, fiber.StatusConflict, "submission already published")
	case errors.Is(err, workflow.ErrWrongStage):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrInvalidState):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
