package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// SubmissionHandler exposes the student-facing assessment endpoints. The
// student is always the authenticated principal.
type SubmissionHandler struct {
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches student assessment routes. submitLimiter guards the submit endpoint.
func (h *SubmissionHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	if submitLimiter != nil {
		router.Post("/:id/submit", submitLimiter, h.submit)
	} else {
		router.Post("/:id/submit", h.submit)
	}
	router.Get("/:id/summary", h.summary)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.submissions.ListForStudent(withRequestContext(c), studentID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list assessments")
	}

	return utils.SendSuccess(c, "assessments retrieved", items)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assessment, err := h.submissions.GetForStudent(withRequestContext(c), studentID, id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load assessment")
	}

	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.submissions.Submit(withRequestContext(c), studentID, id, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to submit assessment")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment submitted", result)
}

func (h *SubmissionHandler) summary(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.submissions.GetSummary(withRequestContext(c), studentID, id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load summary")
	}

	return utils.SendSuccess(c, "assessment summary", summary)
}
