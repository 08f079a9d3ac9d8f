package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// GradingHandler wires instructor grading endpoints.
type GradingHandler struct {
	grading     service.GradingService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, submissions service.SubmissionService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:     grading,
		submissions: submissions,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterAnswers attaches answer grading routes.
func (h *GradingHandler) RegisterAnswers(router fiber.Router) {
	router.Patch("/:id/grade", h.override)
}

// RegisterAssessments attaches assessment-scoped grading routes.
func (h *GradingHandler) RegisterAssessments(router fiber.Router) {
	router.Put("/questions/:id/answer-key", h.regrade)
	router.Get("/:id/students/:studentId/summary", h.summary)
	router.Get("/:id/students/:studentId/answers", h.answers)
}

func (h *GradingHandler) override(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeOverrideRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.grading.Override(withRequestContext(c), id, payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to grade answer")
	}

	return utils.SendSuccess(c, "answer graded", answer)
}

func (h *GradingHandler) regrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnswerKeyUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.grading.RegradeQuestion(withRequestContext(c), id, payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to regrade question")
	}

	return utils.SendSuccess(c, "question regraded", result)
}

func (h *GradingHandler) summary(c *fiber.Ctx) error {
	assessmentID, studentID, err := parseAssessmentStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.submissions.GetSummary(withRequestContext(c), studentID, assessmentID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load summary")
	}

	return utils.SendSuccess(c, "assessment summary", summary)
}

func (h *GradingHandler) answers(c *fiber.Ctx) error {
	assessmentID, studentID, err := parseAssessmentStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	answers, err := h.submissions.ListAnswers(withRequestContext(c), studentID, assessmentID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load answers")
	}

	return utils.SendSuccess(c, "submitted answers", answers)
}

func parseAssessmentStudent(c *fiber.Ctx) (uint, uint, error) {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return 0, 0, err
	}
	return assessmentID, studentID, nil
}
