package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// sendServiceError maps domain failures onto HTTP statuses. Anything
// unrecognised is logged and reported as an internal error.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validationErrors validator.ValidationErrors
	var gradingValidation *grading.ValidationError

	switch {
	case errors.As(err, &validationErrors):
		fields := make([]utils.FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, utils.FieldError{Field: fe.Namespace(), Message: "failed on " + fe.Tag()})
		}
		return utils.SendValidationError(c, "validation failed", fields)
	case errors.As(err, &gradingValidation):
		return utils.SendValidationError(c, gradingValidation.Error(), []utils.FieldError{{Field: gradingValidation.Field, Message: gradingValidation.Message}})
	case errors.Is(err, service.ErrAssessmentNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrAnswerNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrAssessmentNotAssigned):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, grading.ErrSubmissionWindowClosed), errors.Is(err, service.ErrAssessmentNotOpen):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, grading.ErrAlreadySubmitted), errors.Is(err, grading.ErrDuplicateAssignment):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrScoreExceedsMax):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
