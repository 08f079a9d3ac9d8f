package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// ErrAssessmentNotFound indicates the requested assessment does not exist.
var ErrAssessmentNotFound = errors.New("assessment not found")

// AssessmentService exposes assessment authoring use cases.
type AssessmentService interface {
	Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor ActivityActor) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint, revealAnswers bool) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	rich      *bluemonday.Policy
	plain     *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssessmentService builds a new assessment service.
func NewAssessmentService(repo repository.AssessmentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		rich:      bluemonday.UGCPolicy(),
		plain:     bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor ActivityActor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for i, item := range payload.Questions {
		order := item.Order
		if order == 0 {
			order = i + 1
		}

		var options []string
		for _, option := range item.Options {
			options = append(options, s.plain.Sanitize(option))
		}

		question, err := grading.NewQuestion(grading.QuestionInput{
			Type:          item.Type,
			Prompt:        s.rich.Sanitize(item.Prompt),
			Points:        item.Points,
			Order:         order,
			Options:       options,
			CorrectAnswer: item.CorrectAnswer,
		})
		if err != nil {
			return dto.AssessmentResponse{}, indexValidationError(i, err)
		}
		questions = append(questions, models.NewQuestionModel(0, question))
	}

	assessment := models.Assessment{
		SubjectID:   payload.SubjectID,
		Title:       strings.TrimSpace(s.plain.Sanitize(payload.Title)),
		Description: strings.TrimSpace(s.rich.Sanitize(payload.Description)),
		CreatedBy:   actor.ID,
		Questions:   questions,
	}

	if err := s.repo.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", assessment.ID).Int("questions", len(questions)).Msg("assessment created")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assessment.created",
		EntityType: "assessment",
		EntityID:   &assessment.ID,
		Metadata: map[string]interface{}{
			"assessment_id": assessment.ID,
			"questions":     len(questions),
			"total_points":  assessment.TotalPoints(),
		},
	})

	return dto.NewAssessmentResponse(assessment, true), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint, revealAnswers bool) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment, revealAnswers), nil
}

// indexValidationError prefixes the offending field with the question position.
func indexValidationError(index int, err error) error {
	var validationErr *grading.ValidationError
	if errors.As(err, &validationErr) {
		return &grading.ValidationError{
			Field:   fmt.Sprintf("questions[%d].%s", index, validationErr.Field),
			Message: validationErr.Message,
		}
	}
	return err
}
