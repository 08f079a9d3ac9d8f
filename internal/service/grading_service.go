package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

var (
	// ErrAnswerNotFound indicates the submitted answer was not located.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrQuestionNotFound indicates the question was not located.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrScoreExceedsMax indicates a manual grade surpasses the question's points.
	ErrScoreExceedsMax = errors.New("score exceeds question points")
)

const scoreEpsilon = 1e-6

// GradingService encapsulates instructor grading workflows.
type GradingService interface {
	Override(ctx context.Context, answerID uint, payload dto.GradeOverrideRequest, actor ActivityActor) (dto.AnswerResponse, error)
	RegradeQuestion(ctx context.Context, questionID uint, payload dto.AnswerKeyUpdateRequest, actor ActivityActor) (dto.RegradeResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	cache       SummaryCache
	publisher   EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, assessments repository.AssessmentRepository, validate *validator.Validate, activity ActivityRecorder, cache SummaryCache, publisher EventPublisher, logger zerolog.Logger) GradingService {
	if cache == nil {
		cache = NewSummaryCache(nil, 0, logger)
	}
	return &gradingService{
		submissions: submissions,
		assessments: assessments,
		validator:   validate,
		activity:    activity,
		cache:       cache,
		publisher:   publisherOrNoop(publisher),
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Override(ctx context.Context, answerID uint, payload dto.GradeOverrideRequest, actor ActivityActor) (dto.AnswerResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.override")
	span.SetAttributes(
		attribute.Int64("grading.answer_id", int64(answerID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	answer, err := s.submissions.GetAnswer(ctx, answerID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "answer_not_found")
			return dto.AnswerResponse{}, ErrAnswerNotFound
		}
		span.SetStatus(codes.Error, "answer_lookup_failed")
		return dto.AnswerResponse{}, err
	}

	points := *payload.PointsEarned
	if points > float64(answer.Question.Points)+scoreEpsilon {
		span.RecordError(ErrScoreExceedsMax)
		span.SetStatus(codes.Error, "score_exceeds_max")
		return dto.AnswerResponse{}, ErrScoreExceedsMax
	}

	isCorrect := points > 0
	if payload.IsCorrect != nil {
		isCorrect = *payload.IsCorrect
	}
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	unchanged := answer.IsCorrect != nil && *answer.IsCorrect == isCorrect &&
		math.Abs(answer.PointsEarned-points) < scoreEpsilon &&
		strings.TrimSpace(answer.Feedback) == feedback
	if unchanged && answer.GradedBy != nil && *answer.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewAnswerResponse(answer), nil
	}

	gradedAt := s.now().UTC()
	gradedBy := actor.ID
	answer.IsCorrect = &isCorrect
	answer.PointsEarned = points
	answer.Feedback = feedback
	answer.GradedBy = &gradedBy
	answer.GradedAt = &gradedAt

	history := models.AnswerGradeHistory{
		IsCorrect:    answer.IsCorrect,
		PointsEarned: points,
		Feedback:     feedback,
		Source:       models.GradeSourceManual,
		GradedBy:     actor.ID,
		GradedAt:     gradedAt,
	}
	if err := s.submissions.UpdateAnswer(ctx, &answer, &history); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "answer_not_found")
			return dto.AnswerResponse{}, ErrAnswerNotFound
		}
		span.SetStatus(codes.Error, "answer_update_failed")
		return dto.AnswerResponse{}, err
	}

	s.cache.Invalidate(ctx, answer.StudentID, answer.AssessmentID)
	recordGradingMetrics([]models.Question{answer.Question}, []models.SubmittedAnswer{answer}, models.GradeSourceManual)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "answer.graded",
		EntityType: "submitted_answer",
		EntityID:   &answer.ID,
		Metadata: map[string]interface{}{
			"student_id":    answer.StudentID,
			"assessment_id": answer.AssessmentID,
			"question_id":   answer.QuestionID,
			"points_earned": points,
			"is_correct":    isCorrect,
		},
	})

	if err := s.publisher.Publish(ctx, events.AnswerGraded, map[string]interface{}{
		"answer_id":     answer.ID,
		"student_id":    answer.StudentID,
		"assessment_id": answer.AssessmentID,
		"question_id":   answer.QuestionID,
		"source":        models.GradeSourceManual,
		"is_correct":    isCorrect,
		"points_earned": points,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to publish grading event")
	}

	span.SetAttributes(attribute.Float64("grading.points", points))

	return dto.NewAnswerResponse(answer), nil
}

// RegradeQuestion replaces a question's answer key and re-applies automatic
// grading to every stored answer. Manual grades survive whenever the new key
// still cannot decide the answer.
func (s *gradingService) RegradeQuestion(ctx context.Context, questionID uint, payload dto.AnswerKeyUpdateRequest, actor ActivityActor) (dto.RegradeResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.regrade")
	span.SetAttributes(
		attribute.Int64("grading.question_id", int64(questionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.RegradeResponse{}, err
	}

	question, err := s.assessments.GetQuestion(ctx, questionID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "question_not_found")
			return dto.RegradeResponse{}, ErrQuestionNotFound
		}
		return dto.RegradeResponse{}, err
	}

	updated, err := question.Gradeable().WithCorrectAnswer(payload.CorrectAnswer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.RegradeResponse{}, err
	}

	question.CorrectAnswer = updated.CorrectAnswer
	response := dto.RegradeResponse{
		QuestionID:    question.ID,
		CorrectAnswer: question.CorrectAnswer,
	}

	regradedAt := s.now().UTC()
	changed, err := s.submissions.RegradeQuestion(ctx, &question, func(answer *models.SubmittedAnswer) (*models.AnswerGradeHistory, error) {
		response.Total++
		result := grading.Grade(updated, answer.Value)

		if result.Verdict == grading.VerdictUngraded && answer.IsManuallyGraded() {
			response.Preserved++
			return nil, nil
		}
		if !answer.IsManuallyGraded() &&
			grading.VerdictOf(answer.IsCorrect) == result.Verdict &&
			math.Abs(answer.PointsEarned-result.PointsEarned) < scoreEpsilon {
			response.Unchanged++
			return nil, nil
		}

		answer.ApplyResult(result)
		answer.GradedBy = nil
		answer.GradedAt = &regradedAt
		response.Regraded++
		return &models.AnswerGradeHistory{
			IsCorrect:    answer.IsCorrect,
			PointsEarned: answer.PointsEarned,
			Feedback:     answer.Feedback,
			Source:       models.GradeSourceRegrade,
			GradedBy:     actor.ID,
			GradedAt:     regradedAt,
		}, nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "question_not_found")
			return dto.RegradeResponse{}, ErrQuestionNotFound
		}
		span.SetStatus(codes.Error, "regrade_failed")
		return dto.RegradeResponse{}, err
	}

	for _, answer := range changed {
		s.cache.Invalidate(ctx, answer.StudentID, answer.AssessmentID)
	}

	recordGradingMetrics([]models.Question{question}, changed, models.GradeSourceRegrade)

	s.logger.Info().
		Uint("question_id", question.ID).
		Int("regraded", response.Regraded).
		Int("preserved", response.Preserved).
		Msg("question regraded")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "question.regraded",
		EntityType: "question",
		EntityID:   &question.ID,
		Metadata: map[string]interface{}{
			"assessment_id": question.AssessmentID,
			"regraded":      response.Regraded,
			"unchanged":     response.Unchanged,
			"preserved":     response.Preserved,
		},
	})

	for _, answer := range changed {
		if err := s.publisher.Publish(ctx, events.AnswerGraded, map[string]interface{}{
			"answer_id":     answer.ID,
			"student_id":    answer.StudentID,
			"assessment_id": answer.AssessmentID,
			"question_id":   answer.QuestionID,
			"source":        models.GradeSourceRegrade,
			"is_correct":    answer.IsCorrect,
			"points_earned": answer.PointsEarned,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to publish grading event")
		}
	}

	span.SetAttributes(attribute.Int("grading.regraded", response.Regraded))

	return response, nil
}
