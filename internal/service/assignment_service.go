package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assessment assignment does not exist.
var ErrAssignmentNotFound = errors.New("assessment assignment not found")

// AssignmentService manages the binding of assessments to placements and their availability.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssessmentAssignmentCreateRequest, actor ActivityActor) (dto.AssessmentAssignmentResponse, error)
	SetAvailability(ctx context.Context, id uint, payload dto.AvailabilityUpdateRequest, actor ActivityActor) (dto.AssessmentAssignmentResponse, error)
	ResolveStatus(ctx context.Context, id uint) (dto.AssignmentStatusResponse, error)
}

type assignmentService struct {
	assignments repository.AssessmentAssignmentRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssessmentAssignmentRepository, assessments repository.AssessmentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		assessments: assessments,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssessmentAssignmentCreateRequest, actor ActivityActor) (dto.AssessmentAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentAssignmentResponse{}, err
	}

	if _, err := s.assessments.GetByID(ctx, payload.AssessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentAssignmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentAssignmentResponse{}, err
	}

	openedAt, err := parseOptionalTime("opened_at", payload.OpenedAt)
	if err != nil {
		return dto.AssessmentAssignmentResponse{}, err
	}
	closedAt, err := parseOptionalTime("closed_at", payload.ClosedAt)
	if err != nil {
		return dto.AssessmentAssignmentResponse{}, err
	}
	if openedAt != nil && closedAt != nil && !closedAt.After(*openedAt) {
		return dto.AssessmentAssignmentResponse{}, &grading.ValidationError{Field: "closed_at", Message: "must be after opened_at"}
	}

	isAvailable := true
	if payload.IsAvailable != nil {
		isAvailable = *payload.IsAvailable
	}

	placement := repository.Placement{
		CourseID:  payload.CourseID,
		YearLevel: payload.YearLevel,
		Section:   payload.Section,
	}.Normalize()

	assignment := models.AssessmentAssignment{
		AssessmentID: payload.AssessmentID,
		CourseID:     placement.CourseID,
		YearLevel:    placement.YearLevel,
		Section:      placement.Section,
		IsAvailable:  isAvailable,
		OpenedAt:     openedAt,
		ClosedAt:     closedAt,
		CreatedBy:    actor.ID,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		if errors.Is(err, grading.ErrDuplicateAssignment) {
			s.logger.Info().Uint("assessment_id", payload.AssessmentID).Msg("duplicate assignment rejected")
		}
		return dto.AssessmentAssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("assessment_id", assignment.AssessmentID).Msg("assessment assigned")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assignment.created",
		EntityType: "assessment_assignment",
		EntityID:   &assignment.ID,
		Metadata: map[string]interface{}{
			"assessment_id": assignment.AssessmentID,
			"course_id":     assignment.CourseID,
			"year_level":    assignment.YearLevel,
			"section":       assignment.Section,
			"is_available":  assignment.IsAvailable,
		},
	})

	return dto.NewAssessmentAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) SetAvailability(ctx context.Context, id uint, payload dto.AvailabilityUpdateRequest, actor ActivityActor) (dto.AssessmentAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentAssignmentResponse{}, err
	}

	assignment, err := s.assignments.SetAvailability(ctx, id, *payload.IsAvailable)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentAssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssessmentAssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", id).Bool("is_available", assignment.IsAvailable).Msg("assignment availability changed")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "assignment.availability_changed",
		EntityType: "assessment_assignment",
		EntityID:   &assignment.ID,
		Metadata: map[string]interface{}{
			"is_available": assignment.IsAvailable,
		},
	})

	return dto.NewAssessmentAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) ResolveStatus(ctx context.Context, id uint) (dto.AssignmentStatusResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentStatusResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentStatusResponse{}, err
	}

	now := s.now()
	return dto.AssignmentStatusResponse{
		AssignmentID: assignment.ID,
		Status:       assignment.StatusAt(now),
		ResolvedAt:   now,
	}, nil
}

func parseOptionalTime(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, &grading.ValidationError{Field: field, Message: "must be an RFC3339 timestamp"}
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
