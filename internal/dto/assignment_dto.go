package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AssessmentAssignmentCreateRequest binds an assessment to a placement.
type AssessmentAssignmentCreateRequest struct {
	AssessmentID uint    `json:"assessment_id" validate:"required,gt=0"`
	CourseID     uint    `json:"course_id" validate:"required,gt=0"`
	YearLevel    string  `json:"year_level" validate:"required,max=16"`
	Section      string  `json:"section" validate:"required,max=16"`
	IsAvailable  *bool   `json:"is_available"`
	OpenedAt     *string `json:"opened_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ClosedAt     *string `json:"closed_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AvailabilityUpdateRequest flips the manual availability toggle.
type AvailabilityUpdateRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// AssessmentAssignmentResponse serializes an assignment with its current status.
type AssessmentAssignmentResponse struct {
	ID           uint           `json:"id"`
	AssessmentID uint           `json:"assessment_id"`
	CourseID     uint           `json:"course_id"`
	YearLevel    string         `json:"year_level"`
	Section      string         `json:"section"`
	IsAvailable  bool           `json:"is_available"`
	OpenedAt     *time.Time     `json:"opened_at"`
	ClosedAt     *time.Time     `json:"closed_at"`
	Status       grading.Status `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AssignmentStatusResponse reports the resolved label at a given instant.
type AssignmentStatusResponse struct {
	AssignmentID uint           `json:"assignment_id"`
	Status       grading.Status `json:"status"`
	ResolvedAt   time.Time      `json:"resolved_at"`
}

// StudentAssessmentItem is one entry of a student's assessment listing.
type StudentAssessmentItem struct {
	AssignmentID uint             `json:"assignment_id"`
	AssessmentID uint             `json:"assessment_id"`
	Title        string           `json:"title"`
	Status       grading.Status   `json:"status"`
	OpenedAt     *time.Time       `json:"opened_at"`
	ClosedAt     *time.Time       `json:"closed_at"`
	Submitted    bool             `json:"submitted"`
	Summary      *grading.Summary `json:"summary,omitempty"`
}

// NewAssessmentAssignmentResponse converts a model, labelling it at now.
func NewAssessmentAssignmentResponse(model models.AssessmentAssignment, now time.Time) AssessmentAssignmentResponse {
	return AssessmentAssignmentResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		CourseID:     model.CourseID,
		YearLevel:    model.YearLevel,
		Section:      model.Section,
		IsAvailable:  model.IsAvailable,
		OpenedAt:     model.OpenedAt,
		ClosedAt:     model.ClosedAt,
		Status:       model.StatusAt(now),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
