package models

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
)

// AssessmentAssignment binds an assessment to a course, year level and section.
type AssessmentAssignment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssessmentID uint       `gorm:"not null;uniqueIndex:idx_assignment_target" json:"assessment_id"`
	CourseID     uint       `gorm:"not null;uniqueIndex:idx_assignment_target" json:"course_id"`
	YearLevel    string     `gorm:"size:16;not null;uniqueIndex:idx_assignment_target" json:"year_level"`
	Section      string     `gorm:"size:16;not null;uniqueIndex:idx_assignment_target" json:"section"`
	IsAvailable  bool       `gorm:"not null" json:"is_available"`
	OpenedAt     *time.Time `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	CreatedBy    uint       `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assessment   Assessment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Window returns the availability inputs of the assignment.
func (a AssessmentAssignment) Window() grading.Window {
	return grading.Window{
		IsAvailable: a.IsAvailable,
		OpenedAt:    a.OpenedAt,
		ClosedAt:    a.ClosedAt,
	}
}

// StatusAt resolves the availability label at the given instant.
func (a AssessmentAssignment) StatusAt(reference time.Time) grading.Status {
	return grading.ResolveStatus(a.Window(), reference)
}
