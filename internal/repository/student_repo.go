package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// StudentRepository resolves where a student sits in the course structure.
// Student records themselves are owned by the enrolment system; grading only
// needs the placement used to match assignments.
type StudentRepository interface {
	GetPlacement(ctx context.Context, studentID uint) (Placement, error)
	Create(ctx context.Context, student *models.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// GetPlacement loads only the placement columns and returns them normalized.
// A missing student yields gorm.ErrRecordNotFound.
func (r *studentRepository) GetPlacement(ctx context.Context, studentID uint) (Placement, error) {
	var row struct {
		CourseID  uint
		YearLevel string
		Section   string
	}
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select("course_id", "year_level", "section").
		Where("id = ?", studentID).
		Take(&row).Error
	if err != nil {
		return Placement{}, err
	}

	return Placement{CourseID: row.CourseID, YearLevel: row.YearLevel, Section: row.Section}.Normalize(), nil
}

// Create stores a student with its placement normalized the same way
// assignments are, so lookups match regardless of input casing.
func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	placement := Placement{CourseID: student.CourseID, YearLevel: student.YearLevel, Section: student.Section}.Normalize()
	student.YearLevel = placement.YearLevel
	student.Section = placement.Section
	return r.db.WithContext(ctx).Create(student).Error
}
