package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// Placement identifies the course, year level and section an assignment targets.
type Placement struct {
	CourseID  uint
	YearLevel string
	Section   string
}

// Normalize trims and upper-cases the free-text placement fields so that
// "a" and "A " name the same section.
func (p Placement) Normalize() Placement {
	return Placement{
		CourseID:  p.CourseID,
		YearLevel: strings.ToUpper(strings.TrimSpace(p.YearLevel)),
		Section:   strings.ToUpper(strings.TrimSpace(p.Section)),
	}
}

// AssessmentAssignmentRepository persists assessment assignments.
type AssessmentAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.AssessmentAssignment) error
	GetByID(ctx context.Context, id uint) (models.AssessmentAssignment, error)
	FindForPlacement(ctx context.Context, assessmentID uint, placement Placement) (models.AssessmentAssignment, error)
	ListForPlacement(ctx context.Context, placement Placement) ([]models.AssessmentAssignment, error)
	SetAvailability(ctx context.Context, id uint, isAvailable bool) (models.AssessmentAssignment, error)
}

type assessmentAssignmentRepository struct {
	db *gorm.DB
}

// NewAssessmentAssignmentRepository constructs the repository.
func NewAssessmentAssignmentRepository(db *gorm.DB) AssessmentAssignmentRepository {
	return &assessmentAssignmentRepository{db: db}
}

// Create relies on the unique index rather than a pre-check, so two racing
// requests cannot both insert.
func (r *assessmentAssignmentRepository) Create(ctx context.Context, assignment *models.AssessmentAssignment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
	if isUniqueViolation(err) {
		return grading.ErrDuplicateAssignment
	}
	return err
}

func (r *assessmentAssignmentRepository) GetByID(ctx context.Context, id uint) (models.AssessmentAssignment, error) {
	var assignment models.AssessmentAssignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.AssessmentAssignment{}, err
	}

	return assignment, nil
}

func (r *assessmentAssignmentRepository) FindForPlacement(ctx context.Context, assessmentID uint, placement Placement) (models.AssessmentAssignment, error) {
	placement = placement.Normalize()

	var assignment models.AssessmentAssignment
	err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Where("course_id = ? AND year_level = ? AND section = ?", placement.CourseID, placement.YearLevel, placement.Section).
		First(&assignment).Error
	if err != nil {
		return models.AssessmentAssignment{}, err
	}

	return assignment, nil
}

func (r *assessmentAssignmentRepository) ListForPlacement(ctx context.Context, placement Placement) ([]models.AssessmentAssignment, error) {
	placement = placement.Normalize()

	var assignments []models.AssessmentAssignment
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Where("course_id = ? AND year_level = ? AND section = ?", placement.CourseID, placement.YearLevel, placement.Section).
		Order("closed_at ASC").
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assessmentAssignmentRepository) SetAvailability(ctx context.Context, id uint, isAvailable bool) (models.AssessmentAssignment, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssessmentAssignment{}).
		Where("id = ?", id).
		Update("is_available", isAvailable)
	if result.Error != nil {
		return models.AssessmentAssignment{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.AssessmentAssignment{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}
