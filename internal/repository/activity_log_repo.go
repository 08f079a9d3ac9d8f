package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// ActivityLogFilter narrows the grading audit trail. AssessmentID and
// StudentID match the ids recorded in each entry's metadata, so a teacher can
// follow one student's grade changes across overrides and regrades.
type ActivityLogFilter struct {
	Page         int
	PageSize     int
	ActorID      *uint
	Action       string
	EntityType   string
	EntityID     *uint
	AssessmentID *uint
	StudentID    *uint
	Since        *time.Time
	Until        *time.Time
}

// ActivityLogRepository persists the grading audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	query := filter.apply(r.db.WithContext(ctx).Model(&models.ActivityLog{}))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := query.Scopes(filter.page).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (f ActivityLogFilter) apply(query *gorm.DB) *gorm.DB {
	if f.ActorID != nil {
		query = query.Where("actor_id = ?", *f.ActorID)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		query = query.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		query = query.Where("entity_id = ?", *f.EntityID)
	}
	if f.AssessmentID != nil {
		query = query.Where(datatypes.JSONQuery("metadata").Equals(*f.AssessmentID, "assessment_id"))
	}
	if f.StudentID != nil {
		query = query.Where(datatypes.JSONQuery("metadata").Equals(*f.StudentID, "student_id"))
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		query = query.Where("created_at < ?", *f.Until)
	}
	return query
}

func (f ActivityLogFilter) page(query *gorm.DB) *gorm.DB {
	if f.PageSize <= 0 {
		return query
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
}
