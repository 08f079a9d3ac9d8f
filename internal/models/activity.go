package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable instructor actions such as assignment
// creation, availability changes and grade overrides.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AutoMigrateModels lists every model managed by the service.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&Student{},
		&Assessment{},
		&Question{},
		&AssessmentAssignment{},
		&AssessmentSubmission{},
		&SubmittedAnswer{},
		&AnswerGradeHistory{},
		&ActivityLog{},
	}
}
