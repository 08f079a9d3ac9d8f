package models

import "time"

// Student represents a learner placed in a course, year level and section.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CourseID  uint      `gorm:"index:idx_student_placement" json:"course_id"`
	YearLevel string    `gorm:"size:16;index:idx_student_placement" json:"year_level"`
	Section   string    `gorm:"size:16;index:idx_student_placement" json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
