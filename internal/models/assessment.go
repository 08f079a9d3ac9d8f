package models

import "time"

// Assessment is a named set of questions authored for a subject.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SubjectID   uint       `gorm:"index" json:"subject_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// TotalPoints sums the point value of every loaded question.
func (a Assessment) TotalPoints() int {
	total := 0
	for _, question := range a.Questions {
		total += question.Points
	}
	return total
}
