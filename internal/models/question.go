package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
)

// Question is the stored form of a gradeable prompt.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssessmentID  uint                        `gorm:"not null;index" json:"assessment_id"`
	Type          string                      `gorm:"size:32;not null" json:"type"`
	Prompt        string                      `gorm:"type:text;not null" json:"prompt"`
	Points        int                         `gorm:"not null" json:"points"`
	OrderIndex    int                         `gorm:"not null;default:0" json:"order_index"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer *string                     `gorm:"type:text" json:"correct_answer"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// NewQuestionModel converts a validated question into its stored form.
func NewQuestionModel(assessmentID uint, q grading.Question) Question {
	model := Question{
		ID:            q.ID,
		AssessmentID:  assessmentID,
		Type:          string(q.Type),
		Prompt:        q.Prompt,
		Points:        q.Points,
		OrderIndex:    q.Order,
		CorrectAnswer: q.CorrectAnswer,
	}
	if len(q.Options) > 0 {
		model.Options = datatypes.NewJSONSlice(q.Options)
	}
	return model
}

// Gradeable returns the grading view of the stored question. Rows are written
// through grading.NewQuestion, so they are trusted here without re-validation.
func (q Question) Gradeable() grading.Question {
	questionType, _ := grading.ParseQuestionType(q.Type)
	var options []string
	if len(q.Options) > 0 {
		options = append(options, q.Options...)
	}
	return grading.Question{
		ID:            q.ID,
		Type:          questionType,
		Prompt:        q.Prompt,
		Points:        q.Points,
		Order:         q.OrderIndex,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
	}
}

// GradeableQuestions converts a slice of stored questions.
func GradeableQuestions(questions []Question) []grading.Question {
	result := make([]grading.Question, 0, len(questions))
	for _, question := range questions {
		result = append(result, question.Gradeable())
	}
	return result
}
