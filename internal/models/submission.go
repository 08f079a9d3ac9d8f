package models

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
)

// AssessmentSubmission marks a completed submission. The unique index is what
// serializes concurrent attempts by the same student.
type AssessmentSubmission struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ReferenceID  string            `gorm:"size:36;uniqueIndex;not null" json:"reference_id"`
	StudentID    uint              `gorm:"not null;uniqueIndex:idx_submission_student_assessment" json:"student_id"`
	AssessmentID uint              `gorm:"not null;uniqueIndex:idx_submission_student_assessment" json:"assessment_id"`
	AssignmentID uint              `gorm:"not null;index" json:"assignment_id"`
	SubmittedAt  time.Time         `gorm:"not null" json:"submitted_at"`
	CreatedAt    time.Time         `json:"created_at"`
	Answers      []SubmittedAnswer `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

// SubmittedAnswer is one student's response to one question.
type SubmittedAnswer struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	SubmissionID uint                 `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"submission_id"`
	QuestionID   uint                 `gorm:"not null;uniqueIndex:idx_answer_submission_question;index" json:"question_id"`
	StudentID    uint                 `gorm:"not null;index:idx_answer_student_assessment" json:"student_id"`
	AssessmentID uint                 `gorm:"not null;index:idx_answer_student_assessment" json:"assessment_id"`
	Value        string               `gorm:"type:text" json:"value"`
	IsCorrect    *bool                `json:"is_correct"`
	PointsEarned float64              `gorm:"not null;default:0" json:"points_earned"`
	Feedback     string               `gorm:"type:text" json:"feedback"`
	GradedBy     *uint                `json:"graded_by"`
	GradedAt     *time.Time           `json:"graded_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Question     Question             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	History      []AnswerGradeHistory `gorm:"foreignKey:AnswerID" json:"history,omitempty"`
}

// AnswerGradeHistory records every manual override or explicit regrade.
type AnswerGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AnswerID     uint      `gorm:"not null;index" json:"answer_id"`
	IsCorrect    *bool     `json:"is_correct"`
	PointsEarned float64   `gorm:"not null" json:"points_earned"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	Source       string    `gorm:"size:16;not null" json:"source"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}

const (
	// GradeSourceManual marks an instructor override.
	GradeSourceManual = "manual"
	// GradeSourceRegrade marks an explicit re-application of automatic grading.
	GradeSourceRegrade = "regrade"
)

// ApplyResult stores an automatic grading result on the answer.
func (a *SubmittedAnswer) ApplyResult(result grading.Result) {
	a.IsCorrect = result.Verdict.IsCorrect()
	a.PointsEarned = result.PointsEarned
}

// IsManuallyGraded reports whether an instructor has set the grade.
func (a SubmittedAnswer) IsManuallyGraded() bool {
	return a.GradedBy != nil
}

// Graded returns the aggregation view of the answer.
func (a SubmittedAnswer) Graded() grading.GradedAnswer {
	return grading.GradedAnswer{
		QuestionID:   a.QuestionID,
		IsCorrect:    a.IsCorrect,
		PointsEarned: a.PointsEarned,
	}
}

// GradedAnswers converts stored answers into aggregation inputs.
func GradedAnswers(answers []SubmittedAnswer) []grading.GradedAnswer {
	result := make([]grading.GradedAnswer, 0, len(answers))
	for _, answer := range answers {
		result = append(result, answer.Graded())
	}
	return result
}
