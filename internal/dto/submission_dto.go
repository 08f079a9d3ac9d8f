package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AnswerInput is one (question, value) pair. Choice answers carry the
// zero-based option index as a string.
type AnswerInput struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Value      string `json:"value" validate:"max=20000"`
}

// SubmitAssessmentRequest is the complete set of a student's answers.
type SubmitAssessmentRequest struct {
	Answers []AnswerInput `json:"answers" validate:"max=500,dive"`
}

// GradeOverrideRequest is an instructor's manual grade for one answer. When
// IsCorrect is omitted it is derived from the points.
type GradeOverrideRequest struct {
	IsCorrect    *bool    `json:"is_correct"`
	PointsEarned *float64 `json:"points_earned" validate:"required,gte=0"`
	Feedback     string   `json:"feedback" validate:"omitempty,max=5000"`
}

// AnswerGradeHistoryResponse serializes one grading history entry.
type AnswerGradeHistoryResponse struct {
	IsCorrect    *bool     `json:"is_correct"`
	PointsEarned float64   `json:"points_earned"`
	Feedback     string    `json:"feedback"`
	Source       string    `json:"source"`
	GradedBy     uint      `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// AnswerResponse serializes a graded answer. Status is "ungraded" whenever
// IsCorrect is null so clients never confuse it with an incorrect answer.
type AnswerResponse struct {
	ID           uint                         `json:"id"`
	QuestionID   uint                         `json:"question_id"`
	Value        string                       `json:"value"`
	IsCorrect    *bool                        `json:"is_correct"`
	Status       string                       `json:"status"`
	PointsEarned float64                      `json:"points_earned"`
	Feedback     string                       `json:"feedback"`
	GradedBy     *uint                        `json:"graded_by"`
	GradedAt     *time.Time                   `json:"graded_at"`
	History      []AnswerGradeHistoryResponse `json:"history,omitempty"`
}

// SubmissionResult is returned after a successful submission.
type SubmissionResult struct {
	SubmissionID uint             `json:"submission_id"`
	ReferenceID  string           `json:"reference_id"`
	StudentID    uint             `json:"student_id"`
	AssessmentID uint             `json:"assessment_id"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Answers      []AnswerResponse `json:"answers"`
	Summary      grading.Summary  `json:"summary"`
}

// SummaryResponse is the assessment-level view for one student.
type SummaryResponse struct {
	StudentID    uint       `json:"student_id"`
	AssessmentID uint       `json:"assessment_id"`
	Submitted    bool       `json:"submitted"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	grading.Summary
}

// RegradeResponse reports the effect of re-applying automatic grading.
type RegradeResponse struct {
	QuestionID    uint    `json:"question_id"`
	CorrectAnswer *string `json:"correct_answer"`
	Total         int     `json:"total"`
	Regraded      int     `json:"regraded"`
	Unchanged     int     `json:"unchanged"`
	Preserved     int     `json:"preserved"`
}

// NewAnswerResponse converts an answer model.
func NewAnswerResponse(model models.SubmittedAnswer) AnswerResponse {
	response := AnswerResponse{
		ID:           model.ID,
		QuestionID:   model.QuestionID,
		Value:        model.Value,
		IsCorrect:    model.IsCorrect,
		Status:       grading.VerdictOf(model.IsCorrect).String(),
		PointsEarned: model.PointsEarned,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
	}

	if len(model.History) > 0 {
		history := make([]AnswerGradeHistoryResponse, 0, len(model.History))
		for _, entry := range model.History {
			history = append(history, AnswerGradeHistoryResponse{
				IsCorrect:    entry.IsCorrect,
				PointsEarned: entry.PointsEarned,
				Feedback:     entry.Feedback,
				Source:       entry.Source,
				GradedBy:     entry.GradedBy,
				GradedAt:     entry.GradedAt,
			})
		}
		response.History = history
	}

	return response
}

// NewAnswerResponseSlice converts answer models into DTOs.
func NewAnswerResponseSlice(answers []models.SubmittedAnswer) []AnswerResponse {
	responses := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		responses = append(responses, NewAnswerResponse(answer))
	}

	return responses
}
