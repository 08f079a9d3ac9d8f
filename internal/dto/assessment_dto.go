package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// QuestionRequest is the authoring payload for one question.
type QuestionRequest struct {
	Type          string   `json:"type" validate:"required,oneof=multiple_choice multiple-choice true_false true-false short_answer short-answer essay"`
	Prompt        string   `json:"prompt" validate:"required,max=5000"`
	Points        int      `json:"points" validate:"required,gt=0"`
	Order         int      `json:"order" validate:"gte=0"`
	Options       []string `json:"options" validate:"omitempty,max=26,dive,max=1000"`
	CorrectAnswer *string  `json:"correct_answer" validate:"omitempty,max=1000"`
}

// AssessmentCreateRequest authors an assessment and its question set in bulk.
type AssessmentCreateRequest struct {
	SubjectID   uint              `json:"subject_id" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,min=3,max=255"`
	Description string            `json:"description" validate:"omitempty,max=5000"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,max=200,dive"`
}

// AnswerKeyUpdateRequest replaces a question's correct answer and triggers a regrade.
type AnswerKeyUpdateRequest struct {
	CorrectAnswer *string `json:"correct_answer" validate:"omitempty,max=1000"`
}

// QuestionResponse serializes a question. CorrectAnswer is omitted for students.
type QuestionResponse struct {
	ID            uint     `json:"id"`
	Type          string   `json:"type"`
	Prompt        string   `json:"prompt"`
	Points        int      `json:"points"`
	Order         int      `json:"order"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *string  `json:"correct_answer,omitempty"`
}

// AssessmentResponse serializes an assessment with its questions.
type AssessmentResponse struct {
	ID          uint               `json:"id"`
	SubjectID   uint               `json:"subject_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	TotalPoints int                `json:"total_points"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewQuestionResponse converts a question model.
func NewQuestionResponse(model models.Question, revealAnswer bool) QuestionResponse {
	response := QuestionResponse{
		ID:     model.ID,
		Type:   model.Type,
		Prompt: model.Prompt,
		Points: model.Points,
		Order:  model.OrderIndex,
	}
	if len(model.Options) > 0 {
		response.Options = append([]string(nil), model.Options...)
	}
	if revealAnswer {
		response.CorrectAnswer = model.CorrectAnswer
	}
	return response
}

// NewAssessmentResponse converts an assessment model.
func NewAssessmentResponse(model models.Assessment, revealAnswers bool) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question, revealAnswers))
	}

	return AssessmentResponse{
		ID:          model.ID,
		SubjectID:   model.SubjectID,
		Title:       model.Title,
		Description: model.Description,
		TotalPoints: model.TotalPoints(),
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
