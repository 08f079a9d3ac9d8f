package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
)

func TestAssessmentCreateStoresQuestionSet(t *testing.T) {
	f := newGradingFixture(t)

	require.Equal(t, 20, f.assessment.TotalPoints)
	require.Len(t, f.assessment.Questions, 3)
	require.Equal(t, []string{"3", "4", "5"}, f.assessment.Questions[0].Options)
	require.Equal(t, "1", *f.assessment.Questions[0].CorrectAnswer)
	require.Nil(t, f.assessment.Questions[2].CorrectAnswer)
	require.Contains(t, f.activity.actions(), "assessment.created")
}

func TestAssessmentGetHidesAnswerKeyFromStudents(t *testing.T) {
	f := newGradingFixture(t)

	hidden, err := f.assessments.Get(context.Background(), f.assessment.ID, false)
	require.NoError(t, err)
	for _, question := range hidden.Questions {
		require.Nil(t, question.CorrectAnswer)
	}

	revealed, err := f.assessments.Get(context.Background(), f.assessment.ID, true)
	require.NoError(t, err)
	require.Equal(t, "Paris", *revealed.Questions[1].CorrectAnswer)

	_, err = f.assessments.Get(context.Background(), 999, true)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAssessmentCreateReportsQuestionIndex(t *testing.T) {
	f := newGradingFixture(t)

	_, err := f.assessments.Create(context.Background(), dto.AssessmentCreateRequest{
		SubjectID: 1,
		Title:     "Broken quiz",
		Questions: []dto.QuestionRequest{
			{Type: "true_false", Prompt: "Sky is blue", Points: 1, CorrectAnswer: strPtr("0")},
			{Type: "multiple_choice", Prompt: "Pick", Points: 2, Options: []string{"only"}, CorrectAnswer: strPtr("0")},
		},
	}, f.instructor)
	require.ErrorIs(t, err, grading.ErrValidation)

	var fieldErr *grading.ValidationError
	require.True(t, errors.As(err, &fieldErr))
	require.Equal(t, "questions[1].options", fieldErr.Field)
}
