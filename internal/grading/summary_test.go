package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(value bool) *bool {
	return &value
}

func TestSummarizePartialSubmission(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: MultipleChoice, Points: 5},
		{ID: 2, Type: MultipleChoice, Points: 10},
		{ID: 3, Type: MultipleChoice, Points: 5},
	}
	answers := []GradedAnswer{
		{QuestionID: 1, IsCorrect: boolPtr(true), PointsEarned: 5},
		{QuestionID: 2, IsCorrect: boolPtr(true), PointsEarned: 10},
	}

	summary := Summarize(questions, answers)
	require.Equal(t, 20, summary.TotalPoints)
	require.Equal(t, 15.0, summary.PointsEarned)
	require.Equal(t, 75, summary.Percentage)
	require.Equal(t, 2, summary.Correct)
	require.Equal(t, 0, summary.Incorrect)
	require.Equal(t, 1, summary.Ungraded)
	require.Equal(t, 2, summary.Answered)
	require.Equal(t, 3, summary.TotalQuestions)

	require.Equal(t, summary, Summarize(questions, answers))
}

func TestSummarizeDistinguishesUngradedFromIncorrect(t *testing.T) {
	questions := []Question{
		{ID: 1, Type: TrueFalse, Points: 1},
		{ID: 2, Type: Essay, Points: 10},
		{ID: 3, Type: ShortAnswer, Points: 2},
	}
	answers := []GradedAnswer{
		{QuestionID: 1, IsCorrect: boolPtr(false)},
		{QuestionID: 2, IsCorrect: nil},
		{QuestionID: 3, IsCorrect: boolPtr(true), PointsEarned: 2},
		{QuestionID: 99, IsCorrect: boolPtr(true), PointsEarned: 50},
	}

	summary := Summarize(questions, answers)
	require.Equal(t, 13, summary.TotalPoints)
	require.Equal(t, 2.0, summary.PointsEarned)
	require.Equal(t, 15, summary.Percentage)
	require.Equal(t, 1, summary.Correct)
	require.Equal(t, 1, summary.Incorrect)
	require.Equal(t, 1, summary.Ungraded)
}

func TestSummarizeFractionalManualPoints(t *testing.T) {
	questions := []Question{{ID: 1, Type: Essay, Points: 3}}
	answers := []GradedAnswer{{QuestionID: 1, IsCorrect: boolPtr(true), PointsEarned: 2.5}}

	summary := Summarize(questions, answers)
	require.Equal(t, 2.5, summary.PointsEarned)
	require.Equal(t, 83, summary.Percentage)
}

func TestSummarizeEmptyAssessment(t *testing.T) {
	summary := Summarize(nil, nil)
	require.Zero(t, summary.TotalPoints)
	require.Zero(t, summary.Percentage)
}
