package grading

import "math"

// GradedAnswer is the persisted outcome of one answer, automatic or manual.
type GradedAnswer struct {
	QuestionID   uint
	IsCorrect    *bool
	PointsEarned float64
}

// Summary aggregates one student's answers to one assessment.
type Summary struct {
	TotalQuestions int     `json:"total_questions"`
	Answered       int     `json:"answered"`
	TotalPoints    int     `json:"total_points"`
	PointsEarned   float64 `json:"points_earned"`
	Percentage     int     `json:"percentage"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	Ungraded       int     `json:"ungraded"`
}

// Summarize folds graded answers into assessment totals. Every question counts
// toward the denominator; questions without an answer count as ungraded.
func Summarize(questions []Question, answers []GradedAnswer) Summary {
	byQuestion := make(map[uint]GradedAnswer, len(answers))
	for _, answer := range answers {
		if _, exists := byQuestion[answer.QuestionID]; !exists {
			byQuestion[answer.QuestionID] = answer
		}
	}

	summary := Summary{TotalQuestions: len(questions)}
	for _, question := range questions {
		summary.TotalPoints += question.Points

		answer, answered := byQuestion[question.ID]
		if !answered {
			summary.Ungraded++
			continue
		}

		summary.Answered++
		summary.PointsEarned += answer.PointsEarned
		switch VerdictOf(answer.IsCorrect) {
		case VerdictCorrect:
			summary.Correct++
		case VerdictIncorrect:
			summary.Incorrect++
		default:
			summary.Ungraded++
		}
	}

	if summary.TotalPoints > 0 {
		summary.Percentage = int(math.Round(summary.PointsEarned / float64(summary.TotalPoints) * 100))
	}

	return summary
}
