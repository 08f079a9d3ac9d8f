package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/testutil"
)

type submissionFixture struct {
	db         *gorm.DB
	assessment models.Assessment
	assignment models.AssessmentAssignment
	student    models.Student
}

func seedSubmissionFixture(t *testing.T) submissionFixture {
	t.Helper()

	db := testutil.OpenDB(t)
	ctx := context.Background()

	key := "0"
	assessment := models.Assessment{
		SubjectID: 1,
		Title:     "Geography quiz",
		Questions: []models.Question{
			{Type: string(grading.MultipleChoice), Prompt: "Largest ocean?", Points: 5, OrderIndex: 0, Options: []string{"Pacific", "Atlantic"}, CorrectAnswer: &key},
			{Type: string(grading.Essay), Prompt: "Describe a river delta.", Points: 10, OrderIndex: 1},
		},
	}
	require.NoError(t, NewAssessmentRepository(db).Create(ctx, &assessment))

	student := models.Student{Name: "Ada", Email: "ada@example.com", CourseID: 3, YearLevel: "10", Section: "A"}
	require.NoError(t, NewStudentRepository(db).Create(ctx, &student))

	assignment := models.AssessmentAssignment{AssessmentID: assessment.ID, CourseID: 3, YearLevel: "10", Section: "A", IsAvailable: true}
	require.NoError(t, NewAssessmentAssignmentRepository(db).Create(ctx, &assignment))

	return submissionFixture{db: db, assessment: assessment, assignment: assignment, student: student}
}

func (f submissionFixture) newSubmission(reference string) *models.AssessmentSubmission {
	return &models.AssessmentSubmission{
		ReferenceID:  reference,
		StudentID:    f.student.ID,
		AssessmentID: f.assessment.ID,
		AssignmentID: f.assignment.ID,
		SubmittedAt:  time.Now().UTC(),
	}
}

func TestCreateWithAnswersStoresSubmissionAtomically(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()

	correct := true
	answers := []models.SubmittedAnswer{
		{QuestionID: f.assessment.Questions[0].ID, Value: "0", IsCorrect: &correct, PointsEarned: 5},
		{QuestionID: f.assessment.Questions[1].ID, Value: "Sediment fans out."},
	}
	submission := f.newSubmission("ref-1")
	require.NoError(t, repo.CreateWithAnswers(ctx, submission, answers, nil))
	require.NotZero(t, submission.ID)
	require.Len(t, submission.Answers, 2)

	stored, err := repo.ListAnswers(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, answer := range stored {
		require.Equal(t, submission.ID, answer.SubmissionID)
		require.Equal(t, f.assessment.ID, answer.AssessmentID)
	}
	require.Nil(t, stored[1].IsCorrect)

	ids, err := repo.ListSubmittedAssessmentIDs(ctx, f.student.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{f.assessment.ID}, ids)
}

func TestCreateWithAnswersRejectsSecondSubmission(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()

	first := []models.SubmittedAnswer{{QuestionID: f.assessment.Questions[0].ID, Value: "0"}}
	require.NoError(t, repo.CreateWithAnswers(ctx, f.newSubmission("ref-1"), first, nil))

	second := []models.SubmittedAnswer{
		{QuestionID: f.assessment.Questions[0].ID, Value: "1"},
		{QuestionID: f.assessment.Questions[1].ID, Value: "late essay"},
	}
	err := repo.CreateWithAnswers(ctx, f.newSubmission("ref-2"), second, nil)
	require.ErrorIs(t, err, grading.ErrAlreadySubmitted)

	stored, err := repo.ListAnswers(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "0", stored[0].Value)
}

func TestCreateWithAnswersGuardAbortsAllWrites(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()

	var seen models.AssessmentAssignment
	guard := func(assignment models.AssessmentAssignment) error {
		seen = assignment
		return grading.ErrSubmissionWindowClosed
	}

	answers := []models.SubmittedAnswer{{QuestionID: f.assessment.Questions[0].ID, Value: "0"}}
	err := repo.CreateWithAnswers(ctx, f.newSubmission("ref-1"), answers, guard)
	require.ErrorIs(t, err, grading.ErrSubmissionWindowClosed)
	require.Equal(t, f.assignment.ID, seen.ID)

	_, err = repo.GetByStudentAndAssessment(ctx, f.student.ID, f.assessment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.SubmittedAnswer{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateWithAnswersGuardSeesLatestAvailability(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()

	_, err := NewAssessmentAssignmentRepository(f.db).SetAvailability(ctx, f.assignment.ID, false)
	require.NoError(t, err)

	guard := func(assignment models.AssessmentAssignment) error {
		if !assignment.IsAvailable {
			return grading.ErrSubmissionWindowClosed
		}
		return nil
	}
	err = repo.CreateWithAnswers(ctx, f.newSubmission("ref-1"), nil, guard)
	require.ErrorIs(t, err, grading.ErrSubmissionWindowClosed)
}

func TestUpdateAnswerPersistsGradeAndHistory(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()

	submission := f.newSubmission("ref-1")
	answers := []models.SubmittedAnswer{{QuestionID: f.assessment.Questions[1].ID, Value: "essay"}}
	require.NoError(t, repo.CreateWithAnswers(ctx, submission, answers, nil))

	answer := submission.Answers[0]
	correct := true
	grader := uint(42)
	gradedAt := time.Now().UTC()
	answer.IsCorrect = &correct
	answer.PointsEarned = 8
	answer.Feedback = "Clear explanation"
	answer.GradedBy = &grader
	answer.GradedAt = &gradedAt

	history := &models.AnswerGradeHistory{
		IsCorrect:    &correct,
		PointsEarned: 8,
		Feedback:     "Clear explanation",
		Source:       models.GradeSourceManual,
		GradedBy:     grader,
		GradedAt:     gradedAt,
	}
	require.NoError(t, repo.UpdateAnswer(ctx, &answer, history))

	stored, err := repo.GetAnswer(ctx, answer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.IsCorrect)
	require.True(t, *stored.IsCorrect)
	require.InDelta(t, 8.0, stored.PointsEarned, 1e-9)
	require.Equal(t, f.assessment.Questions[1].ID, stored.Question.ID)
	require.Len(t, stored.History, 1)
	require.Equal(t, models.GradeSourceManual, stored.History[0].Source)
}

func TestUpdateAnswerMissingRow(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)

	err := repo.UpdateAnswer(context.Background(), &models.SubmittedAnswer{ID: 999}, nil)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRegradeQuestionRollsBackKeyAndAnswers(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()
	choice := f.assessment.Questions[0]

	other := models.Student{Name: "Bima", Email: "bima@example.com", CourseID: 3, YearLevel: "10", Section: "A"}
	require.NoError(t, NewStudentRepository(f.db).Create(ctx, &other))

	incorrect := false
	first := f.newSubmission("ref-1")
	require.NoError(t, repo.CreateWithAnswers(ctx, first, []models.SubmittedAnswer{{QuestionID: choice.ID, Value: "1", IsCorrect: &incorrect}}, nil))
	second := f.newSubmission("ref-2")
	second.StudentID = other.ID
	require.NoError(t, repo.CreateWithAnswers(ctx, second, []models.SubmittedAnswer{{QuestionID: choice.ID, Value: "1", IsCorrect: &incorrect}}, nil))

	newKey := "1"
	question := choice
	question.CorrectAnswer = &newKey
	calls := 0
	_, err := repo.RegradeQuestion(ctx, &question, func(answer *models.SubmittedAnswer) (*models.AnswerGradeHistory, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("boom")
		}
		correct := true
		answer.IsCorrect = &correct
		answer.PointsEarned = 5
		return &models.AnswerGradeHistory{IsCorrect: &correct, PointsEarned: 5, Source: models.GradeSourceRegrade, GradedBy: 1, GradedAt: time.Now().UTC()}, nil
	})
	require.EqualError(t, err, "boom")

	stored, err := NewAssessmentRepository(f.db).GetQuestion(ctx, choice.ID)
	require.NoError(t, err)
	require.Equal(t, "0", *stored.CorrectAnswer)

	answers, err := repo.ListAnswers(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.False(t, *answers[0].IsCorrect)
	require.Empty(t, answers[0].History)
}

func TestRegradeQuestionCommitsChangedAnswers(t *testing.T) {
	f := seedSubmissionFixture(t)
	repo := NewSubmissionRepository(f.db)
	ctx := context.Background()
	choice := f.assessment.Questions[0]

	incorrect := false
	submission := f.newSubmission("ref-1")
	require.NoError(t, repo.CreateWithAnswers(ctx, submission, []models.SubmittedAnswer{{QuestionID: choice.ID, Value: "1", IsCorrect: &incorrect}}, nil))

	newKey := "1"
	question := choice
	question.CorrectAnswer = &newKey
	changed, err := repo.RegradeQuestion(ctx, &question, func(answer *models.SubmittedAnswer) (*models.AnswerGradeHistory, error) {
		correct := true
		answer.IsCorrect = &correct
		answer.PointsEarned = 5
		return &models.AnswerGradeHistory{IsCorrect: &correct, PointsEarned: 5, Source: models.GradeSourceRegrade, GradedBy: 1, GradedAt: time.Now().UTC()}, nil
	})
	require.NoError(t, err)
	require.Len(t, changed, 1)

	stored, err := NewAssessmentRepository(f.db).GetQuestion(ctx, choice.ID)
	require.NoError(t, err)
	require.Equal(t, "1", *stored.CorrectAnswer)

	answers, err := repo.ListAnswers(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.True(t, *answers[0].IsCorrect)
	require.Len(t, answers[0].History, 1)
	require.Equal(t, models.GradeSourceRegrade, answers[0].History[0].Source)

	_, err = repo.RegradeQuestion(ctx, &models.Question{ID: 999}, func(*models.SubmittedAnswer) (*models.AnswerGradeHistory, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
