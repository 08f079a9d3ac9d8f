package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mini, client
}

func TestSummaryCacheRoundTripAndInvalidate(t *testing.T) {
	mini, client := newMiniredisClient(t)
	cache := NewSummaryCache(client, time.Minute, testLogger())
	ctx := context.Background()

	_, generation, ok := cache.Get(ctx, 1, 2)
	require.False(t, ok)
	require.Zero(t, generation)

	summary := dto.SummaryResponse{
		StudentID:    1,
		AssessmentID: 2,
		Submitted:    true,
		Summary:      grading.Summary{TotalQuestions: 2, Answered: 2, TotalPoints: 10, PointsEarned: 5, Percentage: 50, Correct: 1, Incorrect: 1},
	}
	cache.Set(ctx, summary, generation)
	require.True(t, mini.Exists("summary:student:1:assessment:2"))
	require.Equal(t, time.Minute, mini.TTL("summary:student:1:assessment:2"))

	cached, _, ok := cache.Get(ctx, 1, 2)
	require.True(t, ok)
	require.Equal(t, summary, cached)

	cache.Invalidate(ctx, 1, 2)
	_, generation, ok = cache.Get(ctx, 1, 2)
	require.False(t, ok)
	require.EqualValues(t, 1, generation)
	require.Equal(t, generationTTL, mini.TTL("summary:student:1:assessment:2:generation"))
}

func TestSummaryCacheDropsSummaryComputedBeforeInvalidate(t *testing.T) {
	mini, client := newMiniredisClient(t)
	cache := NewSummaryCache(client, time.Minute, testLogger())
	ctx := context.Background()

	_, observed, ok := cache.Get(ctx, 3, 4)
	require.False(t, ok)

	// A submit commits and invalidates while the stale summary is in flight.
	cache.Invalidate(ctx, 3, 4)
	cache.Set(ctx, dto.SummaryResponse{StudentID: 3, AssessmentID: 4}, observed)
	require.False(t, mini.Exists("summary:student:3:assessment:4"))

	_, current, ok := cache.Get(ctx, 3, 4)
	require.False(t, ok)
	fresh := dto.SummaryResponse{StudentID: 3, AssessmentID: 4, Submitted: true}
	cache.Set(ctx, fresh, current)

	cached, _, ok := cache.Get(ctx, 3, 4)
	require.True(t, ok)
	require.True(t, cached.Submitted)
}

func TestSummaryCacheDisabledWithoutClient(t *testing.T) {
	cache := NewSummaryCache(nil, 0, testLogger())
	ctx := context.Background()

	cache.Set(ctx, dto.SummaryResponse{StudentID: 1, AssessmentID: 1}, 0)
	_, _, ok := cache.Get(ctx, 1, 1)
	require.False(t, ok)
	cache.Invalidate(ctx, 1, 1)
}

func TestSubmissionSummaryServedFromCacheUntilGraded(t *testing.T) {
	_, client := newMiniredisClient(t)
	f := newGradingFixture(t)
	cache := NewSummaryCache(client, time.Minute, testLogger())
	f.submissions.(*submissionService).cache = cache
	f.grading.(*gradingService).cache = cache
	ctx := context.Background()

	result := submitFull(t, f)

	first, err := f.submissions.GetSummary(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Equal(t, 75, first.Percentage)

	// A direct write bypasses invalidation, so the cached value is still served.
	require.NoError(t, f.db.Exec("UPDATE submitted_answers SET points_earned = 0").Error)
	cached, err := f.submissions.GetSummary(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.Equal(t, first.Summary, cached.Summary)
	require.True(t, cached.Submitted)
	require.NotNil(t, cached.SubmittedAt)
	require.True(t, first.SubmittedAt.Equal(*cached.SubmittedAt))

	essay := answerFor(result, f.questionID(2))
	_, err = f.grading.Override(ctx, essay.ID, dto.GradeOverrideRequest{PointsEarned: floatPtr(5)}, f.instructor)
	require.NoError(t, err)

	fresh, err := f.submissions.GetSummary(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.InDelta(t, 5.0, fresh.PointsEarned, 1e-9)
	require.Equal(t, 25, fresh.Percentage)
}

// interleavedSubmissionRepo runs afterLookup once, right after the first
// submission lookup returns, to reproduce a write racing a cache fill.
type interleavedSubmissionRepo struct {
	repository.SubmissionRepository
	afterLookup func()
}

func (r *interleavedSubmissionRepo) GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.AssessmentSubmission, error) {
	submission, err := r.SubmissionRepository.GetByStudentAndAssessment(ctx, studentID, assessmentID)
	if hook := r.afterLookup; hook != nil {
		r.afterLookup = nil
		hook()
	}
	return submission, err
}

func TestSummaryComputedBeforeSubmitIsNotCached(t *testing.T) {
	_, client := newMiniredisClient(t)
	f := newGradingFixture(t)
	f.assign(t, dto.AssessmentAssignmentCreateRequest{})
	ctx := context.Background()

	writer := f.submissions.(*submissionService)
	writer.cache = NewSummaryCache(client, time.Minute, testLogger())

	reader := *writer
	reader.submissions = &interleavedSubmissionRepo{
		SubmissionRepository: writer.submissions,
		afterLookup: func() {
			_, err := writer.Submit(ctx, f.student.ID, f.assessment.ID, f.fullAnswers())
			require.NoError(t, err)
		},
	}

	stale, err := reader.GetSummary(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.False(t, stale.Submitted)

	current, err := f.submissions.GetSummary(ctx, f.student.ID, f.assessment.ID)
	require.NoError(t, err)
	require.True(t, current.Submitted)
	require.Equal(t, 75, current.Percentage)

	items, err := f.submissions.ListForStudent(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Submitted)
	require.Equal(t, 75, items[0].Summary.Percentage)
}
