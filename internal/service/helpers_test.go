package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
	"github.com/noah-isme/gema-assessment-api/internal/testutil"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

type recordedEvent struct {
	Type string
	Data interface{}
}

type memoryPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *memoryPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (p *memoryPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]string, 0, len(p.events))
	for _, event := range p.events {
		result = append(result, event.Type)
	}
	return result
}

type memoryActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(_ context.Context, _ repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func (m *memoryActivityRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		result = append(result, entry.Action)
	}
	return result
}

// gradingFixture wires every service against one private SQLite database.
type gradingFixture struct {
	db          *gorm.DB
	now         time.Time
	activity    *memoryActivityRepo
	publisher   *memoryPublisher
	assessments AssessmentService
	assignments AssignmentService
	submissions SubmissionService
	grading     GradingService
	assessment  dto.AssessmentResponse
	student     models.Student
	instructor  ActivityActor
}

func newGradingFixture(t *testing.T) *gradingFixture {
	t.Helper()

	db := testutil.OpenDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	assignmentRepo := repository.NewAssessmentAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	activityRepo := &memoryActivityRepo{}
	activity := NewActivityService(activityRepo, validate, logger)
	publisher := &memoryPublisher{}

	assessments := NewAssessmentService(assessmentRepo, validate, activity, logger)
	assignments := NewAssignmentService(assignmentRepo, assessmentRepo, validate, activity, logger)
	assignments.(*assignmentService).now = clock
	submissions := NewSubmissionService(SubmissionDependencies{
		Submissions: submissionRepo,
		Assessments: assessmentRepo,
		Assignments: assignmentRepo,
		Students:    studentRepo,
		Validator:   validate,
		Publisher:   publisher,
	}, logger)
	submissions.(*submissionService).now = clock
	gradingSvc := NewGradingService(submissionRepo, assessmentRepo, validate, activity, nil, publisher, logger)
	gradingSvc.(*gradingService).now = clock

	instructor := ActivityActor{ID: 900, Role: "teacher"}
	assessment, err := assessments.Create(context.Background(), dto.AssessmentCreateRequest{
		SubjectID: 4,
		Title:     "Unit 1 check",
		Questions: []dto.QuestionRequest{
			{Type: "multiple_choice", Prompt: "2 + 2 = ?", Points: 5, Order: 0, Options: []string{"3", "4", "5"}, CorrectAnswer: strPtr("1")},
			{Type: "short_answer", Prompt: "Capital of France?", Points: 10, Order: 1, CorrectAnswer: strPtr("Paris")},
			{Type: "essay", Prompt: "Explain photosynthesis.", Points: 5, Order: 2},
		},
	}, instructor)
	require.NoError(t, err)

	student := models.Student{Name: "Budi", Email: "budi@example.com", CourseID: 7, YearLevel: "10", Section: "A"}
	require.NoError(t, studentRepo.Create(context.Background(), &student))

	return &gradingFixture{
		db:          db,
		now:         now,
		activity:    activityRepo,
		publisher:   publisher,
		assessments: assessments,
		assignments: assignments,
		submissions: submissions,
		grading:     gradingSvc,
		assessment:  assessment,
		student:     student,
		instructor:  instructor,
	}
}

func (f *gradingFixture) assign(t *testing.T, payload dto.AssessmentAssignmentCreateRequest) dto.AssessmentAssignmentResponse {
	t.Helper()

	if payload.AssessmentID == 0 {
		payload.AssessmentID = f.assessment.ID
	}
	if payload.CourseID == 0 {
		payload.CourseID = f.student.CourseID
	}
	if payload.YearLevel == "" {
		payload.YearLevel = f.student.YearLevel
	}
	if payload.Section == "" {
		payload.Section = f.student.Section
	}

	assignment, err := f.assignments.Create(context.Background(), payload, f.instructor)
	require.NoError(t, err)
	return assignment
}

func (f *gradingFixture) questionID(index int) uint {
	return f.assessment.Questions[index].ID
}

func (f *gradingFixture) fullAnswers() dto.SubmitAssessmentRequest {
	return dto.SubmitAssessmentRequest{Answers: []dto.AnswerInput{
		{QuestionID: f.questionID(0), Value: "1"},
		{QuestionID: f.questionID(1), Value: "  paris "},
		{QuestionID: f.questionID(2), Value: "Plants turn light into sugar."},
	}}
}
