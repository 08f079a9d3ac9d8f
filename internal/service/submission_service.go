package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the student id does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAssessmentNotAssigned indicates no assignment targets the student's placement.
	ErrAssessmentNotAssigned = errors.New("assessment is not assigned to this student")
	// ErrAssessmentNotOpen indicates the assignment is upcoming or switched off.
	ErrAssessmentNotOpen = errors.New("assessment is not open")
)

// SubmissionService orchestrates assessment submission and summaries.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionResult, error)
	GetForStudent(ctx context.Context, studentID, assessmentID uint) (dto.AssessmentResponse, error)
	GetSummary(ctx context.Context, studentID, assessmentID uint) (dto.SummaryResponse, error)
	ListAnswers(ctx context.Context, studentID, assessmentID uint) ([]dto.AnswerResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssessmentItem, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	assignments repository.AssessmentAssignmentRepository
	students    repository.StudentRepository
	validator   *validator.Validate
	cache       SummaryCache
	publisher   EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Submissions repository.SubmissionRepository
	Assessments repository.AssessmentRepository
	Assignments repository.AssessmentAssignmentRepository
	Students    repository.StudentRepository
	Validator   *validator.Validate
	Cache       SummaryCache
	Publisher   EventPublisher
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies, logger zerolog.Logger) SubmissionService {
	cache := deps.Cache
	if cache == nil {
		cache = NewSummaryCache(nil, 0, logger)
	}
	return &submissionService{
		submissions: deps.Submissions,
		assessments: deps.Assessments,
		assignments: deps.Assignments,
		students:    deps.Students,
		validator:   deps.Validator,
		cache:       cache,
		publisher:   publisherOrNoop(deps.Publisher),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit grades and stores a complete submission. Availability is checked
// twice: once up front to fail fast, and again inside the write transaction
// against a freshly loaded assignment, which is the authoritative check.
func (s *submissionService) Submit(ctx context.Context, studentID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionResult, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.submit")
	span.SetAttributes(
		attribute.Int64("submission.student_id", int64(studentID)),
		attribute.Int64("submission.assessment_id", int64(assessmentID)),
	)
	defer span.End()

	result, err := s.submit(ctx, studentID, assessmentID, payload)
	outcome := submissionOutcome(err)
	observability.Submissions().WithLabelValues(outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return dto.SubmissionResult{}, err
	}

	span.SetAttributes(attribute.Int("submission.percentage", result.Summary.Percentage))
	return result, nil
}

func (s *submissionService) submit(ctx context.Context, studentID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResult{}, err
	}

	placement, err := s.students.GetPlacement(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResult{}, ErrStudentNotFound
		}
		return dto.SubmissionResult{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResult{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResult{}, err
	}

	assignment, err := s.assignments.FindForPlacement(ctx, assessmentID, placement)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResult{}, ErrAssessmentNotAssigned
		}
		return dto.SubmissionResult{}, err
	}

	if err := grading.EnsureOpen(assignment.Window(), s.now()); err != nil {
		return dto.SubmissionResult{}, err
	}

	if _, err := s.submissions.GetByStudentAndAssessment(ctx, studentID, assessmentID); err == nil {
		return dto.SubmissionResult{}, grading.ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResult{}, err
	}

	answers, err := gradeAnswers(assessment.Questions, payload.Answers)
	if err != nil {
		return dto.SubmissionResult{}, err
	}

	submission := models.AssessmentSubmission{
		ReferenceID:  uuid.NewString(),
		StudentID:    studentID,
		AssessmentID: assessmentID,
		AssignmentID: assignment.ID,
		SubmittedAt:  s.now().UTC(),
	}

	guard := func(current models.AssessmentAssignment) error {
		return grading.EnsureOpen(current.Window(), s.now())
	}
	if err := s.submissions.CreateWithAnswers(ctx, &submission, answers, guard); err != nil {
		return dto.SubmissionResult{}, err
	}

	s.cache.Invalidate(ctx, studentID, assessmentID)

	questions := models.GradeableQuestions(assessment.Questions)
	summary := grading.Summarize(questions, models.GradedAnswers(submission.Answers))
	recordGradingMetrics(assessment.Questions, submission.Answers, "auto")
	observability.SubmissionScores().Observe(float64(summary.Percentage))

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("student_id", studentID).
		Uint("assessment_id", assessmentID).
		Int("percentage", summary.Percentage).
		Msg("assessment submitted")

	if err := s.publisher.Publish(ctx, events.AssessmentSubmitted, map[string]interface{}{
		"submission_id": submission.ID,
		"reference_id":  submission.ReferenceID,
		"student_id":    studentID,
		"assessment_id": assessmentID,
		"summary":       summary,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish submission event")
	}

	return dto.SubmissionResult{
		SubmissionID: submission.ID,
		ReferenceID:  submission.ReferenceID,
		StudentID:    studentID,
		AssessmentID: assessmentID,
		SubmittedAt:  submission.SubmittedAt,
		Answers:      dto.NewAnswerResponseSlice(submission.Answers),
		Summary:      summary,
	}, nil
}

// GetForStudent returns the assessment without answer keys, provided it is
// assigned to the student's placement and the assignment has opened. Overdue
// assessments stay readable for review.
func (s *submissionService) GetForStudent(ctx context.Context, studentID, assessmentID uint) (dto.AssessmentResponse, error) {
	placement, err := s.students.GetPlacement(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrStudentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	assignment, err := s.assignments.FindForPlacement(ctx, assessmentID, placement)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotAssigned
		}
		return dto.AssessmentResponse{}, err
	}

	switch status := assignment.StatusAt(s.now()); status {
	case grading.StatusUpcoming, grading.StatusUnavailable:
		return dto.AssessmentResponse{}, fmt.Errorf("%w: assignment is %s", ErrAssessmentNotOpen, status)
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment, false), nil
}

func (s *submissionService) GetSummary(ctx context.Context, studentID, assessmentID uint) (dto.SummaryResponse, error) {
	cached, generation, ok := s.cache.Get(ctx, studentID, assessmentID)
	if ok {
		return cached, nil
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SummaryResponse{}, ErrAssessmentNotFound
		}
		return dto.SummaryResponse{}, err
	}

	response := dto.SummaryResponse{StudentID: studentID, AssessmentID: assessmentID}

	submission, err := s.submissions.GetByStudentAndAssessment(ctx, studentID, assessmentID)
	switch {
	case err == nil:
		response.Submitted = true
		submittedAt := submission.SubmittedAt
		response.SubmittedAt = &submittedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.SummaryResponse{}, err
	}

	var answers []models.SubmittedAnswer
	if response.Submitted {
		answers, err = s.submissions.ListAnswers(ctx, studentID, assessmentID)
		if err != nil {
			return dto.SummaryResponse{}, err
		}
	}

	response.Summary = grading.Summarize(models.GradeableQuestions(assessment.Questions), models.GradedAnswers(answers))
	s.cache.Set(ctx, response, generation)

	return response, nil
}

func (s *submissionService) ListAnswers(ctx context.Context, studentID, assessmentID uint) ([]dto.AnswerResponse, error) {
	answers, err := s.submissions.ListAnswers(ctx, studentID, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewAnswerResponseSlice(answers), nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssessmentItem, error) {
	placement, err := s.students.GetPlacement(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	assignments, err := s.assignments.ListForPlacement(ctx, placement)
	if err != nil {
		return nil, err
	}

	submittedIDs, err := s.submissions.ListSubmittedAssessmentIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	submitted := make(map[uint]struct{}, len(submittedIDs))
	for _, id := range submittedIDs {
		submitted[id] = struct{}{}
	}

	now := s.now()
	items := make([]dto.StudentAssessmentItem, 0, len(assignments))
	for _, assignment := range assignments {
		item := dto.StudentAssessmentItem{
			AssignmentID: assignment.ID,
			AssessmentID: assignment.AssessmentID,
			Title:        assignment.Assessment.Title,
			Status:       assignment.StatusAt(now),
			OpenedAt:     assignment.OpenedAt,
			ClosedAt:     assignment.ClosedAt,
		}

		if _, ok := submitted[assignment.AssessmentID]; ok {
			item.Submitted = true
			summary, err := s.GetSummary(ctx, studentID, assignment.AssessmentID)
			if err != nil {
				return nil, err
			}
			item.Summary = &summary.Summary
		}

		items = append(items, item)
	}

	return items, nil
}

// gradeAnswers grades every submitted pair against the assessment's
// questions. Unknown or repeated question ids reject the whole submission.
func gradeAnswers(questions []models.Question, inputs []dto.AnswerInput) ([]models.SubmittedAnswer, error) {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	seen := make(map[uint]struct{}, len(inputs))
	answers := make([]models.SubmittedAnswer, 0, len(inputs))
	for i, input := range inputs {
		field := fmt.Sprintf("answers[%d].question_id", i)
		question, ok := byID[input.QuestionID]
		if !ok {
			return nil, &grading.ValidationError{Field: field, Message: fmt.Sprintf("question %d does not belong to this assessment", input.QuestionID)}
		}
		if _, dup := seen[input.QuestionID]; dup {
			return nil, &grading.ValidationError{Field: field, Message: fmt.Sprintf("question %d answered more than once", input.QuestionID)}
		}
		seen[input.QuestionID] = struct{}{}

		answer := models.SubmittedAnswer{
			QuestionID: question.ID,
			Value:      input.Value,
		}
		answer.ApplyResult(grading.Grade(question.Gradeable(), input.Value))
		answers = append(answers, answer)
	}

	return answers, nil
}

func submissionOutcome(err error) string {
	var validationErrors validator.ValidationErrors
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, grading.ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, grading.ErrSubmissionWindowClosed):
		return "window_closed"
	case errors.Is(err, grading.ErrValidation), errors.As(err, &validationErrors):
		return "invalid"
	case errors.Is(err, ErrAssessmentNotAssigned), errors.Is(err, ErrAssessmentNotFound), errors.Is(err, ErrStudentNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func recordGradingMetrics(questions []models.Question, answers []models.SubmittedAnswer, source string) {
	types := make(map[uint]string, len(questions))
	for _, question := range questions {
		types[question.ID] = question.Type
	}
	for _, answer := range answers {
		verdict := grading.VerdictOf(answer.IsCorrect).String()
		observability.GradedAnswers().WithLabelValues(types[answer.QuestionID], verdict, source).Inc()
	}
}
