package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AssignmentGuard re-validates the freshly loaded assignment inside the
// submission transaction. Returning an error aborts every write.
type AssignmentGuard func(assignment models.AssessmentAssignment) error

// AnswerRegrader decides the new grade of one stored answer, mutating it in
// place. It returns the history entry to record, or nil to leave the answer
// untouched. An error rolls back the whole regrade.
type AnswerRegrader func(answer *models.SubmittedAnswer) (*models.AnswerGradeHistory, error)

// SubmissionRepository defines data operations for assessment submissions and answers.
type SubmissionRepository interface {
	CreateWithAnswers(ctx context.Context, submission *models.AssessmentSubmission, answers []models.SubmittedAnswer, guard AssignmentGuard) error
	GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.AssessmentSubmission, error)
	ListSubmittedAssessmentIDs(ctx context.Context, studentID uint) ([]uint, error)
	ListAnswers(ctx context.Context, studentID, assessmentID uint) ([]models.SubmittedAnswer, error)
	GetAnswer(ctx context.Context, id uint) (models.SubmittedAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer, history *models.AnswerGradeHistory) error
	RegradeQuestion(ctx context.Context, question *models.Question, regrade AnswerRegrader) ([]models.SubmittedAnswer, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// CreateWithAnswers commits the submission row and all of its answers, or
// nothing. The assignment is re-read inside the transaction so the guard sees
// the latest availability toggle.
func (r *submissionRepository) CreateWithAnswers(ctx context.Context, submission *models.AssessmentSubmission, answers []models.SubmittedAnswer, guard AssignmentGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.AssessmentAssignment
		if err := tx.First(&assignment, submission.AssignmentID).Error; err != nil {
			return err
		}
		if guard != nil {
			if err := guard(assignment); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(submission).Error; err != nil {
			if isUniqueViolation(err) {
				return grading.ErrAlreadySubmitted
			}
			return err
		}

		if len(answers) == 0 {
			submission.Answers = nil
			return nil
		}
		for i := range answers {
			answers[i].SubmissionID = submission.ID
			answers[i].StudentID = submission.StudentID
			answers[i].AssessmentID = submission.AssessmentID
		}
		if err := tx.Omit(clause.Associations).Create(&answers).Error; err != nil {
			return err
		}
		submission.Answers = answers
		return nil
	})
}

func (r *submissionRepository) GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		First(&submission).Error
	if err != nil {
		return models.AssessmentSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListSubmittedAssessmentIDs(ctx context.Context, studentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("student_id = ?", studentID).
		Pluck("assessment_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// ListAnswers returns a student's answers in question order, each with its
// grade history oldest first.
func (r *submissionRepository) ListAnswers(ctx context.Context, studentID, assessmentID uint) ([]models.SubmittedAnswer, error) {
	var answers []models.SubmittedAnswer
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("graded_at ASC").Order("id ASC")
		}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *submissionRepository) GetAnswer(ctx context.Context, id uint) (models.SubmittedAnswer, error) {
	var answer models.SubmittedAnswer
	err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("graded_at ASC")
		}).
		First(&answer, id).Error
	if err != nil {
		return models.SubmittedAnswer{}, err
	}

	return answer, nil
}

// UpdateAnswer saves the new grade together with its history entry.
func (r *submissionRepository) UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer, history *models.AnswerGradeHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveGrade(tx, answer, history)
	})
}

// RegradeQuestion stores the question's new answer key and re-grades every
// answer to it in one transaction: either the key and all affected answers
// change together, or nothing does. It returns the answers that changed.
func (r *submissionRepository) RegradeQuestion(ctx context.Context, question *models.Question, regrade AnswerRegrader) ([]models.SubmittedAnswer, error) {
	var changed []models.SubmittedAnswer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed = nil

		result := tx.Model(&models.Question{}).
			Where("id = ?", question.ID).
			Update("correct_answer", question.CorrectAnswer)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var answers []models.SubmittedAnswer
		if err := tx.Where("question_id = ?", question.ID).Order("id ASC").Find(&answers).Error; err != nil {
			return err
		}

		for i := range answers {
			history, err := regrade(&answers[i])
			if err != nil {
				return err
			}
			if history == nil {
				continue
			}
			if err := saveGrade(tx, &answers[i], history); err != nil {
				return err
			}
			changed = append(changed, answers[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changed, nil
}

func saveGrade(tx *gorm.DB, answer *models.SubmittedAnswer, history *models.AnswerGradeHistory) error {
	result := tx.Model(&models.SubmittedAnswer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"is_correct":    answer.IsCorrect,
			"points_earned": answer.PointsEarned,
			"feedback":      answer.Feedback,
			"graded_by":     answer.GradedBy,
			"graded_at":     answer.GradedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if history == nil {
		return nil
	}
	history.AnswerID = answer.ID
	if err := tx.Create(history).Error; err != nil {
		return fmt.Errorf("failed to persist grade history: %w", err)
	}
	answer.History = append(answer.History, *history)
	return nil
}
