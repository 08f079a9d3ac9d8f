package grading

import "strings"

// Verdict is the tri-state correctness of a graded answer.
type Verdict int

const (
	// VerdictUngraded marks an answer awaiting manual review.
	VerdictUngraded Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "ungraded"
	}
}

// IsCorrect maps the verdict onto a nullable flag; nil means ungraded.
func (v Verdict) IsCorrect() *bool {
	switch v {
	case VerdictCorrect:
		ok := true
		return &ok
	case VerdictIncorrect:
		ok := false
		return &ok
	default:
		return nil
	}
}

// VerdictOf is the inverse of IsCorrect.
func VerdictOf(isCorrect *bool) Verdict {
	switch {
	case isCorrect == nil:
		return VerdictUngraded
	case *isCorrect:
		return VerdictCorrect
	default:
		return VerdictIncorrect
	}
}

// Result is the outcome of grading one submitted value.
type Result struct {
	Verdict      Verdict
	PointsEarned float64
}

// Gradeable grades a raw submitted value against a question of one type.
type Gradeable interface {
	Grade(q Question, submitted string) Result
}

type choiceGrader struct{}

func (choiceGrader) Grade(q Question, submitted string) Result {
	value := strings.TrimSpace(submitted)
	if value == "" || q.CorrectAnswer == nil {
		return Result{Verdict: VerdictIncorrect}
	}
	if value == strings.TrimSpace(*q.CorrectAnswer) {
		return Result{Verdict: VerdictCorrect, PointsEarned: float64(q.Points)}
	}
	return Result{Verdict: VerdictIncorrect}
}

type shortAnswerGrader struct{}

func (shortAnswerGrader) Grade(q Question, submitted string) Result {
	value := strings.TrimSpace(submitted)
	if value == "" || q.CorrectAnswer == nil {
		return Result{Verdict: VerdictUngraded}
	}
	reference := strings.TrimSpace(*q.CorrectAnswer)
	if reference == "" {
		return Result{Verdict: VerdictUngraded}
	}
	if strings.EqualFold(value, reference) {
		return Result{Verdict: VerdictCorrect, PointsEarned: float64(q.Points)}
	}
	return Result{Verdict: VerdictIncorrect}
}

type essayGrader struct{}

func (essayGrader) Grade(Question, string) Result {
	return Result{Verdict: VerdictUngraded}
}

// GraderFor returns the grading behaviour for a question type.
func GraderFor(t QuestionType) (Gradeable, bool) {
	switch t {
	case MultipleChoice, TrueFalse:
		return choiceGrader{}, true
	case ShortAnswer:
		return shortAnswerGrader{}, true
	case Essay:
		return essayGrader{}, true
	default:
		return nil, false
	}
}

// Grade evaluates a submitted value. Unknown types are left ungraded.
func Grade(q Question, submitted string) Result {
	grader, ok := GraderFor(q.Type)
	if !ok {
		return Result{Verdict: VerdictUngraded}
	}
	return grader.Grade(q, submitted)
}
