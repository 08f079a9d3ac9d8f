package grading

import (
	"strconv"
	"strings"
)

// QuestionType is the closed set of gradeable question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// QuestionTypes lists every supported type in authoring order.
var QuestionTypes = []QuestionType{MultipleChoice, TrueFalse, ShortAnswer, Essay}

// Canonical options for true/false questions; index 0 is True.
var trueFalseOptions = []string{"True", "False"}

// ParseQuestionType accepts both the snake_case and the hyphenated spelling.
func ParseQuestionType(raw string) (QuestionType, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for _, t := range QuestionTypes {
		if string(t) == normalized {
			return t, true
		}
	}
	return "", false
}

// IsChoice reports whether answers to this type are option indexes.
func (t QuestionType) IsChoice() bool {
	return t == MultipleChoice || t == TrueFalse
}

// Question is a validated, gradeable prompt.
type Question struct {
	ID            uint
	Type          QuestionType
	Prompt        string
	Points        int
	Order         int
	Options       []string
	CorrectAnswer *string
}

// QuestionInput is raw authoring input prior to validation.
type QuestionInput struct {
	ID            uint
	Type          string
	Prompt        string
	Points        int
	Order         int
	Options       []string
	CorrectAnswer *string
}

// NewQuestion validates authoring input and builds a Question.
func NewQuestion(input QuestionInput) (Question, error) {
	questionType, ok := ParseQuestionType(input.Type)
	if !ok {
		return Question{}, invalid("type", "unsupported question type %q", input.Type)
	}

	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return Question{}, invalid("prompt", "must not be empty")
	}
	if input.Points <= 0 {
		return Question{}, invalid("points", "must be a positive integer")
	}

	question := Question{
		ID:     input.ID,
		Type:   questionType,
		Prompt: prompt,
		Points: input.Points,
		Order:  input.Order,
	}

	switch questionType {
	case MultipleChoice:
		if len(input.Options) < 2 {
			return Question{}, invalid("options", "multiple choice requires at least 2 options")
		}
		options := make([]string, 0, len(input.Options))
		for i, option := range input.Options {
			trimmed := strings.TrimSpace(option)
			if trimmed == "" {
				return Question{}, invalid("options", "option %d must not be empty", i)
			}
			options = append(options, trimmed)
		}
		key, err := choiceKey(input.CorrectAnswer, len(options))
		if err != nil {
			return Question{}, err
		}
		question.Options = options
		question.CorrectAnswer = &key
	case TrueFalse:
		key, err := choiceKey(input.CorrectAnswer, len(trueFalseOptions))
		if err != nil {
			return Question{}, err
		}
		question.Options = append([]string(nil), trueFalseOptions...)
		question.CorrectAnswer = &key
	case ShortAnswer:
		if len(input.Options) > 0 {
			return Question{}, invalid("options", "short answer questions take no options")
		}
		if input.CorrectAnswer != nil {
			if reference := strings.TrimSpace(*input.CorrectAnswer); reference != "" {
				question.CorrectAnswer = &reference
			}
		}
	case Essay:
		if len(input.Options) > 0 {
			return Question{}, invalid("options", "essay questions take no options")
		}
	}

	return question, nil
}

// WithCorrectAnswer returns a copy of q carrying a new, validated answer key.
func (q Question) WithCorrectAnswer(correctAnswer *string) (Question, error) {
	return NewQuestion(QuestionInput{
		ID:            q.ID,
		Type:          string(q.Type),
		Prompt:        q.Prompt,
		Points:        q.Points,
		Order:         q.Order,
		Options:       q.Options,
		CorrectAnswer: correctAnswer,
	})
}

func choiceKey(raw *string, optionCount int) (string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return "", invalid("correct_answer", "is required for choice questions")
	}
	index, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return "", invalid("correct_answer", "must be an option index")
	}
	if index < 0 || index >= optionCount {
		return "", invalid("correct_answer", "index %d out of range [0, %d)", index, optionCount)
	}
	return strconv.Itoa(index), nil
}
