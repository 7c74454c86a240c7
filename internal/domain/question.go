package domain

import (
	"strings"
	"time"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeBoolean        QuestionType = "boolean"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeOpenEnded      QuestionType = "open_ended"
)

// BooleanAnswerCount and MultipleChoiceAnswerCount are the canonical answer
// counts enforced after normalization. Open-ended questions carry no answers.
const (
	BooleanAnswerCount        = 2
	MultipleChoiceAnswerCount = 4
)

// NormalizeQuestionType collapses an arbitrary type string to a canonical
// QuestionType. Anything other than boolean or multiple_choice becomes
// multiple_choice; open_ended is deliberately not preserved on this path,
// matching the generation pipeline's schema narrowing.
func NormalizeQuestionType(raw string) QuestionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(QuestionTypeBoolean):
		return QuestionTypeBoolean
	default:
		return QuestionTypeMultipleChoice
	}
}

// ParseQuestionType resolves a stored/user-supplied type string without
// narrowing. Used by CRUD paths where open_ended is a legal value.
func ParseQuestionType(raw string) (QuestionType, bool) {
	switch QuestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case QuestionTypeBoolean:
		return QuestionTypeBoolean, true
	case QuestionTypeMultipleChoice:
		return QuestionTypeMultipleChoice, true
	case QuestionTypeOpenEnded:
		return QuestionTypeOpenEnded, true
	default:
		return "", false
	}
}

// GeneratedAnswer is one answer option of a generated question.
type GeneratedAnswer struct {
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
	Position   int    `json:"position"`
}

// GeneratedQuestion is the canonical output shape of the generation pipeline.
// Instances produced by the normalizer always satisfy Validate.
type GeneratedQuestion struct {
	QuestionText string            `json:"question_text"`
	QuestionType QuestionType      `json:"question_type"`
	Explanation  string            `json:"explanation"`
	Position     int               `json:"position"`
	Answers      []GeneratedAnswer `json:"answers"`
}

// Validate checks the type-specific invariants: exactly one correct answer,
// boolean questions carry exactly 2 answers and multiple choice exactly 4.
// Open-ended questions are exempt from answer-count rules.
func (q *GeneratedQuestion) Validate() error {
	if q.QuestionText == "" {
		return NewValidationFailure("question_text", "is required")
	}
	if q.Position < 0 {
		return NewValidationFailure("position", "must be non-negative")
	}
	if q.QuestionType == QuestionTypeOpenEnded {
		return nil
	}
	correct := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return NewValidationFailure("answers", "exactly one answer must be correct")
	}
	switch q.QuestionType {
	case QuestionTypeBoolean:
		if len(q.Answers) != BooleanAnswerCount {
			return NewValidationFailure("answers", "boolean questions require exactly 2 answers")
		}
	case QuestionTypeMultipleChoice:
		if len(q.Answers) != MultipleChoiceAnswerCount {
			return NewValidationFailure("answers", "multiple choice questions require exactly 4 answers")
		}
	}
	return nil
}

// NewValidationFailure wraps a single field failure as a domain error.
func NewValidationFailure(field, message string) error {
	return NewError(CodeValidation, field+" "+message, nil)
}

// Question is a persisted quiz question.
type Question struct {
	ID           int64
	QuizID       int64
	QuestionText string
	QuestionType QuestionType
	Explanation  string
	Position     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Answers      []*Answer
}

// Answer is a persisted answer option.
type Answer struct {
	ID         int64
	QuestionID int64
	AnswerText string
	IsCorrect  bool
	Position   int
}

// NewQuestionFromGenerated materializes a pipeline result as a persistable
// question owned by the given quiz.
func NewQuestionFromGenerated(quizID int64, g *GeneratedQuestion) *Question {
	now := time.Now()
	q := &Question{
		QuizID:       quizID,
		QuestionText: g.QuestionText,
		QuestionType: g.QuestionType,
		Explanation:  g.Explanation,
		Position:     g.Position,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, a := range g.Answers {
		q.Answers = append(q.Answers, &Answer{
			AnswerText: a.AnswerText,
			IsCorrect:  a.IsCorrect,
			Position:   a.Position,
		})
	}
	return q
}
