package genai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"quizforge/internal/domain"
)

const placeholderExplanation = "A placeholder question generated due to AI generation failure."

// Normalize repairs an arbitrary decoded JSON value into a canonical
// GeneratedQuestion at the given position. It is a total function: unusable
// input is replaced by a placeholder, missing fields get defaults, and the
// answer set is padded or truncated until the type invariants hold. The
// returned question always satisfies Validate.
func Normalize(raw any, position int) *domain.GeneratedQuestion {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Placeholder(position)
	}

	q := &domain.GeneratedQuestion{
		QuestionText: stringField(obj, "question_text", fmt.Sprintf("Question %d", position+1)),
		QuestionType: domain.NormalizeQuestionType(stringField(obj, "question_type", string(domain.QuestionTypeMultipleChoice))),
		Explanation:  stringField(obj, "explanation", ""),
		Position:     position,
	}

	rawAnswers, ok := obj["answers"].([]any)
	if !ok {
		q.Answers = DefaultAnswers(q.QuestionType)
		return q
	}

	answers := make([]domain.GeneratedAnswer, 0, len(rawAnswers))
	for i, entry := range rawAnswers {
		answers = append(answers, coerceAnswer(entry, i))
	}
	q.Answers = RepairAnswers(q.QuestionType, answers)
	return q
}

// Placeholder synthesizes a non-AI question used to satisfy a required count
// when generation fails.
func Placeholder(position int) *domain.GeneratedQuestion {
	return &domain.GeneratedQuestion{
		QuestionText: fmt.Sprintf("Default Question %d", position+1),
		QuestionType: domain.QuestionTypeMultipleChoice,
		Explanation:  placeholderExplanation,
		Position:     position,
		Answers:      DefaultAnswers(domain.QuestionTypeMultipleChoice),
	}
}

// DefaultAnswers returns the canonical answer set for a question type, with
// the first option marked correct.
func DefaultAnswers(qt domain.QuestionType) []domain.GeneratedAnswer {
	if qt == domain.QuestionTypeBoolean {
		return []domain.GeneratedAnswer{
			{AnswerText: "True", IsCorrect: true, Position: 0},
			{AnswerText: "False", IsCorrect: false, Position: 1},
		}
	}
	return []domain.GeneratedAnswer{
		{AnswerText: "Option A", IsCorrect: true, Position: 0},
		{AnswerText: "Option B", IsCorrect: false, Position: 1},
		{AnswerText: "Option C", IsCorrect: false, Position: 2},
		{AnswerText: "Option D", IsCorrect: false, Position: 3},
	}
}

// RepairAnswers enforces the type invariants on an answer set: exactly one
// correct answer, exactly 2 options for boolean (padded with True/False),
// exactly 4 for multiple choice (padded with generated options).
func RepairAnswers(qt domain.QuestionType, answers []domain.GeneratedAnswer) []domain.GeneratedAnswer {
	if len(answers) == 0 {
		return DefaultAnswers(qt)
	}

	hasCorrect := false
	for i := range answers {
		if answers[i].IsCorrect {
			if hasCorrect {
				answers[i].IsCorrect = false
			}
			hasCorrect = true
		}
	}
	if !hasCorrect {
		answers[0].IsCorrect = true
	}

	switch qt {
	case domain.QuestionTypeBoolean:
		if len(answers) > domain.BooleanAnswerCount {
			answers = answers[:domain.BooleanAnswerCount]
		}
		for _, text := range []string{"True", "False"}[len(answers):] {
			answers = append(answers, domain.GeneratedAnswer{
				AnswerText: text,
				Position:   len(answers),
			})
		}
	case domain.QuestionTypeMultipleChoice:
		for len(answers) < domain.MultipleChoiceAnswerCount {
			answers = append(answers, domain.GeneratedAnswer{
				AnswerText: fmt.Sprintf("Option %d", len(answers)+1),
				Position:   len(answers),
			})
		}
		answers = answers[:domain.MultipleChoiceAnswerCount]
	}

	// Truncation can drop the only correct answer.
	hasCorrect = false
	for _, a := range answers {
		if a.IsCorrect {
			hasCorrect = true
			break
		}
	}
	if !hasCorrect {
		answers[0].IsCorrect = true
	}
	return answers
}

func coerceAnswer(entry any, index int) domain.GeneratedAnswer {
	obj, ok := entry.(map[string]any)
	if !ok {
		return domain.GeneratedAnswer{
			AnswerText: stringify(entry),
			IsCorrect:  false,
			Position:   index,
		}
	}
	return domain.GeneratedAnswer{
		AnswerText: stringField(obj, "answer_text", fmt.Sprintf("Option %d", index+1)),
		IsCorrect:  boolField(obj, "is_correct"),
		Position:   intField(obj, "position", index),
	}
}

func stringField(obj map[string]any, key, fallback string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return fallback
		}
		return s
	}
	return stringify(v)
}

func boolField(obj map[string]any, key string) bool {
	switch v := obj[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case json.Number:
		n, err := v.Float64()
		return err == nil && n != 0
	default:
		return false
	}
}

func intField(obj map[string]any, key string, fallback int) int {
	switch v := obj[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}
