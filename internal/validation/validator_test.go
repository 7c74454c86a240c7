package validation

import (
	"strings"
	"testing"

	"quizforge/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestValidateCreateQuizRequest(t *testing.T) {
	v := NewValidator()

	t.Run("Valid", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{
			Title: "Go Basics", Topic: "Go", QuestionCount: 10,
		})
		assert.Empty(t, errs)
	})

	t.Run("ZeroCountMeansDefault", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{Title: "T", Topic: "Go"})
		assert.Empty(t, errs)
	})

	t.Run("MissingTitleAndTopic", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{})
		assert.Len(t, errs, 2)
	})

	t.Run("WhitespaceTitleRejected", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{Title: "   ", Topic: "Go"})
		assert.Len(t, errs, 1)
		assert.Equal(t, "title", errs[0].Field)
	})

	t.Run("CountOutOfRange", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{
			Title: "T", Topic: "Go", QuestionCount: 51,
		})
		assert.Len(t, errs, 1)
		assert.Equal(t, "question_count", errs[0].Field)
	})

	t.Run("TitleTooLong", func(t *testing.T) {
		errs := v.ValidateCreateQuizRequest(&dto.CreateQuizRequest{
			Title: strings.Repeat("x", 201), Topic: "Go",
		})
		assert.Len(t, errs, 1)
	})
}

func TestValidateAddQuestionRequest(t *testing.T) {
	v := NewValidator()

	t.Run("Valid", func(t *testing.T) {
		errs := v.ValidateAddQuestionRequest(&dto.AddQuestionRequest{
			QuestionText: "What is a goroutine?",
			QuestionType: "multiple_choice",
		})
		assert.Empty(t, errs)
	})

	t.Run("EmptyTypeAllowed", func(t *testing.T) {
		errs := v.ValidateAddQuestionRequest(&dto.AddQuestionRequest{QuestionText: "q"})
		assert.Empty(t, errs)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		errs := v.ValidateAddQuestionRequest(&dto.AddQuestionRequest{
			QuestionText: "q", QuestionType: "essay",
		})
		assert.Len(t, errs, 1)
		assert.Equal(t, "question_type", errs[0].Field)
	})
}

func TestValidateChangeTypeRequest(t *testing.T) {
	v := NewValidator()

	t.Run("BooleanAllowed", func(t *testing.T) {
		assert.Empty(t, v.ValidateChangeTypeRequest(&dto.ChangeQuestionTypeRequest{NewType: "boolean"}))
	})

	t.Run("OpenEndedRejected", func(t *testing.T) {
		errs := v.ValidateChangeTypeRequest(&dto.ChangeQuestionTypeRequest{NewType: "open_ended"})
		assert.Len(t, errs, 1)
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		errs := v.ValidateChangeTypeRequest(&dto.ChangeQuestionTypeRequest{})
		assert.Len(t, errs, 1)
	})
}

func TestValidateReorderRequest(t *testing.T) {
	v := NewValidator()

	t.Run("Valid", func(t *testing.T) {
		assert.Empty(t, v.ValidateReorderRequest(&dto.ReorderQuizzesRequest{QuizIDs: []int64{3, 1, 2}}))
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		errs := v.ValidateReorderRequest(&dto.ReorderQuizzesRequest{})
		assert.Len(t, errs, 1)
		assert.Equal(t, "quiz_ids", errs[0].Field)
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		errs := v.ValidateReorderRequest(&dto.ReorderQuizzesRequest{QuizIDs: []int64{1, 2, 1}})
		assert.Len(t, errs, 1)
	})
}
