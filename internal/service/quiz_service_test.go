package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{
			DefaultQuestionCount: 5,
		},
	}
}

func newQuizFixture() (*MockQuizRepository, *MockDocumentRepository, *MockHistoryRepository, *MockPipeline, QuizService) {
	quizRepo := new(MockQuizRepository)
	docRepo := new(MockDocumentRepository)
	historyRepo := new(MockHistoryRepository)
	pipeline := new(MockPipeline)
	svc := NewQuizService(quizRepo, docRepo, historyRepo, &fakeTxManager{}, pipeline, testConfig())
	return quizRepo, docRepo, historyRepo, pipeline, svc
}

func generatedSet(n int) []*domain.GeneratedQuestion {
	out := make([]*domain.GeneratedQuestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &domain.GeneratedQuestion{
			QuestionText: "Generated question",
			QuestionType: domain.QuestionTypeMultipleChoice,
			Position:     i,
			Answers: []domain.GeneratedAnswer{
				{AnswerText: "Right", IsCorrect: true, Position: 0},
				{AnswerText: "Wrong 1", IsCorrect: false, Position: 1},
				{AnswerText: "Wrong 2", IsCorrect: false, Position: 2},
				{AnswerText: "Wrong 3", IsCorrect: false, Position: 3},
			},
		})
	}
	return out
}

func TestQuizService_CreateQuiz(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		quizRepo, _, historyRepo, pipeline, svc := newQuizFixture()
		ctx := context.Background()

		pipeline.On("GenerateQuiz", ctx, mock.MatchedBy(func(p genai.GenerateParams) bool {
			return p.Topic == "Go concurrency" && p.QuestionCount == 3
		})).Return(generatedSet(3), nil)
		quizRepo.On("CreateQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
			return q.Title == "My Quiz" && len(q.Questions) == 3
		})).Return(nil)
		historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
			return s.EntityKind == domain.EntityKindQuiz &&
				s.Action == domain.ActionCreate &&
				s.ActorID == 1 &&
				!s.HasState()
		})).Return(nil)

		resp, err := svc.CreateQuiz(ctx, 1, &dto.CreateQuizRequest{
			Title:         "My Quiz",
			Topic:         "Go concurrency",
			QuestionCount: 3,
		})

		require.NoError(t, err)
		assert.Equal(t, "My Quiz", resp.Title)
		assert.Len(t, resp.Questions, 3)
		quizRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
	})

	t.Run("ZeroCountUsesDefault", func(t *testing.T) {
		quizRepo, _, historyRepo, pipeline, svc := newQuizFixture()
		ctx := context.Background()

		pipeline.On("GenerateQuiz", ctx, mock.MatchedBy(func(p genai.GenerateParams) bool {
			return p.QuestionCount == 5
		})).Return(generatedSet(5), nil)
		quizRepo.On("CreateQuiz", mock.Anything, mock.Anything).Return(nil)
		historyRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.CreateQuiz(ctx, 1, &dto.CreateQuizRequest{Title: "T", Topic: "Go"})

		require.NoError(t, err)
		assert.Len(t, resp.Questions, 5)
	})

	t.Run("AssemblesDocumentContext", func(t *testing.T) {
		quizRepo, docRepo, historyRepo, pipeline, svc := newQuizFixture()
		ctx := context.Background()

		docRepo.On("GetDocumentsByIDs", ctx, []int64{7}).Return([]*domain.Document{
			{ID: 7, Filename: "notes.pdf", FileType: "pdf", Content: "channels block until ready"},
		}, nil)
		pipeline.On("GenerateQuiz", ctx, mock.MatchedBy(func(p genai.GenerateParams) bool {
			return p.DocumentContext == "--- Content from notes.pdf ---\nchannels block until ready\n\n"
		})).Return(generatedSet(2), nil)
		quizRepo.On("CreateQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
			return len(q.DocumentSources) == 1 && q.DocumentSources[0].Filename == "notes.pdf"
		})).Return(nil)
		historyRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.CreateQuiz(ctx, 1, &dto.CreateQuizRequest{
			Title:         "Grounded",
			Topic:         "Go",
			QuestionCount: 2,
			DocumentIDs:   []int64{7},
		})

		require.NoError(t, err)
		require.Len(t, resp.DocumentSources, 1)
		docRepo.AssertExpectations(t)
		pipeline.AssertExpectations(t)
	})

	t.Run("GenerationFailureLeavesNothingBehind", func(t *testing.T) {
		quizRepo, _, historyRepo, pipeline, svc := newQuizFixture()
		ctx := context.Background()

		pipeline.On("GenerateQuiz", ctx, mock.Anything).
			Return(nil, domain.NewGenerationFailedError(errors.New("provider down")))

		_, err := svc.CreateQuiz(ctx, 1, &dto.CreateQuizRequest{Title: "T", Topic: "Go", QuestionCount: 2})

		require.Error(t, err)
		quizRepo.AssertNotCalled(t, "CreateQuiz", mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestQuizService_UpdateQuiz(t *testing.T) {
	t.Run("RecordsPreviousMetadata", func(t *testing.T) {
		quizRepo, _, historyRepo, _, svc := newQuizFixture()
		ctx := context.Background()

		quiz := &domain.Quiz{ID: 10, UserID: 1, Title: "Old Title", Topic: "Go", UseDefaultPrompt: true}
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)

		historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
			var state domain.QuizState
			if err := json.Unmarshal(s.PreviousState, &state); err != nil {
				return false
			}
			// Metadata updates never record the question collection.
			return s.Action == domain.ActionUpdate &&
				state.Title != nil && *state.Title == "Old Title" &&
				state.Questions == nil
		})).Return(nil)
		quizRepo.On("UpdateQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
			return q.Title == "New Title"
		})).Return(nil)

		resp, err := svc.UpdateQuiz(ctx, 1, 10, &dto.UpdateQuizRequest{Title: strPtr("New Title")})

		require.NoError(t, err)
		assert.Equal(t, "New Title", resp.Title)
		historyRepo.AssertExpectations(t)
		quizRepo.AssertExpectations(t)
	})

	t.Run("NilFieldsLeftUntouched", func(t *testing.T) {
		quizRepo, _, historyRepo, _, svc := newQuizFixture()
		ctx := context.Background()

		quiz := &domain.Quiz{ID: 10, UserID: 1, Title: "Keep", Topic: "Go", Description: "desc"}
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)
		historyRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		quizRepo.On("UpdateQuiz", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.UpdateQuiz(ctx, 1, 10, &dto.UpdateQuizRequest{Description: strPtr("changed")})

		require.NoError(t, err)
		assert.Equal(t, "Keep", resp.Title)
		assert.Equal(t, "changed", resp.Description)
	})

	t.Run("ForeignQuizReturnsNotFound", func(t *testing.T) {
		quizRepo, _, _, _, svc := newQuizFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 2}, nil)

		_, err := svc.UpdateQuiz(ctx, 1, 10, &dto.UpdateQuizRequest{Title: strPtr("x")})

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestQuizService_DeleteQuiz(t *testing.T) {
	t.Run("CascadesHistory", func(t *testing.T) {
		quizRepo, _, historyRepo, _, svc := newQuizFixture()
		ctx := context.Background()

		quiz := &domain.Quiz{
			ID:     10,
			UserID: 1,
			Title:  "Doomed",
			Topic:  "Go",
			Questions: []*domain.Question{
				{ID: 100, QuizID: 10},
				{ID: 101, QuizID: 10},
			},
		}
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)
		historyRepo.On("DeleteByEntity", mock.Anything, domain.EntityKindQuestion, int64(100)).Return(nil)
		historyRepo.On("DeleteByEntity", mock.Anything, domain.EntityKindQuestion, int64(101)).Return(nil)
		historyRepo.On("DeleteByEntity", mock.Anything, domain.EntityKindQuiz, int64(10)).Return(nil)
		quizRepo.On("DeleteQuiz", mock.Anything, int64(10)).Return(nil)

		err := svc.DeleteQuiz(ctx, 1, 10)

		require.NoError(t, err)
		historyRepo.AssertExpectations(t)
		quizRepo.AssertExpectations(t)
	})

	t.Run("MissingQuizReturnsNotFound", func(t *testing.T) {
		quizRepo, _, _, _, svc := newQuizFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(nil, nil)

		err := svc.DeleteQuiz(ctx, 1, 10)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestQuizService_RegenerateQuiz(t *testing.T) {
	quizRepo, _, historyRepo, pipeline, svc := newQuizFixture()
	ctx := context.Background()

	quiz := &domain.Quiz{
		ID:     10,
		UserID: 1,
		Title:  "Refresh Me",
		Topic:  "Go testing",
		Questions: []*domain.Question{
			{ID: 100, QuizID: 10, QuestionText: "old question", QuestionType: domain.QuestionTypeMultipleChoice},
			{ID: 101, QuizID: 10, QuestionText: "another old question", QuestionType: domain.QuestionTypeBoolean},
		},
		UseDefaultPrompt: true,
	}
	quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)

	pipeline.On("GenerateQuiz", ctx, mock.MatchedBy(func(p genai.GenerateParams) bool {
		return p.Topic == "Go testing" && p.QuestionCount == 2
	})).Return(generatedSet(2), nil)

	// The full question set is captured so the regeneration can be reverted.
	historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		var state domain.QuizState
		if err := json.Unmarshal(s.PreviousState, &state); err != nil {
			return false
		}
		return s.Action == domain.ActionRegenerate &&
			state.Questions != nil && len(*state.Questions) == 2 &&
			*(*state.Questions)[0].QuestionText == "old question"
	})).Return(nil)
	quizRepo.On("ReplaceQuestions", mock.Anything, int64(10), mock.MatchedBy(func(qs []*domain.Question) bool {
		return len(qs) == 2 && qs[0].QuestionText == "Generated question"
	})).Return(nil)

	resp, err := svc.RegenerateQuiz(ctx, 1, 10)

	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "Generated question", resp.Questions[0].QuestionText)
	historyRepo.AssertExpectations(t)
	quizRepo.AssertExpectations(t)
	pipeline.AssertExpectations(t)
}

func TestQuizService_ListQuizzes(t *testing.T) {
	quizRepo, _, _, _, svc := newQuizFixture()
	ctx := context.Background()

	quizRepo.On("ListQuizzesByUser", ctx, int64(1)).Return([]*domain.Quiz{
		{ID: 2, UserID: 1, Title: "Newer", Topic: "Go"},
		{ID: 1, UserID: 1, Title: "Older", Topic: "Go"},
	}, nil)

	out, err := svc.ListQuizzes(ctx, 1)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Newer", out[0].Title)
}
