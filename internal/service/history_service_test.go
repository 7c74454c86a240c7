package service

import (
	"context"
	"encoding/json"
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(i int64) *int64 { return &i }

func mustMarshalState(t *testing.T, state any) json.RawMessage {
	t.Helper()
	raw, err := domain.MarshalState(state)
	require.NoError(t, err)
	return raw
}

func newHistoryFixture() (*MockHistoryRepository, *MockQuizRepository, *MockProjectRepository, HistoryService) {
	historyRepo := new(MockHistoryRepository)
	quizRepo := new(MockQuizRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewHistoryService(historyRepo, quizRepo, projectRepo, &fakeTxManager{})
	return historyRepo, quizRepo, projectRepo, svc
}

func TestHistoryService_RevertQuiz(t *testing.T) {
	t.Run("LatestSnapshotRestoresMetadata", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quiz := &domain.Quiz{
			ID:               10,
			UserID:           1,
			Title:            "After Edit",
			Topic:            "Goroutines",
			Description:      "second description",
			UseDefaultPrompt: true,
		}
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)

		stored := mustMarshalState(t, domain.QuizState{
			Title:       strPtr("Before Edit"),
			Description: strPtr("first description"),
		})
		historyRepo.On("LatestWithState", ctx, domain.EntityKindQuiz, int64(10)).
			Return(&domain.Snapshot{
				ID:            5,
				EntityKind:    domain.EntityKindQuiz,
				EntityID:      10,
				Action:        domain.ActionUpdate,
				PreviousState: stored,
			}, nil)

		// The revert must record the pre-revert state so it can be undone.
		historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
			if s.Action != domain.ActionRevert || s.EntityID != 10 {
				return false
			}
			var state domain.QuizState
			if err := json.Unmarshal(s.PreviousState, &state); err != nil {
				return false
			}
			return state.Title != nil && *state.Title == "After Edit" && state.Questions == nil
		})).Return(nil)
		quizRepo.On("UpdateQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
			return q.Title == "Before Edit" && q.Description == "first description"
		})).Return(nil)

		resp, err := svc.RevertQuiz(ctx, 1, 10, nil)

		require.NoError(t, err)
		assert.Equal(t, "Before Edit", resp.Title)
		// Topic was absent from the stored state and must survive untouched.
		assert.Equal(t, "Goroutines", resp.Topic)
		quizRepo.AssertNotCalled(t, "ReplaceQuestions", mock.Anything, mock.Anything, mock.Anything)
		historyRepo.AssertExpectations(t)
		quizRepo.AssertExpectations(t)
	})

	t.Run("RestoresQuestionCollection", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quiz := &domain.Quiz{
			ID:     10,
			UserID: 1,
			Title:  "Concurrency Basics",
			Topic:  "Go",
			Questions: []*domain.Question{
				{ID: 100, QuizID: 10, QuestionText: "regenerated question", QuestionType: domain.QuestionTypeBoolean, Position: 0},
			},
		}
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)

		stored := mustMarshalState(t, domain.QuizState{
			Title: strPtr("Concurrency Basics"),
			Questions: &[]domain.QuestionState{
				{
					QuestionText: strPtr("What does a channel do?"),
					QuestionType: strPtr("multiple_choice"),
					Position:     intPtr(0),
					Answers: &[]domain.AnswerState{
						{AnswerText: "Communicates between goroutines", IsCorrect: true, Position: 0},
						{AnswerText: "Allocates memory", IsCorrect: false, Position: 1},
						{AnswerText: "Schedules threads", IsCorrect: false, Position: 2},
						{AnswerText: "Parses JSON", IsCorrect: false, Position: 3},
					},
				},
			},
		})
		historyRepo.On("LatestWithState", ctx, domain.EntityKindQuiz, int64(10)).
			Return(&domain.Snapshot{ID: 6, EntityKind: domain.EntityKindQuiz, EntityID: 10, Action: domain.ActionRegenerate, PreviousState: stored}, nil)

		// Snapshot written by the revert captures the question set too,
		// because the restored state replaces it.
		historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
			var state domain.QuizState
			if err := json.Unmarshal(s.PreviousState, &state); err != nil {
				return false
			}
			return s.Action == domain.ActionRevert && state.Questions != nil && len(*state.Questions) == 1
		})).Return(nil)
		quizRepo.On("UpdateQuiz", mock.Anything, mock.Anything).Return(nil)
		quizRepo.On("ReplaceQuestions", mock.Anything, int64(10), mock.MatchedBy(func(qs []*domain.Question) bool {
			return len(qs) == 1 &&
				qs[0].QuestionText == "What does a channel do?" &&
				qs[0].QuestionType == domain.QuestionTypeMultipleChoice &&
				len(qs[0].Answers) == 4
		})).Return(nil)

		resp, err := svc.RevertQuiz(ctx, 1, 10, nil)

		require.NoError(t, err)
		require.Len(t, resp.Questions, 1)
		assert.Equal(t, "What does a channel do?", resp.Questions[0].QuestionText)
		historyRepo.AssertExpectations(t)
		quizRepo.AssertExpectations(t)
	})

	t.Run("NoHistoryReturnsNotFound", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)
		historyRepo.On("LatestWithState", ctx, domain.EntityKindQuiz, int64(10)).Return(nil, nil)

		_, err := svc.RevertQuiz(ctx, 1, 10, nil)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
		historyRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("ExplicitSnapshotForOtherQuizReturnsNotFound", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)
		historyRepo.On("GetByID", ctx, domain.EntityKindQuiz, int64(77)).
			Return(&domain.Snapshot{
				ID:            77,
				EntityKind:    domain.EntityKindQuiz,
				EntityID:      99,
				Action:        domain.ActionUpdate,
				PreviousState: json.RawMessage(`{"title":"x"}`),
			}, nil)

		_, err := svc.RevertQuiz(ctx, 1, 10, int64Ptr(77))

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("ExplicitSnapshotWithoutStateReturnsNotFound", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)
		historyRepo.On("GetByID", ctx, domain.EntityKindQuiz, int64(3)).
			Return(&domain.Snapshot{ID: 3, EntityKind: domain.EntityKindQuiz, EntityID: 10, Action: domain.ActionCreate}, nil)

		_, err := svc.RevertQuiz(ctx, 1, 10, int64Ptr(3))

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("ForeignQuizReturnsNotFound", func(t *testing.T) {
		_, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 2}, nil)

		_, err := svc.RevertQuiz(ctx, 1, 10, nil)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestHistoryService_RevertUndoesRevert(t *testing.T) {
	// A revert writes its own REVERT snapshot; picking that snapshot as the
	// explicit target restores the state the first revert overwrote.
	historyRepo, quizRepo, _, svc := newHistoryFixture()
	ctx := context.Background()

	quiz := &domain.Quiz{ID: 10, UserID: 1, Title: "Before Edit", Topic: "Go"}
	quizRepo.On("GetQuizByID", ctx, int64(10)).Return(quiz, nil)

	revertSnapshot := &domain.Snapshot{
		ID:            8,
		EntityKind:    domain.EntityKindQuiz,
		EntityID:      10,
		Action:        domain.ActionRevert,
		PreviousState: mustMarshalState(t, domain.QuizState{Title: strPtr("After Edit")}),
	}
	historyRepo.On("GetByID", ctx, domain.EntityKindQuiz, int64(8)).Return(revertSnapshot, nil)
	historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		return s.Action == domain.ActionRevert
	})).Return(nil)
	quizRepo.On("UpdateQuiz", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.RevertQuiz(ctx, 1, 10, int64Ptr(8))

	require.NoError(t, err)
	assert.Equal(t, "After Edit", resp.Title)
}

func TestHistoryService_RevertQuestion(t *testing.T) {
	t.Run("RestoresAnswers", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		question := &domain.Question{
			ID:           100,
			QuizID:       10,
			QuestionText: "edited text",
			QuestionType: domain.QuestionTypeBoolean,
			Position:     2,
			Answers: []*domain.Answer{
				{AnswerText: "True", IsCorrect: false, Position: 0},
				{AnswerText: "False", IsCorrect: true, Position: 1},
			},
		}
		quizRepo.On("GetQuestionByID", ctx, int64(100)).Return(question, nil)
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)

		stored := mustMarshalState(t, domain.QuestionState{
			QuestionText: strPtr("original text"),
			QuestionType: strPtr("boolean"),
			Answers: &[]domain.AnswerState{
				{AnswerText: "True", IsCorrect: true, Position: 0},
				{AnswerText: "False", IsCorrect: false, Position: 1},
			},
		})
		historyRepo.On("LatestWithState", ctx, domain.EntityKindQuestion, int64(100)).
			Return(&domain.Snapshot{ID: 9, EntityKind: domain.EntityKindQuestion, EntityID: 100, Action: domain.ActionUpdate, PreviousState: stored}, nil)

		historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
			var state domain.QuestionState
			if err := json.Unmarshal(s.PreviousState, &state); err != nil {
				return false
			}
			return s.Action == domain.ActionRevert &&
				s.EntityKind == domain.EntityKindQuestion &&
				state.QuestionText != nil && *state.QuestionText == "edited text"
		})).Return(nil)
		quizRepo.On("UpdateQuestion", mock.Anything, mock.MatchedBy(func(q *domain.Question) bool {
			return q.QuestionText == "original text" && q.Position == 2
		})).Return(nil)
		quizRepo.On("ReplaceAnswers", mock.Anything, int64(100), mock.MatchedBy(func(answers []*domain.Answer) bool {
			return len(answers) == 2 && answers[0].IsCorrect && !answers[1].IsCorrect
		})).Return(nil)

		resp, err := svc.RevertQuestion(ctx, 1, 100, nil)

		require.NoError(t, err)
		assert.Equal(t, "original text", resp.QuestionText)
		historyRepo.AssertExpectations(t)
		quizRepo.AssertExpectations(t)
	})

	t.Run("MetadataOnlyStateKeepsAnswers", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		question := &domain.Question{ID: 100, QuizID: 10, QuestionText: "edited", QuestionType: domain.QuestionTypeMultipleChoice}
		quizRepo.On("GetQuestionByID", ctx, int64(100)).Return(question, nil)
		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)

		stored := mustMarshalState(t, domain.QuestionState{QuestionText: strPtr("original")})
		historyRepo.On("LatestWithState", ctx, domain.EntityKindQuestion, int64(100)).
			Return(&domain.Snapshot{ID: 9, EntityKind: domain.EntityKindQuestion, EntityID: 100, Action: domain.ActionUpdate, PreviousState: stored}, nil)
		historyRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		quizRepo.On("UpdateQuestion", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.RevertQuestion(ctx, 1, 100, nil)

		require.NoError(t, err)
		quizRepo.AssertNotCalled(t, "ReplaceAnswers", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHistoryService_RevertProject(t *testing.T) {
	historyRepo, quizRepo, projectRepo, svc := newHistoryFixture()
	ctx := context.Background()
	_ = quizRepo

	project := &domain.Project{
		ID:     20,
		UserID: 1,
		Title:  "Study Plan",
		Quizzes: []*domain.ProjectQuiz{
			{ProjectID: 20, QuizID: 11, Position: 0},
		},
	}
	projectRepo.On("GetProjectByID", ctx, int64(20)).Return(project, nil)

	stored := mustMarshalState(t, domain.ProjectState{
		Title: strPtr("Study Plan"),
		Quizzes: &[]domain.ProjectQuizRef{
			{QuizID: 11, Position: 0},
			{QuizID: 12, Position: 1},
		},
	})
	historyRepo.On("LatestWithState", ctx, domain.EntityKindProject, int64(20)).
		Return(&domain.Snapshot{ID: 4, EntityKind: domain.EntityKindProject, EntityID: 20, Action: domain.ActionRemoveQuiz, PreviousState: stored}, nil)
	historyRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		return s.Action == domain.ActionRevert && s.EntityKind == domain.EntityKindProject
	})).Return(nil)
	projectRepo.On("UpdateProject", mock.Anything, mock.Anything).Return(nil)
	projectRepo.On("ReplaceQuizzes", mock.Anything, int64(20), mock.MatchedBy(func(quizzes []*domain.ProjectQuiz) bool {
		return len(quizzes) == 2 && quizzes[1].QuizID == 12 && quizzes[1].Position == 1
	})).Return(nil)

	resp, err := svc.RevertProject(ctx, 1, 20, nil)

	require.NoError(t, err)
	require.Len(t, resp.Quizzes, 2)
	assert.Equal(t, int64(12), resp.Quizzes[1].QuizID)
	historyRepo.AssertExpectations(t)
	projectRepo.AssertExpectations(t)
}

func TestHistoryService_Listing(t *testing.T) {
	t.Run("ListQuizHistoryChecksOwnership", func(t *testing.T) {
		_, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 99}, nil)

		_, err := svc.ListQuizHistory(ctx, 1, 10, 20)

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("ListQuizHistoryReturnsEntries", func(t *testing.T) {
		historyRepo, quizRepo, _, svc := newHistoryFixture()
		ctx := context.Background()

		quizRepo.On("GetQuizByID", ctx, int64(10)).Return(&domain.Quiz{ID: 10, UserID: 1}, nil)
		historyRepo.On("ListByEntity", ctx, domain.EntityKindQuiz, int64(10), 20).
			Return([]*domain.Snapshot{
				{ID: 2, EntityKind: domain.EntityKindQuiz, EntityID: 10, Action: domain.ActionUpdate, PreviousState: json.RawMessage(`{"title":"x"}`)},
				{ID: 1, EntityKind: domain.EntityKindQuiz, EntityID: 10, Action: domain.ActionCreate},
			}, nil)

		entries, err := svc.ListQuizHistory(ctx, 1, 10, 20)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].Restorable)
		assert.False(t, entries[1].Restorable)
	})

	t.Run("ActivityLogSpansEntityKinds", func(t *testing.T) {
		historyRepo, _, _, svc := newHistoryFixture()
		ctx := context.Background()

		historyRepo.On("ListByActor", ctx, int64(1), 50).
			Return([]*domain.Snapshot{
				{ID: 3, EntityKind: domain.EntityKindProject, EntityID: 20, Action: domain.ActionAddQuiz},
				{ID: 2, EntityKind: domain.EntityKindQuestion, EntityID: 100, Action: domain.ActionUpdate},
			}, nil)

		entries, err := svc.ActivityLog(ctx, 1, 50)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, string(domain.EntityKindProject), entries[0].EntityKind)
	})
}
