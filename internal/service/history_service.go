package service

import (
	"context"
	"encoding/json"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// HistoryService defines the interface for history listing and reverts
type HistoryService interface {
	ListQuizHistory(ctx context.Context, userID, quizID int64, limit int) ([]dto.SnapshotResponse, error)
	ListQuestionHistory(ctx context.Context, userID, questionID int64, limit int) ([]dto.SnapshotResponse, error)
	ListProjectHistory(ctx context.Context, userID, projectID int64, limit int) ([]dto.SnapshotResponse, error)
	ActivityLog(ctx context.Context, userID int64, limit int) ([]dto.SnapshotResponse, error)

	RevertQuiz(ctx context.Context, userID, quizID int64, snapshotID *int64) (*dto.QuizResponse, error)
	RevertQuestion(ctx context.Context, userID, questionID int64, snapshotID *int64) (*dto.QuestionResponse, error)
	RevertProject(ctx context.Context, userID, projectID int64, snapshotID *int64) (*dto.ProjectResponse, error)
}

// historyService implements HistoryService
type historyService struct {
	historyRepo domain.HistoryRepository
	quizRepo    domain.QuizRepository
	projectRepo domain.ProjectRepository
	txManager   domain.TransactionManager
}

// NewHistoryService creates a new instance of historyService
func NewHistoryService(
	historyRepo domain.HistoryRepository,
	quizRepo domain.QuizRepository,
	projectRepo domain.ProjectRepository,
	txManager domain.TransactionManager,
) HistoryService {
	return &historyService{
		historyRepo: historyRepo,
		quizRepo:    quizRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
	}
}

// ListQuizHistory implements HistoryService
func (s *historyService) ListQuizHistory(ctx context.Context, userID, quizID int64, limit int) ([]dto.SnapshotResponse, error) {
	if _, err := s.ownedQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	snapshots, err := s.historyRepo.ListByEntity(ctx, domain.EntityKindQuiz, quizID, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quiz history", err)
	}
	return dto.ToSnapshotResponses(snapshots), nil
}

// ListQuestionHistory implements HistoryService
func (s *historyService) ListQuestionHistory(ctx context.Context, userID, questionID int64, limit int) ([]dto.SnapshotResponse, error) {
	if _, err := s.ownedQuestion(ctx, userID, questionID); err != nil {
		return nil, err
	}
	snapshots, err := s.historyRepo.ListByEntity(ctx, domain.EntityKindQuestion, questionID, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list question history", err)
	}
	return dto.ToSnapshotResponses(snapshots), nil
}

// ListProjectHistory implements HistoryService
func (s *historyService) ListProjectHistory(ctx context.Context, userID, projectID int64, limit int) ([]dto.SnapshotResponse, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	snapshots, err := s.historyRepo.ListByEntity(ctx, domain.EntityKindProject, projectID, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list project history", err)
	}
	return dto.ToSnapshotResponses(snapshots), nil
}

// ActivityLog implements HistoryService. Entries span every entity kind the
// actor touched, newest first.
func (s *historyService) ActivityLog(ctx context.Context, userID int64, limit int) ([]dto.SnapshotResponse, error) {
	snapshots, err := s.historyRepo.ListByActor(ctx, userID, limit)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load activity log", err)
	}
	return dto.ToSnapshotResponses(snapshots), nil
}

// RevertQuiz implements HistoryService. The current state is captured as a
// REVERT snapshot before the stored fields overwrite it, so a revert can
// itself be reverted.
func (s *historyService) RevertQuiz(ctx context.Context, userID, quizID int64, snapshotID *int64) (*dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.selectSnapshot(ctx, domain.EntityKindQuiz, quizID, snapshotID)
	if err != nil {
		return nil, err
	}

	var state domain.QuizState
	if err := json.Unmarshal(snapshot.PreviousState, &state); err != nil {
		return nil, domain.NewInternalError("Stored quiz state is unreadable", err)
	}

	// The REVERT snapshot mirrors the scope of what it overwrites.
	current, err := domain.MarshalState(domain.CaptureQuizState(quiz, state.Questions != nil))
	if err != nil {
		return nil, err
	}

	applyQuizState(quiz, &state)

	var restored []*domain.Question
	if state.Questions != nil {
		restored = make([]*domain.Question, 0, len(*state.Questions))
		for i := range *state.Questions {
			restored = append(restored, questionFromState(quiz.ID, &(*state.Questions)[i], i))
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuiz,
			EntityID:      quiz.ID,
			ActorID:       userID,
			Action:        domain.ActionRevert,
			PreviousState: current,
		}); err != nil {
			return err
		}
		if err := s.quizRepo.UpdateQuiz(txCtx, quiz); err != nil {
			return err
		}
		if restored != nil {
			return s.quizRepo.ReplaceQuestions(txCtx, quiz.ID, restored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if restored != nil {
		quiz.Questions = restored
	}
	logger.Get().Info("Reverted quiz",
		zap.Int64("quiz_id", quizID),
		zap.Int64("snapshot_id", snapshot.ID))
	return dto.ToQuizResponse(quiz), nil
}

// RevertQuestion implements HistoryService.
func (s *historyService) RevertQuestion(ctx context.Context, userID, questionID int64, snapshotID *int64) (*dto.QuestionResponse, error) {
	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.selectSnapshot(ctx, domain.EntityKindQuestion, questionID, snapshotID)
	if err != nil {
		return nil, err
	}

	var state domain.QuestionState
	if err := json.Unmarshal(snapshot.PreviousState, &state); err != nil {
		return nil, domain.NewInternalError("Stored question state is unreadable", err)
	}

	current, err := domain.MarshalState(domain.CaptureQuestionState(question))
	if err != nil {
		return nil, err
	}

	applyQuestionState(question, &state)
	replaceAnswers := state.Answers != nil

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuestion,
			EntityID:      question.ID,
			ActorID:       userID,
			Action:        domain.ActionRevert,
			PreviousState: current,
		}); err != nil {
			return err
		}
		if err := s.quizRepo.UpdateQuestion(txCtx, question); err != nil {
			return err
		}
		if replaceAnswers {
			return s.quizRepo.ReplaceAnswers(txCtx, question.ID, question.Answers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Reverted question",
		zap.Int64("question_id", questionID),
		zap.Int64("snapshot_id", snapshot.ID))
	response := dto.ToQuestionResponse(question)
	return &response, nil
}

// RevertProject implements HistoryService.
func (s *historyService) RevertProject(ctx context.Context, userID, projectID int64, snapshotID *int64) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.selectSnapshot(ctx, domain.EntityKindProject, projectID, snapshotID)
	if err != nil {
		return nil, err
	}

	var state domain.ProjectState
	if err := json.Unmarshal(snapshot.PreviousState, &state); err != nil {
		return nil, domain.NewInternalError("Stored project state is unreadable", err)
	}

	current, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return nil, err
	}

	applyProjectState(project, &state)

	var restored []*domain.ProjectQuiz
	if state.Quizzes != nil {
		restored = make([]*domain.ProjectQuiz, 0, len(*state.Quizzes))
		for _, ref := range *state.Quizzes {
			restored = append(restored, &domain.ProjectQuiz{
				ProjectID: project.ID,
				QuizID:    ref.QuizID,
				Position:  ref.Position,
			})
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindProject,
			EntityID:      project.ID,
			ActorID:       userID,
			Action:        domain.ActionRevert,
			PreviousState: current,
		}); err != nil {
			return err
		}
		if err := s.projectRepo.UpdateProject(txCtx, project); err != nil {
			return err
		}
		if restored != nil {
			return s.projectRepo.ReplaceQuizzes(txCtx, project.ID, restored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if restored != nil {
		project.Quizzes = restored
	}
	logger.Get().Info("Reverted project",
		zap.Int64("project_id", projectID),
		zap.Int64("snapshot_id", snapshot.ID))
	return dto.ToProjectResponse(project), nil
}

// selectSnapshot resolves the revert target: an explicit snapshot id, or the
// latest snapshot with a restorable state. Either way the result is
// guaranteed to carry a previous state.
func (s *historyService) selectSnapshot(ctx context.Context, kind domain.EntityKind, entityID int64, snapshotID *int64) (*domain.Snapshot, error) {
	if snapshotID != nil {
		snapshot, err := s.historyRepo.GetByID(ctx, kind, *snapshotID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to load snapshot", err)
		}
		if snapshot == nil || snapshot.EntityID != entityID || !snapshot.HasState() {
			return nil, domain.NewSnapshotNotFoundError(kind, entityID)
		}
		return snapshot, nil
	}

	snapshot, err := s.historyRepo.LatestWithState(ctx, kind, entityID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load snapshot", err)
	}
	if snapshot == nil {
		return nil, domain.NewSnapshotNotFoundError(kind, entityID)
	}
	return snapshot, nil
}

// applyQuizState overwrites only the fields present in the stored state.
func applyQuizState(quiz *domain.Quiz, state *domain.QuizState) {
	if state.Title != nil {
		quiz.Title = *state.Title
	}
	if state.Topic != nil {
		quiz.Topic = *state.Topic
	}
	if state.Description != nil {
		quiz.Description = *state.Description
	}
	if state.UseDefaultPrompt != nil {
		quiz.UseDefaultPrompt = *state.UseDefaultPrompt
	}
	if state.CustomPrompt != nil {
		quiz.CustomPrompt = *state.CustomPrompt
	}
}

// applyQuestionState overwrites only the fields present in the stored state,
// the answer collection included.
func applyQuestionState(question *domain.Question, state *domain.QuestionState) {
	if state.QuestionText != nil {
		question.QuestionText = *state.QuestionText
	}
	if state.QuestionType != nil {
		if parsed, ok := domain.ParseQuestionType(*state.QuestionType); ok {
			question.QuestionType = parsed
		}
	}
	if state.Explanation != nil {
		question.Explanation = *state.Explanation
	}
	if state.Position != nil {
		question.Position = *state.Position
	}
	if state.Answers != nil {
		answers := make([]*domain.Answer, 0, len(*state.Answers))
		for _, a := range *state.Answers {
			answers = append(answers, &domain.Answer{
				AnswerText: a.AnswerText,
				IsCorrect:  a.IsCorrect,
				Position:   a.Position,
			})
		}
		question.Answers = answers
	}
}

func applyProjectState(project *domain.Project, state *domain.ProjectState) {
	if state.Title != nil {
		project.Title = *state.Title
	}
	if state.Description != nil {
		project.Description = *state.Description
	}
	if state.UseDefaultPrompt != nil {
		project.UseDefaultPrompt = *state.UseDefaultPrompt
	}
	if state.CustomPrompt != nil {
		project.CustomPrompt = *state.CustomPrompt
	}
}

// questionFromState rebuilds a persistable question from a stored state.
// Fields absent from the state fall back to safe defaults; positions follow
// the stored order.
func questionFromState(quizID int64, state *domain.QuestionState, fallbackPosition int) *domain.Question {
	question := &domain.Question{
		QuizID:       quizID,
		QuestionType: domain.QuestionTypeMultipleChoice,
		Position:     fallbackPosition,
	}
	applyQuestionState(question, state)
	return question
}

func (s *historyService) ownedQuiz(ctx context.Context, userID, quizID int64) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

func (s *historyService) ownedQuestion(ctx context.Context, userID, questionID int64) (*domain.Question, error) {
	question, err := s.quizRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load question", err)
	}
	if question == nil {
		return nil, domain.NewQuestionNotFoundError(questionID)
	}
	if _, err := s.ownedQuiz(ctx, userID, question.QuizID); err != nil {
		return nil, domain.NewQuestionNotFoundError(questionID)
	}
	return question, nil
}

func (s *historyService) ownedProject(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load project", err)
	}
	if project == nil || project.UserID != userID {
		return nil, domain.NewProjectNotFoundError(projectID)
	}
	return project, nil
}
