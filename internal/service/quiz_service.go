package service

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/genai"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// QuizService defines the interface for quiz-level operations
type QuizService interface {
	CreateQuiz(ctx context.Context, userID int64, req *dto.CreateQuizRequest) (*dto.QuizResponse, error)
	GetQuiz(ctx context.Context, userID, quizID int64) (*dto.QuizResponse, error)
	ListQuizzes(ctx context.Context, userID int64) ([]dto.QuizSummaryResponse, error)
	UpdateQuiz(ctx context.Context, userID, quizID int64, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error)
	DeleteQuiz(ctx context.Context, userID, quizID int64) error
	RegenerateQuiz(ctx context.Context, userID, quizID int64) (*dto.QuizResponse, error)
}

// quizService implements QuizService
type quizService struct {
	quizRepo    domain.QuizRepository
	docRepo     domain.DocumentRepository
	historyRepo domain.HistoryRepository
	txManager   domain.TransactionManager
	pipeline    GenerationPipeline
	cfg         *config.Config
}

// NewQuizService creates a new instance of quizService
func NewQuizService(
	quizRepo domain.QuizRepository,
	docRepo domain.DocumentRepository,
	historyRepo domain.HistoryRepository,
	txManager domain.TransactionManager,
	pipeline GenerationPipeline,
	cfg *config.Config,
) QuizService {
	return &quizService{
		quizRepo:    quizRepo,
		docRepo:     docRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		pipeline:    pipeline,
		cfg:         cfg,
	}
}

// CreateQuiz implements QuizService. Generation runs outside the transaction;
// only the persist-plus-history pair is atomic.
func (s *quizService) CreateQuiz(ctx context.Context, userID int64, req *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
	questionCount := req.QuestionCount
	if questionCount <= 0 {
		questionCount = s.cfg.Generation.DefaultQuestionCount
	}

	docContext, sources, err := s.assembleDocumentContext(ctx, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	generated, err := s.pipeline.GenerateQuiz(ctx, genai.GenerateParams{
		Topic:           req.Topic,
		QuestionCount:   questionCount,
		CustomPrompt:    req.CustomPrompt,
		DocumentContext: docContext,
		DocumentIDs:     req.DocumentIDs,
	})
	if err != nil {
		return nil, err
	}

	quiz := domain.NewQuiz(userID, req.Title, req.Topic, req.Description)
	quiz.DocumentSources = sources
	if req.CustomPrompt != "" {
		quiz.UseDefaultPrompt = false
		quiz.CustomPrompt = req.CustomPrompt
	}
	for _, g := range generated {
		quiz.Questions = append(quiz.Questions, domain.NewQuestionFromGenerated(0, g))
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.CreateQuiz(txCtx, quiz); err != nil {
			return err
		}
		return s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind: domain.EntityKindQuiz,
			EntityID:   quiz.ID,
			ActorID:    userID,
			Action:     domain.ActionCreate,
		})
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to persist generated quiz", err)
	}

	logger.Get().Info("Created quiz",
		zap.Int64("quiz_id", quiz.ID),
		zap.Int64("user_id", userID),
		zap.Int("questions", len(quiz.Questions)))
	return dto.ToQuizResponse(quiz), nil
}

// GetQuiz implements QuizService
func (s *quizService) GetQuiz(ctx context.Context, userID, quizID int64) (*dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	return dto.ToQuizResponse(quiz), nil
}

// ListQuizzes implements QuizService
func (s *quizService) ListQuizzes(ctx context.Context, userID int64) ([]dto.QuizSummaryResponse, error) {
	quizzes, err := s.quizRepo.ListQuizzesByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	out := make([]dto.QuizSummaryResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, dto.ToQuizSummaryResponse(quiz))
	}
	return out, nil
}

// UpdateQuiz implements QuizService. The pre-mutation metadata is recorded in
// the same transaction as the write.
func (s *quizService) UpdateQuiz(ctx context.Context, userID, quizID int64, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureQuizState(quiz, false))
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Topic != nil {
		quiz.Topic = *req.Topic
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.UseDefaultPrompt != nil {
		quiz.UseDefaultPrompt = *req.UseDefaultPrompt
	}
	if req.CustomPrompt != nil {
		quiz.CustomPrompt = *req.CustomPrompt
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuiz,
			EntityID:      quiz.ID,
			ActorID:       userID,
			Action:        domain.ActionUpdate,
			PreviousState: previous,
		}); err != nil {
			return err
		}
		return s.quizRepo.UpdateQuiz(txCtx, quiz)
	})
	if err != nil {
		return nil, err
	}
	return dto.ToQuizResponse(quiz), nil
}

// DeleteQuiz implements QuizService. Quiz and question history goes with the
// entity; project history referencing the quiz is retained.
func (s *quizService) DeleteQuiz(ctx context.Context, userID, quizID int64) error {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, question := range quiz.Questions {
			if err := s.historyRepo.DeleteByEntity(txCtx, domain.EntityKindQuestion, question.ID); err != nil {
				return err
			}
		}
		if err := s.historyRepo.DeleteByEntity(txCtx, domain.EntityKindQuiz, quiz.ID); err != nil {
			return err
		}
		return s.quizRepo.DeleteQuiz(txCtx, quiz.ID)
	})
	if err != nil {
		return err
	}

	logger.Get().Info("Deleted quiz", zap.Int64("quiz_id", quizID), zap.Int64("user_id", userID))
	return nil
}

// RegenerateQuiz implements QuizService. The full pre-regeneration question
// set is captured so the operation can be reverted.
func (s *quizService) RegenerateQuiz(ctx context.Context, userID, quizID int64) (*dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureQuizState(quiz, true))
	if err != nil {
		return nil, err
	}

	docContext, _, err := s.assembleDocumentContext(ctx, sourceIDs(quiz.DocumentSources))
	if err != nil {
		return nil, err
	}

	questionCount := len(quiz.Questions)
	if questionCount == 0 {
		questionCount = s.cfg.Generation.DefaultQuestionCount
	}

	generated, err := s.pipeline.GenerateQuiz(ctx, genai.GenerateParams{
		Topic:           quiz.Topic,
		QuestionCount:   questionCount,
		CustomPrompt:    quiz.EffectivePrompt(),
		DocumentContext: docContext,
		DocumentIDs:     sourceIDs(quiz.DocumentSources),
	})
	if err != nil {
		return nil, err
	}

	questions := make([]*domain.Question, 0, len(generated))
	for _, g := range generated {
		questions = append(questions, domain.NewQuestionFromGenerated(quiz.ID, g))
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuiz,
			EntityID:      quiz.ID,
			ActorID:       userID,
			Action:        domain.ActionRegenerate,
			PreviousState: previous,
		}); err != nil {
			return err
		}
		return s.quizRepo.ReplaceQuestions(txCtx, quiz.ID, questions)
	})
	if err != nil {
		return nil, err
	}

	quiz.Questions = questions
	logger.Get().Info("Regenerated quiz",
		zap.Int64("quiz_id", quizID),
		zap.Int("questions", len(questions)))
	return dto.ToQuizResponse(quiz), nil
}

// ownedQuiz loads a quiz and enforces ownership. A foreign or missing quiz is
// reported identically as NotFound.
func (s *quizService) ownedQuiz(ctx context.Context, userID, quizID int64) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

// assembleDocumentContext concatenates document contents with per-file
// markers. The orchestrator truncates the result to its budget.
func (s *quizService) assembleDocumentContext(ctx context.Context, documentIDs []int64) (string, []domain.DocumentSource, error) {
	if len(documentIDs) == 0 {
		return "", nil, nil
	}
	docs, err := s.docRepo.GetDocumentsByIDs(ctx, documentIDs)
	if err != nil {
		return "", nil, domain.NewInternalError("Failed to load documents", err)
	}

	var builder strings.Builder
	sources := make([]domain.DocumentSource, 0, len(docs))
	for _, doc := range docs {
		fmt.Fprintf(&builder, "--- Content from %s ---\n%s\n\n", doc.Filename, doc.Content)
		sources = append(sources, domain.DocumentSource{
			ID:       doc.ID,
			Filename: doc.Filename,
			FileType: doc.FileType,
		})
	}
	return builder.String(), sources, nil
}

func sourceIDs(sources []domain.DocumentSource) []int64 {
	ids := make([]int64, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}
	return ids
}
