package service

import (
	"context"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/genai"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// QuestionService defines the interface for question-level operations
type QuestionService interface {
	AddQuestion(ctx context.Context, userID, quizID int64, req *dto.AddQuestionRequest) (*dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, userID, questionID int64, req *dto.UpdateQuestionRequest) (*dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, userID, questionID int64) error
	RegenerateQuestion(ctx context.Context, userID, questionID int64) (*dto.QuestionResponse, error)
	ChangeQuestionType(ctx context.Context, userID, questionID int64, req *dto.ChangeQuestionTypeRequest) (*dto.QuestionResponse, error)
}

// questionService implements QuestionService
type questionService struct {
	quizRepo    domain.QuizRepository
	historyRepo domain.HistoryRepository
	txManager   domain.TransactionManager
	pipeline    GenerationPipeline
}

// NewQuestionService creates a new instance of questionService
func NewQuestionService(
	quizRepo domain.QuizRepository,
	historyRepo domain.HistoryRepository,
	txManager domain.TransactionManager,
	pipeline GenerationPipeline,
) QuestionService {
	return &questionService{
		quizRepo:    quizRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		pipeline:    pipeline,
	}
}

// AddQuestion implements QuestionService. The question is appended at the end
// of the quiz; a question without answers gets the type's default answer set.
func (s *questionService) AddQuestion(ctx context.Context, userID, quizID int64, req *dto.AddQuestionRequest) (*dto.QuestionResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	questionType := domain.QuestionTypeMultipleChoice
	if req.QuestionType != "" {
		parsed, ok := domain.ParseQuestionType(req.QuestionType)
		if !ok {
			return nil, domain.NewInvalidFormatError("question_type", req.QuestionType)
		}
		questionType = parsed
	}

	count, err := s.quizRepo.CountQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count questions", err)
	}

	question := &domain.Question{
		QuizID:       quiz.ID,
		QuestionText: req.QuestionText,
		QuestionType: questionType,
		Explanation:  req.Explanation,
		Position:     count,
	}
	if len(req.Answers) > 0 {
		question.Answers = toDomainAnswers(req.Answers)
	} else if questionType != domain.QuestionTypeOpenEnded {
		for _, a := range genai.DefaultAnswers(questionType) {
			question.Answers = append(question.Answers, &domain.Answer{
				AnswerText: a.AnswerText,
				IsCorrect:  a.IsCorrect,
				Position:   a.Position,
			})
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.CreateQuestion(txCtx, question); err != nil {
			return err
		}
		return s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind: domain.EntityKindQuestion,
			EntityID:   question.ID,
			ActorID:    userID,
			Action:     domain.ActionCreate,
		})
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to add question", err)
	}

	response := dto.ToQuestionResponse(question)
	return &response, nil
}

// UpdateQuestion implements QuestionService. Nil request fields are left
// untouched; a non-nil answer list replaces the whole set.
func (s *questionService) UpdateQuestion(ctx context.Context, userID, questionID int64, req *dto.UpdateQuestionRequest) (*dto.QuestionResponse, error) {
	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureQuestionState(question))
	if err != nil {
		return nil, err
	}

	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.QuestionType != nil {
		parsed, ok := domain.ParseQuestionType(*req.QuestionType)
		if !ok {
			return nil, domain.NewInvalidFormatError("question_type", *req.QuestionType)
		}
		question.QuestionType = parsed
	}
	if req.Explanation != nil {
		question.Explanation = *req.Explanation
	}
	if req.Position != nil {
		question.Position = *req.Position
	}
	replaceAnswers := req.Answers != nil
	if replaceAnswers {
		question.Answers = toDomainAnswers(*req.Answers)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuestion,
			EntityID:      question.ID,
			ActorID:       userID,
			Action:        domain.ActionUpdate,
			PreviousState: previous,
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

	response := dto.ToQuestionResponse(question)
	return &response, nil
}

// DeleteQuestion implements QuestionService. The question's history goes with
// it.
func (s *questionService) DeleteQuestion(ctx context.Context, userID, questionID int64) error {
	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.DeleteByEntity(txCtx, domain.EntityKindQuestion, question.ID); err != nil {
			return err
		}
		return s.quizRepo.DeleteQuestion(txCtx, question.ID)
	})
	if err != nil {
		return err
	}

	logger.Get().Info("Deleted question",
		zap.Int64("question_id", questionID),
		zap.Int64("user_id", userID))
	return nil
}

// RegenerateQuestion implements QuestionService. Position and quiz membership
// are preserved; text, type and answers come from the pipeline.
func (s *questionService) RegenerateQuestion(ctx context.Context, userID, questionID int64) (*dto.QuestionResponse, error) {
	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.ownedQuiz(ctx, userID, question.QuizID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureQuestionState(question))
	if err != nil {
		return nil, err
	}

	generated, err := s.pipeline.RegenerateQuestion(ctx, quiz.Topic, question.Position,
		domain.NormalizeQuestionType(string(question.QuestionType)), quiz.EffectivePrompt())
	if err != nil {
		return nil, err
	}

	question.QuestionText = generated.QuestionText
	question.QuestionType = generated.QuestionType
	question.Explanation = generated.Explanation
	question.Answers = toDomainGeneratedAnswers(generated.Answers)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuestion,
			EntityID:      question.ID,
			ActorID:       userID,
			Action:        domain.ActionRegenerate,
			PreviousState: previous,
		}); err != nil {
			return err
		}
		if err := s.quizRepo.UpdateQuestion(txCtx, question); err != nil {
			return err
		}
		return s.quizRepo.ReplaceAnswers(txCtx, question.ID, question.Answers)
	})
	if err != nil {
		return nil, err
	}

	response := dto.ToQuestionResponse(question)
	return &response, nil
}

// ChangeQuestionType implements QuestionService. The conversion itself never
// fails once the question is loaded; an unusable provider response falls back
// to the target type's default answers.
func (s *questionService) ChangeQuestionType(ctx context.Context, userID, questionID int64, req *dto.ChangeQuestionTypeRequest) (*dto.QuestionResponse, error) {
	newType, ok := domain.ParseQuestionType(req.NewType)
	if !ok || newType == domain.QuestionTypeOpenEnded {
		return nil, domain.NewInvalidFormatError("new_type", req.NewType)
	}

	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.ownedQuiz(ctx, userID, question.QuizID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureQuestionState(question))
	if err != nil {
		return nil, err
	}

	current := &domain.GeneratedQuestion{
		QuestionText: question.QuestionText,
		QuestionType: question.QuestionType,
		Explanation:  question.Explanation,
		Position:     question.Position,
	}
	converted := s.pipeline.ChangeQuestionType(ctx, current, newType, quiz.Topic, quiz.EffectivePrompt())

	question.QuestionText = converted.QuestionText
	question.QuestionType = converted.QuestionType
	question.Explanation = converted.Explanation
	question.Answers = toDomainGeneratedAnswers(converted.Answers)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindQuestion,
			EntityID:      question.ID,
			ActorID:       userID,
			Action:        domain.ActionUpdate,
			PreviousState: previous,
		}); err != nil {
			return err
		}
		if err := s.quizRepo.UpdateQuestion(txCtx, question); err != nil {
			return err
		}
		return s.quizRepo.ReplaceAnswers(txCtx, question.ID, question.Answers)
	})
	if err != nil {
		return nil, err
	}

	response := dto.ToQuestionResponse(question)
	return &response, nil
}

func (s *questionService) ownedQuiz(ctx context.Context, userID, quizID int64) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

// ownedQuestion loads a question and checks ownership through its quiz.
func (s *questionService) ownedQuestion(ctx context.Context, userID, questionID int64) (*domain.Question, error) {
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

func toDomainAnswers(inputs []dto.AnswerInput) []*domain.Answer {
	answers := make([]*domain.Answer, 0, len(inputs))
	for _, in := range inputs {
		answers = append(answers, &domain.Answer{
			AnswerText: in.AnswerText,
			IsCorrect:  in.IsCorrect,
			Position:   in.Position,
		})
	}
	return answers
}

func toDomainGeneratedAnswers(generated []domain.GeneratedAnswer) []*domain.Answer {
	answers := make([]*domain.Answer, 0, len(generated))
	for _, g := range generated {
		answers = append(answers, &domain.Answer{
			AnswerText: g.AnswerText,
			IsCorrect:  g.IsCorrect,
			Position:   g.Position,
		})
	}
	return answers
}
