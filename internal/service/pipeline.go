package service

import (
	"context"

	"quizforge/internal/domain"
	"quizforge/internal/genai"
)

// GenerationPipeline is the slice of the generation orchestrator the services
// depend on. Satisfied by *genai.Orchestrator.
type GenerationPipeline interface {
	GenerateQuiz(ctx context.Context, p genai.GenerateParams) ([]*domain.GeneratedQuestion, error)
	RegenerateQuestion(ctx context.Context, topic string, position int, questionType domain.QuestionType, customPrompt string) (*domain.GeneratedQuestion, error)
	ChangeQuestionType(ctx context.Context, current *domain.GeneratedQuestion, newType domain.QuestionType, topic, customPrompt string) *domain.GeneratedQuestion
}
