package llm

import (
	"context"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"github.com/tmc/langchaingo/llms"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const defaultCallTimeout = 60 * time.Second

// OpenAIGenerator implements domain.TextGenerator on top of the LangchainGo
// OpenAI client.
type OpenAIGenerator struct {
	llm     *openaiLLM.LLM
	timeout time.Duration
}

// NewOpenAIGenerator creates a new OpenAIGenerator.
func NewOpenAIGenerator(apiKey, modelName string, timeout time.Duration) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	client, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client: %w", err)
	}

	return &OpenAIGenerator{llm: client, timeout: timeout}, nil
}

// Complete sends a single prompt and returns the raw completion text.
// Failures surface as LLM_SERVICE_ERROR so callers can distinguish a dead
// provider from malformed output.
func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(0.7),
	)
	if err != nil {
		logger.Get().Error("OpenAI completion call failed", zap.Error(err))
		return "", domain.NewLLMServiceError(fmt.Errorf("openai completion failed: %w", err))
	}
	return response, nil
}
