package genai

import (
	"context"
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// Orchestrator drives the generate → parse → normalize pipeline against an
// untrusted generation provider. Provider and retriever handles are injected
// so tests can substitute fakes.
type Orchestrator struct {
	generator   domain.TextGenerator
	retriever   domain.Retriever // optional, nil disables grounding retrieval
	prompts     *PromptBuilder
	docBudget   int
	retryBudget int
	topK        int
}

// GenerateParams describes one quiz-generation request.
type GenerateParams struct {
	Topic         string
	QuestionCount int
	CustomPrompt  string
	// DocumentContext is the caller-supplied full-document fallback, used
	// when retrieval is unavailable or returns nothing.
	DocumentContext string
	// DocumentIDs select the corpus for semantic retrieval.
	DocumentIDs []int64
}

// NewOrchestrator creates an Orchestrator. retriever may be nil. Budgets
// default when non-positive.
func NewOrchestrator(generator domain.TextGenerator, retriever domain.Retriever, prompts *PromptBuilder, docBudget, retryBudget, topK int) *Orchestrator {
	if prompts == nil {
		prompts = NewPromptBuilder("")
	}
	if docBudget <= 0 {
		docBudget = DefaultDocumentCharBudget
	}
	if retryBudget <= 0 {
		retryBudget = DefaultRetryCharBudget
	}
	if topK <= 0 {
		topK = 5
	}
	return &Orchestrator{
		generator:   generator,
		retriever:   retriever,
		prompts:     prompts,
		docBudget:   docBudget,
		retryBudget: retryBudget,
		topK:        topK,
	}
}

// GenerateQuiz produces exactly QuestionCount validated questions with
// positions 0..N-1. Malformed provider output is repaired or replaced with
// placeholders; only a provider that yields nothing on both the primary and
// the simplified retry attempt surfaces as a GENERATION_FAILED error.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, p GenerateParams) ([]*domain.GeneratedQuestion, error) {
	docContext := o.resolveContext(ctx, p)

	prompt := o.prompts.Build(p.Topic, p.QuestionCount, p.CustomPrompt, docContext, o.docBudget)
	parsed, ok, firstErr := o.completeAndParse(ctx, prompt)

	if !ok {
		// One retry with a shorter prompt restating the same requirements.
		retryPrompt := o.prompts.Build(p.Topic, p.QuestionCount, p.CustomPrompt, docContext, o.retryBudget)
		var retryErr error
		parsed, ok, retryErr = o.completeAndParse(ctx, retryPrompt)
		if !ok && firstErr != nil && retryErr != nil {
			return nil, domain.NewGenerationFailedError(retryErr)
		}
	}

	items := coerceSequence(parsed)
	if len(items) > p.QuestionCount {
		items = items[:p.QuestionCount]
	}

	questions := make([]*domain.GeneratedQuestion, 0, p.QuestionCount)
	for i, item := range items {
		questions = append(questions, Normalize(item, i))
	}
	for len(questions) < p.QuestionCount {
		questions = append(questions, Placeholder(len(questions)))
	}

	logger.Get().Info("Generated quiz questions",
		zap.String("topic", p.Topic),
		zap.Int("requested", p.QuestionCount),
		zap.Int("from_provider", len(items)))
	return questions, nil
}

// RegenerateQuestion produces a single validated question preserving the
// caller-supplied position. It fails only when the provider yields nothing on
// both attempts.
func (o *Orchestrator) RegenerateQuestion(ctx context.Context, topic string, position int, questionType domain.QuestionType, customPrompt string) (*domain.GeneratedQuestion, error) {
	prompt := o.prompts.BuildRegenerate(topic, position, questionType, customPrompt)
	parsed, ok, firstErr := o.completeAndParse(ctx, prompt)
	if !ok {
		var retryErr error
		parsed, ok, retryErr = o.completeAndParse(ctx, prompt)
		if !ok && firstErr != nil && retryErr != nil {
			return nil, domain.NewGenerationFailedError(retryErr)
		}
	}
	return Normalize(firstItem(parsed), position), nil
}

// ChangeQuestionType converts a question to a new type through the pipeline.
// It never fails: when the provider yields nothing usable, the deterministic
// fallback keeps the original text and position and replaces only the answer
// set with the new type's defaults.
func (o *Orchestrator) ChangeQuestionType(ctx context.Context, current *domain.GeneratedQuestion, newType domain.QuestionType, topic, customPrompt string) *domain.GeneratedQuestion {
	prompt := o.prompts.BuildTypeChange(current.QuestionText, newType, topic, customPrompt)
	parsed, ok, _ := o.completeAndParse(ctx, prompt)
	if !ok {
		logger.Get().Warn("Type change generation failed, falling back to default answers",
			zap.String("topic", topic),
			zap.String("new_type", string(newType)))
		return typeChangeFallback(current, newType)
	}

	obj, isObj := firstItem(parsed).(map[string]any)
	if !isObj {
		return typeChangeFallback(current, newType)
	}
	// Keep the original text when the provider omitted it, and pin the
	// requested type regardless of what came back.
	if s, _ := obj["question_text"].(string); s == "" {
		obj["question_text"] = current.QuestionText
	}
	obj["question_type"] = string(newType)
	converted := Normalize(obj, current.Position)
	converted.QuestionType = newType
	converted.Answers = RepairAnswers(newType, converted.Answers)
	return converted
}

func typeChangeFallback(current *domain.GeneratedQuestion, newType domain.QuestionType) *domain.GeneratedQuestion {
	return &domain.GeneratedQuestion{
		QuestionText: current.QuestionText,
		QuestionType: newType,
		Explanation:  current.Explanation,
		Position:     current.Position,
		Answers:      DefaultAnswers(newType),
	}
}

// completeAndParse invokes the provider once and extracts a JSON value from
// its output. Provider failure and an empty response are treated identically.
func (o *Orchestrator) completeAndParse(ctx context.Context, prompt string) (any, bool, error) {
	raw, err := o.generator.Complete(ctx, prompt)
	if err != nil {
		logger.Get().Warn("Generation provider call failed", zap.Error(err))
		return nil, false, err
	}
	if strings.TrimSpace(raw) == "" {
		err = domain.NewLLMServiceError(nil)
		logger.Get().Warn("Generation provider returned empty response")
		return nil, false, err
	}
	parsed, ok := ExtractJSON(raw)
	return parsed, ok, nil
}

// resolveContext prefers ranked retrieval fragments over the caller-supplied
// full document text.
func (o *Orchestrator) resolveContext(ctx context.Context, p GenerateParams) string {
	if o.retriever == nil || len(p.DocumentIDs) == 0 {
		return p.DocumentContext
	}
	chunks, err := o.retriever.FindRelevant(ctx, p.Topic, o.topK, p.DocumentIDs)
	if err != nil {
		logger.Get().Warn("Retrieval failed, falling back to full document context", zap.Error(err))
		return p.DocumentContext
	}
	if len(chunks) == 0 {
		return p.DocumentContext
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// coerceSequence wraps a bare object in a singleton slice; anything that is
// neither a sequence nor an object becomes empty.
func coerceSequence(parsed any) []any {
	switch v := parsed.(type) {
	case []any:
		return v
	case map[string]any:
		return []any{v}
	default:
		return nil
	}
}

func firstItem(parsed any) any {
	if list, ok := parsed.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return parsed
}
