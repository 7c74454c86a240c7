package genai

import (
	"fmt"
	"strings"

	"quizforge/internal/domain"
)

// DefaultDocumentCharBudget bounds how much document context fits into one
// prompt; DefaultRetryCharBudget is the tighter bound used for the simplified
// retry prompt.
const (
	DefaultDocumentCharBudget = 50000
	DefaultRetryCharBudget    = 10000
)

// DefaultInstructionTemplate is the system instruction used when the caller
// supplies no custom prompt.
const DefaultInstructionTemplate = `Your task is to generate a comprehensive quiz based on the provided topic or document content.
Follow these guidelines carefully:

1. Question Generation Rules:
- Generate clear, specific questions with detailed question text (not just "Question 1")
- Create questions directly related to the topic
- Ensure questions test comprehension and critical thinking
- Mix difficulty levels (easy, medium, challenging)

2. Question Type Distribution:
- 20% of questions should be boolean (true/false) type
- 80% of questions should be multiple-choice with 3-6 options
- Ensure ONE and only ONE correct answer per question

3. JSON Output Structure:
Respond with a VALID JSON array with this exact structure:
[{
    "question_text": "Quiz ready text of the question",
    "question_type": "boolean" or "multiple_choice",
    "explanation": "Quiz ready concise explanation of the correct answer",
    "position": 0-based question index,
    "answers": [
        {
            "answer_text": "Quiz ready full text of the answer",
            "is_correct": true or false,
            "position": 0-based answer index
        }
    ]
}]

4. Special Instructions:
- If document content is provided, base questions primarily on that content
- If only a topic is given, generate general knowledge questions about that topic
- For boolean questions, ensure the statements are clear and unambiguous
- For multiple-choice questions, make all options relevant to the question
- Provide informative explanations that teach the concept
- Do not respond with option A, option B and so on`

// PromptBuilder assembles generation prompts. It is pure and deterministic;
// the same inputs always produce the same prompt string.
type PromptBuilder struct {
	instructionTemplate string
}

// NewPromptBuilder returns a builder using the given instruction template,
// or the default template when empty.
func NewPromptBuilder(template string) *PromptBuilder {
	if template == "" {
		template = DefaultInstructionTemplate
	}
	return &PromptBuilder{instructionTemplate: template}
}

// Build assembles a quiz-generation prompt from the topic, desired question
// count, an optional caller-specific request and an optional document-context
// block bounded to budget characters (truncated with an ellipsis when over).
func (b *PromptBuilder) Build(topic string, questionCount int, customPrompt, documentContext string, budget int) string {
	var sb strings.Builder
	sb.WriteString(b.template(customPrompt))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Number of questions: %d\n\n", questionCount)

	if documentContext != "" {
		sb.WriteString("Base every question strictly on the following document content:\n")
		sb.WriteString(TruncateContext(documentContext, budget))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Respond ONLY with a valid JSON array of questions.")
	return sb.String()
}

// BuildRegenerate assembles a prompt that regenerates a single question at a
// known position.
func (b *PromptBuilder) BuildRegenerate(topic string, position int, questionType domain.QuestionType, customPrompt string) string {
	var sb strings.Builder
	sb.WriteString(b.template(customPrompt))
	sb.WriteString("\n\nRegenerate a single quiz question with these specifications:\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Question Number: %d\n", position)
	fmt.Fprintf(&sb, "Question Type: %s\n\n", questionType)
	sb.WriteString("Respond ONLY with a valid JSON object for the question.")
	return sb.String()
}

// BuildTypeChange assembles a prompt converting an existing question to a new
// type while keeping its text as close to the original as possible.
func (b *PromptBuilder) BuildTypeChange(questionText string, newType domain.QuestionType, topic, customPrompt string) string {
	var sb strings.Builder
	sb.WriteString(b.template(customPrompt))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "I have this quiz question on the topic %q:\n%q\n\n", topic, questionText)
	fmt.Fprintf(&sb, "Convert it to a %s question. Keep the original question text as similar as possible.\n", newType)
	sb.WriteString("For boolean, provide True/False options with exactly one correct answer.\n")
	sb.WriteString("For multiple choice, provide 4 options with exactly one correct answer.\n")
	sb.WriteString("Include a brief explanation of the correct answer.\n\n")
	sb.WriteString("Respond ONLY with a valid JSON object.")
	return sb.String()
}

func (b *PromptBuilder) template(customPrompt string) string {
	if customPrompt != "" {
		return customPrompt
	}
	return b.instructionTemplate
}

// TruncateContext bounds text to at most budget characters, appending an
// ellipsis marker when truncated. A non-positive budget disables truncation.
func TruncateContext(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	return text[:budget] + "..."
}
