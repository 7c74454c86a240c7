package dto

import (
	"time"

	"quizforge/internal/domain"
)

// CreateQuizRequest represents a quiz generation request
// @Description Request body for generating a new quiz
type CreateQuizRequest struct {
	Title         string  `json:"title"`
	Topic         string  `json:"topic"`
	Description   string  `json:"description,omitempty"`
	QuestionCount int     `json:"question_count,omitempty"`
	CustomPrompt  string  `json:"custom_prompt,omitempty"`
	DocumentIDs   []int64 `json:"document_ids,omitempty"`
}

// UpdateQuizRequest carries a partial quiz metadata update. Nil fields are
// left untouched.
type UpdateQuizRequest struct {
	Title            *string `json:"title,omitempty"`
	Topic            *string `json:"topic,omitempty"`
	Description      *string `json:"description,omitempty"`
	UseDefaultPrompt *bool   `json:"use_default_prompt,omitempty"`
	CustomPrompt     *string `json:"custom_prompt,omitempty"`
}

// AnswerResponse represents one answer option in the API response
type AnswerResponse struct {
	ID         int64  `json:"id"`
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
	Position   int    `json:"position"`
}

// QuestionResponse represents a question in the API response
// @Description Question with its answer options
type QuestionResponse struct {
	ID           int64            `json:"id"`
	QuestionText string           `json:"question_text"`
	QuestionType string           `json:"question_type"`
	Explanation  string           `json:"explanation,omitempty"`
	Position     int              `json:"position"`
	Answers      []AnswerResponse `json:"answers"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz with its questions
type QuizResponse struct {
	ID               int64                   `json:"id"`
	Title            string                  `json:"title"`
	Topic            string                  `json:"topic"`
	Description      string                  `json:"description,omitempty"`
	UseDefaultPrompt bool                    `json:"use_default_prompt"`
	CustomPrompt     string                  `json:"custom_prompt,omitempty"`
	DocumentSources  []domain.DocumentSource `json:"document_sources,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Questions        []QuestionResponse      `json:"questions"`
}

// QuizSummaryResponse is the listing form of a quiz, without questions.
type QuizSummaryResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnswerInput is one answer option supplied by the client.
type AnswerInput struct {
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
	Position   int    `json:"position"`
}

// AddQuestionRequest represents a manually authored question
// @Description Request body for adding a question to a quiz
type AddQuestionRequest struct {
	QuestionText string        `json:"question_text"`
	QuestionType string        `json:"question_type"`
	Explanation  string        `json:"explanation,omitempty"`
	Answers      []AnswerInput `json:"answers,omitempty"`
}

// UpdateQuestionRequest carries a partial question update. Nil fields are
// left untouched; a non-nil Answers replaces the whole answer set.
type UpdateQuestionRequest struct {
	QuestionText *string        `json:"question_text,omitempty"`
	QuestionType *string        `json:"question_type,omitempty"`
	Explanation  *string        `json:"explanation,omitempty"`
	Position     *int           `json:"position,omitempty"`
	Answers      *[]AnswerInput `json:"answers,omitempty"`
}

// ChangeQuestionTypeRequest selects the target question format.
type ChangeQuestionTypeRequest struct {
	NewType string `json:"new_type"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToQuestionResponse maps a persisted question to its API form.
func ToQuestionResponse(q *domain.Question) QuestionResponse {
	answers := make([]AnswerResponse, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerResponse{
			ID:         a.ID,
			AnswerText: a.AnswerText,
			IsCorrect:  a.IsCorrect,
			Position:   a.Position,
		})
	}
	return QuestionResponse{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: string(q.QuestionType),
		Explanation:  q.Explanation,
		Position:     q.Position,
		Answers:      answers,
	}
}

// ToQuizResponse maps a quiz and its questions to the API form.
func ToQuizResponse(quiz *domain.Quiz) *QuizResponse {
	questions := make([]QuestionResponse, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, ToQuestionResponse(q))
	}
	return &QuizResponse{
		ID:               quiz.ID,
		Title:            quiz.Title,
		Topic:            quiz.Topic,
		Description:      quiz.Description,
		UseDefaultPrompt: quiz.UseDefaultPrompt,
		CustomPrompt:     quiz.CustomPrompt,
		DocumentSources:  quiz.DocumentSources,
		CreatedAt:        quiz.CreatedAt,
		UpdatedAt:        quiz.UpdatedAt,
		Questions:        questions,
	}
}

// ToQuizSummaryResponse maps a quiz to its listing form.
func ToQuizSummaryResponse(quiz *domain.Quiz) QuizSummaryResponse {
	return QuizSummaryResponse{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Topic:       quiz.Topic,
		Description: quiz.Description,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
	}
}
