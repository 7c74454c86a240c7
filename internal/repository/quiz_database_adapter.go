package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

const quizColumns = `id, user_id, title, topic, description, use_default_prompt, custom_prompt, document_sources, created_at, updated_at`

// CreateQuiz implements domain.QuizRepository. Questions and answers attached
// to the quiz are persisted in the same call.
func (a *QuizDatabaseAdapter) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	exec := GetExecutor(ctx, a.db)
	now := time.Now()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now

	query := `INSERT INTO quizzes (user_id, title, topic, description, use_default_prompt, custom_prompt, document_sources, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := exec.ExecContext(ctx, query,
		quiz.UserID,
		quiz.Title,
		quiz.Topic,
		quiz.Description,
		quiz.UseDefaultPrompt,
		quiz.CustomPrompt,
		toModelSources(quiz.DocumentSources),
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created quiz id: %w", err)
	}
	quiz.ID = id

	for _, question := range quiz.Questions {
		question.QuizID = id
		if err := a.createQuestionExec(ctx, exec, question); err != nil {
			return err
		}
	}
	return nil
}

// GetQuizByID implements domain.QuizRepository. Questions come back ordered
// by position with their answers attached; a missing quiz returns nil.
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuiz models.Quiz
	err := exec.GetContext(ctx, &modelQuiz,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %d: %w", id, err)
	}

	quiz := toDomainQuiz(&modelQuiz)
	questions, err := a.loadQuestions(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return quiz, nil
}

// ListQuizzesByUser implements domain.QuizRepository. The listing carries quiz
// metadata only; questions are loaded per quiz on demand.
func (a *QuizDatabaseAdapter) ListQuizzesByUser(ctx context.Context, userID int64) ([]*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuizzes []models.Quiz
	err := exec.SelectContext(ctx, &modelQuizzes,
		`SELECT `+quizColumns+` FROM quizzes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes for user %d: %w", userID, err)
	}

	quizzes := make([]*domain.Quiz, 0, len(modelQuizzes))
	for i := range modelQuizzes {
		quizzes = append(quizzes, toDomainQuiz(&modelQuizzes[i]))
	}
	return quizzes, nil
}

// UpdateQuiz implements domain.QuizRepository. Only quiz metadata is written;
// questions have their own operations.
func (a *QuizDatabaseAdapter) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	exec := GetExecutor(ctx, a.db)
	quiz.UpdatedAt = time.Now()

	query := `UPDATE quizzes SET title = ?, topic = ?, description = ?, use_default_prompt = ?, custom_prompt = ?, document_sources = ?, updated_at = ?
		WHERE id = ?`
	result, err := exec.ExecContext(ctx, query,
		quiz.Title,
		quiz.Topic,
		quiz.Description,
		quiz.UseDefaultPrompt,
		quiz.CustomPrompt,
		toModelSources(quiz.DocumentSources),
		quiz.UpdatedAt,
		quiz.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz %d: %w", quiz.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for quiz %d: %w", quiz.ID, err)
	}
	if rows == 0 {
		return domain.NewQuizNotFoundError(quiz.ID)
	}
	return nil
}

// DeleteQuiz implements domain.QuizRepository. Questions and answers go with
// the quiz through foreign key cascade.
func (a *QuizDatabaseAdapter) DeleteQuiz(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, a.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quiz %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for quiz %d: %w", id, err)
	}
	if rows == 0 {
		return domain.NewQuizNotFoundError(id)
	}
	return nil
}

// ReplaceQuestions implements domain.QuizRepository.
func (a *QuizDatabaseAdapter) ReplaceQuestions(ctx context.Context, quizID int64, questions []*domain.Question) error {
	exec := GetExecutor(ctx, a.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = ?`, quizID); err != nil {
		return fmt.Errorf("failed to clear questions of quiz %d: %w", quizID, err)
	}
	for _, question := range questions {
		question.QuizID = quizID
		if err := a.createQuestionExec(ctx, exec, question); err != nil {
			return err
		}
	}
	return nil
}

// CreateQuestion implements domain.QuizRepository.
func (a *QuizDatabaseAdapter) CreateQuestion(ctx context.Context, question *domain.Question) error {
	exec := GetExecutor(ctx, a.db)
	return a.createQuestionExec(ctx, exec, question)
}

// GetQuestionByID implements domain.QuizRepository. A missing question
// returns nil.
func (a *QuizDatabaseAdapter) GetQuestionByID(ctx context.Context, id int64) (*domain.Question, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuestion models.Question
	err := exec.GetContext(ctx, &modelQuestion,
		`SELECT id, quiz_id, question_text, question_type, explanation, position, created_at, updated_at
		FROM questions WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by ID %d: %w", id, err)
	}

	question := toDomainQuestion(&modelQuestion)
	answers, err := a.loadAnswers(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	question.Answers = answers
	return question, nil
}

// UpdateQuestion implements domain.QuizRepository. Only question fields are
// written; the answer set is replaced through ReplaceAnswers.
func (a *QuizDatabaseAdapter) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	exec := GetExecutor(ctx, a.db)
	question.UpdatedAt = time.Now()

	result, err := exec.ExecContext(ctx,
		`UPDATE questions SET question_text = ?, question_type = ?, explanation = ?, position = ?, updated_at = ? WHERE id = ?`,
		question.QuestionText,
		string(question.QuestionType),
		question.Explanation,
		question.Position,
		question.UpdatedAt,
		question.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question %d: %w", question.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for question %d: %w", question.ID, err)
	}
	if rows == 0 {
		return domain.NewQuestionNotFoundError(question.ID)
	}
	return nil
}

// DeleteQuestion implements domain.QuizRepository. Answers cascade.
func (a *QuizDatabaseAdapter) DeleteQuestion(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, a.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for question %d: %w", id, err)
	}
	if rows == 0 {
		return domain.NewQuestionNotFoundError(id)
	}
	return nil
}

// ReplaceAnswers implements domain.QuizRepository.
func (a *QuizDatabaseAdapter) ReplaceAnswers(ctx context.Context, questionID int64, answers []*domain.Answer) error {
	exec := GetExecutor(ctx, a.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM answers WHERE question_id = ?`, questionID); err != nil {
		return fmt.Errorf("failed to clear answers of question %d: %w", questionID, err)
	}
	for _, answer := range answers {
		answer.QuestionID = questionID
		if err := a.createAnswerExec(ctx, exec, answer); err != nil {
			return err
		}
	}
	return nil
}

// CountQuestions implements domain.QuizRepository.
func (a *QuizDatabaseAdapter) CountQuestions(ctx context.Context, quizID int64) (int, error) {
	exec := GetExecutor(ctx, a.db)
	var count int
	err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM questions WHERE quiz_id = ?`, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions of quiz %d: %w", quizID, err)
	}
	return count, nil
}

func (a *QuizDatabaseAdapter) createQuestionExec(ctx context.Context, exec DBTX, question *domain.Question) error {
	now := time.Now()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	result, err := exec.ExecContext(ctx,
		`INSERT INTO questions (quiz_id, question_text, question_type, explanation, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		question.QuizID,
		question.QuestionText,
		string(question.QuestionType),
		question.Explanation,
		question.Position,
		question.CreatedAt,
		question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created question id: %w", err)
	}
	question.ID = id

	for _, answer := range question.Answers {
		answer.QuestionID = id
		if err := a.createAnswerExec(ctx, exec, answer); err != nil {
			return err
		}
	}
	return nil
}

func (a *QuizDatabaseAdapter) createAnswerExec(ctx context.Context, exec DBTX, answer *domain.Answer) error {
	result, err := exec.ExecContext(ctx,
		`INSERT INTO answers (question_id, answer_text, is_correct, position) VALUES (?, ?, ?, ?)`,
		answer.QuestionID,
		answer.AnswerText,
		answer.IsCorrect,
		answer.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created answer id: %w", err)
	}
	answer.ID = id
	return nil
}

func (a *QuizDatabaseAdapter) loadQuestions(ctx context.Context, exec DBTX, quizID int64) ([]*domain.Question, error) {
	var modelQuestions []models.Question
	err := exec.SelectContext(ctx, &modelQuestions,
		`SELECT id, quiz_id, question_text, question_type, explanation, position, created_at, updated_at
		FROM questions WHERE quiz_id = ? ORDER BY position ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions of quiz %d: %w", quizID, err)
	}

	questions := make([]*domain.Question, 0, len(modelQuestions))
	for i := range modelQuestions {
		question := toDomainQuestion(&modelQuestions[i])
		answers, err := a.loadAnswers(ctx, exec, question.ID)
		if err != nil {
			return nil, err
		}
		question.Answers = answers
		questions = append(questions, question)
	}
	return questions, nil
}

func (a *QuizDatabaseAdapter) loadAnswers(ctx context.Context, exec DBTX, questionID int64) ([]*domain.Answer, error) {
	var modelAnswers []models.Answer
	err := exec.SelectContext(ctx, &modelAnswers,
		`SELECT id, question_id, answer_text, is_correct, position
		FROM answers WHERE question_id = ? ORDER BY position ASC`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers of question %d: %w", questionID, err)
	}

	answers := make([]*domain.Answer, 0, len(modelAnswers))
	for i := range modelAnswers {
		answers = append(answers, toDomainAnswer(&modelAnswers[i]))
	}
	return answers, nil
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	sources := make([]domain.DocumentSource, 0, len(m.DocumentSources))
	for _, s := range m.DocumentSources {
		sources = append(sources, domain.DocumentSource{ID: s.ID, Filename: s.Filename, FileType: s.FileType})
	}
	return &domain.Quiz{
		ID:               m.ID,
		UserID:           m.UserID,
		Title:            m.Title,
		Topic:            m.Topic,
		Description:      m.Description,
		UseDefaultPrompt: m.UseDefaultPrompt,
		CustomPrompt:     m.CustomPrompt,
		DocumentSources:  sources,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toModelSources(sources []domain.DocumentSource) models.SourceSlice {
	out := make(models.SourceSlice, 0, len(sources))
	for _, s := range sources {
		out = append(out, models.DocumentSource{ID: s.ID, Filename: s.Filename, FileType: s.FileType})
	}
	return out
}

func toDomainQuestion(m *models.Question) *domain.Question {
	return &domain.Question{
		ID:           m.ID,
		QuizID:       m.QuizID,
		QuestionText: m.QuestionText,
		QuestionType: domain.QuestionType(m.QuestionType),
		Explanation:  m.Explanation,
		Position:     m.Position,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainAnswer(m *models.Answer) *domain.Answer {
	return &domain.Answer{
		ID:         m.ID,
		QuestionID: m.QuestionID,
		AnswerText: m.AnswerText,
		IsCorrect:  m.IsCorrect,
		Position:   m.Position,
	}
}
