package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"quizforge/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quizCols = []string{"id", "user_id", "title", "topic", "description", "use_default_prompt", "custom_prompt", "document_sources", "created_at", "updated_at"}
var questionCols = []string{"id", "quiz_id", "question_text", "question_type", "explanation", "position", "created_at", "updated_at"}
var answerCols = []string{"id", "question_id", "answer_text", "is_correct", "position"}

func TestQuizAdapter_GetQuizByID(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM quizzes WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(quizCols).
			AddRow(1, 10, "Go Basics", "go", "intro quiz", true, "", `[{"id":2,"filename":"notes.pdf","type":"pdf"}]`, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM questions WHERE quiz_id = ? ORDER BY position ASC`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(questionCols).
			AddRow(5, 1, "What is a goroutine?", "multiple_choice", "", 0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM answers WHERE question_id = ? ORDER BY position ASC`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(answerCols).
			AddRow(21, 5, "a lightweight thread", true, 0).
			AddRow(22, 5, "a package", false, 1).
			AddRow(23, 5, "a channel", false, 2).
			AddRow(24, 5, "a struct", false, 3))

	quiz, err := adapter.GetQuizByID(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, "Go Basics", quiz.Title)
	require.Len(t, quiz.DocumentSources, 1)
	assert.Equal(t, "notes.pdf", quiz.DocumentSources[0].Filename)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, domain.QuestionTypeMultipleChoice, quiz.Questions[0].QuestionType)
	require.Len(t, quiz.Questions[0].Answers, 4)
	assert.True(t, quiz.Questions[0].Answers[0].IsCorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizAdapter_GetQuizByIDMissingReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM quizzes WHERE id = ?`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	quiz, err := adapter.GetQuizByID(context.Background(), 404)

	require.NoError(t, err)
	assert.Nil(t, quiz)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizAdapter_CreateQuizWithQuestions(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quizzes`)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO questions`)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO answers`)).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO answers`)).
		WillReturnResult(sqlmock.NewResult(42, 1))

	quiz := domain.NewQuiz(10, "Go Basics", "go", "")
	quiz.Questions = []*domain.Question{
		{
			QuestionText: "Is Go compiled?",
			QuestionType: domain.QuestionTypeBoolean,
			Answers: []*domain.Answer{
				{AnswerText: "True", IsCorrect: true, Position: 0},
				{AnswerText: "False", Position: 1},
			},
		},
	}
	err := adapter.CreateQuiz(context.Background(), quiz)

	require.NoError(t, err)
	assert.Equal(t, int64(7), quiz.ID)
	assert.Equal(t, int64(7), quiz.Questions[0].QuizID)
	assert.Equal(t, int64(31), quiz.Questions[0].ID)
	assert.Equal(t, int64(31), quiz.Questions[0].Answers[0].QuestionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizAdapter_UpdateQuizNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE quizzes SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	quiz := &domain.Quiz{ID: 404, Title: "t", Topic: "x"}
	err := adapter.UpdateQuiz(context.Background(), quiz)

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizAdapter_ReplaceQuestionsClearsThenInserts(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM questions WHERE quiz_id = ?`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO questions`)).
		WillReturnResult(sqlmock.NewResult(51, 1))

	err := adapter.ReplaceQuestions(context.Background(), 1, []*domain.Question{
		{QuestionText: "fresh", QuestionType: domain.QuestionTypeOpenEnded},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizAdapter_CountQuestions(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM questions WHERE quiz_id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := adapter.CountQuestions(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
