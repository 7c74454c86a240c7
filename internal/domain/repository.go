package domain

import (
	"context"
)

// TransactionManager runs a function inside one unit of work. A mutating
// operation and its history snapshot always share the same transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuizRepository persists quizzes, their questions and answers.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id int64) (*Quiz, error)
	ListQuizzesByUser(ctx context.Context, userID int64) ([]*Quiz, error)
	UpdateQuiz(ctx context.Context, quiz *Quiz) error
	DeleteQuiz(ctx context.Context, id int64) error
	// ReplaceQuestions deletes every question of the quiz and recreates the
	// given set, answers included.
	ReplaceQuestions(ctx context.Context, quizID int64, questions []*Question) error

	CreateQuestion(ctx context.Context, question *Question) error
	GetQuestionByID(ctx context.Context, id int64) (*Question, error)
	UpdateQuestion(ctx context.Context, question *Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	ReplaceAnswers(ctx context.Context, questionID int64, answers []*Answer) error
	CountQuestions(ctx context.Context, quizID int64) (int, error)
}

// ProjectRepository persists projects and their quiz associations.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProjectByID(ctx context.Context, id int64) (*Project, error)
	ListProjectsByUser(ctx context.Context, userID int64) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id int64) error
	AddQuiz(ctx context.Context, assoc *ProjectQuiz) error
	RemoveQuiz(ctx context.Context, projectID, quizID int64) error
	// ReplaceQuizzes swaps the full association set of a project.
	ReplaceQuizzes(ctx context.Context, projectID int64, quizzes []*ProjectQuiz) error
}

// DocumentRepository reads uploaded documents and their retrievable chunks.
type DocumentRepository interface {
	GetDocumentsByIDs(ctx context.Context, ids []int64) ([]*Document, error)
	GetChunksByDocumentIDs(ctx context.Context, documentIDs []int64) ([]*DocumentChunk, error)
}

// HistoryRepository persists append-only history snapshots.
type HistoryRepository interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	GetByID(ctx context.Context, kind EntityKind, id int64) (*Snapshot, error)
	// ListByEntity returns snapshots for one entity, newest first.
	ListByEntity(ctx context.Context, kind EntityKind, entityID int64, limit int) ([]*Snapshot, error)
	// LatestWithState returns the most recent snapshot whose previous state
	// is non-null, or nil when none exists.
	LatestWithState(ctx context.Context, kind EntityKind, entityID int64) (*Snapshot, error)
	ListByActor(ctx context.Context, actorID int64, limit int) ([]*Snapshot, error)
	// DeleteByEntity cascades history removal when a quiz or question is
	// destroyed. Project history is never cascade-deleted.
	DeleteByEntity(ctx context.Context, kind EntityKind, entityID int64) error
}
