package domain

import (
	"time"
)

// Quiz represents a generated, user-editable quiz.
type Quiz struct {
	ID               int64
	UserID           int64
	Title            string
	Topic            string
	Description      string
	UseDefaultPrompt bool
	CustomPrompt     string
	DocumentSources  []DocumentSource
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Questions        []*Question
}

// DocumentSource records which uploaded document a quiz was grounded in.
type DocumentSource struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	FileType string `json:"type"`
}

// NewQuiz creates a new Quiz instance
func NewQuiz(userID int64, title, topic, description string) *Quiz {
	now := time.Now()
	return &Quiz{
		UserID:           userID,
		Title:            title,
		Topic:            topic,
		Description:      description,
		UseDefaultPrompt: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate validates the quiz
func (q *Quiz) Validate() error {
	if q.Title == "" {
		return NewValidationFailure("title", "is required")
	}
	if q.Topic == "" {
		return NewValidationFailure("topic", "is required")
	}
	return nil
}

// EffectivePrompt returns the caller-supplied instruction template, or the
// empty string when the quiz relies on the default one.
func (q *Quiz) EffectivePrompt() string {
	if q.UseDefaultPrompt {
		return ""
	}
	return q.CustomPrompt
}

// Project groups quizzes into an ordered collection.
type Project struct {
	ID               int64
	UserID           int64
	Title            string
	Description      string
	UseDefaultPrompt bool
	CustomPrompt     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Quizzes          []*ProjectQuiz
}

// ProjectQuiz is the ordered association between a project and a quiz.
type ProjectQuiz struct {
	ProjectID int64
	QuizID    int64
	Position  int
}

// NewProject creates a new Project instance
func NewProject(userID int64, title, description string) *Project {
	now := time.Now()
	return &Project{
		UserID:           userID,
		Title:            title,
		Description:      description,
		UseDefaultPrompt: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate validates the project
func (p *Project) Validate() error {
	if p.Title == "" {
		return NewValidationFailure("title", "is required")
	}
	return nil
}
