package dto

import (
	"time"

	"quizforge/internal/domain"
)

// CreateProjectRequest represents a project creation request
// @Description Request body for creating a project
type CreateProjectRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// UpdateProjectRequest carries a partial project metadata update.
type UpdateProjectRequest struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	UseDefaultPrompt *bool   `json:"use_default_prompt,omitempty"`
	CustomPrompt     *string `json:"custom_prompt,omitempty"`
}

// ProjectQuizResponse is one ordered quiz reference inside a project.
type ProjectQuizResponse struct {
	QuizID   int64 `json:"quiz_id"`
	Position int   `json:"position"`
}

// ProjectResponse represents a project in the API response
// @Description Project with its ordered quiz references
type ProjectResponse struct {
	ID               int64                 `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	UseDefaultPrompt bool                  `json:"use_default_prompt"`
	CustomPrompt     string                `json:"custom_prompt,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Quizzes          []ProjectQuizResponse `json:"quizzes"`
}

// AddQuizToProjectRequest attaches an existing quiz to a project.
type AddQuizToProjectRequest struct {
	QuizID int64 `json:"quiz_id"`
}

// ReorderQuizzesRequest carries the full desired quiz order.
type ReorderQuizzesRequest struct {
	QuizIDs []int64 `json:"quiz_ids"`
}

// ToProjectResponse maps a project to its API form.
func ToProjectResponse(p *domain.Project) *ProjectResponse {
	quizzes := make([]ProjectQuizResponse, 0, len(p.Quizzes))
	for _, pq := range p.Quizzes {
		quizzes = append(quizzes, ProjectQuizResponse{QuizID: pq.QuizID, Position: pq.Position})
	}
	return &ProjectResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		UseDefaultPrompt: p.UseDefaultPrompt,
		CustomPrompt:     p.CustomPrompt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Quizzes:          quizzes,
	}
}
