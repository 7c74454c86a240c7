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

// ProjectDatabaseAdapter implements domain.ProjectRepository using sqlx.
type ProjectDatabaseAdapter struct {
	db *sqlx.DB
}

// NewProjectDatabaseAdapter creates a new instance of ProjectDatabaseAdapter
func NewProjectDatabaseAdapter(db *sqlx.DB) domain.ProjectRepository {
	return &ProjectDatabaseAdapter{db: db}
}

// CreateProject implements domain.ProjectRepository.
func (a *ProjectDatabaseAdapter) CreateProject(ctx context.Context, project *domain.Project) error {
	exec := GetExecutor(ctx, a.db)
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := exec.ExecContext(ctx,
		`INSERT INTO projects (user_id, title, description, use_default_prompt, custom_prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.UserID,
		project.Title,
		project.Description,
		project.UseDefaultPrompt,
		project.CustomPrompt,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created project id: %w", err)
	}
	project.ID = id

	for _, pq := range project.Quizzes {
		pq.ProjectID = id
		if err := a.addQuizExec(ctx, exec, pq); err != nil {
			return err
		}
	}
	return nil
}

// GetProjectByID implements domain.ProjectRepository. Quiz associations come
// back ordered by position; a missing project returns nil.
func (a *ProjectDatabaseAdapter) GetProjectByID(ctx context.Context, id int64) (*domain.Project, error) {
	exec := GetExecutor(ctx, a.db)

	var modelProject models.Project
	err := exec.GetContext(ctx, &modelProject,
		`SELECT id, user_id, title, description, use_default_prompt, custom_prompt, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project by ID %d: %w", id, err)
	}

	project := toDomainProject(&modelProject)
	quizzes, err := a.loadAssociations(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	project.Quizzes = quizzes
	return project, nil
}

// ListProjectsByUser implements domain.ProjectRepository.
func (a *ProjectDatabaseAdapter) ListProjectsByUser(ctx context.Context, userID int64) ([]*domain.Project, error) {
	exec := GetExecutor(ctx, a.db)

	var modelProjects []models.Project
	err := exec.SelectContext(ctx, &modelProjects,
		`SELECT id, user_id, title, description, use_default_prompt, custom_prompt, created_at, updated_at
		FROM projects WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for user %d: %w", userID, err)
	}

	projects := make([]*domain.Project, 0, len(modelProjects))
	for i := range modelProjects {
		project := toDomainProject(&modelProjects[i])
		quizzes, err := a.loadAssociations(ctx, exec, project.ID)
		if err != nil {
			return nil, err
		}
		project.Quizzes = quizzes
		projects = append(projects, project)
	}
	return projects, nil
}

// UpdateProject implements domain.ProjectRepository. Metadata only; quiz
// associations have their own operations.
func (a *ProjectDatabaseAdapter) UpdateProject(ctx context.Context, project *domain.Project) error {
	exec := GetExecutor(ctx, a.db)
	project.UpdatedAt = time.Now()

	result, err := exec.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, use_default_prompt = ?, custom_prompt = ?, updated_at = ? WHERE id = ?`,
		project.Title,
		project.Description,
		project.UseDefaultPrompt,
		project.CustomPrompt,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project %d: %w", project.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for project %d: %w", project.ID, err)
	}
	if rows == 0 {
		return domain.NewProjectNotFoundError(project.ID)
	}
	return nil
}

// DeleteProject implements domain.ProjectRepository. Associations cascade;
// the quizzes themselves survive.
func (a *ProjectDatabaseAdapter) DeleteProject(ctx context.Context, id int64) error {
	exec := GetExecutor(ctx, a.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for project %d: %w", id, err)
	}
	if rows == 0 {
		return domain.NewProjectNotFoundError(id)
	}
	return nil
}

// AddQuiz implements domain.ProjectRepository.
func (a *ProjectDatabaseAdapter) AddQuiz(ctx context.Context, assoc *domain.ProjectQuiz) error {
	exec := GetExecutor(ctx, a.db)
	return a.addQuizExec(ctx, exec, assoc)
}

// RemoveQuiz implements domain.ProjectRepository.
func (a *ProjectDatabaseAdapter) RemoveQuiz(ctx context.Context, projectID, quizID int64) error {
	exec := GetExecutor(ctx, a.db)
	result, err := exec.ExecContext(ctx,
		`DELETE FROM project_quizzes WHERE project_id = ? AND quiz_id = ?`, projectID, quizID)
	if err != nil {
		return fmt.Errorf("failed to remove quiz %d from project %d: %w", quizID, projectID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removal result for project %d: %w", projectID, err)
	}
	if rows == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("quiz %d is not part of project %d", quizID, projectID))
	}
	return nil
}

// ReplaceQuizzes implements domain.ProjectRepository.
func (a *ProjectDatabaseAdapter) ReplaceQuizzes(ctx context.Context, projectID int64, quizzes []*domain.ProjectQuiz) error {
	exec := GetExecutor(ctx, a.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM project_quizzes WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear quiz associations of project %d: %w", projectID, err)
	}
	for _, pq := range quizzes {
		pq.ProjectID = projectID
		if err := a.addQuizExec(ctx, exec, pq); err != nil {
			return err
		}
	}
	return nil
}

func (a *ProjectDatabaseAdapter) addQuizExec(ctx context.Context, exec DBTX, assoc *domain.ProjectQuiz) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO project_quizzes (project_id, quiz_id, position) VALUES (?, ?, ?)`,
		assoc.ProjectID,
		assoc.QuizID,
		assoc.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to add quiz %d to project %d: %w", assoc.QuizID, assoc.ProjectID, err)
	}
	return nil
}

func (a *ProjectDatabaseAdapter) loadAssociations(ctx context.Context, exec DBTX, projectID int64) ([]*domain.ProjectQuiz, error) {
	var modelAssocs []models.ProjectQuiz
	err := exec.SelectContext(ctx, &modelAssocs,
		`SELECT project_id, quiz_id, position FROM project_quizzes WHERE project_id = ? ORDER BY position ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz associations of project %d: %w", projectID, err)
	}

	assocs := make([]*domain.ProjectQuiz, 0, len(modelAssocs))
	for i := range modelAssocs {
		m := modelAssocs[i]
		assocs = append(assocs, &domain.ProjectQuiz{ProjectID: m.ProjectID, QuizID: m.QuizID, Position: m.Position})
	}
	return assocs, nil
}

func toDomainProject(m *models.Project) *domain.Project {
	return &domain.Project{
		ID:               m.ID,
		UserID:           m.UserID,
		Title:            m.Title,
		Description:      m.Description,
		UseDefaultPrompt: m.UseDefaultPrompt,
		CustomPrompt:     m.CustomPrompt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
