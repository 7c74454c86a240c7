package service

import (
	"context"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// ProjectService defines the interface for project-level operations
type ProjectService interface {
	CreateProject(ctx context.Context, userID int64, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetProject(ctx context.Context, userID, projectID int64) (*dto.ProjectResponse, error)
	ListProjects(ctx context.Context, userID int64) ([]*dto.ProjectResponse, error)
	UpdateProject(ctx context.Context, userID, projectID int64, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	DeleteProject(ctx context.Context, userID, projectID int64) error
	AddQuiz(ctx context.Context, userID, projectID int64, req *dto.AddQuizToProjectRequest) (*dto.ProjectResponse, error)
	RemoveQuiz(ctx context.Context, userID, projectID, quizID int64) (*dto.ProjectResponse, error)
	ReorderQuizzes(ctx context.Context, userID, projectID int64, req *dto.ReorderQuizzesRequest) (*dto.ProjectResponse, error)
}

// projectService implements ProjectService
type projectService struct {
	projectRepo domain.ProjectRepository
	quizRepo    domain.QuizRepository
	historyRepo domain.HistoryRepository
	txManager   domain.TransactionManager
}

// NewProjectService creates a new instance of projectService
func NewProjectService(
	projectRepo domain.ProjectRepository,
	quizRepo domain.QuizRepository,
	historyRepo domain.HistoryRepository,
	txManager domain.TransactionManager,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		quizRepo:    quizRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
	}
}

// CreateProject implements ProjectService
func (s *projectService) CreateProject(ctx context.Context, userID int64, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	project := domain.NewProject(userID, req.Title, req.Description)
	if req.CustomPrompt != "" {
		project.UseDefaultPrompt = false
		project.CustomPrompt = req.CustomPrompt
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.CreateProject(txCtx, project); err != nil {
			return err
		}
		return s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind: domain.EntityKindProject,
			EntityID:   project.ID,
			ActorID:    userID,
			Action:     domain.ActionCreate,
		})
	})
	if err != nil {
		return nil, domain.NewInternalError("Failed to create project", err)
	}

	logger.Get().Info("Created project", zap.Int64("project_id", project.ID), zap.Int64("user_id", userID))
	return dto.ToProjectResponse(project), nil
}

// GetProject implements ProjectService
func (s *projectService) GetProject(ctx context.Context, userID, projectID int64) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return dto.ToProjectResponse(project), nil
}

// ListProjects implements ProjectService
func (s *projectService) ListProjects(ctx context.Context, userID int64) ([]*dto.ProjectResponse, error) {
	projects, err := s.projectRepo.ListProjectsByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list projects", err)
	}
	out := make([]*dto.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		out = append(out, dto.ToProjectResponse(project))
	}
	return out, nil
}

// UpdateProject implements ProjectService
func (s *projectService) UpdateProject(ctx context.Context, userID, projectID int64, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.UseDefaultPrompt != nil {
		project.UseDefaultPrompt = *req.UseDefaultPrompt
	}
	if req.CustomPrompt != nil {
		project.CustomPrompt = *req.CustomPrompt
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	err = s.recordAndRun(ctx, project, userID, domain.ActionUpdate, previous, func(txCtx context.Context) error {
		return s.projectRepo.UpdateProject(txCtx, project)
	})
	if err != nil {
		return nil, err
	}
	return dto.ToProjectResponse(project), nil
}

// DeleteProject implements ProjectService. Project history is retained after
// deletion; only the project row and its associations go away.
func (s *projectService) DeleteProject(ctx context.Context, userID, projectID int64) error {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return err
	}

	previous, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return err
	}

	err = s.recordAndRun(ctx, project, userID, domain.ActionDelete, previous, func(txCtx context.Context) error {
		return s.projectRepo.DeleteProject(txCtx, project.ID)
	})
	if err != nil {
		return err
	}

	logger.Get().Info("Deleted project", zap.Int64("project_id", projectID), zap.Int64("user_id", userID))
	return nil
}

// AddQuiz implements ProjectService. The quiz is appended at the end of the
// project's ordering.
func (s *projectService) AddQuiz(ctx context.Context, userID, projectID int64, req *dto.AddQuizToProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, req.QuizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, domain.NewQuizNotFoundError(req.QuizID)
	}
	for _, pq := range project.Quizzes {
		if pq.QuizID == req.QuizID {
			return nil, domain.NewError(domain.CodeInvalidInput, "quiz is already part of the project", nil)
		}
	}

	previous, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return nil, err
	}

	assoc := &domain.ProjectQuiz{
		ProjectID: project.ID,
		QuizID:    req.QuizID,
		Position:  len(project.Quizzes),
	}
	err = s.recordAndRun(ctx, project, userID, domain.ActionAddQuiz, previous, func(txCtx context.Context) error {
		return s.projectRepo.AddQuiz(txCtx, assoc)
	})
	if err != nil {
		return nil, err
	}

	project.Quizzes = append(project.Quizzes, assoc)
	return dto.ToProjectResponse(project), nil
}

// RemoveQuiz implements ProjectService. Remaining quizzes are re-packed so
// positions stay contiguous.
func (s *projectService) RemoveQuiz(ctx context.Context, userID, projectID, quizID int64) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	remaining := make([]*domain.ProjectQuiz, 0, len(project.Quizzes))
	found := false
	for _, pq := range project.Quizzes {
		if pq.QuizID == quizID {
			found = true
			continue
		}
		remaining = append(remaining, &domain.ProjectQuiz{
			ProjectID: project.ID,
			QuizID:    pq.QuizID,
			Position:  len(remaining),
		})
	}
	if !found {
		return nil, domain.NewNotFoundError("quiz is not part of the project")
	}

	previous, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return nil, err
	}

	err = s.recordAndRun(ctx, project, userID, domain.ActionRemoveQuiz, previous, func(txCtx context.Context) error {
		return s.projectRepo.ReplaceQuizzes(txCtx, project.ID, remaining)
	})
	if err != nil {
		return nil, err
	}

	project.Quizzes = remaining
	return dto.ToProjectResponse(project), nil
}

// ReorderQuizzes implements ProjectService. The request must name exactly the
// project's current quiz set.
func (s *projectService) ReorderQuizzes(ctx context.Context, userID, projectID int64, req *dto.ReorderQuizzesRequest) (*dto.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	current := make(map[int64]bool, len(project.Quizzes))
	for _, pq := range project.Quizzes {
		current[pq.QuizID] = true
	}
	if len(req.QuizIDs) != len(project.Quizzes) {
		return nil, domain.NewError(domain.CodeInvalidInput, "reorder must name every quiz of the project exactly once", nil)
	}
	reordered := make([]*domain.ProjectQuiz, 0, len(req.QuizIDs))
	for i, quizID := range req.QuizIDs {
		if !current[quizID] {
			return nil, domain.NewError(domain.CodeInvalidInput, "reorder names a quiz that is not part of the project", nil)
		}
		reordered = append(reordered, &domain.ProjectQuiz{
			ProjectID: project.ID,
			QuizID:    quizID,
			Position:  i,
		})
	}

	previous, err := domain.MarshalState(domain.CaptureProjectState(project))
	if err != nil {
		return nil, err
	}

	err = s.recordAndRun(ctx, project, userID, domain.ActionReorder, previous, func(txCtx context.Context) error {
		return s.projectRepo.ReplaceQuizzes(txCtx, project.ID, reordered)
	})
	if err != nil {
		return nil, err
	}

	project.Quizzes = reordered
	return dto.ToProjectResponse(project), nil
}

// recordAndRun writes the history snapshot and the mutation in one
// transaction.
func (s *projectService) recordAndRun(ctx context.Context, project *domain.Project, userID int64, action domain.ActionType, previous []byte, mutate func(ctx context.Context) error) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.historyRepo.Save(txCtx, &domain.Snapshot{
			EntityKind:    domain.EntityKindProject,
			EntityID:      project.ID,
			ActorID:       userID,
			Action:        action,
			PreviousState: previous,
		}); err != nil {
			return err
		}
		return mutate(txCtx)
	})
}

func (s *projectService) ownedProject(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	project, err := s.projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load project", err)
	}
	if project == nil || project.UserID != userID {
		return nil, domain.NewProjectNotFoundError(projectID)
	}
	return project, nil
}
