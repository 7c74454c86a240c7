package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/middleware"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	service   service.ProjectService
	validator *validation.Validator
}

// NewProjectHandler creates a new ProjectHandler instance
func NewProjectHandler(service service.ProjectService, validator *validation.Validator) *ProjectHandler {
	return &ProjectHandler{
		service:   service,
		validator: validator,
	}
}

// CreateProject godoc
// @Summary Create a project
// @Description Creates an empty project that quizzes can be attached to
// @Tags projects
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "Project to create"
// @Success 201 {object} dto.ProjectResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Security ApiKeyAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateCreateProjectRequest(&req); len(errs) > 0 {
		return errs
	}
	resp, err := h.service.CreateProject(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetProject godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.ProjectResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.service.GetProject(c.Context(), middleware.UserID(c), projectID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListProjects godoc
// @Summary List the caller's projects
// @Tags projects
// @Produce json
// @Success 200 {array} dto.ProjectResponse
// @Security ApiKeyAuth
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	resp, err := h.service.ListProjects(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UpdateProject godoc
// @Summary Update project metadata
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.UpdateProjectRequest true "Fields to update"
// @Success 200 {object} dto.ProjectResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	resp, err := h.service.UpdateProject(c.Context(), middleware.UserID(c), projectID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteProject godoc
// @Summary Delete a project
// @Description Removes the project and its quiz associations; the quizzes themselves and the project's history are retained
// @Tags projects
// @Param id path int true "Project ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProject(c.Context(), middleware.UserID(c), projectID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddQuiz godoc
// @Summary Attach a quiz to a project
// @Description Appends the quiz at the end of the project's ordering
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.AddQuizToProjectRequest true "Quiz to attach"
// @Success 200 {object} dto.ProjectResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id}/quizzes [post]
func (h *ProjectHandler) AddQuiz(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AddQuizToProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	resp, err := h.service.AddQuiz(c.Context(), middleware.UserID(c), projectID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RemoveQuiz godoc
// @Summary Detach a quiz from a project
// @Description Removes the association; remaining quizzes are re-packed to contiguous positions
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Param quizId path int true "Quiz ID"
// @Success 200 {object} dto.ProjectResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id}/quizzes/{quizId} [delete]
func (h *ProjectHandler) RemoveQuiz(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return err
	}
	resp, err := h.service.RemoveQuiz(c.Context(), middleware.UserID(c), projectID, quizID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ReorderQuizzes godoc
// @Summary Reorder the quizzes of a project
// @Description The request must name every quiz of the project exactly once
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.ReorderQuizzesRequest true "Desired order"
// @Success 200 {object} dto.ProjectResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id}/quizzes/order [put]
func (h *ProjectHandler) ReorderQuizzes(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReorderQuizzesRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateReorderRequest(&req); len(errs) > 0 {
		return errs
	}
	resp, err := h.service.ReorderQuizzes(c.Context(), middleware.UserID(c), projectID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
