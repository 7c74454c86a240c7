package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/middleware"
	"quizforge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HistoryHandler handles history listing and revert HTTP requests
type HistoryHandler struct {
	service service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler instance
func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

func historyLimit(c *fiber.Ctx) int {
	return c.QueryInt("limit", 0)
}

// ListQuizHistory godoc
// @Summary List the history of a quiz
// @Description Returns history entries newest first
// @Tags history
// @Produce json
// @Param id path int true "Quiz ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} dto.SnapshotResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/history [get]
func (h *HistoryHandler) ListQuizHistory(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.service.ListQuizHistory(c.Context(), middleware.UserID(c), quizID, historyLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListQuestionHistory godoc
// @Summary List the history of a question
// @Tags history
// @Produce json
// @Param id path int true "Question ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} dto.SnapshotResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id}/history [get]
func (h *HistoryHandler) ListQuestionHistory(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.service.ListQuestionHistory(c.Context(), middleware.UserID(c), questionID, historyLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListProjectHistory godoc
// @Summary List the history of a project
// @Tags history
// @Produce json
// @Param id path int true "Project ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} dto.SnapshotResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id}/history [get]
func (h *HistoryHandler) ListProjectHistory(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.service.ListProjectHistory(c.Context(), middleware.UserID(c), projectID, historyLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ActivityLog godoc
// @Summary List the caller's recent activity
// @Description Entries span quizzes, questions and projects, newest first
// @Tags history
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} dto.SnapshotResponse
// @Security ApiKeyAuth
// @Router /activity [get]
func (h *HistoryHandler) ActivityLog(c *fiber.Ctx) error {
	resp, err := h.service.ActivityLog(c.Context(), middleware.UserID(c), historyLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RevertQuiz godoc
// @Summary Revert a quiz to a recorded state
// @Description Restores the fields stored in the selected snapshot; without a snapshot id the latest restorable one is used
// @Tags history
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param request body dto.RevertRequest false "Snapshot selection"
// @Success 200 {object} dto.QuizResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/revert [post]
func (h *HistoryHandler) RevertQuiz(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	req, err := parseRevertRequest(c)
	if err != nil {
		return err
	}
	resp, err := h.service.RevertQuiz(c.Context(), middleware.UserID(c), quizID, req.SnapshotID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RevertQuestion godoc
// @Summary Revert a question to a recorded state
// @Tags history
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body dto.RevertRequest false "Snapshot selection"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id}/revert [post]
func (h *HistoryHandler) RevertQuestion(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	req, err := parseRevertRequest(c)
	if err != nil {
		return err
	}
	resp, err := h.service.RevertQuestion(c.Context(), middleware.UserID(c), questionID, req.SnapshotID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RevertProject godoc
// @Summary Revert a project to a recorded state
// @Tags history
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.RevertRequest false "Snapshot selection"
// @Success 200 {object} dto.ProjectResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /projects/{id}/revert [post]
func (h *HistoryHandler) RevertProject(c *fiber.Ctx) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	req, err := parseRevertRequest(c)
	if err != nil {
		return err
	}
	resp, err := h.service.RevertProject(c.Context(), middleware.UserID(c), projectID, req.SnapshotID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// parseRevertRequest tolerates an empty body, which selects the latest
// restorable snapshot.
func parseRevertRequest(c *fiber.Ctx) (*dto.RevertRequest, error) {
	req := &dto.RevertRequest{}
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request body")
	}
	return req, nil
}
