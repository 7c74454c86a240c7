package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/middleware"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuestionHandler handles question-level HTTP requests
type QuestionHandler struct {
	service   service.QuestionService
	validator *validation.Validator
}

// NewQuestionHandler creates a new QuestionHandler instance
func NewQuestionHandler(service service.QuestionService, validator *validation.Validator) *QuestionHandler {
	return &QuestionHandler{
		service:   service,
		validator: validator,
	}
}

// AddQuestion godoc
// @Summary Add a question to a quiz
// @Description Appends a manually authored question at the end of the quiz
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param request body dto.AddQuestionRequest true "Question to add"
// @Success 201 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/questions [post]
func (h *QuestionHandler) AddQuestion(c *fiber.Ctx) error {
	quizID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AddQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateAddQuestionRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.AddQuestion(c.Context(), middleware.UserID(c), quizID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Description Applies a partial update; a non-null answers array replaces the whole answer set
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body dto.UpdateQuestionRequest true "Fields to update"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	resp, err := h.service.UpdateQuestion(c.Context(), middleware.UserID(c), questionID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Description Removes the question together with its history
// @Tags questions
// @Param id path int true "Question ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteQuestion(c.Context(), middleware.UserID(c), questionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegenerateQuestion godoc
// @Summary Regenerate a single question
// @Description Replaces text, explanation and answers while keeping position and type
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id}/regenerate [post]
func (h *QuestionHandler) RegenerateQuestion(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.service.RegenerateQuestion(c.Context(), middleware.UserID(c), questionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ChangeQuestionType godoc
// @Summary Convert a question to a different format
// @Description Converts between boolean and multiple choice; the answer set is rebuilt for the target type
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body dto.ChangeQuestionTypeRequest true "Target type"
// @Success 200 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /questions/{id}/type [post]
func (h *QuestionHandler) ChangeQuestionType(c *fiber.Ctx) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangeQuestionTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateChangeTypeRequest(&req); len(errs) > 0 {
		return errs
	}
	resp, err := h.service.ChangeQuestionType(c.Context(), middleware.UserID(c), questionID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
