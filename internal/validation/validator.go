package validation

import (
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
)

const (
	maxTitleLength        = 200
	maxTopicLength        = 200
	maxDescriptionLength  = 2000
	maxQuestionTextLength = 2000
	maxQuestionCount      = 50
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateQuizRequest validates a quiz generation request
func (v *Validator) ValidateCreateQuizRequest(req *dto.CreateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	} else if len(req.Title) > maxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", len(req.Title), 1, maxTitleLength))
	}

	if strings.TrimSpace(req.Topic) == "" {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	} else if len(req.Topic) > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", len(req.Topic), 1, maxTopicLength))
	}

	if len(req.Description) > maxDescriptionLength {
		errors = append(errors, domain.NewOutOfRangeError("description", len(req.Description), 0, maxDescriptionLength))
	}

	// Zero means "use the configured default count".
	if req.QuestionCount < 0 || req.QuestionCount > maxQuestionCount {
		errors = append(errors, domain.NewOutOfRangeError("question_count", req.QuestionCount, 1, maxQuestionCount))
	}

	return errors
}

// ValidateAddQuestionRequest validates a manually authored question
func (v *Validator) ValidateAddQuestionRequest(req *dto.AddQuestionRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.QuestionText) == "" {
		errors = append(errors, domain.NewMissingFieldError("question_text"))
	} else if len(req.QuestionText) > maxQuestionTextLength {
		errors = append(errors, domain.NewOutOfRangeError("question_text", len(req.QuestionText), 1, maxQuestionTextLength))
	}

	if req.QuestionType != "" {
		if _, ok := domain.ParseQuestionType(req.QuestionType); !ok {
			errors = append(errors, domain.NewInvalidFormatError("question_type", req.QuestionType))
		}
	}

	return errors
}

// ValidateChangeTypeRequest validates a question type conversion target.
// Only boolean and multiple_choice are reachable through conversion.
func (v *Validator) ValidateChangeTypeRequest(req *dto.ChangeQuestionTypeRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	newType, ok := domain.ParseQuestionType(req.NewType)
	if !ok || newType == domain.QuestionTypeOpenEnded {
		errors = append(errors, domain.NewInvalidFormatError("new_type", req.NewType))
	}

	return errors
}

// ValidateCreateProjectRequest validates a project creation request
func (v *Validator) ValidateCreateProjectRequest(req *dto.CreateProjectRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	} else if len(req.Title) > maxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", len(req.Title), 1, maxTitleLength))
	}

	if len(req.Description) > maxDescriptionLength {
		errors = append(errors, domain.NewOutOfRangeError("description", len(req.Description), 0, maxDescriptionLength))
	}

	return errors
}

// ValidateReorderRequest validates a project reorder request
func (v *Validator) ValidateReorderRequest(req *dto.ReorderQuizzesRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(req.QuizIDs) == 0 {
		errors = append(errors, domain.NewMissingFieldError("quiz_ids"))
		return errors
	}

	seen := make(map[int64]bool, len(req.QuizIDs))
	for _, id := range req.QuizIDs {
		if seen[id] {
			errors = append(errors, domain.NewInvalidFormatError("quiz_ids", "duplicate quiz id"))
			break
		}
		seen[id] = true
	}

	return errors
}
