package domain

import (
	"encoding/json"
	"time"
)

// EntityKind identifies which entity family a snapshot belongs to.
type EntityKind string

const (
	EntityKindQuiz     EntityKind = "quiz"
	EntityKindQuestion EntityKind = "question"
	EntityKindProject  EntityKind = "project"
)

// ActionType enumerates the mutations that produce history snapshots.
type ActionType string

const (
	ActionCreate     ActionType = "CREATE"
	ActionUpdate     ActionType = "UPDATE"
	ActionDelete     ActionType = "DELETE"
	ActionRegenerate ActionType = "REGENERATE"
	ActionRevert     ActionType = "REVERT"
	ActionAddQuiz    ActionType = "ADD_QUIZ"
	ActionRemoveQuiz ActionType = "REMOVE_QUIZ"
	ActionReorder    ActionType = "REORDER"
)

// Snapshot is an append-only record of an entity's pre-mutation state.
// Once written it is never updated; it is removed only when the owning quiz
// or question is destroyed (project history is retained independently).
type Snapshot struct {
	ID            int64
	EntityKind    EntityKind
	EntityID      int64
	ActorID       int64
	Action        ActionType
	Timestamp     time.Time
	PreviousState json.RawMessage // nil when the action captured no pre-state
}

// HasState reports whether the snapshot carries a restorable previous state.
func (s *Snapshot) HasState() bool {
	return len(s.PreviousState) > 0 && string(s.PreviousState) != "null"
}

// AnswerState is the stored form of one answer inside a previous state.
type AnswerState struct {
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
	Position   int    `json:"position"`
}

// QuestionState captures the salient fields of a question before a mutation.
// Pointer fields distinguish "absent from the stored state" from zero values,
// so a revert overwrites only the keys that were actually recorded.
type QuestionState struct {
	QuestionText *string        `json:"question_text,omitempty"`
	QuestionType *string        `json:"question_type,omitempty"`
	Explanation  *string        `json:"explanation,omitempty"`
	Position     *int           `json:"position,omitempty"`
	Answers      *[]AnswerState `json:"answers,omitempty"`
}

// QuizState captures quiz metadata and, for regeneration/deletion, the full
// question set.
type QuizState struct {
	Title            *string          `json:"title,omitempty"`
	Topic            *string          `json:"topic,omitempty"`
	Description      *string          `json:"description,omitempty"`
	UseDefaultPrompt *bool            `json:"use_default_prompt,omitempty"`
	CustomPrompt     *string          `json:"custom_prompt,omitempty"`
	Questions        *[]QuestionState `json:"questions,omitempty"`
}

// ProjectQuizRef is one stored quiz association of a project.
type ProjectQuizRef struct {
	QuizID   int64 `json:"quiz_id"`
	Position int   `json:"position"`
}

// ProjectState captures project metadata and quiz associations.
type ProjectState struct {
	Title            *string           `json:"title,omitempty"`
	Description      *string           `json:"description,omitempty"`
	UseDefaultPrompt *bool             `json:"use_default_prompt,omitempty"`
	CustomPrompt     *string           `json:"custom_prompt,omitempty"`
	Quizzes          *[]ProjectQuizRef `json:"quizzes,omitempty"`
}

// MarshalState encodes a typed previous-state document for storage.
func MarshalState(state any) (json.RawMessage, error) {
	if state == nil {
		return nil, nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, NewInternalError("failed to encode previous state", err)
	}
	return raw, nil
}

// CaptureQuestionState snapshots every salient field of a question.
func CaptureQuestionState(q *Question) QuestionState {
	text := q.QuestionText
	qtype := string(q.QuestionType)
	explanation := q.Explanation
	position := q.Position
	answers := make([]AnswerState, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerState{
			AnswerText: a.AnswerText,
			IsCorrect:  a.IsCorrect,
			Position:   a.Position,
		})
	}
	return QuestionState{
		QuestionText: &text,
		QuestionType: &qtype,
		Explanation:  &explanation,
		Position:     &position,
		Answers:      &answers,
	}
}

// CaptureQuizState snapshots quiz metadata. When withQuestions is set the
// full question set is recorded as well, enabling collection restore.
func CaptureQuizState(q *Quiz, withQuestions bool) QuizState {
	title := q.Title
	topic := q.Topic
	description := q.Description
	useDefault := q.UseDefaultPrompt
	custom := q.CustomPrompt
	state := QuizState{
		Title:            &title,
		Topic:            &topic,
		Description:      &description,
		UseDefaultPrompt: &useDefault,
		CustomPrompt:     &custom,
	}
	if withQuestions {
		questions := make([]QuestionState, 0, len(q.Questions))
		for _, question := range q.Questions {
			questions = append(questions, CaptureQuestionState(question))
		}
		state.Questions = &questions
	}
	return state
}

// CaptureProjectState snapshots project metadata and quiz associations.
func CaptureProjectState(p *Project) ProjectState {
	title := p.Title
	description := p.Description
	useDefault := p.UseDefaultPrompt
	custom := p.CustomPrompt
	quizzes := make([]ProjectQuizRef, 0, len(p.Quizzes))
	for _, pq := range p.Quizzes {
		quizzes = append(quizzes, ProjectQuizRef{QuizID: pq.QuizID, Position: pq.Position})
	}
	return ProjectState{
		Title:            &title,
		Description:      &description,
		UseDefaultPrompt: &useDefault,
		CustomPrompt:     &custom,
		Quizzes:          &quizzes,
	}
}
