package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FloatSlice stores a float32 vector as a JSON array column.
type FloatSlice []float32

// Value implements the driver.Valuer interface
func (s FloatSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *FloatSlice) Scan(value interface{}) error {
	if value == nil {
		*s = FloatSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("FloatSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = FloatSlice{}
		return nil
	}
	return json.Unmarshal(bytesToParse, s)
}

// DocumentSource is the stored form of one quiz document reference.
type DocumentSource struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	FileType string `json:"type"`
}

// SourceSlice stores quiz document references as a JSON array column.
type SourceSlice []DocumentSource

// Value implements the driver.Valuer interface
func (s SourceSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *SourceSlice) Scan(value interface{}) error {
	if value == nil {
		*s = SourceSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("SourceSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = SourceSlice{}
		return nil
	}
	return json.Unmarshal(bytesToParse, s)
}

// Quiz is the quizzes table row.
type Quiz struct {
	ID               int64       `db:"id"`
	UserID           int64       `db:"user_id"`
	Title            string      `db:"title"`
	Topic            string      `db:"topic"`
	Description      string      `db:"description"`
	UseDefaultPrompt bool        `db:"use_default_prompt"`
	CustomPrompt     string      `db:"custom_prompt"`
	DocumentSources  SourceSlice `db:"document_sources"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

// Question is the questions table row.
type Question struct {
	ID           int64     `db:"id"`
	QuizID       int64     `db:"quiz_id"`
	QuestionText string    `db:"question_text"`
	QuestionType string    `db:"question_type"`
	Explanation  string    `db:"explanation"`
	Position     int       `db:"position"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Answer is the answers table row.
type Answer struct {
	ID         int64  `db:"id"`
	QuestionID int64  `db:"question_id"`
	AnswerText string `db:"answer_text"`
	IsCorrect  bool   `db:"is_correct"`
	Position   int    `db:"position"`
}

// Project is the projects table row.
type Project struct {
	ID               int64     `db:"id"`
	UserID           int64     `db:"user_id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	UseDefaultPrompt bool      `db:"use_default_prompt"`
	CustomPrompt     string    `db:"custom_prompt"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// ProjectQuiz is the project_quizzes association table row.
type ProjectQuiz struct {
	ProjectID int64 `db:"project_id"`
	QuizID    int64 `db:"quiz_id"`
	Position  int   `db:"position"`
}

// Document is the documents table row.
type Document struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Filename  string    `db:"filename"`
	FileType  string    `db:"file_type"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// DocumentChunk is the document_chunks table row.
type DocumentChunk struct {
	ID         int64      `db:"id"`
	DocumentID int64      `db:"document_id"`
	Position   int        `db:"position"`
	Text       string     `db:"chunk_text"`
	Embedding  FloatSlice `db:"embedding"`
}

// HistorySnapshot is the history_snapshots table row. PreviousState is NULL
// for actions that captured no pre-mutation state.
type HistorySnapshot struct {
	ID            int64          `db:"id"`
	EntityKind    string         `db:"entity_kind"`
	EntityID      int64          `db:"entity_id"`
	ActorID       int64          `db:"actor_id"`
	Action        string         `db:"action"`
	Timestamp     time.Time      `db:"timestamp"`
	PreviousState sql.NullString `db:"previous_state"`
}
