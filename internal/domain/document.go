package domain

import (
	"context"
	"time"
)

// Document holds the already-extracted text of an uploaded file. Format
// decoding (PDF/DOCX/HTML) happens upstream of this layer.
type Document struct {
	ID        int64
	UserID    int64
	Filename  string
	FileType  string
	Content   string
	CreatedAt time.Time
}

// DocumentChunk is a retrievable fragment of a document with its stored
// embedding vector.
type DocumentChunk struct {
	ID         int64
	DocumentID int64
	Position   int
	Text       string
	Embedding  []float32
}

// RelevantChunk is a ranked retrieval result used to ground generation.
type RelevantChunk struct {
	DocumentID int64
	Text       string
	Score      float64
}

// Retriever ranks document fragments against a query. An empty result means
// "no grounding available"; callers fall back to full-document truncation.
type Retriever interface {
	FindRelevant(ctx context.Context, query string, topK int, documentIDs []int64) ([]RelevantChunk, error)
}

// TextGenerator is the external generation provider. Complete returns the
// raw model text; failures are reported as errors, an empty string is treated
// identically by the orchestrator.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
