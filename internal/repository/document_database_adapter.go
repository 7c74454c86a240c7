package repository

import (
	"context"
	"fmt"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// DocumentDatabaseAdapter implements domain.DocumentRepository using sqlx.
type DocumentDatabaseAdapter struct {
	db *sqlx.DB
}

// NewDocumentDatabaseAdapter creates a new instance of DocumentDatabaseAdapter
func NewDocumentDatabaseAdapter(db *sqlx.DB) domain.DocumentRepository {
	return &DocumentDatabaseAdapter{db: db}
}

// GetDocumentsByIDs implements domain.DocumentRepository. Unknown IDs are
// silently omitted from the result.
func (a *DocumentDatabaseAdapter) GetDocumentsByIDs(ctx context.Context, ids []int64) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	exec := GetExecutor(ctx, a.db)

	query, args, err := sqlx.In(
		`SELECT id, user_id, filename, file_type, content, created_at FROM documents WHERE id IN (?) ORDER BY id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build documents query: %w", err)
	}

	var modelDocs []models.Document
	if err := exec.SelectContext(ctx, &modelDocs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	docs := make([]*domain.Document, 0, len(modelDocs))
	for i := range modelDocs {
		m := modelDocs[i]
		docs = append(docs, &domain.Document{
			ID:        m.ID,
			UserID:    m.UserID,
			Filename:  m.Filename,
			FileType:  m.FileType,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return docs, nil
}

// GetChunksByDocumentIDs implements domain.DocumentRepository. Chunks come
// back in document order, then chunk position.
func (a *DocumentDatabaseAdapter) GetChunksByDocumentIDs(ctx context.Context, documentIDs []int64) ([]*domain.DocumentChunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	exec := GetExecutor(ctx, a.db)

	query, args, err := sqlx.In(
		`SELECT id, document_id, position, chunk_text, embedding FROM document_chunks
		WHERE document_id IN (?) ORDER BY document_id ASC, position ASC`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build chunks query: %w", err)
	}

	var modelChunks []models.DocumentChunk
	if err := exec.SelectContext(ctx, &modelChunks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get document chunks: %w", err)
	}

	chunks := make([]*domain.DocumentChunk, 0, len(modelChunks))
	for i := range modelChunks {
		m := modelChunks[i]
		chunks = append(chunks, &domain.DocumentChunk{
			ID:         m.ID,
			DocumentID: m.DocumentID,
			Position:   m.Position,
			Text:       m.Text,
			Embedding:  m.Embedding,
		})
	}
	return chunks, nil
}
