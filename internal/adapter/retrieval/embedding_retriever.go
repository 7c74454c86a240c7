package retrieval

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/util"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const queryEmbeddingTTL = 168 * time.Hour // 7 days

// EmbeddingRetriever implements domain.Retriever by ranking stored document
// chunks against a query embedding with cosine similarity. Query embeddings
// are cached gob-encoded; singleflight collapses concurrent requests for the
// same query.
type EmbeddingRetriever struct {
	embedder embeddings.Embedder
	docs     domain.DocumentRepository
	cache    domain.Cache // optional, nil disables embedding reuse
	sfGroup  singleflight.Group
}

// NewEmbeddingRetriever creates an EmbeddingRetriever backed by the OpenAI
// embeddings API. cacheAdapter may be nil.
func NewEmbeddingRetriever(apiKey, modelName string, docs domain.DocumentRepository, cacheAdapter domain.Cache) (*EmbeddingRetriever, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-ada-002"
	}
	if docs == nil {
		return nil, fmt.Errorf("document repository cannot be nil")
	}

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithModel(modelName),
		openaiLLM.WithEmbeddingModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from OpenAI LLM: %w", err)
	}

	return &EmbeddingRetriever{
		embedder: embedder,
		docs:     docs,
		cache:    cacheAdapter,
	}, nil
}

// FindRelevant returns up to topK chunks from the given documents, ranked by
// cosine similarity against the query. Chunks without a stored embedding are
// skipped.
func (r *EmbeddingRetriever) FindRelevant(ctx context.Context, query string, topK int, documentIDs []int64) ([]domain.RelevantChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty for retrieval")
	}
	if len(documentIDs) == 0 {
		return nil, nil
	}

	queryEmbedding, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := r.docs.GetChunksByDocumentIDs(ctx, documentIDs)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RelevantChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		score, simErr := util.CosineSimilarity(queryEmbedding, c.Embedding)
		if simErr != nil {
			logger.Get().Warn("Skipping chunk with incompatible embedding",
				zap.Int64("chunk_id", c.ID),
				zap.Error(simErr))
			continue
		}
		ranked = append(ranked, domain.RelevantChunk{
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Score:      score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// embedQuery generates (or reuses) the embedding for a query string.
func (r *EmbeddingRetriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	queryHash := hashString(query)
	cacheKey := cache.GenerateCacheKey("embedding", "query", queryHash)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey)
		if err == nil {
			var embedding []float32
			decoder := gob.NewDecoder(bytes.NewReader([]byte(cached)))
			if decodeErr := decoder.Decode(&embedding); decodeErr == nil {
				return embedding, nil
			}
			logger.Get().Warn("Failed to decode cached query embedding", zap.String("cache_key", cacheKey))
		} else if err != domain.ErrCacheMiss {
			logger.Get().Warn("Query embedding cache read failed", zap.Error(err))
		}
	}

	res, err, _ := r.sfGroup.Do(cacheKey, func() (interface{}, error) {
		embedding, fetchErr := r.embedder.EmbedQuery(ctx, query)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to generate query embedding: %w", fetchErr)
		}
		if embedding == nil {
			return nil, fmt.Errorf("received nil embedding without error")
		}

		if r.cache != nil {
			var buffer bytes.Buffer
			if encodeErr := gob.NewEncoder(&buffer).Encode(embedding); encodeErr == nil {
				if cacheErr := r.cache.Set(ctx, cacheKey, buffer.String(), queryEmbeddingTTL); cacheErr != nil {
					logger.Get().Warn("Failed to cache query embedding", zap.Error(cacheErr))
				}
			}
		}
		return embedding, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
