package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/arxivsubj/internal/cache"
)

// EmbeddingClient is the subset of *openai.Client used by Embeddings.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// NewOpenAIClient builds a client for any OpenAI-compatible server.
func NewOpenAIClient(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Embeddings represents each document by a dense embedding vector from an
// OpenAI-compatible /embeddings endpoint.
type Embeddings struct {
	Client    EmbeddingClient
	Model     string
	BatchSize int
	// Cache is optional.
	Cache *cache.VectorCache
}

func (e *Embeddings) Name() string { return "embeddings" }

// FitTransform embeds docs. Cached vectors are reused and the rest are
// requested in batches of BatchSize.
func (e *Embeddings) FitTransform(ctx context.Context, docs []string) (Matrix, error) {
	if e.Client == nil {
		return Matrix{}, errors.New("embeddings: client not configured")
	}
	if e.Model == "" {
		return Matrix{}, errors.New("embeddings: model not configured")
	}
	vecs := make([][]float32, len(docs))
	var pending []int
	for i, d := range docs {
		if e.Cache != nil {
			if v, ok, _ := e.Cache.Get(ctx, cache.VectorKey(e.Model, d)); ok {
				vecs[i] = v
				continue
			}
		}
		pending = append(pending, i)
	}
	if hits := len(docs) - len(pending); hits > 0 {
		log.Debug().Int("hits", hits).Int("misses", len(pending)).Msg("embedding cache")
	}

	batch := e.BatchSize
	if batch <= 0 {
		batch = 64
	}
	for start := 0; start < len(pending); start += batch {
		end := start + batch
		if end > len(pending) {
			end = len(pending)
		}
		idx := pending[start:end]
		input := make([]string, len(idx))
		for k, i := range idx {
			input[k] = docs[i]
		}
		resp, err := e.Client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: input,
			Model: openai.EmbeddingModel(e.Model),
		})
		if err != nil {
			return Matrix{}, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(idx) {
			return Matrix{}, fmt.Errorf("create embeddings: got %d vectors for %d inputs", len(resp.Data), len(idx))
		}
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(idx) {
				return Matrix{}, fmt.Errorf("create embeddings: index %d out of range", item.Index)
			}
			i := idx[item.Index]
			vecs[i] = item.Embedding
			if e.Cache != nil {
				if err := e.Cache.Put(ctx, cache.VectorKey(e.Model, docs[i]), item.Embedding); err != nil {
					log.Warn().Err(err).Msg("embedding cache write failed")
				}
			}
		}
	}

	dim := 0
	rows := make([]Vector, len(docs))
	for i, v := range vecs {
		if v == nil {
			return Matrix{}, fmt.Errorf("create embeddings: no vector for document %d", i)
		}
		if i == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return Matrix{}, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(v), dim)
		}
		vals := make([]float64, len(v))
		for k, x := range v {
			vals[k] = float64(x)
		}
		normalizeL2(vals)
		rows[i] = denseVector(vals)
	}
	return Matrix{Rows: rows, Dim: dim}, nil
}

var (
	_ Vectorizer = (*TFIDF)(nil)
	_ Vectorizer = (*Embeddings)(nil)
)
