package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rahil-15/MediBot2.0/embeddings"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

const defaultRetrievalK = 3

// Retriever runs a plain similarity search returning at most k chunks.
type Retriever struct {
	embedder embeddings.Embedder
	index    vectorstore.Index
	k        int
	timeout  time.Duration
}

func NewRetriever(embedder embeddings.Embedder, index vectorstore.Index, k int, timeout time.Duration) *Retriever {
	if k <= 0 {
		k = defaultRetrievalK
	}
	return &Retriever{embedder: embedder, index: index, k: k, timeout: timeout}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.Match, error) {
	vector, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	matches, err := r.index.SimilaritySearch(searchCtx, vector, r.k)
	if err != nil {
		return nil, timeoutError(searchCtx, "vector index", err)
	}

	if len(matches) > r.k {
		matches = matches[:r.k]
	}
	return matches, nil
}

func (r *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	embedCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := embeddings.EmbedQuery(embedCtx, r.embedder, query)
	if err != nil {
		return nil, timeoutError(embedCtx, "embeddings", err)
	}
	return vector, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func timeoutError(ctx context.Context, stage string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &UpstreamError{Stage: stage, Err: fmt.Errorf("timed out: %w", err)}
	}
	return &UpstreamError{Stage: stage, Err: err}
}
