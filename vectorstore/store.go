// Package vectorstore wraps the similarity index that holds embedded chunks.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Rahil-15/MediBot2.0/config"
)

// Chunk is a bounded slice of a source document. It is immutable once
// upserted.
type Chunk struct {
	ID     string
	Text   string
	Source string
	Page   int
	Index  int
}

// Record pairs a chunk with its embedding for upsert.
type Record struct {
	Chunk  Chunk
	Vector []float32
}

// Match is one retrieval hit. Higher scores are more similar.
type Match struct {
	Chunk Chunk
	Score float64
}

type Index interface {
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]Match, error)
	Upsert(ctx context.Context, records []Record) error
	Close() error
}

// OpenExisting connects to the configured, already provisioned index. It
// never creates one.
func OpenExisting(ctx context.Context, cfg config.Config) (Index, error) {
	switch cfg.VectorStore {
	case config.StorePinecone:
		return OpenPinecone(ctx, PineconeOptions{
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.PineconeIndex,
			Namespace: cfg.PineconeNamespace,
		})
	case config.StorePGVector:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

// sortMatches orders matches by descending score. Non-finite scores, such as
// the NaN cosine distance of a zero vector, are reset to 0.
func sortMatches(matches []Match) {
	for i := range matches {
		if math.IsNaN(matches[i].Score) || math.IsInf(matches[i].Score, 0) {
			matches[i].Score = 0
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}
