package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rahil-15/MediBot2.0/embeddings"
	"github.com/Rahil-15/MediBot2.0/knowledge"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

const defaultEmbedBatch = 32

// GraphSyncer records which file produced which chunks.
type GraphSyncer interface {
	SyncDocument(ctx context.Context, doc knowledge.Document) error
}

type Service struct {
	loader    *Loader
	splitter  *Splitter
	embedder  embeddings.Embedder
	index     vectorstore.Index
	graph     GraphSyncer
	logger    *log.Logger
	batchSize int

	watchSettle time.Duration
}

// NewService wires ingestion. embedder and index may be nil for callers that
// only need Ingest; graph is optional.
func NewService(loader *Loader, splitter *Splitter, embedder embeddings.Embedder, index vectorstore.Index, graph GraphSyncer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if loader == nil {
		loader = NewLoader(defaultGlob, false, logger)
	}
	if splitter == nil {
		splitter = NewSplitter(defaultChunkSize, defaultChunkOverlap)
	}

	return &Service{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		graph:     graph,
		logger:    logger,
		batchSize: defaultEmbedBatch,

		watchSettle: defaultWatchSettle,
	}
}

// Ingest loads the matching documents in dir and splits them into chunks.
func (s *Service) Ingest(ctx context.Context, dir string) ([]vectorstore.Chunk, error) {
	docs, err := s.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		s.logger.Printf("no documents matching %s found in %s", s.loader.Glob, dir)
		return nil, nil
	}

	chunks := s.splitter.SplitDocuments(docs)
	s.logger.Printf("split %d pages into %d chunks", len(docs), len(chunks))
	return chunks, nil
}

// IngestDirectory runs Ingest and writes the chunks to the index. It returns
// the number of chunks written.
func (s *Service) IngestDirectory(ctx context.Context, dir string) (int, error) {
	chunks, err := s.Ingest(ctx, dir)
	if err != nil {
		return 0, err
	}
	return s.IndexChunks(ctx, chunks)
}

// IngestFile re-ingests a single file, as used by watch mode.
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	docs, err := s.loader.LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return s.IndexChunks(ctx, s.splitter.SplitDocuments(docs))
}

// IndexChunks embeds chunks in batches and upserts them.
func (s *Service) IndexChunks(ctx context.Context, chunks []vectorstore.Chunk) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("embedder not configured")
	}
	if s.index == nil {
		return 0, fmt.Errorf("vector index not configured")
	}

	written := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("generate embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return written, fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(batch), len(vectors))
		}

		records := make([]vectorstore.Record, len(batch))
		for i, chunk := range batch {
			records[i] = vectorstore.Record{Chunk: chunk, Vector: vectors[i]}
		}
		if err := s.index.Upsert(ctx, records); err != nil {
			return written, fmt.Errorf("upsert chunks: %w", err)
		}
		written += len(batch)
	}

	if s.graph != nil {
		for _, doc := range provenance(chunks) {
			if err := s.graph.SyncDocument(ctx, doc); err != nil {
				s.logger.Printf("sync knowledge graph for %s: %v", doc.Path, err)
			}
		}
	}

	s.logger.Printf("indexed %d chunks", written)
	return written, nil
}

func provenance(chunks []vectorstore.Chunk) []knowledge.Document {
	bySource := make(map[string]*knowledge.Document)
	order := make([]string, 0)
	for _, chunk := range chunks {
		doc, ok := bySource[chunk.Source]
		if !ok {
			doc = &knowledge.Document{
				ID:    documentID(chunk.Source),
				Path:  filepath.ToSlash(chunk.Source),
				Title: strings.TrimSuffix(filepath.Base(chunk.Source), filepath.Ext(chunk.Source)),
				SHA:   fileSHA(chunk.Source),
			}
			bySource[chunk.Source] = doc
			order = append(order, chunk.Source)
		}
		if chunk.Page+1 > doc.Pages {
			doc.Pages = chunk.Page + 1
		}
		doc.Chunks = append(doc.Chunks, knowledge.Chunk{
			ID:    chunk.ID,
			Index: chunk.Index,
			Page:  chunk.Page,
			Text:  chunk.Text,
		})
	}

	docs := make([]knowledge.Document, 0, len(order))
	for _, source := range order {
		docs = append(docs, *bySource[source])
	}
	return docs
}

func documentID(source string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(source)))
	return hex.EncodeToString(sum[:16])
}

func fileSHA(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
