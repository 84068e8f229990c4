package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/Rahil-15/MediBot2.0/config"
	"github.com/Rahil-15/MediBot2.0/embeddings"
	"github.com/Rahil-15/MediBot2.0/llm"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

// Stages constructs the pipeline's collaborators. Tests replace individual
// stages to simulate startup failures.
type Stages struct {
	NewEmbedder func(cfg config.Config) (embeddings.Embedder, error)
	OpenIndex   func(ctx context.Context, cfg config.Config) (vectorstore.Index, error)
	NewLLM      func(cfg config.Config) (llm.Client, error)
}

func DefaultStages() Stages {
	return Stages{
		NewEmbedder: embeddings.NewEmbedder,
		OpenIndex:   vectorstore.OpenExisting,
		NewLLM:      llm.NewClient,
	}
}

// Bootstrap builds the pipeline in order: embeddings, vector index, then
// LLM and chain. The first failing stage is logged and every later stage is
// skipped. Bootstrap never fails; a broken configuration yields a pipeline
// that answers ErrNotReady.
func Bootstrap(ctx context.Context, cfg config.Config, stages Stages, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}

	var readiness Readiness

	var embedder embeddings.Embedder
	if err := runStage(func() (err error) {
		embedder, err = stages.NewEmbedder(cfg)
		return err
	}); err != nil {
		logger.Printf("Failed to get embeddings: %v", err)
		return NewPipeline(readiness, nil, logger)
	}
	readiness.Embeddings = true

	var index vectorstore.Index
	if err := runStage(func() (err error) {
		openCtx, cancel := withTimeout(ctx, cfg.CallTimeout)
		defer cancel()
		index, err = stages.OpenIndex(openCtx, cfg)
		return err
	}); err != nil {
		logger.Printf("Failed to initialize vector index (%s): %v", cfg.VectorStore, err)
		return NewPipeline(readiness, nil, logger)
	}
	readiness.Retriever = true
	retriever := NewRetriever(embedder, index, cfg.RetrievalK, cfg.CallTimeout)

	var chain Chain
	if err := runStage(func() error {
		client, err := stages.NewLLM(cfg)
		if err != nil {
			return err
		}
		chain = NewRetrievalChain(retriever, client, NewPromptTemplate(""), cfg.CallTimeout)
		return nil
	}); err != nil {
		logger.Printf("Failed to create LLM/chain: %v", err)
		p := NewPipeline(readiness, nil, logger)
		p.closer = index
		return p
	}
	readiness.Chain = true

	logger.Printf("RAG chain ready (index=%s, k=%d, model=%s)", cfg.VectorStore, retriever.k, cfg.LLM.Model)
	p := NewPipeline(readiness, chain, logger)
	p.closer = index
	return p
}

func runStage(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
