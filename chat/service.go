// Package chat answers questions by retrieving indexed document chunks and
// handing them to the LLM.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"strings"
)

// Readiness records which startup stages succeeded. It is computed once by
// Bootstrap and never changes afterwards.
type Readiness struct {
	Embeddings bool `json:"embeddings"`
	Retriever  bool `json:"retriever"`
	Chain      bool `json:"chain"`
}

func (r Readiness) Ready() bool {
	return r.Embeddings && r.Retriever && r.Chain
}

// Pipeline is the request-facing side of the RAG service. It is safe for
// concurrent use: nothing in it is written after construction.
type Pipeline struct {
	readiness Readiness
	chain     Chain
	closer    io.Closer
	logger    *log.Logger
}

// NewPipeline wraps an already built chain. A nil chain forces the pipeline
// into the not-ready state.
func NewPipeline(readiness Readiness, chain Chain, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	if chain == nil {
		readiness.Chain = false
	}
	if !readiness.Embeddings {
		readiness.Retriever = false
	}
	if !readiness.Retriever {
		readiness.Chain = false
	}
	if !readiness.Chain {
		chain = nil
	}

	return &Pipeline{
		readiness: readiness,
		chain:     chain,
		logger:    logger,
	}
}

func (p *Pipeline) Readiness() Readiness {
	return p.readiness
}

// Answer runs the chain for message and returns the reply text.
//
// Errors are ErrNoInput, ErrNotReady or *UpstreamError. The full upstream
// error is logged here; callers should not show it to clients.
func (p *Pipeline) Answer(ctx context.Context, message string) (answer string, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrNoInput
	}

	if p.chain == nil {
		p.logger.Printf("RAG chain not initialized (embeddings=%t retriever=%t chain=%t)",
			p.readiness.Embeddings, p.readiness.Retriever, p.readiness.Chain)
		return "", ErrNotReady
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("rag chain panic: %v\n%s", r, debug.Stack())
			answer = ""
			err = &UpstreamError{Stage: "chain", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err := p.chain.Invoke(ctx, message)
	if err != nil {
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			upstream = &UpstreamError{Err: err}
		}
		p.logger.Printf("rag chain invoke failed: %+v", upstream)
		return "", upstream
	}

	answer, field := ExtractAnswer(res)
	if field == "" {
		p.logger.Printf("chain result has no known answer field, replying with the full result")
	}
	return answer, nil
}

// Close releases the vector index connection, if any.
func (p *Pipeline) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
