package chat

import (
	"context"
	"time"

	"github.com/Rahil-15/MediBot2.0/llm"
)

// Chain turns a question into a structured Result.
type Chain interface {
	Invoke(ctx context.Context, input string) (Result, error)
}

// RetrievalChain retrieves context first and only then asks the LLM.
type RetrievalChain struct {
	retriever *Retriever
	llm       llm.Client
	prompt    PromptTemplate
	timeout   time.Duration
}

func NewRetrievalChain(retriever *Retriever, client llm.Client, prompt PromptTemplate, timeout time.Duration) *RetrievalChain {
	return &RetrievalChain{
		retriever: retriever,
		llm:       client,
		prompt:    prompt,
		timeout:   timeout,
	}
}

func (c *RetrievalChain) Invoke(ctx context.Context, input string) (Result, error) {
	docs, err := c.retriever.Retrieve(ctx, input)
	if err != nil {
		return Result{}, err
	}

	genCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.llm.Generate(genCtx, c.prompt.Messages(input, docs))
	if err != nil {
		return Result{}, timeoutError(genCtx, "llm", err)
	}

	return Result{Input: input, Context: docs, Answer: answer}, nil
}

var _ Chain = (*RetrievalChain)(nil)
