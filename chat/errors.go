package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput means the caller sent an empty or whitespace-only message.
	ErrNoInput = errors.New("no message provided")
	// ErrNotReady means a startup stage failed and the chain was never built.
	ErrNotReady = errors.New("rag chain not ready")
)

// UpstreamError wraps a failure raised by the embedder, the vector index or
// the LLM while answering a request.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("upstream failure: %v", e.Err)
	}
	return fmt.Sprintf("upstream failure in %s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
