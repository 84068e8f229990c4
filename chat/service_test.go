package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Rahil-15/MediBot2.0/config"
	"github.com/Rahil-15/MediBot2.0/embeddings"
	"github.com/Rahil-15/MediBot2.0/llm"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

type stubIndex struct {
	calls   int
	lastK   int
	matches []vectorstore.Match
	err     error
	block   bool
}

func (s *stubIndex) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	s.calls++
	s.lastK = k
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func (s *stubIndex) Upsert(ctx context.Context, records []vectorstore.Record) error { return nil }

func (s *stubIndex) Close() error { return nil }

var _ vectorstore.Index = (*stubIndex)(nil)

type stubLLM struct {
	calls    int
	answer   string
	err      error
	messages []llm.Message
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

var _ llm.Client = (*stubLLM)(nil)

type stubChain struct {
	calls  int
	result Result
	err    error
	panic  bool
}

func (s *stubChain) Invoke(ctx context.Context, input string) (Result, error) {
	s.calls++
	if s.panic {
		panic("nil map write")
	}
	if s.err != nil {
		return Result{}, s.err
	}
	return s.result, nil
}

func threeChunks() []vectorstore.Match {
	return []vectorstore.Match{
		{Chunk: vectorstore.Chunk{ID: "c1", Text: "Hypertension is high blood pressure.", Source: "data/medical.pdf", Page: 1}, Score: 0.91},
		{Chunk: vectorstore.Chunk{ID: "c2", Text: "Normal blood pressure is below 120/80.", Source: "data/medical.pdf", Page: 2}, Score: 0.85},
		{Chunk: vectorstore.Chunk{ID: "c3", Text: "Risk factors include obesity.", Source: "data/medical.pdf", Page: 3}, Score: 0.77},
	}
}

func readyPipeline(chain Chain) *Pipeline {
	return NewPipeline(Readiness{Embeddings: true, Retriever: true, Chain: true}, chain, log.New(io.Discard, "", 0))
}

func TestAnswerReturnsChainAnswer(t *testing.T) {
	embedder := &stubEmbedder{}
	index := &stubIndex{matches: threeChunks()}
	client := &stubLLM{answer: "Hypertension is elevated blood pressure."}
	chain := NewRetrievalChain(NewRetriever(embedder, index, 3, time.Second), client, NewPromptTemplate(""), time.Second)

	answer, err := readyPipeline(chain).Answer(context.Background(), "What is hypertension?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Hypertension is elevated blood pressure." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if index.lastK != 3 {
		t.Fatalf("expected k=3, got %d", index.lastK)
	}
	if len(client.messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(client.messages))
	}
	if !strings.Contains(client.messages[0].Content, "Risk factors include obesity.") {
		t.Fatalf("expected retrieved context in system prompt: %q", client.messages[0].Content)
	}
	if client.messages[1].Content != "What is hypertension?" {
		t.Fatalf("unexpected user message: %q", client.messages[1].Content)
	}
}

func TestAnswerRejectsBlankMessage(t *testing.T) {
	chain := &stubChain{}
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := readyPipeline(chain).Answer(context.Background(), msg); !errors.Is(err, ErrNoInput) {
			t.Fatalf("expected ErrNoInput for %q, got %v", msg, err)
		}
	}
	if chain.calls != 0 {
		t.Fatalf("chain should not be invoked, got %d calls", chain.calls)
	}

	notReady := NewPipeline(Readiness{}, nil, log.New(io.Discard, "", 0))
	if _, err := notReady.Answer(context.Background(), " "); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput before readiness check, got %v", err)
	}
}

func TestAnswerNotReady(t *testing.T) {
	chain := &stubChain{result: Result{Answer: "never"}}
	p := NewPipeline(Readiness{Embeddings: true, Retriever: false, Chain: true}, chain, log.New(io.Discard, "", 0))

	if _, err := p.Answer(context.Background(), "question"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if chain.calls != 0 {
		t.Fatalf("chain should not be invoked when not ready, got %d calls", chain.calls)
	}
	if p.Readiness().Chain {
		t.Fatal("chain must be forced unavailable when retriever is unavailable")
	}
}

func TestAnswerWrapsUpstreamFailure(t *testing.T) {
	var logs bytes.Buffer
	client := &stubLLM{err: errors.New("401 invalid api key sk-or-123")}
	chain := NewRetrievalChain(NewRetriever(&stubEmbedder{}, &stubIndex{matches: threeChunks()}, 3, 0), client, NewPromptTemplate(""), 0)
	p := NewPipeline(Readiness{Embeddings: true, Retriever: true, Chain: true}, chain, log.New(&logs, "", 0))

	_, err := p.Answer(context.Background(), "question")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Stage != "llm" {
		t.Fatalf("expected llm stage, got %q", upstream.Stage)
	}
	if !strings.Contains(logs.String(), "sk-or-123") {
		t.Fatalf("expected full upstream detail in logs, got %q", logs.String())
	}
}

func TestAnswerRecoversChainPanic(t *testing.T) {
	_, err := readyPipeline(&stubChain{panic: true}).Answer(context.Background(), "question")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError from panic, got %v", err)
	}
}

func TestRetrievalRunsBeforeSynthesis(t *testing.T) {
	index := &stubIndex{err: errors.New("connection reset")}
	client := &stubLLM{answer: "unused"}
	chain := NewRetrievalChain(NewRetriever(&stubEmbedder{}, index, 3, 0), client, NewPromptTemplate(""), 0)

	_, err := readyPipeline(chain).Answer(context.Background(), "question")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Stage != "vector index" {
		t.Fatalf("expected vector index failure, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("llm must not be called when retrieval fails, got %d calls", client.calls)
	}
}

func TestRetrieverTimeoutSurfacesAsUpstream(t *testing.T) {
	index := &stubIndex{block: true}
	retriever := NewRetriever(&stubEmbedder{}, index, 3, 20*time.Millisecond)

	_, err := retriever.Retrieve(context.Background(), "question")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRetrieverCapsResultsAtK(t *testing.T) {
	matches := append(threeChunks(), vectorstore.Match{Chunk: vectorstore.Chunk{ID: "c4"}, Score: 0.1})
	retriever := NewRetriever(&stubEmbedder{}, &stubIndex{matches: matches}, 3, 0)

	got, err := retriever.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
}

func TestExtractAnswerPriority(t *testing.T) {
	res := Result{OutputText: "from output_text", Result: "from result", Output: "from output"}
	if got, field := ExtractAnswer(res); got != "from output_text" || field != "output_text" {
		t.Fatalf("unexpected extraction: %q from %q", got, field)
	}

	res = Result{Answer: "  ", Output: "from output"}
	if got, field := ExtractAnswer(res); got != "from output" || field != "output" {
		t.Fatalf("unexpected extraction: %q from %q", got, field)
	}
}

func TestAnswerFallsBackToStringifiedResult(t *testing.T) {
	res := Result{Input: "What is hypertension?", Context: threeChunks()}

	answer, err := readyPipeline(&stubChain{result: res}).Answer(context.Background(), "What is hypertension?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != res.String() {
		t.Fatalf("expected stringified result %q, got %q", res.String(), answer)
	}
	if answer == "" {
		t.Fatal("fallback answer must not be empty")
	}
}

func TestAnswerFallbackSurvivesUnencodableResult(t *testing.T) {
	res := Result{
		Input:   "What is hypertension?",
		Context: []vectorstore.Match{{Chunk: vectorstore.Chunk{Text: "degenerate"}, Score: math.NaN()}},
	}

	answer, err := readyPipeline(&stubChain{result: res}).Answer(context.Background(), "What is hypertension?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(answer, "What is hypertension?") {
		t.Fatalf("expected fallback rendering of the result, got %q", answer)
	}
}

func TestBootstrapReady(t *testing.T) {
	index := &stubIndex{matches: threeChunks()}
	stages := Stages{
		NewEmbedder: func(config.Config) (embeddings.Embedder, error) { return &stubEmbedder{}, nil },
		OpenIndex:   func(context.Context, config.Config) (vectorstore.Index, error) { return index, nil },
		NewLLM:      func(config.Config) (llm.Client, error) { return &stubLLM{answer: "ok"}, nil },
	}

	p := Bootstrap(context.Background(), config.Config{RetrievalK: 3}, stages, log.New(io.Discard, "", 0))
	if !p.Readiness().Ready() {
		t.Fatalf("expected ready pipeline, got %+v", p.Readiness())
	}

	answer, err := p.Answer(context.Background(), "question")
	if err != nil || answer != "ok" {
		t.Fatalf("unexpected answer %q, err %v", answer, err)
	}
}

func TestBootstrapShortCircuits(t *testing.T) {
	var indexCalls, llmCalls int
	stages := Stages{
		NewEmbedder: func(config.Config) (embeddings.Embedder, error) { return nil, errors.New("model download failed") },
		OpenIndex: func(context.Context, config.Config) (vectorstore.Index, error) {
			indexCalls++
			return &stubIndex{}, nil
		},
		NewLLM: func(config.Config) (llm.Client, error) {
			llmCalls++
			return &stubLLM{}, nil
		},
	}

	p := Bootstrap(context.Background(), config.Config{}, stages, log.New(io.Discard, "", 0))
	if p.Readiness() != (Readiness{}) {
		t.Fatalf("expected nothing ready, got %+v", p.Readiness())
	}
	if indexCalls != 0 || llmCalls != 0 {
		t.Fatalf("later stages must be skipped, got index=%d llm=%d", indexCalls, llmCalls)
	}
}

func TestBootstrapIndexFailure(t *testing.T) {
	var llmCalls int
	embedder := &stubEmbedder{}
	stages := Stages{
		NewEmbedder: func(config.Config) (embeddings.Embedder, error) { return embedder, nil },
		OpenIndex: func(context.Context, config.Config) (vectorstore.Index, error) {
			return nil, errors.New("index medibot2 not found")
		},
		NewLLM: func(config.Config) (llm.Client, error) {
			llmCalls++
			return &stubLLM{}, nil
		},
	}

	var logs bytes.Buffer
	p := Bootstrap(context.Background(), config.Config{}, stages, log.New(&logs, "", 0))
	want := Readiness{Embeddings: true}
	if p.Readiness() != want {
		t.Fatalf("expected %+v, got %+v", want, p.Readiness())
	}
	if llmCalls != 0 {
		t.Fatalf("llm stage must be skipped, got %d calls", llmCalls)
	}
	if !strings.Contains(logs.String(), "index medibot2 not found") {
		t.Fatalf("expected stage error in logs, got %q", logs.String())
	}

	if _, err := p.Answer(context.Background(), "question"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("embedder must not be called, got %d calls", embedder.calls)
	}
}

func TestBootstrapRecoversStagePanic(t *testing.T) {
	stages := Stages{
		NewEmbedder: func(config.Config) (embeddings.Embedder, error) { return &stubEmbedder{}, nil },
		OpenIndex:   func(context.Context, config.Config) (vectorstore.Index, error) { return &stubIndex{}, nil },
		NewLLM:      func(config.Config) (llm.Client, error) { panic("bad template") },
	}

	p := Bootstrap(context.Background(), config.Config{}, stages, log.New(io.Discard, "", 0))
	want := Readiness{Embeddings: true, Retriever: true}
	if p.Readiness() != want {
		t.Fatalf("expected %+v, got %+v", want, p.Readiness())
	}
}

func TestPromptTemplateStuffsContext(t *testing.T) {
	prompt := NewPromptTemplate("Answer from: {context}")
	msgs := prompt.Messages("q", threeChunks())
	if !strings.HasPrefix(msgs[0].Content, "Answer from: Hypertension is high blood pressure.\n\nNormal") {
		t.Fatalf("unexpected system prompt: %q", msgs[0].Content)
	}

	withoutPlaceholder := NewPromptTemplate("Be brief.")
	if !strings.Contains(withoutPlaceholder.System, contextPlaceholder) {
		t.Fatal("expected context placeholder to be appended")
	}
}
