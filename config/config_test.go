package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg := Load()

	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("unexpected listen address: %q", cfg.HTTPAddr)
	}
	if cfg.PineconeIndex != "medibot2" {
		t.Fatalf("unexpected index name: %q", cfg.PineconeIndex)
	}
	if cfg.RetrievalK != 3 {
		t.Fatalf("expected k=3, got %d", cfg.RetrievalK)
	}
	if cfg.LLM.MaxTokens != 500 || cfg.LLM.Temperature != 0.4 {
		t.Fatalf("unexpected llm settings: %+v", cfg.LLM)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 20 || cfg.Ingest.Glob != "*.pdf" {
		t.Fatalf("unexpected ingest settings: %+v", cfg.Ingest)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Fatalf("unexpected call timeout: %s", cfg.CallTimeout)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("VECTOR_STORE", "PGVector")
	t.Setenv("RETRIEVAL_K", "7")
	t.Setenv("CALL_TIMEOUT", "5s")
	t.Setenv("LLM_TEMPERATURE", "0.1")

	cfg := Load()

	if cfg.VectorStore != StorePGVector {
		t.Fatalf("expected pgvector store, got %q", cfg.VectorStore)
	}
	if cfg.RetrievalK != 7 {
		t.Fatalf("expected k=7, got %d", cfg.RetrievalK)
	}
	if cfg.CallTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.CallTimeout)
	}
	if cfg.LLM.Temperature != float32(0.1) {
		t.Fatalf("expected temperature 0.1, got %v", cfg.LLM.Temperature)
	}
}

func TestWarningsForMissingCredentials(t *testing.T) {
	cfg := Config{VectorStore: StorePinecone, LLM: LLMConfig{Provider: ProviderOpenRouter}}
	if got := len(cfg.Warnings()); got != 2 {
		t.Fatalf("expected 2 warnings, got %d", got)
	}

	cfg.PineconeAPIKey = "pc-key"
	cfg.OpenRouterAPIKey = "or-key"
	if got := cfg.Warnings(); len(got) != 0 {
		t.Fatalf("expected no warnings, got %v", got)
	}
}
