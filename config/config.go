package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	StorePinecone = "pinecone"
	StorePGVector = "pgvector"
)

type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
}

type IngestConfig struct {
	DataDir      string
	Glob         string
	ChunkSize    int
	ChunkOverlap int
}

type Config struct {
	HTTPAddr string
	LogFile  string

	VectorStore       string
	PineconeAPIKey    string
	PineconeIndex     string
	PineconeNamespace string
	PostgresDSN       string

	Neo4jURI  string
	Neo4jUser string
	Neo4jPass string

	OllamaHost        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string

	Embeddings EmbeddingConfig
	LLM        LLMConfig
	Ingest     IngestConfig

	RetrievalK  int
	CallTimeout time.Duration
}

// Load reads the configuration from the process environment.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		HTTPAddr: v.GetString("HTTP_ADDR"),
		LogFile:  v.GetString("LOG_FILE"),

		VectorStore:       strings.ToLower(strings.TrimSpace(v.GetString("VECTOR_STORE"))),
		PineconeAPIKey:    v.GetString("PINECONE_API_KEY"),
		PineconeIndex:     v.GetString("PINECONE_INDEX"),
		PineconeNamespace: v.GetString("PINECONE_NAMESPACE"),
		PostgresDSN:       v.GetString("POSTGRES_DSN"),

		Neo4jURI:  v.GetString("NEO4J_URI"),
		Neo4jUser: v.GetString("NEO4J_USERNAME"),
		Neo4jPass: v.GetString("NEO4J_PASSWORD"),

		OllamaHost:        v.GetString("OLLAMA_HOST"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
		OpenRouterAPIKey:  v.GetString("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: v.GetString("OPENROUTER_BASE_URL"),

		Embeddings: EmbeddingConfig{
			Provider:  strings.ToLower(v.GetString("EMBEDDINGS_PROVIDER")),
			Model:     v.GetString("EMBEDDINGS_MODEL"),
			Dimension: v.GetInt("EMBEDDINGS_DIMENSION"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("LLM_PROVIDER")),
			Model:       v.GetString("LLM_MODEL"),
			Temperature: float32(v.GetFloat64("LLM_TEMPERATURE")),
			MaxTokens:   v.GetInt("LLM_MAX_TOKENS"),
		},
		Ingest: IngestConfig{
			DataDir:      v.GetString("DATA_DIR"),
			Glob:         v.GetString("INGEST_GLOB"),
			ChunkSize:    v.GetInt("CHUNK_SIZE"),
			ChunkOverlap: v.GetInt("CHUNK_OVERLAP"),
		},

		RetrievalK:  v.GetInt("RETRIEVAL_K"),
		CallTimeout: v.GetDuration("CALL_TIMEOUT"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("VECTOR_STORE", StorePinecone)
	v.SetDefault("PINECONE_INDEX", "medibot2")
	v.SetDefault("POSTGRES_DSN", "postgres://localhost:5432/medibot?sslmode=disable")
	v.SetDefault("NEO4J_USERNAME", "neo4j")
	v.SetDefault("NEO4J_PASSWORD", "password")
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("EMBEDDINGS_PROVIDER", ProviderOllama)
	v.SetDefault("EMBEDDINGS_MODEL", "all-minilm")
	v.SetDefault("EMBEDDINGS_DIMENSION", 384)
	v.SetDefault("LLM_PROVIDER", ProviderOpenRouter)
	v.SetDefault("LLM_MODEL", "meta-llama/llama-3.1-70b-instruct")
	v.SetDefault("LLM_TEMPERATURE", 0.4)
	v.SetDefault("LLM_MAX_TOKENS", 500)
	v.SetDefault("RETRIEVAL_K", 3)
	v.SetDefault("CALL_TIMEOUT", 30*time.Second)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("INGEST_GLOB", "*.pdf")
	v.SetDefault("CHUNK_SIZE", 500)
	v.SetDefault("CHUNK_OVERLAP", 20)
}

// Warnings lists missing credentials. They are reported, not fatal: the
// stage that needs the credential fails on its own at startup.
func (c Config) Warnings() []string {
	var warnings []string
	if strings.TrimSpace(c.PineconeAPIKey) == "" && c.VectorStore == StorePinecone {
		warnings = append(warnings, "PINECONE_API_KEY not set. Pinecone calls will fail if attempted.")
	}
	if strings.TrimSpace(c.OpenRouterAPIKey) == "" && c.LLM.Provider == ProviderOpenRouter {
		warnings = append(warnings, "OPENROUTER_API_KEY not set. LLM calls will fail if attempted.")
	}
	return warnings
}

// GraphEnabled reports whether ingestion should mirror provenance into Neo4j.
func (c Config) GraphEnabled() bool {
	return strings.TrimSpace(c.Neo4jURI) != ""
}
