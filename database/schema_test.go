package database

import (
	"context"
	"os"
	"testing"
)

func TestEnsureRAGSchemaRejectsInvalidDimension(t *testing.T) {
	if err := EnsureRAGSchema(context.Background(), nil, 0); err == nil {
		t.Fatal("expected error when dimension is not positive")
	}
}

func TestEnsureRAGSchemaRejectsNilPool(t *testing.T) {
	if err := EnsureRAGSchema(context.Background(), nil, 384); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestChunksTableExistsNilPool(t *testing.T) {
	if _, err := ChunksTableExists(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresSchemaRoundTrip(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run database connectivity checks")
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := EnsureRAGSchema(ctx, pool, 3); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	exists, err := ChunksTableExists(ctx, pool)
	if err != nil {
		t.Fatalf("check table: %v", err)
	}
	if !exists {
		t.Fatal("expected rag_chunks to exist after schema bootstrap")
	}
}
