package knowledge

import (
	"context"
	"os"
	"testing"

	"github.com/Rahil-15/MediBot2.0/database"
)

func TestSyncDocumentNilDriver(t *testing.T) {
	if err := SyncDocument(context.Background(), nil, Document{ID: "doc"}); err == nil {
		t.Fatal("expected error when driver is nil")
	}
}

func TestPurgeNilDriver(t *testing.T) {
	if err := NewGraph(nil).Purge(context.Background()); err == nil {
		t.Fatal("expected error when driver is nil")
	}
}

func TestSyncDocumentRoundTrip(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run database connectivity checks")
	}

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	ctx := context.Background()
	driver, err := database.NewNeo4jDriver(ctx, uri, os.Getenv("NEO4J_USERNAME"), os.Getenv("NEO4J_PASSWORD"))
	if err != nil {
		t.Fatalf("neo4j connection: %v", err)
	}
	defer driver.Close(ctx)

	doc := Document{
		ID:    "test-doc",
		Path:  "data/test.pdf",
		Title: "test",
		Pages: 1,
		Chunks: []Chunk{
			{ID: "test-chunk-0", Index: 0, Page: 0, Text: "Hypertension is elevated blood pressure."},
		},
	}
	if err := NewGraph(driver).SyncDocument(ctx, doc); err != nil {
		t.Fatalf("sync document: %v", err)
	}
}
