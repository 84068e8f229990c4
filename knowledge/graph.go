// Package knowledge mirrors ingestion provenance into Neo4j: which source
// file produced which pages and chunks.
package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Document struct {
	ID     string
	Path   string
	Title  string
	SHA    string
	Pages  int
	Chunks []Chunk
}

type Chunk struct {
	ID    string
	Index int
	Page  int
	Text  string
}

// Graph writes provenance through a shared driver.
type Graph struct {
	driver neo4j.DriverWithContext
}

func NewGraph(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

func (g *Graph) SyncDocument(ctx context.Context, doc Document) error {
	return SyncDocument(ctx, g.driver, doc)
}

func (g *Graph) Purge(ctx context.Context) error {
	return Purge(ctx, g.driver)
}

// SyncDocument replaces the stored page and chunk nodes of doc.
func SyncDocument(ctx context.Context, driver neo4j.DriverWithContext, doc Document) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is empty")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (d:Document {id: $id})
			SET d.path = $path,
			    d.title = $title,
			    d.sha256 = $sha,
			    d.pages = $pages,
			    d.updated_at = datetime()
		`, map[string]any{
			"id":    doc.ID,
			"path":  doc.Path,
			"title": doc.Title,
			"sha":   doc.SHA,
			"pages": doc.Pages,
		}); err != nil {
			return nil, fmt.Errorf("upsert document node: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $id})-[:HAS_PAGE]->(p:Page)
			OPTIONAL MATCH (p)-[:HAS_CHUNK]->(c:Chunk)
			DETACH DELETE p, c
		`, map[string]any{"id": doc.ID}); err != nil {
			return nil, fmt.Errorf("clear existing pages: %w", err)
		}

		for _, chunk := range doc.Chunks {
			if _, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				MERGE (p:Page {id: $page_id})
				SET p.number = $page
				MERGE (d)-[:HAS_PAGE {order: $page}]->(p)
				MERGE (c:Chunk {id: $chunk_id})
				SET c.index = $chunk_index,
				    c.text = $chunk_text
				MERGE (p)-[:HAS_CHUNK {order: $chunk_index}]->(c)
			`, map[string]any{
				"doc_id":      doc.ID,
				"page_id":     fmt.Sprintf("%s#%d", doc.ID, chunk.Page),
				"page":        chunk.Page,
				"chunk_id":    chunk.ID,
				"chunk_index": chunk.Index,
				"chunk_text":  chunk.Text,
			}); err != nil {
				return nil, fmt.Errorf("upsert chunk node: %w", err)
			}
		}

		return nil, nil
	})

	return err
}

// Purge removes every provenance node.
func Purge(ctx context.Context, driver neo4j.DriverWithContext) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	queries := []string{
		"MATCH (c:Chunk) DETACH DELETE c",
		"MATCH (p:Page) DETACH DELETE p",
		"MATCH (d:Document) DETACH DELETE d",
	}

	for _, query := range queries {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			return err
		}
		if _, err := result.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}
