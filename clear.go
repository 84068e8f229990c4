package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rahil-15/MediBot2.0/config"
	"github.com/Rahil-15/MediBot2.0/database"
	"github.com/Rahil-15/MediBot2.0/knowledge"
)

func newClearCmd(a *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove ingested chunks from pgvector and provenance from Neo4j",
		Long: "Remove ingested chunks from pgvector and provenance from Neo4j.\n" +
			"Pinecone indexes are managed outside MediBot and are never cleared.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				ok, err := confirm("This will permanently delete ingested RAG data. Continue?")
				if err != nil {
					return fmt.Errorf("read confirmation: %w", err)
				}
				if !ok {
					a.logger.Println("clear aborted")
					return nil
				}
			}
			return runClear(cmd.Context(), a)
		},
	}
	cmd.Flags().BoolVar(&confirmed, "confirm", false, "skip confirmation prompt")
	return cmd
}

func runClear(parent context.Context, a *app) error {
	ctx, stop := signalContext(parent)
	defer stop()

	cfg := a.cfg
	cleared := false

	if cfg.VectorStore == config.StorePGVector {
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres connection: %w", err)
		}
		defer pool.Close()

		if err := database.TruncateChunks(ctx, pool); err != nil {
			return fmt.Errorf("truncate chunks: %w", err)
		}
		a.logger.Printf("cleared Postgres %s", database.ChunksTable)
		cleared = true
	} else {
		a.logger.Printf("vector store is %s; leaving the index untouched", cfg.VectorStore)
	}

	if cfg.GraphEnabled() {
		driver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			return fmt.Errorf("neo4j connection: %w", err)
		}
		defer driver.Close(context.Background())

		if err := knowledge.NewGraph(driver).Purge(ctx); err != nil {
			return fmt.Errorf("clear neo4j: %w", err)
		}
		a.logger.Println("Neo4j documents, pages and chunks cleared")
		cleared = true
	}

	if cleared {
		a.logger.Println("RAG data removed")
	}
	return nil
}
