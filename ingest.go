package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rahil-15/MediBot2.0/config"
	"github.com/Rahil-15/MediBot2.0/database"
	"github.com/Rahil-15/MediBot2.0/embeddings"
	"github.com/Rahil-15/MediBot2.0/ingestion"
	"github.com/Rahil-15/MediBot2.0/knowledge"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

type ingestOptions struct {
	dir       string
	glob      string
	recursive bool
	watch     bool
	dryRun    bool
}

func newIngestCmd(a *app) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load PDFs, split them into chunks and upsert their embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				opts.dir = a.cfg.Ingest.DataDir
			}
			if !cmd.Flags().Changed("glob") {
				opts.glob = a.cfg.Ingest.Glob
			}
			return runIngest(cmd.Context(), a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "data", "directory containing the source PDFs (overrides DATA_DIR)")
	cmd.Flags().StringVar(&opts.glob, "glob", "*.pdf", "file name pattern to ingest (overrides INGEST_GLOB)")
	cmd.Flags().BoolVar(&opts.recursive, "recursive", false, "descend into subdirectories")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "keep running and re-ingest files as they change")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "load and split only; print chunk counts without embedding")
	return cmd
}

func runIngest(parent context.Context, a *app, opts ingestOptions) error {
	ctx, stop := signalContext(parent)
	defer stop()

	cfg := a.cfg
	loader := ingestion.NewLoader(opts.glob, opts.recursive, a.logger)
	splitter := ingestion.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)

	if opts.dryRun {
		chunks, err := ingestion.NewService(loader, splitter, nil, nil, nil, a.logger).Ingest(ctx, opts.dir)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		fmt.Printf("%d chunks from %s (chunk size %d, overlap %d)\n", len(chunks), opts.dir, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
		return nil
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("embedder setup: %w", err)
	}

	index, err := openIngestIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	var graph ingestion.GraphSyncer
	if cfg.GraphEnabled() {
		driver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			return fmt.Errorf("neo4j connection: %w", err)
		}
		defer driver.Close(context.Background())
		graph = knowledge.NewGraph(driver)
	}

	svc := ingestion.NewService(loader, splitter, embedder, index, graph, a.logger)
	a.logger.Printf("ingesting %s from %s into %s using %s/%s embeddings",
		opts.glob, opts.dir, cfg.VectorStore, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	written, err := svc.IngestDirectory(ctx, opts.dir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	a.logger.Printf("ingestion complete: %d chunks upserted", written)

	if opts.watch {
		return svc.Watch(ctx, opts.dir)
	}
	return nil
}

// openIngestIndex opens the index ingestion writes to. Unlike the server,
// ingestion may create the pgvector schema. Pinecone indexes must already
// exist.
func openIngestIndex(ctx context.Context, cfg config.Config) (vectorstore.Index, error) {
	if cfg.VectorStore != config.StorePGVector {
		index, err := vectorstore.OpenExisting(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open vector index: %w", err)
		}
		return index, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connection: %w", err)
	}
	if err := database.EnsureRAGSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return vectorstore.NewPostgresIndex(pool), nil
}
