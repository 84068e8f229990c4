package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Rahil-15/MediBot2.0/database"
)

type PostgresIndex struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to a pgvector database that ingestion has already
// populated.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresIndex, error) {
	pool, err := database.NewPostgresPool(ctx, dsn)
	if err != nil {
		return nil, err
	}

	exists, err := database.ChunksTableExists(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if !exists {
		pool.Close()
		return nil, fmt.Errorf("pgvector index %s does not exist; run ingest first", database.ChunksTable)
	}

	return &PostgresIndex{pool: pool}, nil
}

func NewPostgresIndex(pool *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

func (s *PostgresIndex) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if k <= 0 {
		k = 3
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, source_path, page, chunk_index, content,
               (embedding <=> $1::vector) AS distance
        FROM rag_chunks
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Match, 0, k)
	for rows.Next() {
		var (
			id       uuid.UUID
			item     Match
			distance float64
		)
		if scanErr := rows.Scan(&id, &item.Chunk.Source, &item.Chunk.Page, &item.Chunk.Index, &item.Chunk.Text, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		item.Chunk.ID = id.String()
		item.Score = 1 - distance
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortMatches(results)
	return results, nil
}

func (s *PostgresIndex) Upsert(ctx context.Context, records []Record) (err error) {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, rec := range records {
		id, parseErr := uuid.Parse(rec.Chunk.ID)
		if parseErr != nil {
			return fmt.Errorf("chunk id %q: %w", rec.Chunk.ID, parseErr)
		}
		batch.Queue(`
			INSERT INTO rag_chunks (id, source_path, page, chunk_index, content, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    embedding = EXCLUDED.embedding,
			    updated_at = NOW()
		`, id, rec.Chunk.Source, rec.Chunk.Page, rec.Chunk.Index, rec.Chunk.Text, pgvector.NewVector(rec.Vector))
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresIndex) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var _ Index = (*PostgresIndex)(nil)
