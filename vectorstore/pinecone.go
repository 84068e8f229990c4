package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// Metadata keys follow LangChain's Pinecone layout.
const (
	metadataText   = "text"
	metadataSource = "source"
	metadataPage   = "page"
)

const pineconeUpsertBatch = 100

type PineconeOptions struct {
	APIKey    string
	IndexName string
	Namespace string
}

type PineconeIndex struct {
	conn *pinecone.IndexConnection
	name string
}

func OpenPinecone(ctx context.Context, opts PineconeOptions) (*PineconeIndex, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY not set")
	}
	if strings.TrimSpace(opts.IndexName) == "" {
		return nil, fmt.Errorf("pinecone index name is empty")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: opts.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	desc, err := client.DescribeIndex(ctx, opts.IndexName)
	if err != nil {
		return nil, fmt.Errorf("describe pinecone index %q: %w", opts.IndexName, err)
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{Host: desc.Host, Namespace: opts.Namespace})
	if err != nil {
		return nil, fmt.Errorf("connect pinecone index %q: %w", opts.IndexName, err)
	}

	return &PineconeIndex{conn: conn, name: opts.IndexName}, nil
}

func (p *PineconeIndex) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if k <= 0 {
		k = 3
	}

	resp, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query pinecone index %q: %w", p.name, err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, scored := range resp.Matches {
		if scored == nil || scored.Vector == nil {
			continue
		}
		chunk := chunkFromMetadata(scored.Vector.Metadata)
		chunk.ID = scored.Vector.Id
		matches = append(matches, Match{Chunk: chunk, Score: float64(scored.Score)})
	}
	sortMatches(matches)

	return matches, nil
}

func (p *PineconeIndex) Upsert(ctx context.Context, records []Record) error {
	for start := 0; start < len(records); start += pineconeUpsertBatch {
		end := start + pineconeUpsertBatch
		if end > len(records) {
			end = len(records)
		}

		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, rec := range records[start:end] {
			metadata, err := metadataFromChunk(rec.Chunk)
			if err != nil {
				return fmt.Errorf("build metadata for %s: %w", rec.Chunk.ID, err)
			}
			vectors = append(vectors, &pinecone.Vector{
				Id:       rec.Chunk.ID,
				Values:   rec.Vector,
				Metadata: metadata,
			})
		}

		if _, err := p.conn.UpsertVectors(ctx, vectors); err != nil {
			return fmt.Errorf("upsert pinecone vectors: %w", err)
		}
	}
	return nil
}

func (p *PineconeIndex) Close() error {
	return p.conn.Close()
}

func metadataFromChunk(chunk Chunk) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		metadataText:   chunk.Text,
		metadataSource: chunk.Source,
		metadataPage:   float64(chunk.Page),
	})
}

func chunkFromMetadata(metadata *structpb.Struct) Chunk {
	var chunk Chunk
	if metadata == nil {
		return chunk
	}
	fields := metadata.GetFields()
	chunk.Text = fields[metadataText].GetStringValue()
	chunk.Source = fields[metadataSource].GetStringValue()
	chunk.Page = int(fields[metadataPage].GetNumberValue())
	return chunk
}

var _ Index = (*PineconeIndex)(nil)
