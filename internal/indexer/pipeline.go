package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
	"dealflow-ai/internal/status"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks dealflow-ai/internal/indexer Embedder

// Embedder produces a dense vector for a chunk of text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Reporter receives progress updates while a document is indexed. status.Store
// satisfies it; a nil Reporter disables reporting.
type Reporter interface {
	Update(id, stage string, progress int)
	SetChunks(id string, total, indexed int)
}

// Pipeline chunks document text, embeds each chunk and indexes the results.
type Pipeline struct {
	gateway  index.Gateway
	embedder Embedder
	limiter  *rate.Limiter
	status   Reporter

	maxChunkSize     int
	overlapSentences int
}

// NewPipeline creates a document indexing pipeline. embedRate caps embedding calls
// per second to keep the embedding server responsive during large uploads.
func NewPipeline(gateway index.Gateway, embedder Embedder, reporter Reporter, embedRate float64) *Pipeline {
	if embedRate <= 0 {
		embedRate = 10
	}
	return &Pipeline{
		gateway:          gateway,
		embedder:         embedder,
		limiter:          rate.NewLimiter(rate.Limit(embedRate), 1),
		status:           reporter,
		maxChunkSize:     DefaultMaxChunkSize,
		overlapSentences: DefaultOverlapSentences,
	}
}

// IndexDocument chunks extracted text and indexes one searchable document per chunk.
// Chunk IDs are deterministic, so re-uploading the same file replaces its chunks.
// Individual chunk failures are logged and skipped; indexing zero chunks is an error.
func (p *Pipeline) IndexDocument(ctx context.Context, cardID, filename, text string, metadata map[string]any, statusID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.gateway.EnsureIndex(ctx, index.CollectionDocuments); err != nil {
		return fmt.Errorf("failed to ensure documents index: %w", err)
	}

	chunks := ChunkSentences(text, p.maxChunkSize, p.overlapSentences)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks created for document %s", filename)
	}

	p.report(statusID, status.StageIndexing, 60)
	p.reportChunks(statusID, len(chunks), 0)

	now := time.Now().UTC()
	indexed := 0
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed waiting for embed slot: %w", err)
		}
		embedding, err := p.embedder.EmbedText(ctx, chunk)
		if err != nil {
			logger.WarnContext(ctx, "embedding failed for chunk, indexing without vector",
				"filename", filename, "chunk", i, "error", err)
			embedding = nil
		}

		meta := map[string]any{
			"filename":     filename,
			"card_id":      cardID,
			"chunk_index":  i,
			"total_chunks": len(chunks),
		}
		for k, v := range metadata {
			meta[k] = v
		}

		doc := index.Document{
			ID:        fmt.Sprintf("doc_%s_%s_chunk_%d", cardID, filename, i),
			CardID:    cardID,
			Title:     fmt.Sprintf("%s (chunk %d)", filename, i+1),
			Content:   chunk,
			Embedding: embedding,
			Metadata:  meta,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.gateway.Upsert(ctx, index.CollectionDocuments, doc); err != nil {
			logger.WarnContext(ctx, "failed to index chunk", "filename", filename, "chunk", i, "error", err)
			continue
		}
		indexed++

		progress := 60 + (i+1)*35/len(chunks)
		p.report(statusID, status.StageIndexing, progress)
		p.reportChunks(statusID, len(chunks), indexed)
	}

	if indexed == 0 {
		return fmt.Errorf("failed to index any chunks for document %s", filename)
	}

	logger.InfoContext(ctx, "document indexed", "filename", filename, "card_id", cardID, "chunks", indexed)
	return nil
}

func (p *Pipeline) report(statusID, stage string, progress int) {
	if p.status == nil || statusID == "" {
		return
	}
	p.status.Update(statusID, stage, progress)
}

func (p *Pipeline) reportChunks(statusID string, total, indexed int) {
	if p.status == nil || statusID == "" {
		return
	}
	p.status.SetChunks(statusID, total, indexed)
}
