package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"dealflow-ai/internal/index"
	indexmocks "dealflow-ai/internal/index/mocks"
	"dealflow-ai/internal/indexer/mocks"
	"dealflow-ai/internal/status"
)

func newTestPipeline(t *testing.T) (*Pipeline, *indexmocks.MockGateway, *mocks.MockEmbedder, *status.Store) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := indexmocks.NewMockGateway(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := status.NewStore()
	return NewPipeline(gateway, embedder, store, 1000), gateway, embedder, store
}

func TestIndexDocumentSingleChunk(t *testing.T) {
	pipeline, gateway, embedder, store := newTestPipeline(t)
	ctx := context.Background()
	statusID := store.Create("company_acme", "deck.txt")

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionDocuments).Return(nil)
	embedder.EXPECT().
		EmbedText(ctx, "Acme builds robots.").
		Return([]float32{0.1, 0.2}, nil)
	gateway.EXPECT().
		Upsert(ctx, index.CollectionDocuments, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, doc index.Document) error {
			if doc.ID != "doc_company_acme_deck.txt_chunk_0" {
				t.Errorf("doc ID = %q", doc.ID)
			}
			if doc.Title != "deck.txt (chunk 1)" {
				t.Errorf("Title = %q", doc.Title)
			}
			if doc.CardID != "company_acme" || doc.Content != "Acme builds robots." {
				t.Errorf("doc = %+v", doc)
			}
			if len(doc.Embedding) != 2 {
				t.Errorf("Embedding = %v", doc.Embedding)
			}
			if doc.Metadata["filename"] != "deck.txt" || doc.Metadata["chunk_index"] != 0 {
				t.Errorf("Metadata = %v", doc.Metadata)
			}
			if doc.Metadata["source"] != "upload" {
				t.Errorf("caller metadata not merged: %v", doc.Metadata)
			}
			return nil
		})

	err := pipeline.IndexDocument(ctx, "company_acme", "deck.txt", "Acme builds robots.",
		map[string]any{"source": "upload"}, statusID)
	if err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	up, _ := store.Get(statusID)
	if up.Progress != 95 {
		t.Errorf("Progress = %d, want 95 after the last chunk", up.Progress)
	}
	if up.ChunksTotal != 1 || up.ChunksIndexed != 1 {
		t.Errorf("chunks = %d/%d", up.ChunksIndexed, up.ChunksTotal)
	}
}

func TestIndexDocumentMultipleChunksReportProgress(t *testing.T) {
	pipeline, gateway, embedder, store := newTestPipeline(t)
	pipeline.maxChunkSize = 40
	ctx := context.Background()
	statusID := store.Create("card", "notes.txt")

	text := "First sentence about the company. Second sentence about the team. Third sentence about the market."

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionDocuments).Return(nil)
	embedder.EXPECT().EmbedText(ctx, gomock.Any()).Return([]float32{0.5}, nil).MinTimes(2)

	var ids []string
	gateway.EXPECT().
		Upsert(ctx, index.CollectionDocuments, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, doc index.Document) error {
			ids = append(ids, doc.ID)
			return nil
		}).
		MinTimes(2)

	if err := pipeline.IndexDocument(ctx, "card", "notes.txt", text, nil, statusID); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	for i, id := range ids {
		want := fmt.Sprintf("doc_card_notes.txt_chunk_%d", i)
		if id != want {
			t.Errorf("ids[%d] = %q, want %q", i, id, want)
		}
	}

	up, _ := store.Get(statusID)
	if up.Progress != 95 {
		t.Errorf("Progress = %d, want 95", up.Progress)
	}
	if up.ChunksIndexed != len(ids) {
		t.Errorf("ChunksIndexed = %d, want %d", up.ChunksIndexed, len(ids))
	}
}

func TestIndexDocumentEmbeddingFailureDegrades(t *testing.T) {
	pipeline, gateway, embedder, _ := newTestPipeline(t)
	ctx := context.Background()

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionDocuments).Return(nil)
	embedder.EXPECT().
		EmbedText(ctx, gomock.Any()).
		Return(nil, errors.New("embedding server down"))
	gateway.EXPECT().
		Upsert(ctx, index.CollectionDocuments, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, doc index.Document) error {
			if doc.Embedding != nil {
				t.Errorf("Embedding = %v, want none after embed failure", doc.Embedding)
			}
			return nil
		})

	if err := pipeline.IndexDocument(ctx, "card", "f.txt", "Some content here.", nil, ""); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
}

func TestIndexDocumentEmptyText(t *testing.T) {
	pipeline, gateway, _, _ := newTestPipeline(t)
	ctx := context.Background()

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionDocuments).Return(nil)

	err := pipeline.IndexDocument(ctx, "card", "empty.txt", "   ", nil, "")
	if err == nil || !strings.Contains(err.Error(), "no chunks") {
		t.Fatalf("IndexDocument error = %v, want no-chunks error", err)
	}
}

func TestIndexDocumentAllChunksFail(t *testing.T) {
	pipeline, gateway, embedder, _ := newTestPipeline(t)
	ctx := context.Background()

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionDocuments).Return(nil)
	embedder.EXPECT().EmbedText(ctx, gomock.Any()).Return([]float32{0.1}, nil)
	gateway.EXPECT().
		Upsert(ctx, index.CollectionDocuments, gomock.Any()).
		Return(errors.New("shard unavailable"))

	err := pipeline.IndexDocument(ctx, "card", "f.txt", "Some content.", nil, "")
	if err == nil || !strings.Contains(err.Error(), "failed to index any chunks") {
		t.Fatalf("IndexDocument error = %v", err)
	}
}
