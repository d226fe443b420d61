package rag

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"dealflow-ai/internal/index"
	indexmocks "dealflow-ai/internal/index/mocks"
	"dealflow-ai/internal/rag/mocks"
)

func newEngine(t *testing.T) (*Engine, *indexmocks.MockGateway, *mocks.MockEmbedder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := indexmocks.NewMockGateway(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	return NewEngine(gateway, embedder), gateway, embedder
}

func TestSearchCompaniesEmptyQuery(t *testing.T) {
	engine, _, _ := newEngine(t)

	results, err := engine.SearchCompanies(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty query, got %v", results)
	}
}

func TestSearchCompaniesMissingCollection(t *testing.T) {
	engine, gateway, _ := newEngine(t)
	ctx := context.Background()

	gateway.EXPECT().Exists(ctx, index.CollectionCompanies).Return(false, nil)

	results, err := engine.SearchCompanies(ctx, "acme", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results when collection is missing, got %v", results)
	}
}

func TestSearchCompaniesDefaultLimit(t *testing.T) {
	engine, gateway, _ := newEngine(t)
	ctx := context.Background()

	gateway.EXPECT().Exists(ctx, index.CollectionCompanies).Return(true, nil)
	gateway.EXPECT().
		Search(ctx, index.CollectionCompanies, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, q index.Query) ([]index.Hit, error) {
			if q.Size != 50 {
				t.Errorf("default size = %d, want 50", q.Size)
			}
			return []index.Hit{{ID: "company_acme", Title: "Acme", Score: 4.2}}, nil
		})

	results, err := engine.SearchCompanies(ctx, "acme", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "company_acme" {
		t.Errorf("results = %v", results)
	}
}

func TestSearchDocumentsHybrid(t *testing.T) {
	engine, gateway, embedder := newEngine(t)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	embedder.EXPECT().EmbedText(ctx, "pitch deck").Return(vec, nil)
	gateway.EXPECT().
		Search(ctx, index.CollectionDocuments, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, q index.Query) ([]index.Hit, error) {
			if q.KNN == nil {
				t.Fatal("expected a knn clause")
			}
			if q.KNN.Field != "text_embedding" {
				t.Errorf("knn field = %q", q.KNN.Field)
			}
			if q.KNN.K != 5 || q.KNN.NumCandidates != 10 {
				t.Errorf("knn k=%d candidates=%d, want 5/10", q.KNN.K, q.KNN.NumCandidates)
			}
			if q.KNN.Boost != knnBoost {
				t.Errorf("knn boost = %v, want %v", q.KNN.Boost, knnBoost)
			}
			return nil, nil
		})

	if _, err := engine.SearchDocuments(ctx, "pitch deck", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchDocumentsDegradesWithoutEmbedding(t *testing.T) {
	engine, gateway, embedder := newEngine(t)
	ctx := context.Background()

	embedder.EXPECT().EmbedText(ctx, "deck").Return(nil, errors.New("embedder down"))
	gateway.EXPECT().
		Search(ctx, index.CollectionDocuments, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, q index.Query) ([]index.Hit, error) {
			if q.KNN != nil {
				t.Error("keyword-only search should have no knn clause")
			}
			return []index.Hit{{ID: "doc_1", CardID: "c1", Score: 1.0}}, nil
		})

	results, err := engine.SearchDocuments(ctx, "deck", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if results[0].CardType != "document" {
		t.Errorf("card type = %q, want document", results[0].CardType)
	}
}

func TestAggregateByCard(t *testing.T) {
	results := []Result{
		{ID: "doc_a_chunk_0", CardID: "card_a", Score: 1.0},
		{ID: "doc_a_chunk_3", CardID: "card_a", Score: 4.0},
		{ID: "doc_b_chunk_1", CardID: "card_b", Score: 2.5},
		{ID: "doc_a_chunk_7", CardID: "card_a", Score: 3.0},
		{ID: "doc_c_chunk_0", CardID: "card_c", Score: 0.5},
	}

	got := aggregateByCard(results, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 results after truncation, got %d", len(got))
	}
	if got[0].ID != "doc_a_chunk_3" || got[0].Score != 4.0 {
		t.Errorf("best result = %+v, want the max-scoring chunk of card_a", got[0])
	}
	if got[1].ID != "doc_b_chunk_1" {
		t.Errorf("second result = %+v", got[1])
	}
}

func TestAggregateByCardEmpty(t *testing.T) {
	if got := aggregateByCard(nil, 5); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestRetrieveDegradesFailedModes(t *testing.T) {
	engine, gateway, embedder := newEngine(t)
	ctx := context.Background()

	// Companies search fails outright; the other modes succeed.
	gateway.EXPECT().Search(ctx, index.CollectionCompanies, gomock.Any()).
		Return(nil, errors.New("shard failure"))
	gateway.EXPECT().Search(ctx, index.CollectionPersons, gomock.Any()).
		Return([]index.Hit{{ID: "person_x", Title: "X"}}, nil)
	gateway.EXPECT().Search(ctx, index.CollectionNotes, gomock.Any()).
		Return([]index.Hit{{ID: "note_y", Content: "y"}}, nil)
	embedder.EXPECT().EmbedText(ctx, "docs query").Return([]float32{0.1}, nil)
	gateway.EXPECT().Search(ctx, index.CollectionDocuments, gomock.Any()).
		Return(nil, nil)

	ret := engine.Retrieve(ctx, "keywords", "docs query", 5)

	if len(ret.Companies) != 0 {
		t.Errorf("failed mode should be empty, got %v", ret.Companies)
	}
	if len(ret.Persons) != 1 || len(ret.Notes) != 1 {
		t.Errorf("surviving modes should carry results: %+v", ret)
	}
}

func TestSuggestDeduplicatesTitles(t *testing.T) {
	engine, gateway, _ := newEngine(t)
	ctx := context.Background()

	gateway.EXPECT().Search(ctx, index.CollectionCompanies, gomock.Any()).
		Return([]index.Hit{{Title: "Acme"}, {Title: "Acme"}, {Title: ""}}, nil)
	gateway.EXPECT().Search(ctx, index.CollectionPersons, gomock.Any()).
		Return([]index.Hit{{Title: "Acme"}, {Title: "Ada Lovelace"}}, nil)

	got, err := engine.Suggest(ctx, "A", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Acme", "Ada Lovelace"}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion %d = %q, want %q", i, got[i], want[i])
		}
	}
}
