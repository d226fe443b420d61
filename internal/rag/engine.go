// Package rag implements the hybrid retrieval and ranking engine: per-collection
// searches with boost tiers, hybrid lexical+vector document search, and per-card
// aggregation of chunk hits.
package rag

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks dealflow-ai/internal/rag Embedder

// Embedder produces a fixed-size vector for a query text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Engine executes retrieval against the four collections.
type Engine struct {
	gateway  index.Gateway
	embedder Embedder
}

// NewEngine creates a retrieval engine.
func NewEngine(gateway index.Gateway, embedder Embedder) *Engine {
	return &Engine{gateway: gateway, embedder: embedder}
}

// SearchCompanies searches company records with the three-tier boost scheme.
func (e *Engine) SearchCompanies(ctx context.Context, query string, limit int) ([]Result, error) {
	return e.tieredSearch(ctx, index.CollectionCompanies, entityClause(query), query, limit, []string{"title", "content"})
}

// SearchPersons searches person records with the three-tier boost scheme.
func (e *Engine) SearchPersons(ctx context.Context, query string, limit int) ([]Result, error) {
	return e.tieredSearch(ctx, index.CollectionPersons, entityClause(query), query, limit, []string{"title", "content"})
}

// SearchNotes searches note content with the three-tier boost scheme.
func (e *Engine) SearchNotes(ctx context.Context, query string, limit int) ([]Result, error) {
	return e.tieredSearch(ctx, index.CollectionNotes, noteClause(query), query, limit, []string{"content"})
}

func (e *Engine) tieredSearch(ctx context.Context, collection string, clause map[string]any, query string, limit int, highlight []string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	exists, err := e.gateway.Exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	hits, err := e.gateway.Search(ctx, collection, index.Query{
		Clause:    clause,
		Size:      limit,
		Highlight: highlight,
	})
	if err != nil {
		return nil, err
	}
	return resultsFromHits(hits), nil
}

// SearchDocuments performs hybrid document search: a fuzzy keyword multi_match plus,
// when a query embedding can be produced, a weighted knn clause over chunk embeddings
// with scores summed by the engine. Embedding failure degrades to keyword-only search.
//
// Because one logical document contributes many chunk hits, results are grouped by
// card_id keeping the maximum-scoring chunk per card, re-sorted descending, and
// truncated to limit.
func (e *Engine) SearchDocuments(ctx context.Context, query string, limit int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	q := index.Query{
		Clause:    keywordClause(query),
		Size:      limit,
		Highlight: []string{"title", "content"},
	}

	if vec, err := e.embedder.EmbedText(ctx, query); err != nil {
		logger.DebugContext(ctx, "failed to embed query, using keyword search only", "error", err)
	} else {
		q.KNN = &index.KNN{
			Field:         "text_embedding",
			Vector:        vec,
			K:             limit,
			NumCandidates: limit * 2,
			Boost:         knnBoost,
		}
	}

	hits, err := e.gateway.Search(ctx, index.CollectionDocuments, q)
	if err != nil {
		return nil, err
	}

	results := resultsFromHits(hits)
	for i := range results {
		results[i].CardType = "document"
	}
	return aggregateByCard(results, limit), nil
}

// SearchEntitiesStrict runs the strict chat-path lookup against one entity collection:
// all fields, fuzzy, at least 2 matching clauses.
func (e *Engine) SearchEntitiesStrict(ctx context.Context, collection, keywords string) ([]Result, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, nil
	}
	hits, err := e.gateway.Search(ctx, collection, index.Query{
		Clause: strictEntityClause(keywords),
		Size:   10,
	})
	if err != nil {
		return nil, err
	}
	return resultsFromHits(hits), nil
}

// SearchNotesLoose runs the loose chat-path note lookup: one matching clause suffices,
// and the denormalized entity snapshot in metadata is searchable.
func (e *Engine) SearchNotesLoose(ctx context.Context, keywords string) ([]Result, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, nil
	}
	hits, err := e.gateway.Search(ctx, index.CollectionNotes, index.Query{
		Clause: looseNoteClause(keywords),
		Size:   15,
	})
	if err != nil {
		return nil, err
	}
	return resultsFromHits(hits), nil
}

// Retrieve gathers all four chat-path sources for one query. The modes are read-only
// and independent, so they run concurrently; a failing mode degrades to an empty result
// set for that mode only and never fails the overall retrieval.
func (e *Engine) Retrieve(ctx context.Context, keywords, docQuery string, docLimit int) Retrieval {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		wg  sync.WaitGroup
		ret Retrieval
	)

	run := func(name string, out *[]Result, search func() ([]Result, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := search()
			if err != nil {
				logger.WarnContext(ctx, "retrieval mode degraded to empty", "mode", name, "error", err)
				return
			}
			*out = results
		}()
	}

	run("companies", &ret.Companies, func() ([]Result, error) {
		return e.SearchEntitiesStrict(ctx, index.CollectionCompanies, keywords)
	})
	run("persons", &ret.Persons, func() ([]Result, error) {
		return e.SearchEntitiesStrict(ctx, index.CollectionPersons, keywords)
	})
	run("notes", &ret.Notes, func() ([]Result, error) {
		return e.SearchNotesLoose(ctx, keywords)
	})
	run("documents", &ret.Documents, func() ([]Result, error) {
		return e.SearchDocuments(ctx, docQuery, docLimit)
	})

	wg.Wait()
	return ret
}

// Suggest returns title autocomplete candidates across the two entity collections.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		limit = 10
	}

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, limit)

	for _, collection := range []string{index.CollectionCompanies, index.CollectionPersons} {
		hits, err := e.gateway.Search(ctx, collection, index.Query{
			Clause: suggestClause(prefix),
			Size:   limit,
		})
		if err != nil {
			logger.WarnContext(ctx, "suggest search degraded to empty", "collection", collection, "error", err)
			continue
		}
		for _, h := range hits {
			if h.Title == "" {
				continue
			}
			if _, ok := seen[h.Title]; ok {
				continue
			}
			seen[h.Title] = struct{}{}
			suggestions = append(suggestions, h.Title)
			if len(suggestions) >= limit {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

// aggregateByCard groups chunk-level results by card_id, keeps only the maximum-scoring
// chunk per card, and returns them sorted by that score descending, truncated to limit.
func aggregateByCard(results []Result, limit int) []Result {
	best := make(map[string]Result, len(results))
	order := make([]string, 0, len(results))

	for _, r := range results {
		existing, ok := best[r.CardID]
		if !ok {
			best[r.CardID] = r
			order = append(order, r.CardID)
			continue
		}
		if r.Score > existing.Score {
			best[r.CardID] = r
		}
	}

	aggregated := make([]Result, 0, len(best))
	for _, cardID := range order {
		aggregated = append(aggregated, best[cardID])
	}
	sort.SliceStable(aggregated, func(i, j int) bool {
		return aggregated[i].Score > aggregated[j].Score
	})

	if len(aggregated) > limit {
		aggregated = aggregated[:limit]
	}
	return aggregated
}

func resultsFromHits(hits []index.Hit) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			ID:         h.ID,
			CardID:     h.CardID,
			CardType:   h.CardType,
			Title:      h.Title,
			Content:    h.Content,
			Metadata:   h.Metadata,
			Score:      h.Score,
			Highlights: h.Highlights,
		})
	}
	return results
}
