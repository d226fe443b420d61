package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealflow-ai/internal/contextutil"
)

// ElasticGateway implements Gateway against an Elasticsearch-compatible HTTP API.
type ElasticGateway struct {
	baseURL  string
	username string
	password string
	dims     int
	client   *http.Client
}

// NewElasticGateway creates a gateway client. dims is the dense vector size used when
// creating index mappings. Every request is bounded by the given timeout.
func NewElasticGateway(baseURL, username, password string, dims int, timeout time.Duration) *ElasticGateway {
	return &ElasticGateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		dims:     dims,
		client:   &http.Client{Timeout: timeout},
	}
}

// mapping returns the shared index mapping for all collections.
func (g *ElasticGateway) mapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":      map[string]any{"type": "keyword"},
				"card_id": map[string]any{"type": "keyword"},
				"title": map[string]any{
					"type": "text",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword"},
					},
				},
				"content": map[string]any{
					"type":     "text",
					"analyzer": "standard",
				},
				"text_embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       g.dims,
					"index":      true,
					"similarity": "cosine",
				},
				"metadata": map[string]any{
					"type":    "object",
					"enabled": true,
				},
				"created_at": map[string]any{"type": "date"},
				"updated_at": map[string]any{"type": "date"},
			},
		},
		"settings": map[string]any{
			"index": map[string]any{
				"number_of_shards":   1,
				"number_of_replicas": 0,
			},
		},
	}
}

// do executes one request against the engine and returns the response body for 2xx
// statuses. Non-2xx statuses are returned as errors with the body included.
func (g *ElasticGateway) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.username != "" {
		req.SetBasicAuth(g.username, g.password)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, resp.StatusCode, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, resp.StatusCode, nil
}

// Ping reports whether the engine is reachable by reading its info endpoint.
func (g *ElasticGateway) Ping(ctx context.Context) error {
	raw, _, err := g.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("engine unreachable: %w", err)
	}
	var info struct {
		ClusterName string `json:"cluster_name"`
	}
	if err := json.Unmarshal(raw, &info); err != nil || info.ClusterName == "" {
		return fmt.Errorf("engine returned unexpected info response")
	}
	return nil
}

// Exists reports whether the collection exists.
func (g *ElasticGateway) Exists(ctx context.Context, collection string) (bool, error) {
	_, status, err := g.do(ctx, http.MethodHead, "/"+collection, nil)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	return true, nil
}

// EnsureIndex creates the collection with the shared mapping if it does not exist.
func (g *ElasticGateway) EnsureIndex(ctx context.Context, collection string) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := g.Exists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, _, err := g.do(ctx, http.MethodPut, "/"+collection, g.mapping()); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}
	logger.InfoContext(ctx, "created collection", "collection", collection, "dims", g.dims)
	return nil
}

// DeleteIndex removes the collection. A missing collection is not an error.
func (g *ElasticGateway) DeleteIndex(ctx context.Context, collection string) error {
	_, status, err := g.do(ctx, http.MethodDelete, "/"+collection, nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	return nil
}

// Upsert indexes the document under its ID. Documents with an empty ID are rejected,
// never indexed.
func (g *ElasticGateway) Upsert(ctx context.Context, collection string, doc Document) error {
	logger := contextutil.LoggerFromContext(ctx)

	if doc.ID == "" {
		return fmt.Errorf("cannot index document without id in %s", collection)
	}

	if _, _, err := g.do(ctx, http.MethodPut, "/"+collection+"/_doc/"+doc.ID, doc); err != nil {
		logger.ErrorContext(ctx, "failed to upsert document", "collection", collection, "id", doc.ID, "error", err)
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	logger.DebugContext(ctx, "upserted document", "collection", collection, "id", doc.ID)
	return nil
}

// Get fetches a document by ID. Returns ErrNotFound if absent.
func (g *ElasticGateway) Get(ctx context.Context, collection, id string) (*Document, error) {
	raw, status, err := g.do(ctx, http.MethodGet, "/"+collection+"/_doc/"+id, nil)
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	var envelope struct {
		Found  bool     `json:"found"`
		Source Document `json:"_source"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	if !envelope.Found {
		return nil, ErrNotFound
	}
	return &envelope.Source, nil
}

// Delete removes a document by ID. A missing document is not an error.
func (g *ElasticGateway) Delete(ctx context.Context, collection, id string) error {
	_, status, err := g.do(ctx, http.MethodDelete, "/"+collection+"/_doc/"+id, nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

// DeleteByCardID removes every document in the collection whose card_id matches.
func (g *ElasticGateway) DeleteByCardID(ctx context.Context, collection, cardID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"card_id": cardID},
		},
	}
	if _, _, err := g.do(ctx, http.MethodPost, "/"+collection+"/_delete_by_query", body); err != nil {
		return fmt.Errorf("failed to delete documents for card %s: %w", cardID, err)
	}
	logger.DebugContext(ctx, "deleted documents by card", "collection", collection, "card_id", cardID)
	return nil
}

// searchEnvelope mirrors the engine's search response shape.
type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			Score     float64             `json:"_score"`
			Source    Document            `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search executes a query spec and returns ranked hits.
func (g *ElasticGateway) Search(ctx context.Context, collection string, q Query) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	size := q.Size
	if size <= 0 {
		size = 10
	}

	body := map[string]any{
		"size":    size,
		"_source": []string{"id", "card_id", "card_type", "title", "content", "metadata"},
	}
	if q.Clause != nil {
		body["query"] = q.Clause
	}
	if q.KNN != nil {
		body["knn"] = map[string]any{
			"field":          q.KNN.Field,
			"query_vector":   q.KNN.Vector,
			"k":              q.KNN.K,
			"num_candidates": q.KNN.NumCandidates,
			"boost":          q.KNN.Boost,
		}
	}
	if len(q.Highlight) > 0 {
		fields := make(map[string]any, len(q.Highlight))
		for _, f := range q.Highlight {
			fields[f] = map[string]any{}
		}
		body["highlight"] = map[string]any{"fields": fields}
	}

	raw, _, err := g.do(ctx, http.MethodPost, "/"+collection+"/_search", body)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "collection", collection, "error", err)
		return nil, fmt.Errorf("search failed for %s: %w", collection, err)
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(envelope.Hits.Hits))
	for _, h := range envelope.Hits.Hits {
		hits = append(hits, Hit{
			ID:         h.Source.ID,
			CardID:     h.Source.CardID,
			CardType:   h.Source.CardType,
			Title:      h.Source.Title,
			Content:    h.Source.Content,
			Metadata:   h.Source.Metadata,
			Score:      h.Score,
			Highlights: h.Highlight,
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "hits", len(hits))
	return hits, nil
}
