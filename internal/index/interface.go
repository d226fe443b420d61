package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_gateway.go -package=mocks dealflow-ai/internal/index Gateway

import (
	"context"
	"errors"
	"time"
)

// Collection names for the four logical indices.
const (
	CollectionCompanies = "companies"
	CollectionPersons   = "persons"
	CollectionNotes     = "notes"
	CollectionDocuments = "documents"
)

// AllCollections lists every collection the gateway manages, in creation order.
var AllCollections = []string{
	CollectionCompanies,
	CollectionPersons,
	CollectionNotes,
	CollectionDocuments,
}

// ErrNotFound is returned when a document does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Document is the shared schema indexed into every collection: keyword/fuzzy text
// fields, a metadata object, and an optional dense vector for semantic match.
type Document struct {
	ID        string         `json:"id"`
	CardID    string         `json:"card_id"`
	CardType  string         `json:"card_type,omitempty"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"text_embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Hit is a single ranked search result with score and highlight spans.
type Hit struct {
	ID         string
	CardID     string
	CardType   string
	Title      string
	Content    string
	Metadata   map[string]any
	Score      float64
	Highlights map[string][]string
}

// KNN describes the vector clause of a hybrid search. The engine sums its weighted
// contribution with the lexical query's score.
type KNN struct {
	Field         string
	Vector        []float32
	K             int
	NumCandidates int
	Boost         float64
}

// Query is a search specification against one collection. Clause holds an engine query
// DSL fragment (the ranking policy in internal/rag builds these); KNN, when set, turns
// the request into a hybrid search.
type Query struct {
	Clause    map[string]any
	KNN       *KNN
	Size      int
	Highlight []string
}

// Gateway defines typed operations against the external text+vector index engine.
type Gateway interface {
	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error
	// EnsureIndex creates the collection with the shared mapping if it does not exist.
	EnsureIndex(ctx context.Context, collection string) error
	// Exists reports whether the collection exists.
	Exists(ctx context.Context, collection string) (bool, error)
	// DeleteIndex removes the collection. Missing collections are not an error.
	DeleteIndex(ctx context.Context, collection string) error
	// Upsert indexes the document under its ID, replacing any existing version.
	// Documents with an empty ID are rejected.
	Upsert(ctx context.Context, collection string, doc Document) error
	// Get fetches a document by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Delete removes a document by ID. Missing documents are not an error.
	Delete(ctx context.Context, collection, id string) error
	// DeleteByCardID removes every document whose card_id matches.
	DeleteByCardID(ctx context.Context, collection, cardID string) error
	// Search executes a query and returns ranked hits.
	Search(ctx context.Context, collection string, q Query) ([]Hit, error)
}
