package rag

// Result is a transient ranked search result. One entity record, note, or logical
// document (after chunk aggregation) maps to at most one Result per query.
type Result struct {
	ID         string              `json:"id"`
	CardID     string              `json:"card_id"`
	CardType   string              `json:"card_type"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Metadata   map[string]any      `json:"metadata,omitempty"`
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// Retrieval bundles the per-source result sets gathered for one chat query.
type Retrieval struct {
	Companies []Result
	Persons   []Result
	Notes     []Result
	Documents []Result
}
