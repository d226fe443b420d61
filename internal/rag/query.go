package rag

// Query clause builders for the boost-tier policy. Direct matches rank higher than
// fuzzy matches; each tier is a should clause unioned with OR semantics.

// Boost tiers for entity and note search.
const (
	boostPhrasePrefix = 3.0
	boostBestFields   = 2.0
	boostNotePrefix   = 2.5
	boostFuzzy        = 1.0
)

// Hybrid search weights: keyword contribution 1.0, vector contribution 0.5, summed by
// the engine.
const knnBoost = 0.5

// entityClause builds the three-tier entity query:
// exact phrase-prefix (3.0) > best-fields exact (2.0) > fuzzy (1.0), minimum one clause.
func entityClause(query string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title^3", "content^2"},
						"type":   "phrase_prefix",
						"boost":  boostPhrasePrefix,
					},
				},
				map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title^3", "content^2"},
						"type":   "best_fields",
						"boost":  boostBestFields,
					},
				},
				map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "content"},
						"type":      "best_fields",
						"fuzziness": "AUTO",
						"boost":     boostFuzzy,
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// noteClause builds the three-tier note query over note content only.
func noteClause(query string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"match": map[string]any{
						"content": map[string]any{
							"query": query,
							"boost": boostPhrasePrefix,
						},
					},
				},
				map[string]any{
					"match_phrase_prefix": map[string]any{
						"content": map[string]any{
							"query": query,
							"boost": boostNotePrefix,
						},
					},
				},
				map[string]any{
					"match": map[string]any{
						"content": map[string]any{
							"query":     query,
							"fuzziness": "AUTO",
							"boost":     boostFuzzy,
						},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// keywordClause builds the lexical half of a hybrid document search.
func keywordClause(query string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"title^3", "content^2"},
			"type":      "best_fields",
			"fuzziness": "AUTO",
		},
	}
}

// strictEntityClause requires at least 2 matching clauses (or all of them if fewer than
// 2 terms) to suppress noise on chat entity lookups.
func strictEntityClause(keywords string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":                keywords,
			"fields":               []string{"*"},
			"fuzziness":            "AUTO",
			"minimum_should_match": "2<100%",
		},
	}
}

// looseNoteClause requires only one matching clause; notes match on content, title, or
// the denormalized entity snapshot in metadata.
func looseNoteClause(keywords string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":     keywords,
			"fields":    []string{"content", "title", "metadata.*"},
			"fuzziness": "AUTO",
			"operator":  "or",
		},
	}
}

// suggestClause matches title prefixes for autocomplete.
func suggestClause(prefix string) map[string]any {
	return map[string]any{
		"match_phrase_prefix": map[string]any{
			"title": map[string]any{
				"query": prefix,
			},
		},
	}
}
