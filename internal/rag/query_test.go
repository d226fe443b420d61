package rag

import "testing"

func TestEntityClauseTiers(t *testing.T) {
	clause := entityClause("acme")

	boolQ, ok := clause["bool"].(map[string]any)
	if !ok {
		t.Fatal("expected a bool query")
	}
	if boolQ["minimum_should_match"] != 1 {
		t.Errorf("minimum_should_match = %v, want 1", boolQ["minimum_should_match"])
	}

	should, ok := boolQ["should"].([]any)
	if !ok || len(should) != 3 {
		t.Fatalf("expected 3 should tiers, got %v", boolQ["should"])
	}

	wantBoosts := []float64{boostPhrasePrefix, boostBestFields, boostFuzzy}
	for i, tier := range should {
		mm := tier.(map[string]any)["multi_match"].(map[string]any)
		if mm["query"] != "acme" {
			t.Errorf("tier %d query = %v", i, mm["query"])
		}
		if mm["boost"] != wantBoosts[i] {
			t.Errorf("tier %d boost = %v, want %v", i, mm["boost"], wantBoosts[i])
		}
	}

	// Only the lowest tier is fuzzy.
	top := should[0].(map[string]any)["multi_match"].(map[string]any)
	if _, hasFuzz := top["fuzziness"]; hasFuzz {
		t.Error("phrase_prefix tier must not be fuzzy")
	}
	bottom := should[2].(map[string]any)["multi_match"].(map[string]any)
	if bottom["fuzziness"] != "AUTO" {
		t.Error("fuzzy tier should use AUTO fuzziness")
	}
}

func TestNoteClauseTiers(t *testing.T) {
	clause := noteClause("meeting")

	should := clause["bool"].(map[string]any)["should"].([]any)
	if len(should) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(should))
	}

	prefix := should[1].(map[string]any)
	mpp, ok := prefix["match_phrase_prefix"].(map[string]any)
	if !ok {
		t.Fatal("second tier should be match_phrase_prefix")
	}
	content := mpp["content"].(map[string]any)
	if content["boost"] != boostNotePrefix {
		t.Errorf("prefix tier boost = %v, want %v", content["boost"], boostNotePrefix)
	}
}

func TestStrictEntityClause(t *testing.T) {
	clause := strictEntityClause("Acme Boston")

	mm := clause["multi_match"].(map[string]any)
	if mm["minimum_should_match"] != "2<100%" {
		t.Errorf("minimum_should_match = %v", mm["minimum_should_match"])
	}
	fields := mm["fields"].([]string)
	if len(fields) != 1 || fields[0] != "*" {
		t.Errorf("strict search should span all fields, got %v", fields)
	}
}

func TestLooseNoteClause(t *testing.T) {
	clause := looseNoteClause("monday meeting")

	mm := clause["multi_match"].(map[string]any)
	if mm["operator"] != "or" {
		t.Errorf("operator = %v, want or", mm["operator"])
	}
	fields := mm["fields"].([]string)
	want := []string{"content", "title", "metadata.*"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v", fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestSuggestClause(t *testing.T) {
	clause := suggestClause("Ac")

	mpp := clause["match_phrase_prefix"].(map[string]any)
	title := mpp["title"].(map[string]any)
	if title["query"] != "Ac" {
		t.Errorf("query = %v", title["query"])
	}
}
