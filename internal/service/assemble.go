package service

import (
	"fmt"
	"strings"

	"dealflow-ai/internal/rag"
)

const (
	// docContentLimit caps how many characters of each document chunk reach the prompt.
	docContentLimit = 800
	// minWebQueryLen is the shortest web query worth sending to the search API.
	minWebQueryLen = 3
)

// Context holds the four evidence blocks assembled for synthesis. Empty strings mean
// the source produced nothing.
type Context struct {
	Entities  string
	Notes     string
	Documents string
	Web       string
}

// NeedsWebSearch reports whether the web fallback should run: only when every internal
// source came up empty and the planned web query is substantial.
func (c Context) NeedsWebSearch(webQuery string) bool {
	if strings.TrimSpace(c.Entities) != "" {
		return false
	}
	if strings.TrimSpace(c.Notes) != "" {
		return false
	}
	if strings.TrimSpace(c.Documents) != "" {
		return false
	}
	return len(webQuery) > minWebQueryLen
}

// Render produces the labeled context handed to the synthesis prompt. Every block is
// always present so the model can tell "source empty" from "source omitted".
func (c Context) Render() string {
	entities := orPlaceholder(c.Entities, "No direct matches.")
	notes := orPlaceholder(c.Notes, "No notes found.")
	documents := orPlaceholder(c.Documents, "No relevant files.")
	web := orPlaceholder(c.Web, "No web results.")

	return fmt.Sprintf(`=== DATABASE RECORDS (Internal - High Confidence) ===
%s

=== INTERNAL NOTES (Meetings) ===
%s

=== DOCUMENTS (Uploaded Files - Context Only) ===
%s

=== WEB SEARCH RESULTS (Public Knowledge) ===
%s`, entities, notes, documents, web)
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// assembleContext formats a retrieval into the entity, note and document blocks.
func assembleContext(ret rag.Retrieval) Context {
	var entities []string
	for _, r := range ret.Persons {
		entities = append(entities, formatPerson(r))
	}
	for _, r := range ret.Companies {
		entities = append(entities, formatCompany(r))
	}

	var notes []string
	for _, r := range ret.Notes {
		notes = append(notes, formatNote(r))
	}

	var docs []string
	for _, r := range ret.Documents {
		docs = append(docs, formatDocument(r))
	}

	return Context{
		Entities:  strings.Join(entities, "\n\n"),
		Notes:     strings.Join(notes, "\n"),
		Documents: strings.Join(docs, "\n\n"),
	}
}

func formatPerson(r rag.Result) string {
	name := metaOr(r.Metadata, "name", r.Title)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("PERSON: %s\n   - Title: %s\n   - Company: %s\n   - Location: %s\n   - Education: %s",
		name,
		metaOr(r.Metadata, "designation", "N/A"),
		metaOr(r.Metadata, "company", "N/A"),
		metaOr(r.Metadata, "location", "N/A"),
		metaOr(r.Metadata, "education", "N/A"))
}

func formatCompany(r rag.Result) string {
	name := metaOr(r.Metadata, "name", r.Title)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("COMPANY: %s\n   - Industry: %s\n   - Location: %s\n   - Founded: %s\n   - Description: %s",
		name,
		metaOr(r.Metadata, "industry", "N/A"),
		metaOr(r.Metadata, "location", "N/A"),
		metaOr(r.Metadata, "founded", "N/A"),
		metaOr(r.Metadata, "description", "N/A"))
}

func formatNote(r rag.Result) string {
	owner := metaOr(r.Metadata, "person_name", "")
	if owner == "" {
		owner = metaOr(r.Metadata, "company_name", "")
	}
	if owner == "" {
		owner = r.Title
	}
	if owner == "" {
		owner = "Unknown Entity"
	}

	content := r.Content
	if content == "" {
		content = "No content"
	}
	return fmt.Sprintf("NOTE for %s: %s", owner, content)
}

func formatDocument(r rag.Result) string {
	title := r.Title
	if title == "" {
		title = "Unknown"
	}
	content := r.Content
	if len(content) > docContentLimit {
		content = content[:docContentLimit]
	}
	return fmt.Sprintf("[Document File] Title: %s\nContent: %s", title, content)
}

func metaOr(meta map[string]any, key, fallback string) string {
	if meta != nil {
		if v, ok := meta[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
