// Package seed loads the bundled company and profile datasets and reindexes them
// into the search engine.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dealflow-ai/internal/cards"
)

// CompanyLoader reads the companies dataset from disk, caching the parsed result.
type CompanyLoader struct {
	path string

	mu     sync.Mutex
	cached []cards.Company
}

// NewCompanyLoader creates a loader for companies_data.json inside dataDir.
func NewCompanyLoader(dataDir string) *CompanyLoader {
	return &CompanyLoader{path: filepath.Join(dataDir, "companies_data.json")}
}

type companiesFile struct {
	Companies []cards.Company `json:"companies"`
}

// Load returns the companies dataset, reading the file only on first call.
func (l *CompanyLoader) Load() ([]cards.Company, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file %s: %w", l.path, err)
	}

	var file companiesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid JSON in companies file: %w", err)
	}

	companies := make([]cards.Company, 0, len(file.Companies))
	for _, c := range file.Companies {
		if c.ID == "" {
			c.ID = CompanyID(c.Name)
		}
		if c.ID == "" {
			continue
		}
		companies = append(companies, c)
	}

	l.cached = companies
	return l.cached, nil
}

// Clear drops the cached dataset so the next Load rereads the file.
func (l *CompanyLoader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// CompanyID derives a stable record id from a company name.
func CompanyID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	if slug == "" {
		return ""
	}
	slug = strings.Join(strings.Fields(slug), "-")
	return "company_" + slug
}
