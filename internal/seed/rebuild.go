package seed

import (
	"context"
	"fmt"

	"dealflow-ai/internal/cards"
	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
)

// Stats summarizes a rebuild run.
type Stats struct {
	CompaniesIndexed int      `json:"companies_indexed"`
	PersonsIndexed   int      `json:"persons_indexed"`
	Errors           []string `json:"errors"`
}

// Rebuilder drops and recreates every index, then reindexes the seed datasets.
type Rebuilder struct {
	gateway   index.Gateway
	cards     *cards.Service
	companies *CompanyLoader
	profiles  *ProfileLoader
}

func NewRebuilder(gateway index.Gateway, cardSvc *cards.Service, companies *CompanyLoader, profiles *ProfileLoader) *Rebuilder {
	return &Rebuilder{
		gateway:   gateway,
		cards:     cardSvc,
		companies: companies,
		profiles:  profiles,
	}
}

// Rebuild recreates all indices and reindexes companies and persons from the seed
// files. Per-record failures are collected in Stats.Errors rather than aborting.
func (r *Rebuilder) Rebuild(ctx context.Context) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	stats := Stats{Errors: []string{}}

	for _, name := range index.AllCollections {
		exists, err := r.gateway.Exists(ctx, name)
		if err != nil {
			return stats, fmt.Errorf("failed to check index %s: %w", name, err)
		}
		if exists {
			if err := r.gateway.DeleteIndex(ctx, name); err != nil {
				return stats, fmt.Errorf("failed to delete index %s: %w", name, err)
			}
		}
		if err := r.gateway.EnsureIndex(ctx, name); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to create index %s: %v", name, err))
		}
	}

	companies, err := r.companies.Load()
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("failed to load companies: %v", err))
	}
	for _, company := range companies {
		if err := r.cards.IndexCompany(ctx, company); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to index company %s: %v", company.ID, err))
			continue
		}
		stats.CompaniesIndexed++
	}

	profiles, err := r.profiles.Load()
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("failed to load profiles: %v", err))
	}
	for _, profile := range profiles {
		person, ok := PersonFromProfile(profile)
		if !ok {
			continue
		}
		if err := r.cards.IndexPerson(ctx, person); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to index person %s: %v", person.ID, err))
			continue
		}
		stats.PersonsIndexed++
	}

	logger.InfoContext(ctx, "index rebuild completed",
		"companies", stats.CompaniesIndexed,
		"persons", stats.PersonsIndexed,
		"errors", len(stats.Errors))
	return stats, nil
}
