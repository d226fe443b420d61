package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
)

// ErrMissingID is returned when a record without an ID is submitted for indexing.
var ErrMissingID = errors.New("record has no id")

// Service owns entity records in the companies and persons collections.
type Service struct {
	gateway index.Gateway
}

// NewService creates a card service over the index gateway.
func NewService(gateway index.Gateway) *Service {
	return &Service{gateway: gateway}
}

// IndexCompany indexes a company record for keyword and fuzzy search.
// Records missing an ID are rejected, never indexed.
func (s *Service) IndexCompany(ctx context.Context, c Company) error {
	logger := contextutil.LoggerFromContext(ctx)

	if c.ID == "" {
		logger.WarnContext(ctx, "cannot index company without id", "name", c.Name)
		return ErrMissingID
	}

	if err := s.gateway.EnsureIndex(ctx, index.CollectionCompanies); err != nil {
		return fmt.Errorf("failed to ensure companies collection: %w", err)
	}

	content := joinPopulated(c.Name, c.Industry, c.Description, c.Location)
	now := time.Now().UTC()

	doc := index.Document{
		ID:       c.ID,
		CardID:   c.ID,
		CardType: TypeCompany,
		Title:    c.Name,
		Content:  content,
		Metadata: map[string]any{
			"name":         c.Name,
			"industry":     c.Industry,
			"description":  c.Description,
			"founded":      c.Founded,
			"location":     c.Location,
			"website":      c.Website,
			"linkedin_url": c.LinkedInURL,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.gateway.Upsert(ctx, index.CollectionCompanies, doc); err != nil {
		return fmt.Errorf("failed to index company %s: %w", c.ID, err)
	}
	logger.DebugContext(ctx, "indexed company", "id", c.ID)
	return nil
}

// IndexPerson indexes a person record for keyword and fuzzy search.
// Records missing an ID are rejected, never indexed.
func (s *Service) IndexPerson(ctx context.Context, p Person) error {
	logger := contextutil.LoggerFromContext(ctx)

	if p.ID == "" {
		logger.WarnContext(ctx, "cannot index person without id", "name", p.Name)
		return ErrMissingID
	}

	if err := s.gateway.EnsureIndex(ctx, index.CollectionPersons); err != nil {
		return fmt.Errorf("failed to ensure persons collection: %w", err)
	}

	content := joinPopulated(p.Name, p.Designation, p.Company, p.Education, p.Location)
	now := time.Now().UTC()

	doc := index.Document{
		ID:       p.ID,
		CardID:   p.ID,
		CardType: TypePerson,
		Title:    p.Name,
		Content:  content,
		Metadata: map[string]any{
			"name":             p.Name,
			"designation":      p.Designation,
			"company":          p.Company,
			"linkedin_id":      p.LinkedInID,
			"linkedin_url":     p.LinkedInURL,
			"education":        p.Education,
			"experience_years": p.ExperienceYears,
			"location":         p.Location,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.gateway.Upsert(ctx, index.CollectionPersons, doc); err != nil {
		return fmt.Errorf("failed to index person %s: %w", p.ID, err)
	}
	logger.DebugContext(ctx, "indexed person", "id", p.ID)
	return nil
}

// GetByID fetches a card by ID, probing the companies collection first, then persons.
// Returns index.ErrNotFound if neither collection holds the ID.
func (s *Service) GetByID(ctx context.Context, cardID string) (*Card, error) {
	if doc, err := s.gateway.Get(ctx, index.CollectionCompanies, cardID); err == nil {
		return &Card{Type: TypeCompany, Company: companyFromDocument(doc)}, nil
	} else if !errors.Is(err, index.ErrNotFound) {
		return nil, err
	}

	if doc, err := s.gateway.Get(ctx, index.CollectionPersons, cardID); err == nil {
		return &Card{Type: TypePerson, Person: personFromDocument(doc)}, nil
	} else if !errors.Is(err, index.ErrNotFound) {
		return nil, err
	}

	return nil, index.ErrNotFound
}

// ListCompanies returns up to limit company records.
func (s *Service) ListCompanies(ctx context.Context, limit int) ([]Company, error) {
	hits, err := s.matchAll(ctx, index.CollectionCompanies, limit)
	if err != nil {
		return nil, err
	}
	companies := make([]Company, 0, len(hits))
	for _, h := range hits {
		companies = append(companies, *companyFromHit(h))
	}
	return companies, nil
}

// ListPersons returns up to limit person records.
func (s *Service) ListPersons(ctx context.Context, limit int) ([]Person, error) {
	hits, err := s.matchAll(ctx, index.CollectionPersons, limit)
	if err != nil {
		return nil, err
	}
	persons := make([]Person, 0, len(hits))
	for _, h := range hits {
		persons = append(persons, *personFromHit(h))
	}
	return persons, nil
}

// Delete removes a card and everything attached to it: the record itself, its note,
// and all document chunks uploaded against it.
func (s *Service) Delete(ctx context.Context, cardID, cardType string) error {
	logger := contextutil.LoggerFromContext(ctx)

	collection := ""
	switch cardType {
	case TypeCompany:
		collection = index.CollectionCompanies
	case TypePerson:
		collection = index.CollectionPersons
	default:
		return fmt.Errorf("unknown card type %q", cardType)
	}

	if err := s.gateway.Delete(ctx, collection, cardID); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", cardType, cardID, err)
	}

	// Cascade: the note annotating this card and any uploaded document chunks.
	if err := s.gateway.Delete(ctx, index.CollectionNotes, "note_"+cardID); err != nil {
		logger.WarnContext(ctx, "failed to delete note for card", "card_id", cardID, "error", err)
	}
	if err := s.gateway.DeleteByCardID(ctx, index.CollectionDocuments, cardID); err != nil {
		logger.WarnContext(ctx, "failed to delete documents for card", "card_id", cardID, "error", err)
	}

	logger.InfoContext(ctx, "deleted card", "card_id", cardID, "card_type", cardType)
	return nil
}

func (s *Service) matchAll(ctx context.Context, collection string, limit int) ([]index.Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	exists, err := s.gateway.Exists(ctx, collection)
	if err != nil || !exists {
		return nil, err
	}
	return s.gateway.Search(ctx, collection, index.Query{
		Clause: map[string]any{"match_all": map[string]any{}},
		Size:   limit,
	})
}

// joinPopulated concatenates the non-empty fields into searchable content.
func joinPopulated(fields ...string) string {
	populated := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			populated = append(populated, f)
		}
	}
	return strings.Join(populated, " ")
}

func companyFromDocument(doc *index.Document) *Company {
	return companyFromMeta(doc.ID, doc.Metadata)
}

func companyFromHit(h index.Hit) *Company {
	return companyFromMeta(h.ID, h.Metadata)
}

func companyFromMeta(id string, meta map[string]any) *Company {
	return &Company{
		ID:          id,
		Name:        metaString(meta, "name"),
		Industry:    metaString(meta, "industry"),
		Description: metaString(meta, "description"),
		Founded:     metaString(meta, "founded"),
		Location:    metaString(meta, "location"),
		Website:     metaString(meta, "website"),
		LinkedInURL: metaString(meta, "linkedin_url"),
		CardType:    TypeCompany,
	}
}

func personFromDocument(doc *index.Document) *Person {
	return personFromMeta(doc.ID, doc.Metadata)
}

func personFromHit(h index.Hit) *Person {
	return personFromMeta(h.ID, h.Metadata)
}

func personFromMeta(id string, meta map[string]any) *Person {
	return &Person{
		ID:              id,
		Name:            metaString(meta, "name"),
		Designation:     metaString(meta, "designation"),
		Company:         metaString(meta, "company"),
		LinkedInID:      metaString(meta, "linkedin_id"),
		LinkedInURL:     metaString(meta, "linkedin_url"),
		Education:       metaString(meta, "education"),
		ExperienceYears: metaFloat(meta, "experience_years"),
		Location:        metaString(meta, "location"),
		CardType:        TypePerson,
	}
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaFloat(meta map[string]any, key string) float64 {
	if meta == nil {
		return 0
	}
	if v, ok := meta[key].(float64); ok {
		return v
	}
	return 0
}
