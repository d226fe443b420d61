// Package notes stores one free-text note per card, denormalized with a snapshot of the
// owning entity so note search can match on entity context.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealflow-ai/internal/cards"
	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notes.go -package=mocks dealflow-ai/internal/notes Embedder,CardStore

// Embedder produces a fixed-size vector for a text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// CardStore resolves the entity a note is attached to.
type CardStore interface {
	GetByID(ctx context.Context, cardID string) (*cards.Card, error)
}

// Service owns the notes collection.
type Service struct {
	gateway  index.Gateway
	embedder Embedder
	cards    CardStore
}

// NewService creates a note service.
func NewService(gateway index.Gateway, embedder Embedder, cardStore CardStore) *Service {
	return &Service{gateway: gateway, embedder: embedder, cards: cardStore}
}

// NoteID returns the deterministic note document ID for a card. One note per card,
// overwrite semantics.
func NoteID(cardID string) string {
	return "note_" + cardID
}

// Save stores the note for a card. Saving a blank note deletes any existing note.
func (s *Service) Save(ctx context.Context, cardID, note string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(note) == "" {
		return s.Delete(ctx, cardID)
	}

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("card %s not found", cardID)
		}
		return fmt.Errorf("failed to resolve card %s: %w", cardID, err)
	}

	if err := s.gateway.EnsureIndex(ctx, index.CollectionNotes); err != nil {
		return fmt.Errorf("failed to ensure notes collection: %w", err)
	}

	content, metadata := s.denormalize(card, note)

	doc := index.Document{
		ID:        NoteID(cardID),
		CardID:    cardID,
		CardType:  "note",
		Title:     fmt.Sprintf("Note for %s", card.Name()),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	// Semantic match over the note plus its entity context. An unavailable embedding
	// provider degrades to keyword-only search for this note.
	if vec, err := s.embedder.EmbedText(ctx, content); err != nil {
		logger.WarnContext(ctx, "failed to embed note, indexing without vector", "card_id", cardID, "error", err)
	} else {
		doc.Embedding = vec
	}

	if err := s.gateway.Upsert(ctx, index.CollectionNotes, doc); err != nil {
		return fmt.Errorf("failed to index note for card %s: %w", cardID, err)
	}
	logger.InfoContext(ctx, "indexed note", "card_id", cardID)
	return nil
}

// Get returns the note text for a card, or empty string if no note exists.
func (s *Service) Get(ctx context.Context, cardID string) (string, error) {
	doc, err := s.gateway.Get(ctx, index.CollectionNotes, NoteID(cardID))
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get note for card %s: %w", cardID, err)
	}

	if text, ok := doc.Metadata["note_text"].(string); ok {
		return text, nil
	}

	// Older notes stored only the combined content; strip the entity snapshot suffix.
	text := doc.Content
	for _, marker := range []string{"Company:", "Person:", "Industry:"} {
		if i := strings.Index(text, marker); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text), nil
}

// Delete removes the note for a card. Deleting a missing note is not an error.
func (s *Service) Delete(ctx context.Context, cardID string) error {
	if err := s.gateway.Delete(ctx, index.CollectionNotes, NoteID(cardID)); err != nil {
		return fmt.Errorf("failed to delete note for card %s: %w", cardID, err)
	}
	return nil
}

// denormalize builds the searchable content (note text plus entity snapshot) and the
// note metadata carrying the owner's key attributes.
func (s *Service) denormalize(card *cards.Card, note string) (string, map[string]any) {
	parts := []string{note}
	metadata := map[string]any{
		"card_id":   card.ID(),
		"card_type": card.Type,
		"note_text": note,
	}

	switch card.Type {
	case cards.TypeCompany:
		c := card.Company
		if c.Name != "" {
			parts = append(parts, "Company: "+c.Name)
			if c.Industry != "" {
				parts = append(parts, "Industry: "+c.Industry)
			}
		}
		metadata["company_name"] = c.Name
		metadata["industry"] = c.Industry
		metadata["location"] = c.Location
		metadata["description"] = c.Description
	case cards.TypePerson:
		p := card.Person
		if p.Name != "" {
			parts = append(parts, "Person: "+p.Name)
			if p.Company != "" {
				parts = append(parts, "Company: "+p.Company)
			}
			if p.Designation != "" {
				parts = append(parts, "Designation: "+p.Designation)
			}
		}
		metadata["person_name"] = p.Name
		metadata["company"] = p.Company
		metadata["designation"] = p.Designation
		metadata["education"] = p.Education
		metadata["location"] = p.Location
	}

	return strings.Join(parts, " "), metadata
}
