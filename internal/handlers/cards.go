package handlers

import (
	"net/http"
	"strconv"

	"dealflow-ai/internal/cards"
	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/rag"
)

const (
	defaultSearchLimit = 50
	previewLimit       = 200
)

// CardsHandler serves card listing and cross-category search.
type CardsHandler struct {
	cards  *cards.Service
	engine *rag.Engine
}

func NewCardsHandler(cardSvc *cards.Service, engine *rag.Engine) *CardsHandler {
	return &CardsHandler{cards: cardSvc, engine: engine}
}

// ParentCard identifies the entity a note or document belongs to.
type ParentCard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NoteResult is one note search hit with its owning card attached.
type NoteResult struct {
	ID         string      `json:"id"`
	CardID     string      `json:"card_id"`
	CardType   string      `json:"card_type"`
	Note       string      `json:"note"`
	ParentCard *ParentCard `json:"parent_card"`
}

// DocumentResult is one document search hit, collapsed to the best chunk per card.
type DocumentResult struct {
	ID             string              `json:"id"`
	CardID         string              `json:"card_id"`
	Filename       string              `json:"filename"`
	ChunkIndex     int                 `json:"chunk_index"`
	ContentPreview string              `json:"content_preview"`
	Score          float64             `json:"score"`
	Highlights     map[string][]string `json:"highlights"`
	ParentCard     ParentCard          `json:"parent_card"`
}

// SearchResultsResponse groups search hits by category.
type SearchResultsResponse struct {
	Companies []cards.Company  `json:"companies"`
	Persons   []cards.Person   `json:"persons"`
	Notes     []NoteResult     `json:"notes"`
	Documents []DocumentResult `json:"documents"`
}

// List handles GET /api/cards, optionally filtered by card_type.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.URL.Query().Get("card_type") {
	case cards.TypeCompany:
		companies, err := h.cards.ListCompanies(ctx, 20)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list companies", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list cards")
			return
		}
		writeJSON(w, http.StatusOK, companies)
	case cards.TypePerson:
		persons, err := h.cards.ListPersons(ctx, 20)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list persons", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list cards")
			return
		}
		writeJSON(w, http.StatusOK, persons)
	default:
		writeJSON(w, http.StatusOK, h.mixedCards(r))
	}
}

func (h *CardsHandler) mixedCards(r *http.Request) []any {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	mixed := make([]any, 0, 20)
	companies, err := h.cards.ListCompanies(ctx, 10)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list companies", "error", err)
	}
	for _, c := range companies {
		mixed = append(mixed, c)
	}
	persons, err := h.cards.ListPersons(ctx, 10)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list persons", "error", err)
	}
	for _, p := range persons {
		mixed = append(mixed, p)
	}
	return mixed
}

// Search handles GET /api/cards/search across all four categories. Each category is
// searched independently; one failing category leaves the others intact.
func (h *CardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := r.URL.Query().Get("query")
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	resp := SearchResultsResponse{
		Companies: []cards.Company{},
		Persons:   []cards.Person{},
		Notes:     []NoteResult{},
		Documents: []DocumentResult{},
	}

	if query == "" {
		// Without a query, return the default card listing.
		companies, err := h.cards.ListCompanies(ctx, 10)
		if err == nil {
			resp.Companies = companies
		}
		persons, err := h.cards.ListPersons(ctx, 10)
		if err == nil {
			resp.Persons = persons
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if results, err := h.engine.SearchCompanies(ctx, query, limit); err != nil {
		logger.ErrorContext(ctx, "company search failed", "error", err)
	} else {
		for _, res := range results {
			resp.Companies = append(resp.Companies, companyFromResult(res))
		}
	}

	if results, err := h.engine.SearchPersons(ctx, query, limit); err != nil {
		logger.ErrorContext(ctx, "person search failed", "error", err)
	} else {
		for _, res := range results {
			resp.Persons = append(resp.Persons, personFromResult(res))
		}
	}

	if results, err := h.engine.SearchNotes(ctx, query, limit); err != nil {
		logger.ErrorContext(ctx, "note search failed", "error", err)
	} else {
		for _, res := range results {
			resp.Notes = append(resp.Notes, h.noteFromResult(r, res))
		}
	}

	if results, err := h.engine.SearchDocuments(ctx, query, limit); err != nil {
		logger.ErrorContext(ctx, "document search failed", "error", err)
	} else {
		for _, res := range results {
			doc, ok := h.documentFromResult(r, res)
			if !ok {
				continue
			}
			resp.Documents = append(resp.Documents, doc)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CardsHandler) noteFromResult(r *http.Request, res rag.Result) NoteResult {
	note := NoteResult{
		ID:       res.ID,
		CardID:   res.CardID,
		CardType: metaStr(res.Metadata, "card_type"),
		Note:     metaStr(res.Metadata, "note_text"),
	}
	if note.CardType == "" {
		note.CardType = "unknown"
	}
	if note.Note == "" {
		note.Note = res.Content
	}
	if parent, err := h.cards.GetByID(r.Context(), res.CardID); err == nil {
		note.ParentCard = &ParentCard{ID: parent.ID(), Name: parent.Name(), Type: parent.Type}
	}
	return note
}

// documentFromResult builds a document search entry. Orphaned chunks whose card no
// longer exists are dropped.
func (h *CardsHandler) documentFromResult(r *http.Request, res rag.Result) (DocumentResult, bool) {
	parent, err := h.cards.GetByID(r.Context(), res.CardID)
	if err != nil {
		return DocumentResult{}, false
	}

	preview := res.Content
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}

	chunkIndex := 0
	if v, ok := res.Metadata["chunk_index"].(float64); ok {
		chunkIndex = int(v)
	}

	highlights := res.Highlights
	if highlights == nil {
		highlights = map[string][]string{}
	}

	return DocumentResult{
		ID:             res.ID,
		CardID:         res.CardID,
		Filename:       metaStr(res.Metadata, "filename"),
		ChunkIndex:     chunkIndex,
		ContentPreview: preview,
		Score:          res.Score,
		Highlights:     highlights,
		ParentCard:     ParentCard{ID: parent.ID(), Name: parent.Name(), Type: parent.Type},
	}, true
}

func companyFromResult(res rag.Result) cards.Company {
	return cards.Company{
		ID:          res.ID,
		Name:        metaStr(res.Metadata, "name"),
		Industry:    metaStr(res.Metadata, "industry"),
		Description: metaStr(res.Metadata, "description"),
		Founded:     metaStr(res.Metadata, "founded"),
		Location:    metaStr(res.Metadata, "location"),
		Website:     metaStr(res.Metadata, "website"),
		LinkedInURL: metaStr(res.Metadata, "linkedin_url"),
		CardType:    cards.TypeCompany,
	}
}

func personFromResult(res rag.Result) cards.Person {
	experience := 0.0
	if v, ok := res.Metadata["experience_years"].(float64); ok {
		experience = v
	}
	return cards.Person{
		ID:              res.ID,
		Name:            metaStr(res.Metadata, "name"),
		Designation:     metaStr(res.Metadata, "designation"),
		Company:         metaStr(res.Metadata, "company"),
		LinkedInID:      metaStr(res.Metadata, "linkedin_id"),
		LinkedInURL:     metaStr(res.Metadata, "linkedin_url"),
		Education:       metaStr(res.Metadata, "education"),
		ExperienceYears: experience,
		Location:        metaStr(res.Metadata, "location"),
		CardType:        cards.TypePerson,
	}
}

func metaStr(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
