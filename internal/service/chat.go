// Package service orchestrates the chat pipeline: plan searches, retrieve internal
// evidence, fall back to the web only when nothing internal matched, then synthesize.
package service

import (
	"context"
	"fmt"
	"strings"

	"dealflow-ai/internal/agent"
	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/llm"
	"dealflow-ai/internal/rag"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_deps.go -package=mocks dealflow-ai/internal/service QueryPlanner,Retriever,WebSearcher,LLMClient

// QueryPlanner turns a question plus history into a search plan.
type QueryPlanner interface {
	Plan(ctx context.Context, question string, history []llm.Message) agent.Plan
}

// Retriever gathers internal evidence for a plan.
type Retriever interface {
	Retrieve(ctx context.Context, keywords, docQuery string, docLimit int) rag.Retrieval
}

// WebSearcher is the public-web fallback source.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// LLMClient is the completion API used for answer synthesis.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

const (
	docLimit             = 5
	webMaxResults        = 5
	synthesisTemperature = 0.3
)

// ChatService runs the retrieval-augmented chat pipeline.
type ChatService struct {
	planner   QueryPlanner
	retriever Retriever
	web       WebSearcher
	llm       LLMClient
}

func NewChatService(planner QueryPlanner, retriever Retriever, web WebSearcher, llmClient LLMClient) *ChatService {
	return &ChatService{
		planner:   planner,
		retriever: retriever,
		web:       web,
		llm:       llmClient,
	}
}

// Chat answers one user message with the full pipeline. Retrieval failures degrade to
// empty evidence; only an empty message is rejected outright. A synthesis failure
// becomes an apologetic reply rather than an error, so the conversation can continue.
func (s *ChatService) Chat(ctx context.Context, message string, history []llm.Message) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	plan := s.planner.Plan(ctx, message, history)
	logger.InfoContext(ctx, "search plan generated",
		"entity_keywords", plan.EntityKeywords,
		"document_query", plan.DocumentQuery,
		"web_query", plan.WebQuery)

	retrieval := s.retriever.Retrieve(ctx, plan.EntityKeywords, plan.DocumentQuery, docLimit)
	evidence := assembleContext(retrieval)

	if evidence.NeedsWebSearch(plan.WebQuery) {
		logger.InfoContext(ctx, "no internal data found, falling back to web search", "query", plan.WebQuery)
		webContext, err := s.web.Search(ctx, plan.WebQuery, webMaxResults)
		if err != nil {
			logger.WarnContext(ctx, "web search failed, answering without it", "error", err)
		} else {
			evidence.Web = webContext
		}
	} else {
		logger.DebugContext(ctx, "using internal data, skipping web search")
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: synthesisPrompt(evidence)})
	for _, m := range history {
		if m.Role == "user" || m.Role == "assistant" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	reply, err := s.llm.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: synthesisTemperature})
	if err != nil {
		logger.ErrorContext(ctx, "answer synthesis failed", "error", err)
		return Apology(err), nil
	}
	return reply, nil
}

func synthesisPrompt(evidence Context) string {
	return fmt.Sprintf(`You are a professional VC Assistant.

CONTEXT:
%s

FORMATTING RULES (STRICT):
1. **OUTPUT STYLE:** Use clean Markdown.
   - Use **Bold** for Company/Person names.
   - Use bullet points (•) for lists.
   - Use nested bullets for details (Location, Founded, etc.).

2. **CONTENT SOURCE PRIORITY (CRITICAL):**
   - **ALWAYS prioritize internal data** from DATABASE RECORDS, NOTES, and DOCUMENTS
   - **LISTS:** If user asks for a list (e.g., "Companies in Boston"), ONLY list items from `+"`=== DATABASE RECORDS ===`"+`. Do NOT include companies found in `+"`=== DOCUMENTS ===`"+` or `+"`=== WEB SEARCH RESULTS ===`"+`.
   - **NOTES:** If user asks about meetings, list all notes from `+"`=== INTERNAL NOTES ===`"+`.
   - **WEB:** ONLY use Web Results if no internal data exists (for definitions, recipes, biographies, public figures).

3. **SOURCE INDICATION:**
   - **If using WEB SEARCH RESULTS:** Start your response with "Based on web search," or "According to online sources,"
   - **If using DATABASE/NOTES/DOCUMENTS:** Just give the answer directly without mentioning the source.

4. **NO FLUFF:**
   - Do NOT say "Here is the information...".
   - Just give the answer directly.

5. **EXAMPLE OUTPUT:**
   **TechFlow Solutions**
   • Location: San Francisco
   • Founded: 2020

   **DataVault Systems**
   • Location: Boston
   • Founded: 2018`, evidence.Render())
}
