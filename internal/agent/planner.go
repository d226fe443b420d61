// Package agent turns a user utterance into a structured search plan: terse entity
// keywords, a natural-language document query, and an optional web query.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/llm"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks dealflow-ai/internal/agent LLMClient

// LLMClient is the completion API the planner consumes.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Plan is the structured search plan for one user question.
type Plan struct {
	EntityKeywords string `json:"entity_keywords"`
	DocumentQuery  string `json:"document_query"`
	WebQuery       string `json:"web_query"`
}

// Planner produces search plans via a single low-temperature structured call.
type Planner struct {
	llm LLMClient
}

// NewPlanner creates a query planner.
func NewPlanner(client LLMClient) *Planner {
	return &Planner{llm: client}
}

// historyWindow is the number of recent turns used for reference resolution.
const historyWindow = 4

const plannerTemperature = 0.1

// Plan analyzes the user's question and decides what to search for. It never fails:
// on any call or parse error it falls back to the raw question for all three fields.
func (p *Planner) Plan(ctx context.Context, question string, history []llm.Message) Plan {
	logger := contextutil.LoggerFromContext(ctx)

	systemPrompt := buildPlannerPrompt(history)

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: question},
	}

	content, err := p.llm.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: plannerTemperature})
	if err != nil {
		logger.ErrorContext(ctx, "query planning failed, using raw question", "error", err)
		return fallbackPlan(question)
	}

	plan, err := ParsePlan(content)
	if err != nil {
		logger.ErrorContext(ctx, "failed to parse plan, using raw question", "error", err)
		return fallbackPlan(question)
	}
	return plan
}

// ParsePlan decodes the planner's structured output, tolerating a response wrapped in a
// code fence.
func ParsePlan(content string) (Plan, error) {
	var plan Plan
	cleaned := StripCodeFence(content)
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return Plan{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	return plan, nil
}

// StripCodeFence removes a surrounding ```json or ``` fence from an LLM response.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+len("```"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	}
	return strings.TrimSpace(content)
}

func fallbackPlan(question string) Plan {
	return Plan{
		EntityKeywords: question,
		DocumentQuery:  question,
		WebQuery:       question,
	}
}

// buildPlannerPrompt renders the planner instructions, embedding the recent history
// window so pronouns and implicit subjects can be resolved.
func buildPlannerPrompt(history []llm.Message) string {
	historyContext := ""
	if len(history) > 0 {
		window := history
		if len(window) > historyWindow {
			window = window[len(window)-historyWindow:]
		}
		encoded, err := json.MarshalIndent(window, "", "  ")
		if err == nil {
			historyContext = "CONVERSATION HISTORY:\n" + string(encoded)
		}
	}

	return fmt.Sprintf(`You are a Search Query Generator.
Analyze the user's question and extract CLEAN search terms.

%s

INSTRUCTIONS:
1. **entity_keywords**: Extract ONLY the core values (Names, Years, Cities, Roles).
   - CRITICAL: REMOVE generic words like 'company', 'companies', 'firm', 'list', 'show me', 'where is', 'in', 'founded', 'year', 'located', 'based', 'from'.
   - User: "Companies founded in 2020" -> "2020"
   - User: "Companies from Boston" -> "Boston"
   - User: "Who is the CEO of Apple?" -> "Apple CEO"
   - User: "Any meetings on Monday?" -> "Meeting Monday"

2. **document_query**: Rephrase the question as a natural-language query suited to semantic document search.

3. **web_query**: If the query is general (like "Apple CEO", "Stock Price", "Recipe", "Who is Bhagat Singh") and likely NOT in a private VC database, provide a web search string.

Return ONLY a JSON object:
{
    "entity_keywords": "...",
    "document_query": "...",
    "web_query": "..."
}`, historyContext)
}
