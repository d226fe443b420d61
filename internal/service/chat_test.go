package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"dealflow-ai/internal/agent"
	"dealflow-ai/internal/llm"
	"dealflow-ai/internal/rag"
	"dealflow-ai/internal/service/mocks"
)

type chatMocks struct {
	planner   *mocks.MockQueryPlanner
	retriever *mocks.MockRetriever
	web       *mocks.MockWebSearcher
	llm       *mocks.MockLLMClient
}

func newChatService(t *testing.T) (*ChatService, chatMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := chatMocks{
		planner:   mocks.NewMockQueryPlanner(ctrl),
		retriever: mocks.NewMockRetriever(ctrl),
		web:       mocks.NewMockWebSearcher(ctrl),
		llm:       mocks.NewMockLLMClient(ctrl),
	}
	return NewChatService(m.planner, m.retriever, m.web, m.llm), m
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc, _ := newChatService(t)

	if _, err := svc.Chat(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatSkipsWebSearchWhenInternalDataExists(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	m.planner.EXPECT().Plan(ctx, "who runs Acme", gomock.Nil()).Return(agent.Plan{
		EntityKeywords: "Acme",
		DocumentQuery:  "Acme leadership",
		WebQuery:       "Acme CEO",
	})
	m.retriever.EXPECT().Retrieve(ctx, "Acme", "Acme leadership", docLimit).Return(rag.Retrieval{
		Companies: []rag.Result{{Title: "Acme", Metadata: map[string]any{"name": "Acme"}}},
	})
	// No web.Search expectation: calling it would fail the test.
	m.llm.EXPECT().
		ChatWithMessages(ctx, gomock.Any(), llm.ChatParams{Temperature: synthesisTemperature}).
		Return("**Acme** is run by...", nil)

	reply, err := svc.Chat(ctx, "who runs Acme", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "**Acme** is run by..." {
		t.Errorf("reply = %q", reply)
	}
}

func TestChatFallsBackToWebWhenAllInternalSourcesEmpty(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	m.planner.EXPECT().Plan(ctx, "who is Bhagat Singh", gomock.Nil()).Return(agent.Plan{
		EntityKeywords: "Bhagat Singh",
		DocumentQuery:  "Bhagat Singh",
		WebQuery:       "Who is Bhagat Singh",
	})
	m.retriever.EXPECT().Retrieve(ctx, "Bhagat Singh", "Bhagat Singh", docLimit).Return(rag.Retrieval{})
	m.web.EXPECT().Search(ctx, "Who is Bhagat Singh", webMaxResults).
		Return("• [Web Result] A revolutionary...\n  Source: https://example.com", nil)
	m.llm.EXPECT().
		ChatWithMessages(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			if !strings.Contains(messages[0].Content, "• [Web Result] A revolutionary...") {
				t.Error("web evidence should reach the synthesis prompt")
			}
			return "Based on web search, ...", nil
		})

	reply, err := svc.Chat(ctx, "who is Bhagat Singh", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(reply, "Based on web search,") {
		t.Errorf("reply = %q", reply)
	}
}

func TestChatSkipsWebSearchForShortWebQuery(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	m.planner.EXPECT().Plan(ctx, "ai?", gomock.Nil()).Return(agent.Plan{
		EntityKeywords: "ai",
		DocumentQuery:  "ai",
		WebQuery:       "ai",
	})
	m.retriever.EXPECT().Retrieve(ctx, "ai", "ai", docLimit).Return(rag.Retrieval{})
	m.llm.EXPECT().ChatWithMessages(ctx, gomock.Any(), gomock.Any()).Return("answer", nil)

	if _, err := svc.Chat(ctx, "ai?", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatSurvivesWebSearchFailure(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	m.planner.EXPECT().Plan(ctx, gomock.Any(), gomock.Nil()).Return(agent.Plan{
		EntityKeywords: "unknown",
		DocumentQuery:  "unknown",
		WebQuery:       "unknown thing",
	})
	m.retriever.EXPECT().Retrieve(ctx, gomock.Any(), gomock.Any(), docLimit).Return(rag.Retrieval{})
	m.web.EXPECT().Search(ctx, "unknown thing", webMaxResults).Return("", errors.New("tavily down"))
	m.llm.EXPECT().
		ChatWithMessages(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			if !strings.Contains(messages[0].Content, "No web results.") {
				t.Error("failed web search should leave the web block empty")
			}
			return "answer", nil
		})

	if _, err := svc.Chat(ctx, "tell me about the unknown thing", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatReturnsApologyOnSynthesisFailure(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	m.planner.EXPECT().Plan(ctx, gomock.Any(), gomock.Nil()).Return(agent.Plan{
		EntityKeywords: "Acme",
		DocumentQuery:  "Acme",
	})
	m.retriever.EXPECT().Retrieve(ctx, gomock.Any(), gomock.Any(), docLimit).Return(rag.Retrieval{
		Notes: []rag.Result{{Title: "Acme", Content: "note"}},
	})
	m.llm.EXPECT().
		ChatWithMessages(ctx, gomock.Any(), gomock.Any()).
		Return("", errors.New("model overloaded"))

	reply, err := svc.Chat(ctx, "what do we know about Acme", nil)
	if err != nil {
		t.Fatalf("synthesis failure should not surface as error, got %v", err)
	}
	if !strings.HasPrefix(reply, "I encountered an error. Details: ") {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(reply, "model overloaded") {
		t.Errorf("reply should carry the failure detail: %q", reply)
	}
}

func TestChatForwardsHistoryToSynthesis(t *testing.T) {
	svc, m := newChatService(t)
	ctx := context.Background()

	history := []llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "system", Content: "should be dropped"},
	}

	m.planner.EXPECT().Plan(ctx, "follow up", history).Return(agent.Plan{EntityKeywords: "x", DocumentQuery: "x"})
	m.retriever.EXPECT().Retrieve(ctx, "x", "x", docLimit).Return(rag.Retrieval{
		Companies: []rag.Result{{Title: "X"}},
	})
	m.llm.EXPECT().
		ChatWithMessages(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			// system prompt + 2 history turns + current question
			if len(messages) != 4 {
				t.Errorf("expected 4 messages, got %d", len(messages))
			}
			if messages[1].Content != "earlier question" || messages[2].Content != "earlier answer" {
				t.Error("history turns should precede the current question")
			}
			if messages[len(messages)-1].Content != "follow up" {
				t.Error("current question should be last")
			}
			return "ok", nil
		})

	if _, err := svc.Chat(ctx, "follow up", history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
