package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"time"

	"dealflow-ai/internal/agent"
	"dealflow-ai/internal/cards"
	"dealflow-ai/internal/config"
	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/extract"
	"dealflow-ai/internal/handlers"
	"dealflow-ai/internal/http"
	"dealflow-ai/internal/index"
	"dealflow-ai/internal/indexer"
	"dealflow-ai/internal/llm"
	"dealflow-ai/internal/notes"
	"dealflow-ai/internal/rag"
	"dealflow-ai/internal/seed"
	"dealflow-ai/internal/service"
	"dealflow-ai/internal/status"
	"dealflow-ai/internal/storage"
	"dealflow-ai/internal/websearch"
)

// llmTimeout bounds chat completions, which run much longer than other external calls.
const llmTimeout = 60 * time.Second

// embedRatePerSecond caps embedding requests during document indexing.
const embedRatePerSecond = 10

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	fileRepo := storage.NewFileRepo(db)
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := contextutil.WithLogger(context.Background(), logger)

	// Initialize the search engine gateway and make sure all collections exist
	gateway := index.NewElasticGateway(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword, cfg.EmbeddingDims, cfg.RequestTimeout)
	if err := gateway.Ping(ctx); err != nil {
		slog.Warn("Search engine unreachable at startup, continuing degraded", "url", cfg.ElasticURL, "error", err)
	} else {
		for _, collection := range index.AllCollections {
			if err := gateway.EnsureIndex(ctx, collection); err != nil {
				log.Fatalf("Failed to ensure index %s: %v", collection, err)
			}
		}
		slog.Info("Search indices ready", "url", cfg.ElasticURL, "dims", cfg.EmbeddingDims)
	}

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDims, cfg.RequestTimeout)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		slog.Warn("Embedding client validation failed, semantic search degraded", "error", err)
	} else if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.EmbeddingDims {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.EmbeddingDims, len(testEmbeddings[0]))
	} else {
		slog.Info("Embedding client validated", "vector_size", cfg.EmbeddingDims)
	}

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, llmTimeout)

	// Domain services
	cardSvc := cards.NewService(gateway)
	noteSvc := notes.NewService(gateway, embedder, cardSvc)
	engine := rag.NewEngine(gateway, embedder)
	planner := agent.NewPlanner(llmClient)
	webSearcher := websearch.NewTavilyClient(cfg.TavilyAPIKey, cfg.RequestTimeout)
	chatSvc := service.NewChatService(planner, engine, webSearcher, llmClient)
	slog.Info("Chat pipeline initialized", "web_search", cfg.TavilyAPIKey != "")

	// Upload pipeline
	statuses := status.NewStore()
	pipeline := indexer.NewPipeline(gateway, embedder, statuses, embedRatePerSecond)
	extractor := extract.Chain{extract.PlainText{}}

	// Seed loaders and rebuilder
	companyLoader := seed.NewCompanyLoader(cfg.DataDir)
	profileLoader := seed.NewProfileLoader(cfg.DataDir)
	rebuilder := seed.NewRebuilder(gateway, cardSvc, companyLoader, profileLoader)

	// Create router with dependencies
	deps := &http.Deps{
		Logger:  logger,
		Cards:   handlers.NewCardsHandler(cardSvc, engine),
		Note:    handlers.NewNoteHandler(noteSvc),
		Upload:  handlers.NewUploadHandler(pipeline, extractor, statuses, fileRepo, cfg.UploadsDir),
		Chat:    handlers.NewChatHandler(chatSvc),
		Suggest: handlers.NewSuggestHandler(engine),
		Rebuild: handlers.NewRebuildHandler(gateway, rebuilder),
		Health:  handlers.NewHealthHandler(gateway),
	}
	router := http.NewRouter(deps)

	// Rebuild indices from seed data in the background after the router is ready
	go func() {
		rebuildCtx := contextutil.WithLogger(context.Background(), logger)
		slog.Info("Starting background index rebuild from seed data")
		stats, err := rebuilder.Rebuild(rebuildCtx)
		if err != nil {
			slog.Error("Index rebuild failed", "error", err)
			return
		}
		if len(stats.Errors) > 0 {
			slog.Warn("Index rebuild completed with errors", "errors", len(stats.Errors))
		}
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
