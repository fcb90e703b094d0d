package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docqa/internal/answer"
	"docqa/internal/bm25"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/http"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/retrieval"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// uploadMaxBytes caps accepted document uploads.
const uploadMaxBytes = 50 << 20

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

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	projectRepo := storage.NewProjectRepo(db)
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	messageRepo := storage.NewMessageRepo(db)

	// Initialize Qdrant vector store. Collections are created lazily per
	// project on first document upload.
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	slog.Info("Qdrant client ready", "url", cfg.QdrantURL, "vector_size", cfg.VectorSize)

	// External model clients
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.VectorSize)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMFallbackModels, cfg.MinConfidentLen)

	// Shared lexical index cache, one BM25 index per project
	lexicon := bm25.NewCache()

	// Chunking engine
	chunkEngine := chunker.New(chunker.Config{
		Size:              cfg.ChunkSize,
		Overlap:           cfg.ChunkOverlap,
		Min:               cfg.ChunkMin,
		Max:               cfg.ChunkMax,
		LargeDocThreshold: cfg.LargeDocThreshold,
	}, llmClient)

	// Document processing pipeline
	pipeline := ingest.NewPipeline(
		documentRepo,
		chunkRepo,
		vectorStore,
		embedder,
		chunkEngine,
		lexicon,
		cfg.VectorSize,
	)

	// Retrieval engine
	retriever := retrieval.NewEngine(
		embedder,
		vectorStore,
		lexicon,
		chunkRepo,
		documentRepo,
		llmClient,
		retrieval.Config{
			DenseWeight:           cfg.DenseWeight,
			BM25Weight:            cfg.BM25Weight,
			ScoreThreshold:        cfg.ScoreThreshold,
			PricingKeywords:       cfg.PricingKeywords,
			PricingDenseWeight:    cfg.PricingDenseWeight,
			PricingScoreThreshold: cfg.PricingScoreThreshold,
		},
	)
	slog.Info("Retrieval engine initialized")

	// Answer composer
	composer := answer.NewComposer(llmClient, embedder, documentRepo)

	// Services
	qaService := service.NewQAService(projectRepo, documentRepo, messageRepo, retriever, composer, service.QAConfig{
		TopK:          cfg.TopK,
		HistoryWindow: cfg.HistoryWindow,
		SimpleTimeout: cfg.SimpleTimeout,
		FullTimeout:   cfg.FullTimeout,
	})
	projectService := service.NewProjectService(projectRepo)
	documentService := service.NewDocumentService(projectRepo, documentRepo, pipeline, uploadMaxBytes)

	// Create router with dependencies
	deps := &http.Deps{
		QAService:       qaService,
		ProjectService:  projectService,
		DocumentService: documentService,
		Logger:          logger,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
