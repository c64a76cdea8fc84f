package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsmith-ai/docsmith/internal/api/handlers"
	"github.com/docsmith-ai/docsmith/internal/chat"
	"github.com/docsmith-ai/docsmith/internal/config"
	"github.com/docsmith-ai/docsmith/internal/database"
	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/fetch"
	"github.com/docsmith-ai/docsmith/internal/ingest"
	"github.com/docsmith-ai/docsmith/internal/jobs"
	"github.com/docsmith-ai/docsmith/internal/llm"
	"github.com/docsmith-ai/docsmith/internal/openai"
	"github.com/docsmith-ai/docsmith/internal/repository"
	"github.com/docsmith-ai/docsmith/internal/server"
	"github.com/docsmith-ai/docsmith/internal/service"
	"github.com/docsmith-ai/docsmith/internal/storage"
	"github.com/docsmith-ai/docsmith/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the docsmith API server and the background ingest worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		created, err := database.EnsureCollection(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to ensure collection: %w", err)
		}
		if created {
			log.Println("collection created")
		} else {
			log.Println("collection up to date")
		}
	}

	documentRepo := repository.NewDocumentRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)

	var archive service.DumpArchive
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	}

	var embedder service.EmbeddingClient
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	} else {
		embedder = &noopEmbedder{}
		log.Println("embedding provider not configured, ingestion and retrieval disabled")
	}

	var completion service.CompletionClient
	if cfg.HasLLM() {
		completion = llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	} else {
		completion = &noopCompletion{}
		log.Println("completion provider not configured, answering disabled")
	}

	tokenizer, err := ingest.NewTokenizerForModel(cfg.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("failed to load tokenizer: %w", err)
	}
	chunker, err := ingest.NewChunker(tokenizer, ingest.ChunkConfig{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	fetcher := fetch.NewGitingestFetcher(cfg.FetchBaseURL)
	ingestSvc := service.NewIngestService(fetcher, archive, chunker, embedder, documentRepo, cfg.MinContentLength)
	responderSvc := service.NewResponderService(embedder, documentRepo, completion, cfg.TopK, llm.Options{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})

	ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestSvc)
	ingestWorker := jobs.NewWorker(ingestProcessor, 10*time.Second)
	go ingestWorker.Start(ctx)
	log.Println("ingest worker started")

	chatHub := chat.NewHub()
	chatHandler := chat.NewHandler(chatHub, responderSvc)

	router := server.NewRouter(server.RouterConfig{
		IngestHandler: handlers.NewIngestHandler(ingestSvc, ingestJobRepo),
		AskHandler:    handlers.NewAskHandler(responderSvc),
		CollectionHandler: handlers.NewCollectionHandler(documentRepo, func() (bool, error) {
			return database.EnsureCollection(cfg.DatabaseURL)
		}),
		EmbeddingHandler: handlers.NewEmbeddingHandler(embedder),
		ChatHandler:      chatHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ingestWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noopEmbedder struct{}

func (e *noopEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.NewDomainError(domain.ErrCodeEmbeddingFailure,
		"embedding provider not configured: DOCSMITH_OPENAI_API_KEY required")
}

type noopCompletion struct{}

func (c *noopCompletion) Complete(ctx context.Context, systemPrompt, userMessage string, opts llm.Options) (string, error) {
	return "", domain.NewDomainError(domain.ErrCodeCompletionFailure,
		"completion provider not configured: DOCSMITH_LLM_API_KEY required")
}
