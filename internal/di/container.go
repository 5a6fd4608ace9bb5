package di

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"qa-orchestrator/internal/adapter/inference"
	"qa-orchestrator/internal/adapter/qa_http"
	"qa-orchestrator/internal/adapter/repository"
	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/infra/config"
	"qa-orchestrator/internal/infra/httpclient"
	"qa-orchestrator/internal/privacy"
	"qa-orchestrator/internal/usecase"
	"qa-orchestrator/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Engine *privacy.Engine

	ConversationRepo domain.ConversationRepository
	JournalSink      domain.JournalSink

	PipelineUsecase     usecase.AnswerQuestionUsecase
	ConversationUsecase usecase.ConversationUsecase

	Worker  *worker.JournalWorker
	Handler *qa_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	engine, err := privacy.NewEngine(key, log)
	if err != nil {
		return nil, err
	}

	// Repositories
	conversationRepo := repository.NewConversationRepository(pool, engine)
	journalRepo := repository.NewJournalRepository(pool)

	// Journal delivery is asynchronous; the worker is the sink the
	// usecases see.
	journalWorker := worker.NewJournalWorker(journalRepo, cfg.JournalBufferSize, log)

	// Shared HTTP clients with connection pooling
	retrievalHTTP := httpclient.NewPooledClient(time.Duration(cfg.RetrievalTimeout) * time.Second)
	generationHTTP := httpclient.NewPooledClient(time.Duration(cfg.GenerationTimeout) * time.Second)

	// External clients
	retrievalClient := inference.NewRetrievalClient(cfg.RetrievalURL, time.Duration(cfg.RetrievalTimeout)*time.Second, log, retrievalHTTP)
	generator := inference.NewChatClient(cfg.GenerationURL, cfg.GenerationModel, time.Duration(cfg.GenerationTimeout)*time.Second, log, generationHTTP)

	// Optional components
	var reranker domain.RerankClient
	if cfg.RerankEnabled {
		rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.RerankTimeout) * time.Second)
		rerankClient := inference.NewRerankClient(cfg.RerankURL, cfg.RerankModel, time.Duration(cfg.RerankTimeout)*time.Second, log, rerankHTTP)
		reranker = rerankClient
		log.Info("reranker_enabled",
			slog.String("url", cfg.RerankURL),
			slog.String("model", cfg.RerankModel))
	}
	var reformulator domain.ChatClient
	if cfg.ReformulationEnabled {
		reformulator = inference.NewChatClient(cfg.GenerationURL, cfg.ReformulationModel, time.Duration(cfg.GenerationTimeout)*time.Second, log, generationHTTP)
		log.Info("reformulation_enabled",
			slog.String("model", cfg.ReformulationModel),
			slog.Int("history_window", cfg.HistoryWindow))
	}

	// Pipeline usecase
	pipelineConfig := usecase.PipelineConfig{
		CollectionID:  cfg.RetrievalCollection,
		HybridSearch:  cfg.HybridSearchEnabled,
		HistoryWindow: cfg.HistoryWindow,
		PageOffset:    cfg.PageOffset,
		FallbackText:  cfg.FallbackText,
	}
	pipeline := usecase.NewAnswerQuestionUsecase(
		retrievalClient, reranker, generator, reformulator,
		usecase.NewPromptBuilder(cfg.Persona),
		usecase.NewViolationClassifier(),
		pipelineConfig, log,
	)

	// Conversation usecase
	events := usecase.NewJournalEventBuilder(engine, cfg.AlphaTestMode)
	conversations := usecase.NewConversationUsecase(
		pipeline, conversationRepo, journalWorker, events,
		domain.SystemClock{}, log,
	)

	// Handler
	resolver := usecase.NewUserTypeResolver(engine)
	handler := qa_http.NewHandler(conversations, resolver, log)

	return &ApplicationComponents{
		Engine:              engine,
		ConversationRepo:    conversationRepo,
		JournalSink:         journalWorker,
		PipelineUsecase:     pipeline,
		ConversationUsecase: conversations,
		Worker:              journalWorker,
		Handler:             handler,
	}, nil
}
