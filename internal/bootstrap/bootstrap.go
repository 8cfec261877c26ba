package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/docflow-labs/docflow/internal/config"
	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/core/ports"
	"github.com/docflow-labs/docflow/internal/core/usecase"
	"github.com/docflow-labs/docflow/internal/infrastructure/engine/flowable"
	"github.com/docflow-labs/docflow/internal/infrastructure/extractor"
	"github.com/docflow-labs/docflow/internal/infrastructure/parsing"
	"github.com/docflow-labs/docflow/internal/infrastructure/queue/nats"
	"github.com/docflow-labs/docflow/internal/infrastructure/repository/postgres"
	"github.com/docflow-labs/docflow/internal/infrastructure/resilience"
	"github.com/docflow-labs/docflow/internal/infrastructure/storage/localfs"
	"github.com/docflow-labs/docflow/internal/observability/logging"
)

type App struct {
	Config config.Config

	Stream  *nats.Stream
	Storage ports.UploadStorage

	WorkflowUC  ports.WorkflowOrchestrator
	QueryUC     ports.WorkflowReader
	ReconcileUC ports.Reconciler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	taskRepo := postgres.NewTaskRepository(db)

	storage, err := localfs.New(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	stream, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init lifecycle stream: %w", err)
	}

	engine := flowable.New(flowable.Config{
		BaseURL:            cfg.EngineURL,
		Username:           cfg.EngineUsername,
		Password:           cfg.EnginePassword,
		ProcessKey:         cfg.EngineProcessKey,
		Timeout:            time.Duration(cfg.EngineTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})

	textExtractor := extractor.New()
	parser := parsing.NewInvoiceParser()
	policy := domain.NewApprovalPolicy(cfg.ApprovalThreshold)

	workflowUC := usecase.NewWorkflowUseCase(docRepo, taskRepo, textExtractor, parser, engine, stream, policy, logger)
	queryUC := usecase.NewQueryUseCase(docRepo, taskRepo)
	reconcileUC := usecase.NewReconcileUseCase(docRepo, taskRepo, engine, stream, logger)

	return &App{
		Config: cfg,

		Stream:  stream,
		Storage: storage,

		WorkflowUC:  workflowUC,
		QueryUC:     queryUC,
		ReconcileUC: reconcileUC,

		closeFn: func() {
			stream.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
