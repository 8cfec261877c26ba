package ports

import (
	"context"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

// WorkflowOrchestrator is the inbound contract driving a document through
// its lifecycle.
type WorkflowOrchestrator interface {
	StartWorkflow(ctx context.Context, documentID, filePath, originalFilename string) (*domain.StartResult, error)
	CompleteTask(ctx context.Context, taskID, action, reason string) (*domain.CompleteResult, error)
}

// WorkflowReader is the inbound read model over documents and tasks.
type WorkflowReader interface {
	GetDocumentStatus(ctx context.Context, documentID string) (*domain.DocumentStatusView, error)
	GetPendingTasks(ctx context.Context) ([]domain.PendingTaskView, error)
	GetAllWorkflows(ctx context.Context) ([]domain.WorkflowView, error)
}

// Reconciler repairs documents left behind by a crash between task
// completion and the document's terminal update.
type Reconciler interface {
	Sweep(ctx context.Context) (int, error)
}
