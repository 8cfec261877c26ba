package ports

import (
	"context"
	"io"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

// DocumentRepository persists and reads document state. All mutation is a
// conditional update keyed by document id.
type DocumentRepository interface {
	// Create inserts a new document record; a duplicate id yields
	// domain.ErrConflict.
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	// SaveExtractedData stores the parsed fields and the engine instance
	// handle, transitioning the document to data_extracted.
	SaveExtractedData(ctx context.Context, id string, fields domain.ExtractedFields, processInstanceID string) error
	// SaveOutcome stores the terminal workflow record and the matching status.
	SaveOutcome(ctx context.Context, id string, status domain.DocumentStatus, outcome domain.Outcome) error
	List(ctx context.Context) ([]domain.Document, error)
}

// TaskRepository persists approval tasks. At most one pending task may
// exist per document.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// Complete marks a pending task completed exactly once; a missing or
	// already-completed task yields domain.ErrNotFound.
	Complete(ctx context.Context, id string, result domain.TaskResult) error
	ListPending(ctx context.Context) ([]domain.PendingTaskView, error)
	// ListUnreconciled returns completed tasks whose document is still
	// awaiting approval, oldest first.
	ListUnreconciled(ctx context.Context) ([]domain.Task, error)
}

// TextExtractor validates an uploaded file and pulls plain text out of it.
type TextExtractor interface {
	Validate(path string) error
	ExtractText(ctx context.Context, path string) (string, error)
}

// FieldParser turns extracted plain text into structured fields. It never
// fails; absent fields come back nil.
type FieldParser interface {
	Parse(text string) domain.ExtractedFields
}

// ProcessEngine mirrors workflow state onto the external BPMN engine. The
// engine is a downstream visualization, never the source of truth; every
// method is best-effort from the orchestrator's point of view.
type ProcessEngine interface {
	StartInstance(ctx context.Context, documentID, filename string, amount float64) (string, error)
	SignalCompletion(ctx context.Context, instanceID string, result domain.Outcome) error
	SignalError(ctx context.Context, instanceID, message string) error
}

// LifecycleStream publishes and consumes document status transitions.
type LifecycleStream interface {
	PublishTransition(ctx context.Context, event domain.LifecycleEvent) error
	SubscribeTransitions(ctx context.Context, handler func(context.Context, domain.LifecycleEvent) error) error
}

// UploadStorage stores uploaded files and yields the filesystem path the
// extractor reads from.
type UploadStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
}
