package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/core/ports"
)

// ReconcileUseCase repairs the gap a crash can leave between task
// completion and the document's terminal update: a completed task whose
// document is still awaiting_approval. The document transition is retried
// from the stored task result; the task itself is never re-completed.
type ReconcileUseCase struct {
	docs   ports.DocumentRepository
	tasks  ports.TaskRepository
	engine ports.ProcessEngine
	events ports.LifecycleStream
	log    *slog.Logger
}

func NewReconcileUseCase(
	docs ports.DocumentRepository,
	tasks ports.TaskRepository,
	engine ports.ProcessEngine,
	events ports.LifecycleStream,
	log *slog.Logger,
) *ReconcileUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &ReconcileUseCase{
		docs:   docs,
		tasks:  tasks,
		engine: engine,
		events: events,
		log:    log,
	}
}

// Sweep finds every recoverable inconsistency and retries the document
// transition. Returns the number of documents repaired.
func (uc *ReconcileUseCase) Sweep(ctx context.Context) (int, error) {
	stale, err := uc.tasks.ListUnreconciled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unreconciled tasks: %w", err)
	}

	repaired := 0
	for _, task := range stale {
		if err := uc.repair(ctx, task); err != nil {
			uc.log.Error("reconciliation failed",
				"task_id", task.ID, "document_id", task.DocumentID, "error", err)
			continue
		}
		repaired++
	}
	return repaired, nil
}

func (uc *ReconcileUseCase) repair(ctx context.Context, task domain.Task) error {
	result := task.Data.Result
	if result == nil {
		return fmt.Errorf("completed task %s carries no result", task.ID)
	}

	status := domain.StatusApproved
	if result.Action == domain.TaskActionReject {
		status = domain.StatusRejected
	}
	outcome := domain.Outcome{
		Status:       status,
		ApprovalType: domain.ApprovalManual,
		Action:       result.Action,
		CompletedBy:  result.CompletedBy,
		CompletedAt:  &result.CompletedAt,
		Reason:       result.Reason,
	}

	if err := uc.docs.SaveOutcome(ctx, task.DocumentID, status, outcome); err != nil {
		return fmt.Errorf("retry document outcome: %w", err)
	}

	uc.log.Info("reconciled stale document",
		"document_id", task.DocumentID, "task_id", task.ID, "status", status)

	if uc.events != nil {
		event := domain.LifecycleEvent{
			DocumentID: task.DocumentID,
			Status:     status,
			TaskID:     task.ID,
			At:         result.CompletedAt,
		}
		if err := uc.events.PublishTransition(ctx, event); err != nil {
			uc.log.Warn("lifecycle event publish failed",
				"document_id", task.DocumentID, "error", err)
		}
	}

	if task.Data.ProcessInstanceID != "" {
		if err := uc.engine.SignalCompletion(ctx, task.Data.ProcessInstanceID, outcome); err != nil {
			uc.log.Warn("process completion signal failed during reconciliation",
				"process_instance_id", task.Data.ProcessInstanceID, "error", err)
		}
	}
	return nil
}
