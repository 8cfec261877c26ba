package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

const completedByUser = "user"

// CompleteTask resolves a pending manual-approval task exactly once. The
// pending-status guard is the sole idempotency gate: a second completion
// of the same task id yields domain.ErrNotFound.
func (uc *WorkflowUseCase) CompleteTask(ctx context.Context, taskID, action, reason string) (*domain.CompleteResult, error) {
	if action != domain.TaskActionApprove && action != domain.TaskActionReject {
		return nil, domain.WrapError(domain.ErrValidation, "complete task",
			fmt.Errorf("unknown action %q", action))
	}

	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task.Status != domain.TaskStatusPending {
		return nil, domain.WrapError(domain.ErrNotFound, "complete task",
			errors.New("task not found or already completed"))
	}

	result := domain.TaskResult{
		Action:      action,
		CompletedBy: completedByUser,
		CompletedAt: time.Now().UTC(),
		Reason:      reason,
	}

	// Conditional update on status=pending; a concurrent completion loses
	// the race here and gets ErrNotFound.
	if err := uc.tasks.Complete(ctx, taskID, result); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	status := domain.StatusApproved
	if action == domain.TaskActionReject {
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

	// If this write fails the task is already completed; the document stays
	// awaiting_approval until the reconciler retries the transition.
	if err := uc.docs.SaveOutcome(ctx, task.DocumentID, status, outcome); err != nil {
		uc.log.Error("document outcome write failed after task completion",
			"document_id", task.DocumentID, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("persist document outcome: %w", err)
	}
	uc.publishTransition(ctx, task.DocumentID, status, taskID)
	uc.signalCompletion(ctx, task.Data.ProcessInstanceID, outcome)

	uc.log.Info("manual task completed",
		"task_id", taskID, "document_id", task.DocumentID, "action", action)

	return &domain.CompleteResult{
		DocumentID: task.DocumentID,
		Status:     status,
		TaskResult: result,
		Message:    fmt.Sprintf("Document %sd via manual review", action),
	}, nil
}
