package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/core/ports"
)

const completedBySystem = "system"

// WorkflowUseCase drives a document from upload to a terminal state. It
// holds no per-document state between calls; the stores are the single
// source of truth.
type WorkflowUseCase struct {
	docs   ports.DocumentRepository
	tasks  ports.TaskRepository
	text   ports.TextExtractor
	parser ports.FieldParser
	engine ports.ProcessEngine
	events ports.LifecycleStream
	policy domain.ApprovalPolicy
	log    *slog.Logger
}

func NewWorkflowUseCase(
	docs ports.DocumentRepository,
	tasks ports.TaskRepository,
	text ports.TextExtractor,
	parser ports.FieldParser,
	engine ports.ProcessEngine,
	events ports.LifecycleStream,
	policy domain.ApprovalPolicy,
	log *slog.Logger,
) *WorkflowUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &WorkflowUseCase{
		docs:   docs,
		tasks:  tasks,
		text:   text,
		parser: parser,
		engine: engine,
		events: events,
		policy: policy,
		log:    log,
	}
}

// StartWorkflow creates the document record and runs it through
// validation, extraction, parsing and routing. Any failure after the
// record exists moves the document to error (best effort) before the
// wrapped failure is returned.
func (uc *WorkflowUseCase) StartWorkflow(ctx context.Context, documentID, filePath, originalFilename string) (*domain.StartResult, error) {
	if err := uc.createDocument(ctx, documentID, filePath, originalFilename); err != nil {
		return nil, err
	}
	uc.publishTransition(ctx, documentID, domain.StatusProcessing, "")

	result, instanceID, err := uc.runPipeline(ctx, documentID, filePath, originalFilename)
	if err != nil {
		uc.markError(ctx, documentID, err)
		uc.signalError(ctx, instanceID, err)
		return nil, fmt.Errorf("start workflow for document %s: %w", documentID, err)
	}
	return result, nil
}

func (uc *WorkflowUseCase) createDocument(ctx context.Context, documentID, filePath, originalFilename string) error {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        documentID,
		Filename:  originalFilename,
		FilePath:  filePath,
		Status:    domain.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return fmt.Errorf("create document record: %w", err)
	}
	return nil
}

func (uc *WorkflowUseCase) runPipeline(ctx context.Context, documentID, filePath, originalFilename string) (*domain.StartResult, string, error) {
	if err := uc.text.Validate(filePath); err != nil {
		return nil, "", fmt.Errorf("validate file: %w", err)
	}

	text, err := uc.text.ExtractText(ctx, filePath)
	if err != nil {
		return nil, "", fmt.Errorf("extract text: %w", err)
	}

	fields := uc.parser.Parse(text)
	decision := uc.policy.Decide(fields.Amount)

	// The engine is a downstream mirror; a failed start must not block the
	// workflow. Signals for an empty instance id are skipped later.
	instanceID, err := uc.engine.StartInstance(ctx, documentID, originalFilename, decision.Amount)
	if err != nil {
		uc.log.Warn("process engine start failed, continuing without instance",
			"document_id", documentID, "error", err)
		instanceID = ""
	}

	if err := uc.docs.SaveExtractedData(ctx, documentID, fields, instanceID); err != nil {
		return nil, instanceID, fmt.Errorf("persist extracted data: %w", err)
	}
	uc.publishTransition(ctx, documentID, domain.StatusDataExtracted, "")

	if !decision.AutoApprove {
		result, err := uc.createManualApprovalTask(ctx, documentID, fields, instanceID, decision)
		if err != nil {
			return nil, instanceID, err
		}
		return result, instanceID, nil
	}

	result, err := uc.executeAutoApproval(ctx, documentID, fields, instanceID, decision)
	if err != nil {
		return nil, instanceID, err
	}
	return result, instanceID, nil
}

func (uc *WorkflowUseCase) createManualApprovalTask(
	ctx context.Context,
	documentID string,
	fields domain.ExtractedFields,
	instanceID string,
	decision domain.Decision,
) (*domain.StartResult, error) {
	task := &domain.Task{
		ID:         newTaskID(),
		DocumentID: documentID,
		TaskType:   domain.TaskTypeManualApproval,
		Status:     domain.TaskStatusPending,
		Data: domain.TaskData{
			ExtractedData:     fields,
			ProcessInstanceID: instanceID,
			RequiresApproval:  true,
			Amount:            decision.Amount,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create manual approval task: %w", err)
	}

	if err := uc.docs.UpdateStatus(ctx, documentID, domain.StatusAwaitingApproval, ""); err != nil {
		return nil, fmt.Errorf("set status=awaiting_approval: %w", err)
	}
	uc.publishTransition(ctx, documentID, domain.StatusAwaitingApproval, task.ID)

	uc.log.Info("manual approval task created",
		"document_id", documentID, "task_id", task.ID, "amount", decision.Amount)

	return &domain.StartResult{
		DocumentID:        documentID,
		ProcessInstanceID: instanceID,
		Status:            domain.StatusAwaitingApproval,
		Extracted:         fields,
		TaskID:            task.ID,
		Message:           decision.Reason,
	}, nil
}

func (uc *WorkflowUseCase) executeAutoApproval(
	ctx context.Context,
	documentID string,
	fields domain.ExtractedFields,
	instanceID string,
	decision domain.Decision,
) (*domain.StartResult, error) {
	now := time.Now().UTC()
	outcome := domain.Outcome{
		Status:       domain.StatusApproved,
		ApprovalType: domain.ApprovalAutomatic,
		ApprovedBy:   completedBySystem,
		ApprovedAt:   &now,
		Reason:       decision.Reason,
	}

	if err := uc.docs.SaveOutcome(ctx, documentID, domain.StatusApproved, outcome); err != nil {
		return nil, fmt.Errorf("persist auto approval: %w", err)
	}
	uc.publishTransition(ctx, documentID, domain.StatusApproved, "")
	uc.signalCompletion(ctx, instanceID, outcome)

	uc.log.Info("document auto-approved", "document_id", documentID, "amount", decision.Amount)

	return &domain.StartResult{
		DocumentID:        documentID,
		ProcessInstanceID: instanceID,
		Status:            domain.StatusApproved,
		Extracted:         fields,
		Approval:          &outcome,
		Message:           "Document automatically approved",
	}, nil
}

// markError is the compensating transition; its own failure is logged, not
// escalated, so the original error still reaches the caller.
func (uc *WorkflowUseCase) markError(ctx context.Context, documentID string, cause error) {
	if err := uc.docs.UpdateStatus(ctx, documentID, domain.StatusError, cause.Error()); err != nil {
		uc.log.Error("failed to persist error status",
			"document_id", documentID, "cause", cause, "error", err)
		return
	}
	uc.publishTransition(ctx, documentID, domain.StatusError, "")
}

func (uc *WorkflowUseCase) publishTransition(ctx context.Context, documentID string, status domain.DocumentStatus, taskID string) {
	if uc.events == nil {
		return
	}
	event := domain.LifecycleEvent{
		DocumentID: documentID,
		Status:     status,
		TaskID:     taskID,
		At:         time.Now().UTC(),
	}
	if err := uc.events.PublishTransition(ctx, event); err != nil {
		uc.log.Warn("lifecycle event publish failed",
			"document_id", documentID, "status", status, "error", err)
	}
}

func (uc *WorkflowUseCase) signalCompletion(ctx context.Context, instanceID string, outcome domain.Outcome) {
	if instanceID == "" {
		return
	}
	if err := uc.engine.SignalCompletion(ctx, instanceID, outcome); err != nil {
		uc.log.Warn("process completion signal failed",
			"process_instance_id", instanceID, "error", err)
	}
}

func (uc *WorkflowUseCase) signalError(ctx context.Context, instanceID string, cause error) {
	if instanceID == "" {
		return
	}
	if err := uc.engine.SignalError(ctx, instanceID, cause.Error()); err != nil {
		uc.log.Warn("process error signal failed",
			"process_instance_id", instanceID, "error", err)
	}
}

func newTaskID() string {
	return "TASK-" + strings.ToUpper(uuid.NewString()[:8])
}
