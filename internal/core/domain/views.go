package domain

import "time"

// StartResult is what StartWorkflow returns to its caller.
type StartResult struct {
	DocumentID        string          `json:"document_id"`
	ProcessInstanceID string          `json:"process_instance_id,omitempty"`
	Status            DocumentStatus  `json:"status"`
	Extracted         ExtractedFields `json:"extracted"`
	TaskID            string          `json:"task_id,omitempty"`
	Approval          *Outcome        `json:"approval,omitempty"`
	Message           string          `json:"message"`
}

// CompleteResult is what CompleteTask returns to its caller.
type CompleteResult struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	TaskResult TaskResult     `json:"task_result"`
	Message    string         `json:"message"`
}

// PendingTaskRef is the short task view embedded in a document status.
type PendingTaskRef struct {
	TaskID    string    `json:"task_id"`
	TaskType  TaskType  `json:"task_type"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentStatusView assembles a document with its open tasks.
type DocumentStatusView struct {
	DocumentID   string           `json:"document_id"`
	Filename     string           `json:"filename"`
	Status       DocumentStatus   `json:"status"`
	Extracted    *ExtractedFields `json:"extracted,omitempty"`
	WorkflowData *Outcome         `json:"workflow_result,omitempty"`
	PendingTasks []PendingTaskRef `json:"pending_tasks,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// PendingTaskView is a pending task joined with its document, for reviewer
// work queues. Ordered oldest first so reviewers see a FIFO queue.
type PendingTaskView struct {
	TaskID           string           `json:"task_id"`
	DocumentID       string           `json:"document_id"`
	Filename         string           `json:"filename"`
	TaskType         TaskType         `json:"task_type"`
	ExtractedData    *ExtractedFields `json:"extracted_data,omitempty"`
	RequiresApproval bool             `json:"requires_approval"`
	Amount           float64          `json:"amount"`
	CreatedAt        time.Time        `json:"created_at"`
}

// WorkflowView is one document's workflow run as served from the local
// store; the engine instance id is included where known but never read back.
type WorkflowView struct {
	DocumentID        string         `json:"document_id"`
	Filename          string         `json:"filename"`
	ProcessInstanceID string         `json:"process_instance_id,omitempty"`
	Status            DocumentStatus `json:"status"`
	Started           time.Time      `json:"started"`
	Updated           time.Time      `json:"updated"`
}
