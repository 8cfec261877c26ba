package domain

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

type TaskType string

const TaskTypeManualApproval TaskType = "manual_approval"

const (
	TaskActionApprove = "approve"
	TaskActionReject  = "reject"
)

// TaskResult records how a pending task was resolved.
type TaskResult struct {
	Action      string    `json:"action"`
	CompletedBy string    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
	Reason      string    `json:"reason,omitempty"`
}

// TaskData is the payload stored with a task at creation time. It carries
// everything completion needs so the document is never re-read on that path.
type TaskData struct {
	ExtractedData     ExtractedFields `json:"extracted_data"`
	ProcessInstanceID string          `json:"process_instance_id"`
	RequiresApproval  bool            `json:"requires_approval"`
	Amount            float64         `json:"amount"`
	Result            *TaskResult     `json:"result,omitempty"`
}

type Task struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	TaskType    TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Data        TaskData   `json:"data"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
