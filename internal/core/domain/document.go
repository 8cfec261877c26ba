package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing       DocumentStatus = "processing"
	StatusDataExtracted    DocumentStatus = "data_extracted"
	StatusAwaitingApproval DocumentStatus = "awaiting_approval"
	StatusApproved         DocumentStatus = "approved"
	StatusRejected         DocumentStatus = "rejected"
	StatusError            DocumentStatus = "error"
)

// IsTerminal reports whether no further transition is expected for the status.
func (s DocumentStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusError:
		return true
	default:
		return false
	}
}

type ApprovalType string

const (
	ApprovalAutomatic ApprovalType = "automatic"
	ApprovalManual    ApprovalType = "manual"
)

// ExtractedFields is the structured record produced by the field parser.
// Absent fields stay nil; parsing never fails outright.
type ExtractedFields struct {
	InvoiceNumber *string  `json:"invoice_number"`
	CustomerName  *string  `json:"customer_name"`
	Amount        *float64 `json:"amount"`
}

// Outcome is the terminal workflow record persisted as a document's
// workflow data. Automatic approvals fill ApprovedBy/ApprovedAt; manual
// decisions fill Action/CompletedBy/CompletedAt.
type Outcome struct {
	Status       DocumentStatus `json:"status"`
	ApprovalType ApprovalType   `json:"approval_type"`
	ApprovedBy   string         `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty"`
	Action       string         `json:"action,omitempty"`
	CompletedBy  string         `json:"completed_by,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}

type Document struct {
	ID                string           `json:"id"`
	Filename          string           `json:"filename"`
	FilePath          string           `json:"file_path"`
	Status            DocumentStatus   `json:"status"`
	ProcessInstanceID string           `json:"process_instance_id,omitempty"`
	ExtractedData     *ExtractedFields `json:"extracted_data,omitempty"`
	WorkflowData      *Outcome         `json:"workflow_data,omitempty"`
	ErrorMessage      string           `json:"error_message,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// LifecycleEvent mirrors a single document status transition onto the
// event stream. TaskID is set only for transitions caused by a task.
type LifecycleEvent struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	TaskID     string         `json:"task_id,omitempty"`
	At         time.Time      `json:"at"`
}
