package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

func TestTaskRepositoryCompleteMarksPendingTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTaskRepository(db)
	completedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE tasks").
		WithArgs("TASK-ABCD1234", string(domain.TaskStatusCompleted), sqlmock.AnyArg(), completedAt, string(domain.TaskStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(context.Background(), "TASK-ABCD1234", domain.TaskResult{
		Action:      domain.TaskActionApprove,
		CompletedBy: "user",
		CompletedAt: completedAt,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskRepositoryCompleteReturnsNotFoundWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTaskRepository(db)
	mock.ExpectExec("UPDATE tasks").
		WithArgs("TASK-ABCD1234", string(domain.TaskStatusCompleted), sqlmock.AnyArg(), sqlmock.AnyArg(), string(domain.TaskStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Complete(context.Background(), "TASK-ABCD1234", domain.TaskResult{
		Action:      domain.TaskActionApprove,
		CompletedBy: "user",
		CompletedAt: time.Now().UTC(),
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for already-completed task, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskRepositoryListPendingJoinsDocuments(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTaskRepository(db)
	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "document_id", "task_type", "data", "created_at", "filename", "extracted_data"}).
		AddRow("TASK-ABCD1234", "doc-1", string(domain.TaskTypeManualApproval),
			[]byte(`{"requires_approval":true,"amount":1500}`), created,
			"invoice.pdf", []byte(`{"invoice_number":"INV-2024","customer_name":"Jane Doe","amount":1500}`))

	mock.ExpectQuery("FROM tasks t").
		WithArgs(string(domain.TaskStatusPending)).
		WillReturnRows(rows)

	views, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(views))
	}
	view := views[0]
	if view.Filename != "invoice.pdf" {
		t.Fatalf("expected joined filename, got %q", view.Filename)
	}
	if !view.RequiresApproval || view.Amount != 1500 {
		t.Fatalf("expected task data carried over, got %+v", view)
	}
	if view.ExtractedData == nil || *view.ExtractedData.InvoiceNumber != "INV-2024" {
		t.Fatalf("expected extracted data from document row, got %+v", view.ExtractedData)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskRepositoryListUnreconciledParsesResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTaskRepository(db)
	created := time.Now().UTC()
	completed := created.Add(time.Minute)
	rows := sqlmock.NewRows([]string{"id", "document_id", "task_type", "status", "data", "created_at", "completed_at"}).
		AddRow("TASK-ABCD1234", "doc-1", string(domain.TaskTypeManualApproval), string(domain.TaskStatusCompleted),
			[]byte(`{"process_instance_id":"proc-1","result":{"action":"approve","completed_by":"user","completed_at":"2026-02-10T09:30:00Z"}}`),
			created, completed)

	mock.ExpectQuery("FROM tasks t").
		WithArgs(string(domain.TaskStatusCompleted), string(domain.StatusAwaitingApproval)).
		WillReturnRows(rows)

	tasks, err := repo.ListUnreconciled(context.Background())
	if err != nil {
		t.Fatalf("ListUnreconciled() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Data.Result == nil || task.Data.Result.Action != domain.TaskActionApprove {
		t.Fatalf("expected parsed result, got %+v", task.Data.Result)
	}
	if task.Data.ProcessInstanceID != "proc-1" {
		t.Fatalf("expected process instance id, got %q", task.Data.ProcessInstanceID)
	}
	if task.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
