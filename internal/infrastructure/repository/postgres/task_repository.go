package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	payload, err := json.Marshal(task.Data)
	if err != nil {
		return fmt.Errorf("marshal task data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO tasks (id, document_id, task_type, status, data, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, task.ID, task.DocumentID, string(task.TaskType), string(task.Status), payload, task.CreatedAt, task.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert task",
				fmt.Errorf("document %s already has an open task", task.DocumentID))
		}
		return domain.WrapError(domain.ErrPersistence, "insert task", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, task_type, status, data, created_at, completed_at
FROM tasks
WHERE id = $1
`, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get task",
				fmt.Errorf("task not found: %s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get task", err)
	}
	return task, nil
}

// Complete flips pending to completed exactly once. The result is merged
// into the payload so reconciliation can replay the document transition.
func (r *TaskRepository) Complete(ctx context.Context, id string, result domain.TaskResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET status = $2, data = COALESCE(data, '{}'::jsonb) || jsonb_build_object('result', $3::jsonb), completed_at = $4
WHERE id = $1 AND status = $5
`, id, string(domain.TaskStatusCompleted), payload, result.CompletedAt, string(domain.TaskStatusPending))
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "complete task", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "complete task rows affected", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "complete task",
			fmt.Errorf("task not found or already completed: %s", id))
	}
	return nil
}

func (r *TaskRepository) ListPending(ctx context.Context) ([]domain.PendingTaskView, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT t.id, t.document_id, t.task_type, t.data, t.created_at, d.filename, d.extracted_data
FROM tasks t
JOIN documents d ON d.id = t.document_id
WHERE t.status = $1
ORDER BY t.created_at ASC
`, string(domain.TaskStatusPending))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list pending tasks", err)
	}
	defer rows.Close()

	out := make([]domain.PendingTaskView, 0)
	for rows.Next() {
		var view domain.PendingTaskView
		var taskType string
		var dataRaw, extractedRaw []byte

		err := rows.Scan(&view.TaskID, &view.DocumentID, &taskType, &dataRaw, &view.CreatedAt, &view.Filename, &extractedRaw)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan pending task", err)
		}
		view.TaskType = domain.TaskType(taskType)

		if len(dataRaw) > 0 {
			var data domain.TaskData
			if err := json.Unmarshal(dataRaw, &data); err != nil {
				return nil, domain.WrapError(domain.ErrPersistence, "unmarshal task data", err)
			}
			view.RequiresApproval = data.RequiresApproval
			view.Amount = data.Amount
		}
		if len(extractedRaw) > 0 {
			view.ExtractedData = &domain.ExtractedFields{}
			if err := json.Unmarshal(extractedRaw, view.ExtractedData); err != nil {
				return nil, domain.WrapError(domain.ErrPersistence, "unmarshal extracted data", err)
			}
		}
		out = append(out, view)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate pending tasks", err)
	}
	return out, nil
}

func (r *TaskRepository) ListUnreconciled(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT t.id, t.document_id, t.task_type, t.status, t.data, t.created_at, t.completed_at
FROM tasks t
JOIN documents d ON d.id = t.document_id
WHERE t.status = $1 AND d.status = $2
ORDER BY t.completed_at ASC
`, string(domain.TaskStatusCompleted), string(domain.StatusAwaitingApproval))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list unreconciled tasks", err)
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan task", err)
		}
		out = append(out, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate unreconciled tasks", err)
	}
	return out, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var taskType, status string
	var dataRaw []byte
	var completedAt sql.NullTime

	err := row.Scan(&task.ID, &task.DocumentID, &taskType, &status, &dataRaw, &task.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if len(dataRaw) > 0 {
		if err := json.Unmarshal(dataRaw, &task.Data); err != nil {
			return nil, fmt.Errorf("unmarshal task data: %w", err)
		}
	}
	if completedAt.Valid {
		completed := completedAt.Time.UTC()
		task.CompletedAt = &completed
	}
	task.TaskType = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
