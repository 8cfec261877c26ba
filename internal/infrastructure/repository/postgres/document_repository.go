package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

const uniqueViolationCode = "23505"

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_path TEXT NOT NULL,
	status TEXT NOT NULL,
	process_instance_id TEXT NOT NULL DEFAULT '',
	extracted_data JSONB,
	workflow_data JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	task_type TEXT NOT NULL,
	status TEXT NOT NULL,
	data JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

-- One open task per document, enforced here rather than by application
-- discipline.
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_one_pending_per_document
	ON tasks(document_id) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, filename, file_path, status, process_instance_id, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		doc.ID, doc.Filename, doc.FilePath, string(doc.Status), doc.ProcessInstanceID,
		doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert document",
				fmt.Errorf("document already exists: %s", doc.ID))
		}
		return domain.WrapError(domain.ErrPersistence, "insert document", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, file_path, status, process_instance_id, extracted_data, workflow_data, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document",
				fmt.Errorf("document not found: %s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get document", err)
	}
	return doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update document status", err)
	}
	return requireRow(result, "update document status", id)
}

func (r *DocumentRepository) SaveExtractedData(ctx context.Context, id string, fields domain.ExtractedFields, processInstanceID string) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, extracted_data = $3, process_instance_id = $4, updated_at = $5
WHERE id = $1
`, id, string(domain.StatusDataExtracted), payload, processInstanceID, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "save extracted data", err)
	}
	return requireRow(result, "save extracted data", id)
}

func (r *DocumentRepository) SaveOutcome(ctx context.Context, id string, status domain.DocumentStatus, outcome domain.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal workflow data: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, workflow_data = $3, updated_at = $4
WHERE id = $1
`, id, string(status), payload, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "save workflow outcome", err)
	}
	return requireRow(result, "save workflow outcome", id)
}

func (r *DocumentRepository) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, file_path, status, process_instance_id, extracted_data, workflow_data, error_message, created_at, updated_at
FROM documents
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list documents", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan document", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate documents", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var extractedRaw, workflowRaw []byte

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.FilePath, &status, &doc.ProcessInstanceID,
		&extractedRaw, &workflowRaw, &doc.ErrorMessage, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(extractedRaw) > 0 {
		doc.ExtractedData = &domain.ExtractedFields{}
		if err := json.Unmarshal(extractedRaw, doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshal extracted data: %w", err)
		}
	}
	if len(workflowRaw) > 0 {
		doc.WorkflowData = &domain.Outcome{}
		if err := json.Unmarshal(workflowRaw, doc.WorkflowData); err != nil {
			return nil, fmt.Errorf("unmarshal workflow data: %w", err)
		}
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func requireRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, operation+" rows affected", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, operation,
			fmt.Errorf("document not found: %s", id))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
