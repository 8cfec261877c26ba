package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docflow-labs/docflow/internal/core/domain"
)

type orchestratorFake struct {
	startResult    *domain.StartResult
	startErr       error
	startedPath    string
	startedName    string
	completeResult *domain.CompleteResult
	completeErr    error
	completedTask  string
	action         string
}

func (f *orchestratorFake) StartWorkflow(_ context.Context, documentID, filePath, originalFilename string) (*domain.StartResult, error) {
	f.startedPath = filePath
	f.startedName = originalFilename
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.startResult != nil {
		return f.startResult, nil
	}
	return &domain.StartResult{DocumentID: documentID, Status: domain.StatusApproved}, nil
}

func (f *orchestratorFake) CompleteTask(_ context.Context, taskID, action, _ string) (*domain.CompleteResult, error) {
	f.completedTask = taskID
	f.action = action
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.completeResult, nil
}

type readerFake struct {
	statusView *domain.DocumentStatusView
	statusErr  error
	pending    []domain.PendingTaskView
	workflows  []domain.WorkflowView
}

func (f *readerFake) GetDocumentStatus(context.Context, string) (*domain.DocumentStatusView, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.statusView, nil
}

func (f *readerFake) GetPendingTasks(context.Context) ([]domain.PendingTaskView, error) {
	return f.pending, nil
}

func (f *readerFake) GetAllWorkflows(context.Context) ([]domain.WorkflowView, error) {
	return f.workflows, nil
}

type storageFake struct {
	savedKey string
	saveErr  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.savedKey = key
	_, _ = io.Copy(io.Discard, data)
	return "/data/uploads/" + key, nil
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func newTestRouter(orchestrator *orchestratorFake, reader *readerFake, storage *storageFake) http.Handler {
	return NewRouter(orchestrator, reader, storage, 1<<20, nil, "test").Handler()
}

func TestUploadDocumentStartsWorkflow(t *testing.T) {
	orchestrator := &orchestratorFake{}
	storage := &storageFake{}
	handler := newTestRouter(orchestrator, &readerFake{}, storage)

	body, contentType := multipartUpload(t, "Invoice.PDF", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasSuffix(storage.savedKey, ".pdf") {
		t.Fatalf("expected lowercased pdf key, got %q", storage.savedKey)
	}
	if orchestrator.startedName != "Invoice.PDF" {
		t.Fatalf("expected original filename preserved, got %q", orchestrator.startedName)
	}
	if orchestrator.startedPath != "/data/uploads/"+storage.savedKey {
		t.Fatalf("expected stored path handed to workflow, got %q", orchestrator.startedPath)
	}

	var resp domain.StartResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusApproved {
		t.Fatalf("expected approved in response, got %s", resp.Status)
	}
}

func TestUploadDocumentRequiresFileField(t *testing.T) {
	handler := newTestRouter(&orchestratorFake{}, &readerFake{}, &storageFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadDocumentMapsValidationError(t *testing.T) {
	orchestrator := &orchestratorFake{
		startErr: domain.WrapError(domain.ErrValidation, "validate file", errors.New("unsupported file type: .txt")),
	}
	handler := newTestRouter(orchestrator, &readerFake{}, &storageFake{})

	body, contentType := multipartUpload(t, "notes.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation failure, got %d", rec.Code)
	}
}

func TestUploadDocumentMapsExtractionError(t *testing.T) {
	orchestrator := &orchestratorFake{
		startErr: domain.WrapError(domain.ErrExtraction, "extract pdf text", errors.New("malformed pdf")),
	}
	handler := newTestRouter(orchestrator, &readerFake{}, &storageFake{})

	body, contentType := multipartUpload(t, "broken.pdf", []byte("junk"))
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for extraction failure, got %d", rec.Code)
	}
}

func TestGetDocumentStatusNotFound(t *testing.T) {
	reader := &readerFake{
		statusErr: domain.WrapError(domain.ErrNotFound, "get document", errors.New("document not found: missing")),
	}
	handler := newTestRouter(&orchestratorFake{}, reader, &storageFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing/status", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCompleteTaskRoutesActionAndReason(t *testing.T) {
	orchestrator := &orchestratorFake{
		completeResult: &domain.CompleteResult{
			DocumentID: "doc-1",
			Status:     domain.StatusRejected,
			TaskResult: domain.TaskResult{Action: domain.TaskActionReject},
		},
	}
	handler := newTestRouter(orchestrator, &readerFake{}, &storageFake{})

	payload := `{"action":"reject","reason":"missing po"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/TASK-ABCD1234/complete", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if orchestrator.completedTask != "TASK-ABCD1234" {
		t.Fatalf("expected task id from path, got %q", orchestrator.completedTask)
	}
	if orchestrator.action != "reject" {
		t.Fatalf("expected reject action, got %q", orchestrator.action)
	}
}

func TestCompleteTaskInvalidJSON(t *testing.T) {
	handler := newTestRouter(&orchestratorFake{}, &readerFake{}, &storageFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/TASK-ABCD1234/complete", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCompleteTaskAlreadyCompletedMapsTo404(t *testing.T) {
	orchestrator := &orchestratorFake{
		completeErr: domain.WrapError(domain.ErrNotFound, "complete task", errors.New("task not found or already completed")),
	}
	handler := newTestRouter(orchestrator, &readerFake{}, &storageFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/TASK-ABCD1234/complete", strings.NewReader(`{"action":"approve"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat completion, got %d", rec.Code)
	}
}

func TestGetPendingTasksReturnsCount(t *testing.T) {
	reader := &readerFake{pending: []domain.PendingTaskView{
		{TaskID: "TASK-AAAA1111", DocumentID: "doc-1"},
		{TaskID: "TASK-BBBB2222", DocumentID: "doc-2"},
	}}
	handler := newTestRouter(&orchestratorFake{}, reader, &storageFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks/pending", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected count 2, got %d", resp.Count)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&orchestratorFake{}, &readerFake{}, &storageFake{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
