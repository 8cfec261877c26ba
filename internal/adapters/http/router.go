package httpadapter

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/core/ports"
	"github.com/docflow-labs/docflow/internal/observability/metrics"
)

type Router struct {
	orchestrator ports.WorkflowOrchestrator
	reader       ports.WorkflowReader
	storage      ports.UploadStorage
	maxUpload    int64
	metrics      *metrics.HTTPServerMetrics
	service      string
}

func NewRouter(
	orchestrator ports.WorkflowOrchestrator,
	reader ports.WorkflowReader,
	storage ports.UploadStorage,
	maxUpload int64,
	m *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		orchestrator: orchestrator,
		reader:       reader,
		storage:      storage,
		maxUpload:    maxUpload,
		metrics:      m,
		service:      service,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)

	r.Get("/healthz", rt.healthz)
	r.Post("/v1/documents", rt.uploadDocument)
	r.Get("/v1/documents/{documentID}/status", rt.getDocumentStatus)
	r.Post("/v1/tasks/{taskID}/complete", rt.completeTask)
	r.Get("/v1/tasks/pending", rt.getPendingTasks)
	r.Get("/v1/workflows", rt.getAllWorkflows)

	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
		return rt.metrics.Middleware(rt.service, r)
	}
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUpload)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	documentID := uuid.NewString()
	key := documentID + strings.ToLower(filepath.Ext(fileHeader.Filename))
	path, err := rt.storage.Save(r.Context(), key, file)
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrPersistence, "store upload", err))
		return
	}

	result, err := rt.orchestrator.StartWorkflow(r.Context(), documentID, path, fileHeader.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordStartMetrics(result)
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) getDocumentStatus(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	view, err := rt.reader.GetDocumentStatus(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) completeTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.orchestrator.CompleteTask(r.Context(), taskID, req.Action, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordTaskCompletion(rt.service, result.TaskResult.Action)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getPendingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := rt.reader.GetPendingTasks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (rt *Router) getAllWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := rt.reader.GetAllWorkflows(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows, "count": len(workflows)})
}

func (rt *Router) recordStartMetrics(result *domain.StartResult) {
	if rt.metrics == nil || result == nil {
		return
	}

	route := string(domain.ApprovalManual)
	if result.TaskID == "" {
		route = string(domain.ApprovalAutomatic)
	}
	rt.metrics.RecordDecision(rt.service, route)

	found := 0
	if result.Extracted.InvoiceNumber != nil {
		found++
	}
	if result.Extracted.CustomerName != nil {
		found++
	}
	if result.Extracted.Amount != nil {
		found++
	}
	rt.metrics.RecordExtractedFields(rt.service, found)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json response: %v", err)
	}
}
