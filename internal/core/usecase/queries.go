package usecase

import (
	"context"
	"fmt"

	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/core/ports"
)

// QueryUseCase serves the read model over documents and tasks.
type QueryUseCase struct {
	docs  ports.DocumentRepository
	tasks ports.TaskRepository
}

func NewQueryUseCase(docs ports.DocumentRepository, tasks ports.TaskRepository) *QueryUseCase {
	return &QueryUseCase{docs: docs, tasks: tasks}
}

func (uc *QueryUseCase) GetDocumentStatus(ctx context.Context, documentID string) (*domain.DocumentStatusView, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	view := &domain.DocumentStatusView{
		DocumentID:   doc.ID,
		Filename:     doc.Filename,
		Status:       doc.Status,
		Extracted:    doc.ExtractedData,
		WorkflowData: doc.WorkflowData,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	pending, err := uc.tasks.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	for _, task := range pending {
		if task.DocumentID != documentID {
			continue
		}
		view.PendingTasks = append(view.PendingTasks, domain.PendingTaskRef{
			TaskID:    task.TaskID,
			TaskType:  task.TaskType,
			CreatedAt: task.CreatedAt,
		})
	}
	return view, nil
}

func (uc *QueryUseCase) GetPendingTasks(ctx context.Context) ([]domain.PendingTaskView, error) {
	tasks, err := uc.tasks.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return tasks, nil
}

func (uc *QueryUseCase) GetAllWorkflows(ctx context.Context) ([]domain.WorkflowView, error) {
	docs, err := uc.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	views := make([]domain.WorkflowView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, domain.WorkflowView{
			DocumentID:        doc.ID,
			Filename:          doc.Filename,
			ProcessInstanceID: doc.ProcessInstanceID,
			Status:            doc.Status,
			Started:           doc.CreatedAt,
			Updated:           doc.UpdatedAt,
		})
	}
	return views, nil
}
