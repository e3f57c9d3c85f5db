package queries

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type ListTasksQuery struct {
	CampaignID string
	BusinessID string
	Assignee   string
	Status     string
}

type ListTasksUseCase struct {
	Tasks  ports.TaskRepository
	Logger *slog.Logger
}

func (uc ListTasksUseCase) Execute(ctx context.Context, query ListTasksQuery) ([]entities.Task, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter := ports.TaskFilter{
		CampaignID: strings.TrimSpace(query.CampaignID),
		BusinessID: strings.TrimSpace(query.BusinessID),
	}
	if value := strings.TrimSpace(query.Assignee); value != "" {
		filter.Assignee = entities.Assignee(value)
		if !entities.IsSupportedAssignee(filter.Assignee) {
			return nil, domainerrors.InvalidInput("unsupported assignee filter %q", value)
		}
	}
	if value := strings.TrimSpace(query.Status); value != "" {
		filter.Status = entities.TaskStatus(value)
		if !entities.IsSupportedTaskStatus(filter.Status) {
			return nil, domainerrors.InvalidInput("unsupported status filter %q", value)
		}
	}

	items, err := uc.Tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, domainerrors.Persistence("list tasks", err)
	}
	logger.Debug("tasks listed",
		"event", "tasks_listed",
		"module", application.ModuleName,
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}

type GetTaskUseCase struct {
	Tasks ports.TaskRepository
}

func (uc GetTaskUseCase) Execute(ctx context.Context, taskID string) (entities.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return entities.Task{}, domainerrors.InvalidInput("task id is required")
	}
	return uc.Tasks.GetTask(ctx, taskID)
}
