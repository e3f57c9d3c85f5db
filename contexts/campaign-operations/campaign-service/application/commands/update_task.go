package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/optional"
)

// UpdateTaskCommand is a partial update. Absent fields are left untouched;
// explicit nulls clear the field where clearing is meaningful.
type UpdateTaskCommand struct {
	TaskID         string
	Title          optional.Field[string]
	Description    optional.Field[string]
	Instructions   optional.Field[string]
	Priority       optional.Field[int]
	DueDate        optional.Field[time.Time]
	Status         optional.Field[string]
	IdempotencyKey string
}

func (cmd UpdateTaskCommand) empty() bool {
	return !cmd.Title.Set && !cmd.Description.Set && !cmd.Instructions.Set &&
		!cmd.Priority.Set && !cmd.DueDate.Set && !cmd.Status.Set
}

// UpdateTaskUseCase applies field edits. Setting status to completed here
// stamps completedAt but does not consult the dependency gate and does not
// run the campaign follow-up; CompleteTaskUseCase is the gated path.
type UpdateTaskUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc UpdateTaskUseCase) Execute(ctx context.Context, cmd UpdateTaskCommand) (entities.Task, error) {
	logger := application.ResolveLogger(uc.Logger)
	taskID := strings.TrimSpace(cmd.TaskID)
	if taskID == "" {
		return entities.Task{}, domainerrors.InvalidInput("task id is required")
	}
	if cmd.Title.Set && (cmd.Title.Null || strings.TrimSpace(cmd.Title.Value) == "") {
		return entities.Task{}, domainerrors.InvalidInput("task title cannot be cleared")
	}
	if cmd.Status.Set {
		if cmd.Status.Null {
			return entities.Task{}, domainerrors.InvalidInput("task status cannot be cleared")
		}
		if !entities.IsSupportedTaskStatus(entities.TaskStatus(cmd.Status.Value)) {
			return entities.Task{}, domainerrors.InvalidInput("unsupported task status %q", cmd.Status.Value)
		}
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "task.update",
		Fields: map[string]any{
			"task_id":      taskID,
			"title":        fieldState(cmd.Title),
			"description":  fieldState(cmd.Description),
			"instructions": fieldState(cmd.Instructions),
			"priority":     fieldState(cmd.Priority),
			"due_date":     fieldState(cmd.DueDate),
			"status":       fieldState(cmd.Status),
		},
	}
	var (
		outcome  taskUpdate
		replayed bool
	)
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		outcome, replayed, err = runIdempotent(ctx, repo, uc.Clock.Now().UTC(), request, func() (taskUpdate, error) {
			return uc.apply(ctx, repo, taskID, cmd)
		})
		return err
	})
	if err != nil {
		return entities.Task{}, err
	}
	updated, changed := outcome.Task, outcome.Changed

	if replayed {
		logger.Info("task update replayed",
			"event", "task_update_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"task_id", updated.TaskID,
		)
		return updated, nil
	}

	if len(changed) > 0 {
		logger.Info("task updated",
			"event", "task_updated",
			"module", application.ModuleName,
			"layer", "application",
			"task_id", updated.TaskID,
			"fields", strings.Join(changed, ","),
		)
	}
	return updated, nil
}

type taskUpdate struct {
	Task    entities.Task
	Changed []string
}

func (uc UpdateTaskUseCase) apply(ctx context.Context, repo ports.Repository, taskID string, cmd UpdateTaskCommand) (taskUpdate, error) {
	task, err := repo.LockTask(ctx, taskID)
	if err != nil {
		return taskUpdate{}, err
	}
	if cmd.empty() {
		return taskUpdate{Task: task}, nil
	}

	var changed []string
	now := uc.Clock.Now().UTC()
	if cmd.Title.Set {
		task.Title = strings.TrimSpace(cmd.Title.Value)
		changed = append(changed, "title")
	}
	if cmd.Description.Set {
		task.Description = strings.TrimSpace(cmd.Description.Value)
		changed = append(changed, "description")
	}
	if cmd.Instructions.Set {
		task.Instructions = strings.TrimSpace(cmd.Instructions.Value)
		changed = append(changed, "instructions")
	}
	if cmd.Priority.Set {
		task.Priority = cmd.Priority.Value
		changed = append(changed, "priority")
	}
	if cmd.DueDate.Set {
		task.DueDate = nil
		if due := cmd.DueDate.Ptr(); due != nil {
			utc := due.UTC()
			task.DueDate = &utc
		}
		changed = append(changed, "due_date")
	}
	if cmd.Status.Set {
		task.Status = entities.TaskStatus(cmd.Status.Value)
		if task.Status == entities.TaskStatusCompleted {
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
		changed = append(changed, "status")
	}
	task.UpdatedAt = now
	if err := repo.UpdateTask(ctx, task); err != nil {
		return taskUpdate{}, domainerrors.Persistence("update task", err)
	}

	campaign, err := repo.GetCampaign(ctx, task.CampaignID)
	if err != nil {
		return taskUpdate{}, err
	}
	fields := make([]any, 0, len(changed))
	for _, name := range changed {
		fields = append(fields, name)
	}
	if err := recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
		BusinessID: campaign.BusinessID,
		CampaignID: campaign.CampaignID,
		Actor:      entities.ActorHuman,
		Action:     entities.ActionTaskUpdated,
		EntityType: entities.EntityTypeTask,
		EntityID:   task.TaskID,
		Details:    map[string]any{"fields": fields},
		CreatedAt:  now,
	}); err != nil {
		return taskUpdate{}, err
	}
	return taskUpdate{Task: task, Changed: changed}, nil
}
