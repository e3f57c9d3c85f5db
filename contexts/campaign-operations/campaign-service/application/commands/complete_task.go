package commands

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type CompleteTaskCommand struct {
	TaskID          string
	CompletionNotes string
	IdempotencyKey  string
}

type CompleteTaskResult struct {
	Task entities.Task
	// Unblocked lists pending dependents whose prerequisite is now satisfied.
	Unblocked []string
	// CampaignReset is true when the follow-up forced the campaign status.
	CampaignReset  bool
	CampaignStatus entities.CampaignStatus
	// FollowUpErr reports a failed recount or campaign write. The completion
	// itself is already committed when this is set.
	FollowUpErr error
	// Replayed is true when an earlier request with the same idempotency key
	// already completed the task; the follow-up is not repeated.
	Replayed bool
}

// taskCompletion is the part of the result stored for idempotent replay.
type taskCompletion struct {
	Task           entities.Task
	Unblocked      []string
	CampaignStatus entities.CampaignStatus
}

// CompleteTaskUseCase runs the task completion workflow:
//  1. gate + status write + activity append (one unit of work)
//  2. pending human task recount + campaign status write + campaign_reset
//     entry (second unit of work)
//
// Step 2 runs strictly after step 1 commits.
type CompleteTaskUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CompleteTaskUseCase) Execute(ctx context.Context, cmd CompleteTaskCommand) (CompleteTaskResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	taskID := strings.TrimSpace(cmd.TaskID)
	if taskID == "" {
		return CompleteTaskResult{}, domainerrors.InvalidInput("task id is required")
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "task.complete",
		Fields: map[string]any{
			"task_id":          taskID,
			"completion_notes": strings.TrimSpace(cmd.CompletionNotes),
		},
	}
	var (
		completion taskCompletion
		replayed   bool
	)
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		completion, replayed, err = runIdempotent(ctx, repo, uc.Clock.Now().UTC(), request, func() (taskCompletion, error) {
			return uc.complete(ctx, repo, taskID, cmd)
		})
		return err
	})
	if err != nil {
		logger.Warn("task completion rejected",
			"event", "task_completion_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"task_id", taskID,
			"kind", domainerrors.Kind(err),
			"error", err.Error(),
		)
		return CompleteTaskResult{}, err
	}
	result := CompleteTaskResult{
		Task:           completion.Task,
		Unblocked:      completion.Unblocked,
		CampaignStatus: completion.CampaignStatus,
	}
	if replayed {
		result.Replayed = true
		logger.Info("task completion replayed",
			"event", "task_completion_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"task_id", result.Task.TaskID,
		)
		return result, nil
	}

	logger.Info("task completed",
		"event", "task_completed",
		"module", application.ModuleName,
		"layer", "application",
		"task_id", result.Task.TaskID,
		"campaign_id", result.Task.CampaignID,
		"unblocked_count", len(result.Unblocked),
	)

	status, reset, err := uc.advanceCampaign(ctx, result.Task)
	if err != nil {
		result.FollowUpErr = err
		logger.Error("task completion follow-up failed",
			"event", "task_completion_follow_up_failed",
			"module", application.ModuleName,
			"layer", "application",
			"task_id", result.Task.TaskID,
			"campaign_id", result.Task.CampaignID,
			"error", err.Error(),
		)
		return result, nil
	}
	if reset {
		result.CampaignReset = true
		result.CampaignStatus = status
	}
	return result, nil
}

// advanceCampaign recounts incomplete human tasks and, when none remain,
// forces the campaign into entities.StatusAfterHumanTasksDone. The forced
// write is audited as a system campaign_reset entry with its own event.
func (uc CompleteTaskUseCase) advanceCampaign(ctx context.Context, trigger entities.Task) (entities.CampaignStatus, bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	var (
		status entities.CampaignStatus
		reset  bool
		from   entities.CampaignStatus
	)
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		pending, err := repo.CountTasks(ctx, ports.TaskFilter{
			CampaignID: trigger.CampaignID,
			Assignee:   entities.AssigneeHuman,
			Incomplete: true,
		})
		if err != nil {
			return domainerrors.Persistence("count pending human tasks", err)
		}
		if pending > 0 {
			return nil
		}

		campaign, err := repo.LockCampaign(ctx, trigger.CampaignID)
		if err != nil {
			return err
		}
		from = campaign.Status
		now := uc.Clock.Now().UTC()
		campaign.Status = entities.StatusAfterHumanTasksDone(from)
		campaign.UpdatedAt = now
		if err := repo.UpdateCampaignStatus(ctx, campaign); err != nil {
			return domainerrors.Persistence("update campaign status", err)
		}
		if err := recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
			BusinessID: campaign.BusinessID,
			CampaignID: campaign.CampaignID,
			Actor:      entities.ActorSystem,
			Action:     entities.ActionCampaignReset,
			EntityType: entities.EntityTypeCampaign,
			EntityID:   campaign.CampaignID,
			Details: map[string]any{
				"from_status": string(from),
				"to_status":   string(campaign.Status),
				"task_id":     trigger.TaskID,
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := publishEvent(ctx, repo, uc.IDGen, "campaign.reset", campaign.CampaignID, now, map[string]any{
			"campaign_id": campaign.CampaignID,
			"business_id": campaign.BusinessID,
			"from_status": string(from),
			"to_status":   string(campaign.Status),
			"task_id":     trigger.TaskID,
		}); err != nil {
			return err
		}
		status = campaign.Status
		reset = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if reset {
		logger.Info("campaign status reset after human tasks completed",
			"event", "campaign_auto_advanced",
			"module", application.ModuleName,
			"layer", "application",
			"campaign_id", trigger.CampaignID,
			"from_status", string(from),
			"to_status", string(status),
		)
	}
	return status, reset, nil
}

// complete is the gated first unit of work: status write, task_completed
// entry and task.completed event.
func (uc CompleteTaskUseCase) complete(ctx context.Context, repo ports.Repository, taskID string, cmd CompleteTaskCommand) (taskCompletion, error) {
	task, err := repo.LockTask(ctx, taskID)
	if err != nil {
		return taskCompletion{}, err
	}
	if task.IsCompleted() {
		return taskCompletion{}, domainerrors.InvalidState("task %q is already completed", task.Title)
	}
	if blocker, blocked := task.BlockedBy(); blocked {
		return taskCompletion{}, domainerrors.Blocked("task %q is blocked by incomplete task %q", task.Title, blocker.Title)
	}

	campaign, err := repo.GetCampaign(ctx, task.CampaignID)
	if err != nil {
		return taskCompletion{}, err
	}

	now := uc.Clock.Now().UTC()
	task.Status = entities.TaskStatusCompleted
	task.CompletedAt = &now
	task.CompletionNotes = strings.TrimSpace(cmd.CompletionNotes)
	task.UpdatedAt = now
	if err := repo.UpdateTask(ctx, task); err != nil {
		return taskCompletion{}, domainerrors.Persistence("update task", err)
	}
	if err := recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
		BusinessID: campaign.BusinessID,
		CampaignID: campaign.CampaignID,
		Actor:      entities.ActorFor(task.Assignee),
		Action:     entities.ActionTaskCompleted,
		EntityType: entities.EntityTypeTask,
		EntityID:   task.TaskID,
		Details: map[string]any{
			"title": task.Title,
			"type":  task.Type,
		},
		CreatedAt: now,
	}); err != nil {
		return taskCompletion{}, err
	}
	if err := publishEvent(ctx, repo, uc.IDGen, "task.completed", campaign.CampaignID, now, map[string]any{
		"task_id":     task.TaskID,
		"campaign_id": campaign.CampaignID,
		"assignee":    string(task.Assignee),
	}); err != nil {
		return taskCompletion{}, err
	}

	dependents, err := repo.ListTasks(ctx, ports.TaskFilter{
		CampaignID: task.CampaignID,
		DependsOn:  task.TaskID,
		Status:     entities.TaskStatusPending,
	})
	if err != nil {
		return taskCompletion{}, domainerrors.Persistence("list dependent tasks", err)
	}
	completion := taskCompletion{CampaignStatus: campaign.Status}
	for _, dependent := range dependents {
		completion.Unblocked = append(completion.Unblocked, dependent.TaskID)
	}

	task.Prerequisite = nil
	if task.DependsOn != "" {
		prerequisite, err := repo.GetTask(ctx, task.DependsOn)
		if err == nil {
			task.Prerequisite = &entities.TaskRef{TaskID: prerequisite.TaskID, Title: prerequisite.Title, Status: prerequisite.Status}
		}
	}
	completion.Task = task
	return completion, nil
}
