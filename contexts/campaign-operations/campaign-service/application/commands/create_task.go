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
)

type CreateTaskCommand struct {
	CampaignID     string
	Title          string
	Description    string
	Instructions   string
	Type           string
	Assignee       string
	Priority       int
	DueDate        *time.Time
	DependsOn      string
	IdempotencyKey string
}

type CreateTaskUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateTaskUseCase) Execute(ctx context.Context, cmd CreateTaskCommand) (entities.Task, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()
	task := entities.Task{
		CampaignID:   strings.TrimSpace(cmd.CampaignID),
		Title:        strings.TrimSpace(cmd.Title),
		Description:  strings.TrimSpace(cmd.Description),
		Instructions: strings.TrimSpace(cmd.Instructions),
		Type:         strings.TrimSpace(cmd.Type),
		Assignee:     entities.Assignee(strings.TrimSpace(cmd.Assignee)),
		Status:       entities.TaskStatusPending,
		Priority:     cmd.Priority,
		DueDate:      cmd.DueDate,
		DependsOn:    strings.TrimSpace(cmd.DependsOn),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if task.CampaignID == "" || task.Title == "" {
		return entities.Task{}, domainerrors.InvalidInput("task requires a campaign id and a title")
	}
	if task.Assignee == "" {
		task.Assignee = entities.AssigneeHuman
	}
	if !entities.IsSupportedAssignee(task.Assignee) {
		return entities.Task{}, domainerrors.InvalidInput("unsupported assignee %q", task.Assignee)
	}
	if task.Type == "" {
		task.Type = "general"
	}

	taskID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Task{}, err
	}
	task.TaskID = taskID

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "task.create",
		Fields: map[string]any{
			"campaign_id":  task.CampaignID,
			"title":        task.Title,
			"description":  task.Description,
			"instructions": task.Instructions,
			"type":         task.Type,
			"assignee":     string(task.Assignee),
			"priority":     task.Priority,
			"due_date":     task.DueDate,
			"depends_on":   task.DependsOn,
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		task, replayed, err = runIdempotent(ctx, repo, now, request, func() (entities.Task, error) {
			return uc.create(ctx, repo, task)
		})
		return err
	})
	if err != nil {
		return entities.Task{}, err
	}
	if replayed {
		return task, nil
	}

	logger.Info("task created",
		"event", "task_created",
		"module", application.ModuleName,
		"layer", "application",
		"task_id", task.TaskID,
		"campaign_id", task.CampaignID,
		"assignee", string(task.Assignee),
	)
	return task, nil
}

func (uc CreateTaskUseCase) create(ctx context.Context, repo ports.Repository, task entities.Task) (entities.Task, error) {
	campaign, err := repo.GetCampaign(ctx, task.CampaignID)
	if err != nil {
		return entities.Task{}, err
	}
	if task.DependsOn != "" {
		prerequisite, err := repo.GetTask(ctx, task.DependsOn)
		if err != nil {
			return entities.Task{}, err
		}
		if prerequisite.CampaignID != task.CampaignID {
			return entities.Task{}, domainerrors.InvalidInput("task %q belongs to another campaign", prerequisite.TaskID)
		}
		task.Prerequisite = &entities.TaskRef{
			TaskID: prerequisite.TaskID,
			Title:  prerequisite.Title,
			Status: prerequisite.Status,
		}
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		return entities.Task{}, domainerrors.Persistence("create task", err)
	}
	details := map[string]any{
		"title":    task.Title,
		"type":     task.Type,
		"assignee": string(task.Assignee),
	}
	if task.DependsOn != "" {
		details["depends_on"] = task.DependsOn
	}
	return task, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
		BusinessID: campaign.BusinessID,
		CampaignID: campaign.CampaignID,
		Actor:      entities.ActorHuman,
		Action:     entities.ActionTaskCreated,
		EntityType: entities.EntityTypeTask,
		EntityID:   task.TaskID,
		Details:    details,
		CreatedAt:  task.CreatedAt,
	})
}
