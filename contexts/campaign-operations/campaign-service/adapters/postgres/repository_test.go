package postgresadapter_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	postgresadapter "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/postgres"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/commands"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/optional"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func openRepository(t *testing.T) *postgresadapter.Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, postgresadapter.AutoMigrate(db))
	return postgresadapter.NewRepository(db, nil)
}

type useCases struct {
	repo           *postgresadapter.Repository
	createBusiness commands.CreateBusinessUseCase
	createPlaybook commands.CreatePlaybookUseCase
	createCampaign commands.CreateCampaignUseCase
	changeStatus   commands.ChangeStatusUseCase
	addContent     commands.AddContentUseCase
	createTask     commands.CreateTaskUseCase
	updateTask     commands.UpdateTaskUseCase
	completeTask   commands.CompleteTaskUseCase
}

func newUseCases(t *testing.T) useCases {
	repo := openRepository(t)
	clock := &tickClock{now: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)}
	ids := postgresadapter.UUIDGenerator{}
	return useCases{
		repo:           repo,
		createBusiness: commands.CreateBusinessUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		createPlaybook: commands.CreatePlaybookUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		createCampaign: commands.CreateCampaignUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		changeStatus:   commands.ChangeStatusUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		addContent:     commands.AddContentUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		createTask:     commands.CreateTaskUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		updateTask:     commands.UpdateTaskUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
		completeTask:   commands.CompleteTaskUseCase{UnitOfWork: repo, Clock: clock, IDGen: ids},
	}
}

func (u useCases) seedCampaign(t *testing.T, name string) entities.Campaign {
	t.Helper()
	ctx := context.Background()
	business, err := u.createBusiness.Execute(ctx, commands.CreateBusinessCommand{
		Name:        name,
		BrandColors: []string{"#112233"},
		Settings:    map[string]any{"tone": "warm"},
	})
	require.NoError(t, err)
	playbook, err := u.createPlaybook.Execute(ctx, commands.CreatePlaybookCommand{BusinessID: business.BusinessID, Name: "Summer"})
	require.NoError(t, err)
	campaign, err := u.createCampaign.Execute(ctx, commands.CreateCampaignCommand{PlaybookID: playbook.PlaybookID, Name: "Summer menu"})
	require.NoError(t, err)
	return campaign
}

func TestBusinessRoundTripAndSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)

	business, err := u.createBusiness.Execute(ctx, commands.CreateBusinessCommand{
		Name:        "Joe's Diner!!",
		BrandColors: []string{"#ff0000", "#00ff00"},
		Settings:    map[string]any{"timezone": "UTC"},
	})
	require.NoError(t, err)

	stored, err := u.repo.GetBusiness(ctx, business.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, "joe-s-diner", stored.Slug)
	assert.Equal(t, []string{"#ff0000", "#00ff00"}, stored.BrandColors)
	assert.Equal(t, "UTC", stored.Settings["timezone"])

	_, err = u.createBusiness.Execute(ctx, commands.CreateBusinessCommand{Name: "Joe's Diner"})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	// The unique index guards the slug even when the pre-check is skipped.
	err = u.repo.CreateBusiness(ctx, entities.Business{BusinessID: "direct", Name: "Dup", Slug: "joe-s-diner"})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	_, found, err := u.repo.GetBusinessBySlug(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLaunchGateAndResetAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)
	campaign := u.seedCampaign(t, "Database Deli")

	first, err := u.createTask.Execute(ctx, commands.CreateTaskCommand{CampaignID: campaign.CampaignID, Title: "Write copy"})
	require.NoError(t, err)
	second, err := u.createTask.Execute(ctx, commands.CreateTaskCommand{CampaignID: campaign.CampaignID, Title: "Approve copy", DependsOn: first.TaskID})
	require.NoError(t, err)
	_, err = u.addContent.Execute(ctx, commands.AddContentCommand{CampaignID: campaign.CampaignID, Body: "Cold brew is back"})
	require.NoError(t, err)

	_, err = u.changeStatus.Execute(ctx, commands.ChangeStatusCommand{CampaignID: campaign.CampaignID, Action: entities.CampaignActionApprove})
	require.NoError(t, err)
	_, err = u.changeStatus.Execute(ctx, commands.ChangeStatusCommand{CampaignID: campaign.CampaignID, Action: entities.CampaignActionLaunch})
	require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Equal(t, "cannot launch campaign with pending human tasks: Write copy, Approve copy", err.Error())

	_, err = u.completeTask.Execute(ctx, commands.CompleteTaskCommand{TaskID: second.TaskID})
	require.ErrorIs(t, err, domainerrors.ErrBlocked)

	result, err := u.completeTask.Execute(ctx, commands.CompleteTaskCommand{TaskID: first.TaskID})
	require.NoError(t, err)
	assert.Equal(t, []string{second.TaskID}, result.Unblocked)

	loaded, err := u.repo.GetTask(ctx, second.TaskID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Prerequisite)
	assert.Equal(t, entities.TaskStatusCompleted, loaded.Prerequisite.Status)

	result, err = u.completeTask.Execute(ctx, commands.CompleteTaskCommand{TaskID: second.TaskID})
	require.NoError(t, err)
	assert.True(t, result.CampaignReset)

	stored, err := u.repo.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStatusSetup, stored.Status)
	assert.Equal(t, 1, stored.ContentCount)
	assert.Equal(t, campaign.BusinessID, stored.BusinessID)

	launched, err := u.changeStatus.Execute(ctx, commands.ChangeStatusCommand{CampaignID: campaign.CampaignID, Action: entities.CampaignActionLaunch})
	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStatusLive, launched.Status)

	pending, err := u.repo.ListPendingOutbox(ctx, 50)
	require.NoError(t, err)
	var launchEvents int
	for _, message := range pending {
		if message.EventType == "campaign.launched" {
			launchEvents++
			assert.Equal(t, campaign.CampaignID, message.PartitionKey)
			require.NoError(t, u.repo.MarkOutboxPublished(ctx, message.OutboxID, time.Now()))
		}
	}
	assert.Equal(t, 1, launchEvents)
	require.ErrorIs(t, u.repo.MarkOutboxPublished(ctx, "missing", time.Now()), domainerrors.ErrNotFound)
}

func TestIdempotentRetryAndActivityOrdering(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)
	campaign := u.seedCampaign(t, "Ledger Lounge")
	task, err := u.createTask.Execute(ctx, commands.CreateTaskCommand{CampaignID: campaign.CampaignID, Title: "Edit"})
	require.NoError(t, err)

	cmd := commands.UpdateTaskCommand{TaskID: task.TaskID, Priority: optional.Of(4), IdempotencyKey: "retry-1"}
	first, err := u.updateTask.Execute(ctx, cmd)
	require.NoError(t, err)
	replayed, err := u.updateTask.Execute(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.Priority, replayed.Priority)
	assert.True(t, first.UpdatedAt.Equal(replayed.UpdatedAt))

	_, err = u.updateTask.Execute(ctx, commands.UpdateTaskCommand{TaskID: task.TaskID, Title: optional.Of("Renamed"), IdempotencyKey: "retry-1"})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	stored, err := u.repo.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "Edit", stored.Title)

	entries, err := u.repo.ListActivity(ctx, ports.ActivityFilter{EntityID: task.TaskID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.ActionTaskUpdated, entries[0].Action)
	assert.Equal(t, entities.ActionTaskCreated, entries[1].Action)
	assert.Equal(t, []any{"priority"}, entries[0].Details["fields"])

	limited, err := u.repo.ListActivity(ctx, ports.ActivityFilter{BusinessID: campaign.BusinessID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, entities.ActionTaskUpdated, limited[0].Action)

	// A second append with an existing entry id is rejected, never skipped.
	duplicate := entries[0]
	require.ErrorIs(t, u.repo.AppendActivity(ctx, duplicate), domainerrors.ErrConflict)
}

func TestIdempotencyRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openRepository(t)
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	record := ports.IdempotencyRecord{
		Key:             "req-9",
		RequestHash:     "hash-a",
		ResponsePayload: []byte(`{"campaign_id":"c1","status":"paused"}`),
		ExpiresAt:       now.Add(24 * time.Hour),
	}
	require.NoError(t, repo.PutRecord(ctx, record))

	got, found, err := repo.GetRecord(ctx, "req-9", now)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hash-a", got.RequestHash)
	assert.JSONEq(t, `{"campaign_id":"c1","status":"paused"}`, string(got.ResponsePayload))

	record.RequestHash = "hash-b"
	require.ErrorIs(t, repo.PutRecord(ctx, record), domainerrors.ErrConflict)

	_, found, err = repo.GetRecord(ctx, "req-9", now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, repo.PutRecord(ctx, record))

	_, found, err = repo.GetRecord(ctx, "missing", now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConcurrentLaunchAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)
	campaign := u.seedCampaign(t, "Race Roastery")
	_, err := u.addContent.Execute(ctx, commands.AddContentCommand{CampaignID: campaign.CampaignID, Body: "Opening day"})
	require.NoError(t, err)
	_, err = u.changeStatus.Execute(ctx, commands.ChangeStatusCommand{CampaignID: campaign.CampaignID, Action: entities.CampaignActionApprove})
	require.NoError(t, err)

	const callers = 6
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = u.changeStatus.Execute(ctx, commands.ChangeStatusCommand{CampaignID: campaign.CampaignID, Action: entities.CampaignActionLaunch})
		}()
	}
	wg.Wait()

	var launched int
	for _, err := range errs {
		if err == nil {
			launched++
			continue
		}
		require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	}
	assert.Equal(t, 1, launched)

	entries, err := u.repo.ListActivity(ctx, ports.ActivityFilter{EntityID: campaign.CampaignID})
	require.NoError(t, err)
	var launchEntries int
	for _, entry := range entries {
		if entry.Action == entities.ActionCampaignLaunched {
			launchEntries++
		}
	}
	assert.Equal(t, 1, launchEntries)

	stored, err := u.repo.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStatusLive, stored.Status)
}

func TestTaskListOrderingAndBusinessFilter(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)
	campaign := u.seedCampaign(t, "Order Oven")
	other := u.seedCampaign(t, "Other Oven")

	for _, tc := range []struct {
		title    string
		priority int
	}{
		{"low", 1},
		{"high", 5},
		{"low-later", 1},
	} {
		_, err := u.createTask.Execute(ctx, commands.CreateTaskCommand{CampaignID: campaign.CampaignID, Title: tc.title, Priority: tc.priority})
		require.NoError(t, err)
	}
	_, err := u.createTask.Execute(ctx, commands.CreateTaskCommand{CampaignID: other.CampaignID, Title: "elsewhere"})
	require.NoError(t, err)

	items, err := u.repo.ListTasks(ctx, ports.TaskFilter{BusinessID: campaign.BusinessID})
	require.NoError(t, err)
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"high", "low", "low-later"}, titles)

	count, err := u.repo.CountTasks(ctx, ports.TaskFilter{Assignee: entities.AssigneeHuman, Status: entities.TaskStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestEscalationPersistence(t *testing.T) {
	ctx := context.Background()
	u := newUseCases(t)
	campaign := u.seedCampaign(t, "Escalation Espresso")
	clock := &tickClock{now: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)}
	create := commands.CreateEscalationUseCase{UnitOfWork: u.repo, Clock: clock, IDGen: postgresadapter.UUIDGenerator{}}
	change := commands.ChangeEscalationStatusUseCase{UnitOfWork: u.repo, Clock: clock, IDGen: postgresadapter.UUIDGenerator{}}

	low, err := create.Execute(ctx, commands.CreateEscalationCommand{CampaignID: campaign.CampaignID, Title: "Typo", Severity: "low"})
	require.NoError(t, err)
	critical, err := create.Execute(ctx, commands.CreateEscalationCommand{CampaignID: campaign.CampaignID, Title: "Outage", Severity: "critical"})
	require.NoError(t, err)

	_, err = change.Execute(ctx, commands.ChangeEscalationStatusCommand{
		EscalationID: low.EscalationID,
		TargetStatus: entities.EscalationStatusResolved,
		Resolution:   "fixed",
	})
	require.NoError(t, err)

	active, err := u.repo.ListEscalations(ctx, ports.EscalationFilter{Status: entities.EscalationStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, critical.EscalationID, active[0].EscalationID)

	all, err := u.repo.ListEscalations(ctx, ports.EscalationFilter{CampaignID: campaign.CampaignID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, critical.EscalationID, all[0].EscalationID)
	assert.Equal(t, "fixed", all[1].Resolution)
	require.NotNil(t, all[1].ResolvedAt)

	_, err = u.repo.GetEscalation(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
