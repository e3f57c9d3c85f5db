package commands_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/memory"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/commands"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"

	"github.com/stretchr/testify/require"
)

// stepClock advances one second per reading so creation order is stable.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) NewID(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

// failingUnitOfWork wraps the memory store and injects failures into the
// repository handed to each transaction callback.
type failingUnitOfWork struct {
	inner        *memory.Store
	failAppend   bool
	failCount    bool
	failCampaign bool

	// failAppendAfter lets that many appends through before failing the rest.
	failAppendAfter int
	appends         int
}

func (u *failingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		return fn(ctx, failingRepo{Repository: repo, uow: u})
	})
}

type failingRepo struct {
	ports.Repository
	uow *failingUnitOfWork
}

var errInjected = errors.New("injected storage failure")

func (r failingRepo) AppendActivity(ctx context.Context, entry entities.ActivityEntry) error {
	if r.uow.failAppend {
		return errInjected
	}
	r.uow.appends++
	if r.uow.failAppendAfter > 0 && r.uow.appends > r.uow.failAppendAfter {
		return errInjected
	}
	return r.Repository.AppendActivity(ctx, entry)
}

func (r failingRepo) CountTasks(ctx context.Context, filter ports.TaskFilter) (int, error) {
	if r.uow.failCount {
		return 0, errInjected
	}
	return r.Repository.CountTasks(ctx, filter)
}

func (r failingRepo) UpdateCampaignStatus(ctx context.Context, campaign entities.Campaign) error {
	if r.uow.failCampaign {
		return errInjected
	}
	return r.Repository.UpdateCampaignStatus(ctx, campaign)
}

type fixture struct {
	store *memory.Store
	uow   ports.UnitOfWork
	clock *stepClock
	ids   *sequenceIDs

	createBusiness   commands.CreateBusinessUseCase
	createPlaybook   commands.CreatePlaybookUseCase
	createCampaign   commands.CreateCampaignUseCase
	changeStatus     commands.ChangeStatusUseCase
	addContent       commands.AddContentUseCase
	createTask       commands.CreateTaskUseCase
	updateTask       commands.UpdateTaskUseCase
	completeTask     commands.CompleteTaskUseCase
	createEscalation commands.CreateEscalationUseCase
	changeEscalation commands.ChangeEscalationStatusUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return buildFixture(store, store, clock, &sequenceIDs{})
}

// withUnitOfWork returns use cases bound to uow that share this fixture's
// store, clock and id sequence.
func (f *fixture) withUnitOfWork(uow ports.UnitOfWork) *fixture {
	return buildFixture(f.store, uow, f.clock, f.ids)
}

func buildFixture(store *memory.Store, uow ports.UnitOfWork, clock *stepClock, ids *sequenceIDs) *fixture {
	return &fixture{
		store:            store,
		uow:              uow,
		clock:            clock,
		ids:              ids,
		createBusiness:   commands.CreateBusinessUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		createPlaybook:   commands.CreatePlaybookUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		createCampaign:   commands.CreateCampaignUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		changeStatus:     commands.ChangeStatusUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		addContent:       commands.AddContentUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		createTask:       commands.CreateTaskUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		updateTask:       commands.UpdateTaskUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		completeTask:     commands.CompleteTaskUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		createEscalation: commands.CreateEscalationUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
		changeEscalation: commands.ChangeEscalationStatusUseCase{UnitOfWork: uow, Clock: clock, IDGen: ids},
	}
}

// seedCampaign creates a business, playbook and campaign in setup.
func (f *fixture) seedCampaign(t *testing.T, businessName string) entities.Campaign {
	t.Helper()
	ctx := context.Background()
	business, err := f.createBusiness.Execute(ctx, commands.CreateBusinessCommand{Name: businessName})
	require.NoError(t, err)
	playbook, err := f.createPlaybook.Execute(ctx, commands.CreatePlaybookCommand{
		BusinessID: business.BusinessID,
		Name:       "Spring launch",
	})
	require.NoError(t, err)
	campaign, err := f.createCampaign.Execute(ctx, commands.CreateCampaignCommand{
		PlaybookID: playbook.PlaybookID,
		Name:       "Spring menu",
	})
	require.NoError(t, err)
	return campaign
}

func (f *fixture) seedTask(t *testing.T, campaignID string, title string, assignee entities.Assignee, dependsOn string) entities.Task {
	t.Helper()
	task, err := f.createTask.Execute(context.Background(), commands.CreateTaskCommand{
		CampaignID: campaignID,
		Title:      title,
		Assignee:   string(assignee),
		DependsOn:  dependsOn,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) seedContent(t *testing.T, campaignID string) {
	t.Helper()
	_, err := f.addContent.Execute(context.Background(), commands.AddContentCommand{
		CampaignID: campaignID,
		Body:       "Fresh pasta every Friday",
	})
	require.NoError(t, err)
}

func (f *fixture) setStatus(t *testing.T, campaignID string, status entities.CampaignStatus) {
	t.Helper()
	ctx := context.Background()
	campaign, err := f.store.GetCampaign(ctx, campaignID)
	require.NoError(t, err)
	campaign.Status = status
	require.NoError(t, f.store.UpdateCampaignStatus(ctx, campaign))
}

func (f *fixture) activity(t *testing.T, filter ports.ActivityFilter) []entities.ActivityEntry {
	t.Helper()
	items, err := f.store.ListActivity(context.Background(), filter)
	require.NoError(t, err)
	return items
}

func countAction(items []entities.ActivityEntry, action string) int {
	n := 0
	for _, item := range items {
		if item.Action == action {
			n++
		}
	}
	return n
}
