package memory

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRow struct {
	message     ports.OutboxMessage
	status      string
	publishedAt *time.Time
}

// Store keeps every aggregate in process memory. WithinTx holds the write
// lock for the whole callback and restores a snapshot when it fails, which
// gives the same all-or-nothing behavior as the database adapter.
type Store struct {
	mu sync.RWMutex

	businesses  map[string]entities.Business
	playbooks   map[string]entities.Playbook
	campaigns   map[string]entities.Campaign
	content     map[string]entities.Content
	tasks       map[string]entities.Task
	escalations map[string]entities.Escalation
	activity    []entities.ActivityEntry
	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRow
}

func NewStore() *Store {
	return &Store{
		businesses:  make(map[string]entities.Business),
		playbooks:   make(map[string]entities.Playbook),
		campaigns:   make(map[string]entities.Campaign),
		content:     make(map[string]entities.Content),
		tasks:       make(map[string]entities.Task),
		escalations: make(map[string]entities.Escalation),
		activity:    make([]entities.ActivityEntry, 0),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make([]outboxRow, 0),
	}
}

type snapshot struct {
	businesses  map[string]entities.Business
	playbooks   map[string]entities.Playbook
	campaigns   map[string]entities.Campaign
	content     map[string]entities.Content
	tasks       map[string]entities.Task
	escalations map[string]entities.Escalation
	activity    []entities.ActivityEntry
	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRow
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		businesses:  maps.Clone(s.businesses),
		playbooks:   maps.Clone(s.playbooks),
		campaigns:   maps.Clone(s.campaigns),
		content:     maps.Clone(s.content),
		tasks:       maps.Clone(s.tasks),
		escalations: maps.Clone(s.escalations),
		activity:    slices.Clone(s.activity),
		idempotency: maps.Clone(s.idempotency),
		outbox:      slices.Clone(s.outbox),
	}
}

func (s *Store) restore(snap snapshot) {
	s.businesses = snap.businesses
	s.playbooks = snap.playbooks
	s.campaigns = snap.campaigns
	s.content = snap.content
	s.tasks = snap.tasks
	s.escalations = snap.escalations
	s.activity = snap.activity
	s.idempotency = snap.idempotency
	s.outbox = snap.outbox
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, txRepo{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) CreateBusiness(ctx context.Context, business entities.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.CreateBusiness(ctx, business)
}

func (s *Store) GetBusiness(ctx context.Context, businessID string) (entities.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetBusiness(ctx, businessID)
}

func (s *Store) GetBusinessBySlug(ctx context.Context, slug string) (entities.Business, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetBusinessBySlug(ctx, slug)
}

func (s *Store) CreatePlaybook(ctx context.Context, playbook entities.Playbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.CreatePlaybook(ctx, playbook)
}

func (s *Store) GetPlaybook(ctx context.Context, playbookID string) (entities.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetPlaybook(ctx, playbookID)
}

func (s *Store) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.CreateCampaign(ctx, campaign)
}

func (s *Store) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetCampaign(ctx, campaignID)
}

func (s *Store) LockCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return s.GetCampaign(ctx, campaignID)
}

func (s *Store) UpdateCampaignStatus(ctx context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.UpdateCampaignStatus(ctx, campaign)
}

func (s *Store) AddContent(ctx context.Context, content entities.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.AddContent(ctx, content)
}

func (s *Store) CountContent(ctx context.Context, campaignID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.CountContent(ctx, campaignID)
}

func (s *Store) CreateTask(ctx context.Context, task entities.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.CreateTask(ctx, task)
}

func (s *Store) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetTask(ctx, taskID)
}

func (s *Store) LockTask(ctx context.Context, taskID string) (entities.Task, error) {
	return s.GetTask(ctx, taskID)
}

func (s *Store) UpdateTask(ctx context.Context, task entities.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.UpdateTask(ctx, task)
}

func (s *Store) CountTasks(ctx context.Context, filter ports.TaskFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.CountTasks(ctx, filter)
}

func (s *Store) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.ListTasks(ctx, filter)
}

func (s *Store) CreateEscalation(ctx context.Context, escalation entities.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.CreateEscalation(ctx, escalation)
}

func (s *Store) GetEscalation(ctx context.Context, escalationID string) (entities.Escalation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.GetEscalation(ctx, escalationID)
}

func (s *Store) LockEscalation(ctx context.Context, escalationID string) (entities.Escalation, error) {
	return s.GetEscalation(ctx, escalationID)
}

func (s *Store) UpdateEscalation(ctx context.Context, escalation entities.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.UpdateEscalation(ctx, escalation)
}

func (s *Store) ListEscalations(ctx context.Context, filter ports.EscalationFilter) ([]entities.Escalation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.ListEscalations(ctx, filter)
}

func (s *Store) AppendActivity(ctx context.Context, entry entities.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.AppendActivity(ctx, entry)
}

func (s *Store) ListActivity(ctx context.Context, filter ports.ActivityFilter) ([]entities.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txRepo{s: s}.ListActivity(ctx, filter)
}

func (s *Store) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.GetRecord(ctx, key, now)
}

func (s *Store) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.PutRecord(ctx, record)
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txRepo{s: s}.AppendOutbox(ctx, envelope)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = outbox.DefaultBatchSize
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.status != outbox.StatusPending {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == strings.TrimSpace(outboxID) {
			timestamp := publishedAt.UTC()
			s.outbox[i].status = outbox.StatusPublished
			s.outbox[i].publishedAt = &timestamp
			return nil
		}
	}
	return domainerrors.NotFound("outbox message", outboxID)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// txRepo runs against the store without locking; callers hold s.mu.
type txRepo struct {
	s *Store
}

func (r txRepo) CreateBusiness(_ context.Context, business entities.Business) error {
	if _, exists := r.s.businesses[business.BusinessID]; exists {
		return domainerrors.Conflict("business %q already exists", business.BusinessID)
	}
	for _, existing := range r.s.businesses {
		if existing.Slug == business.Slug {
			return domainerrors.Conflict("business slug %q already exists", business.Slug)
		}
	}
	r.s.businesses[business.BusinessID] = business
	return nil
}

func (r txRepo) GetBusiness(_ context.Context, businessID string) (entities.Business, error) {
	item, exists := r.s.businesses[strings.TrimSpace(businessID)]
	if !exists {
		return entities.Business{}, domainerrors.NotFound("business", businessID)
	}
	return item, nil
}

func (r txRepo) GetBusinessBySlug(_ context.Context, slug string) (entities.Business, bool, error) {
	for _, item := range r.s.businesses {
		if item.Slug == strings.TrimSpace(slug) {
			return item, true, nil
		}
	}
	return entities.Business{}, false, nil
}

func (r txRepo) CreatePlaybook(_ context.Context, playbook entities.Playbook) error {
	if _, exists := r.s.playbooks[playbook.PlaybookID]; exists {
		return domainerrors.Conflict("playbook %q already exists", playbook.PlaybookID)
	}
	if _, exists := r.s.businesses[playbook.BusinessID]; !exists {
		return domainerrors.NotFound("business", playbook.BusinessID)
	}
	r.s.playbooks[playbook.PlaybookID] = playbook
	return nil
}

func (r txRepo) GetPlaybook(_ context.Context, playbookID string) (entities.Playbook, error) {
	item, exists := r.s.playbooks[strings.TrimSpace(playbookID)]
	if !exists {
		return entities.Playbook{}, domainerrors.NotFound("playbook", playbookID)
	}
	return item, nil
}

func (r txRepo) CreateCampaign(_ context.Context, campaign entities.Campaign) error {
	if _, exists := r.s.campaigns[campaign.CampaignID]; exists {
		return domainerrors.Conflict("campaign %q already exists", campaign.CampaignID)
	}
	if _, exists := r.s.playbooks[campaign.PlaybookID]; !exists {
		return domainerrors.NotFound("playbook", campaign.PlaybookID)
	}
	campaign.ContentCount = 0
	r.s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (r txRepo) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	item, exists := r.s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.NotFound("campaign", campaignID)
	}
	if playbook, ok := r.s.playbooks[item.PlaybookID]; ok {
		item.BusinessID = playbook.BusinessID
	}
	item.ContentCount, _ = r.CountContent(ctx, item.CampaignID)
	return item, nil
}

func (r txRepo) LockCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return r.GetCampaign(ctx, campaignID)
}

func (r txRepo) UpdateCampaignStatus(_ context.Context, campaign entities.Campaign) error {
	existing, exists := r.s.campaigns[campaign.CampaignID]
	if !exists {
		return domainerrors.NotFound("campaign", campaign.CampaignID)
	}
	existing.Status = campaign.Status
	existing.UpdatedAt = campaign.UpdatedAt
	existing.LaunchedAt = campaign.LaunchedAt
	existing.CompletedAt = campaign.CompletedAt
	r.s.campaigns[campaign.CampaignID] = existing
	return nil
}

func (r txRepo) AddContent(_ context.Context, content entities.Content) error {
	if _, exists := r.s.content[content.ContentID]; exists {
		return domainerrors.Conflict("content %q already exists", content.ContentID)
	}
	if _, exists := r.s.campaigns[content.CampaignID]; !exists {
		return domainerrors.NotFound("campaign", content.CampaignID)
	}
	r.s.content[content.ContentID] = content
	return nil
}

func (r txRepo) CountContent(_ context.Context, campaignID string) (int, error) {
	count := 0
	for _, item := range r.s.content {
		if item.CampaignID == strings.TrimSpace(campaignID) {
			count++
		}
	}
	return count, nil
}

func (r txRepo) CreateTask(_ context.Context, task entities.Task) error {
	if _, exists := r.s.tasks[task.TaskID]; exists {
		return domainerrors.Conflict("task %q already exists", task.TaskID)
	}
	if _, exists := r.s.campaigns[task.CampaignID]; !exists {
		return domainerrors.NotFound("campaign", task.CampaignID)
	}
	task.Prerequisite = nil
	r.s.tasks[task.TaskID] = task
	return nil
}

func (r txRepo) GetTask(_ context.Context, taskID string) (entities.Task, error) {
	item, exists := r.s.tasks[strings.TrimSpace(taskID)]
	if !exists {
		return entities.Task{}, domainerrors.NotFound("task", taskID)
	}
	return r.resolvePrerequisite(item), nil
}

func (r txRepo) LockTask(ctx context.Context, taskID string) (entities.Task, error) {
	return r.GetTask(ctx, taskID)
}

func (r txRepo) UpdateTask(_ context.Context, task entities.Task) error {
	if _, exists := r.s.tasks[task.TaskID]; !exists {
		return domainerrors.NotFound("task", task.TaskID)
	}
	task.Prerequisite = nil
	r.s.tasks[task.TaskID] = task
	return nil
}

func (r txRepo) CountTasks(ctx context.Context, filter ports.TaskFilter) (int, error) {
	items, err := r.ListTasks(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r txRepo) ListTasks(_ context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	items := make([]entities.Task, 0)
	for _, task := range r.s.tasks {
		if !r.matchesTask(task, filter) {
			continue
		}
		items = append(items, r.resolvePrerequisite(task))
	}
	sort.Slice(items, func(i, j int) bool {
		return entities.TaskListLess(items[i], items[j])
	})
	return items, nil
}

func (r txRepo) matchesTask(task entities.Task, filter ports.TaskFilter) bool {
	if filter.CampaignID != "" && task.CampaignID != filter.CampaignID {
		return false
	}
	if filter.Assignee != "" && task.Assignee != filter.Assignee {
		return false
	}
	switch {
	case filter.Status != "":
		if task.Status != filter.Status {
			return false
		}
	case filter.Incomplete:
		if task.IsCompleted() {
			return false
		}
	}
	if filter.DependsOn != "" && task.DependsOn != filter.DependsOn {
		return false
	}
	if filter.BusinessID != "" {
		campaign, ok := r.s.campaigns[task.CampaignID]
		if !ok {
			return false
		}
		playbook, ok := r.s.playbooks[campaign.PlaybookID]
		if !ok || playbook.BusinessID != filter.BusinessID {
			return false
		}
	}
	return true
}

func (r txRepo) resolvePrerequisite(task entities.Task) entities.Task {
	task.Prerequisite = nil
	if task.DependsOn == "" {
		return task
	}
	if prerequisite, ok := r.s.tasks[task.DependsOn]; ok {
		task.Prerequisite = &entities.TaskRef{
			TaskID: prerequisite.TaskID,
			Title:  prerequisite.Title,
			Status: prerequisite.Status,
		}
	}
	return task
}

func (r txRepo) CreateEscalation(_ context.Context, escalation entities.Escalation) error {
	if _, exists := r.s.escalations[escalation.EscalationID]; exists {
		return domainerrors.Conflict("escalation %q already exists", escalation.EscalationID)
	}
	if _, exists := r.s.campaigns[escalation.CampaignID]; !exists {
		return domainerrors.NotFound("campaign", escalation.CampaignID)
	}
	r.s.escalations[escalation.EscalationID] = escalation
	return nil
}

func (r txRepo) GetEscalation(_ context.Context, escalationID string) (entities.Escalation, error) {
	item, exists := r.s.escalations[strings.TrimSpace(escalationID)]
	if !exists {
		return entities.Escalation{}, domainerrors.NotFound("escalation", escalationID)
	}
	return item, nil
}

func (r txRepo) LockEscalation(ctx context.Context, escalationID string) (entities.Escalation, error) {
	return r.GetEscalation(ctx, escalationID)
}

func (r txRepo) UpdateEscalation(_ context.Context, escalation entities.Escalation) error {
	if _, exists := r.s.escalations[escalation.EscalationID]; !exists {
		return domainerrors.NotFound("escalation", escalation.EscalationID)
	}
	r.s.escalations[escalation.EscalationID] = escalation
	return nil
}

func (r txRepo) ListEscalations(_ context.Context, filter ports.EscalationFilter) ([]entities.Escalation, error) {
	items := make([]entities.Escalation, 0)
	for _, item := range r.s.escalations {
		if filter.CampaignID != "" && item.CampaignID != filter.CampaignID {
			continue
		}
		if filter.Severity != "" && item.Severity != filter.Severity {
			continue
		}
		if !item.MatchesStatusFilter(filter.Status) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return entities.EscalationListLess(items[i], items[j])
	})
	return items, nil
}

func (r txRepo) AppendActivity(_ context.Context, entry entities.ActivityEntry) error {
	for _, existing := range r.s.activity {
		if existing.EntryID == entry.EntryID {
			return domainerrors.Conflict("activity entry %q already exists", entry.EntryID)
		}
	}
	entry.Details = maps.Clone(entry.Details)
	r.s.activity = append(r.s.activity, entry)
	return nil
}

func (r txRepo) ListActivity(_ context.Context, filter ports.ActivityFilter) ([]entities.ActivityEntry, error) {
	items := make([]entities.ActivityEntry, 0)
	for i := len(r.s.activity) - 1; i >= 0; i-- {
		entry := r.s.activity[i]
		if filter.BusinessID != "" && entry.BusinessID != filter.BusinessID {
			continue
		}
		if filter.CampaignID != "" && entry.CampaignID != filter.CampaignID {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		items = append(items, entry)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (r txRepo) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	for _, row := range r.s.outbox {
		if row.message.OutboxID == outboxID {
			return nil
		}
	}
	r.s.outbox = append(r.s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		status: outbox.StatusPending,
	})
	return nil
}

func (r txRepo) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	record, exists := r.s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(r.s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	record.ResponsePayload = slices.Clone(record.ResponsePayload)
	return record, true, nil
}

// PutRecord never overwrites; GetRecord has already evicted an expired key.
func (r txRepo) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	record.Key = strings.TrimSpace(record.Key)
	if _, exists := r.s.idempotency[record.Key]; exists {
		return domainerrors.Conflict("idempotency key %q is already recorded", record.Key)
	}
	record.ResponsePayload = slices.Clone(record.ResponsePayload)
	r.s.idempotency[record.Key] = record
	return nil
}
