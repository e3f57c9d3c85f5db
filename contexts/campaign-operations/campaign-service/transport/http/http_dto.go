package http

import "github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/optional"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateBusinessRequest struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Website     string         `json:"website"`
	BrandColors []string       `json:"brand_colors"`
	Settings    map[string]any `json:"settings"`
}

type BusinessDTO struct {
	BusinessID  string         `json:"business_id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Website     string         `json:"website"`
	BrandColors []string       `json:"brand_colors"`
	Settings    map[string]any `json:"settings"`
	CreatedAt   string         `json:"created_at"`
}

type CreatePlaybookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PlaybookDTO struct {
	PlaybookID  string `json:"playbook_id"`
	BusinessID  string `json:"business_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type CreateCampaignRequest struct {
	Name string `json:"name"`
}

type StatusActionRequest struct {
	Reason string `json:"reason"`
}

type CampaignDTO struct {
	CampaignID   string  `json:"campaign_id"`
	PlaybookID   string  `json:"playbook_id"`
	BusinessID   string  `json:"business_id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	ContentCount int     `json:"content_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	LaunchedAt   *string `json:"launched_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

type AddContentRequest struct {
	Kind     string `json:"kind"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url"`
}

type ContentDTO struct {
	ContentID  string `json:"content_id"`
	CampaignID string `json:"campaign_id"`
	Kind       string `json:"kind"`
	Body       string `json:"body"`
	MediaURL   string `json:"media_url"`
	CreatedAt  string `json:"created_at"`
}

type CreateTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	Type         string `json:"type"`
	Assignee     string `json:"assignee"`
	Priority     int    `json:"priority"`
	DueDate      string `json:"due_date"`
	DependsOn    string `json:"depends_on"`
}

// UpdateTaskRequest distinguishes an absent key from an explicit null.
type UpdateTaskRequest struct {
	Title        optional.Field[string] `json:"title"`
	Description  optional.Field[string] `json:"description"`
	Instructions optional.Field[string] `json:"instructions"`
	Priority     optional.Field[int]    `json:"priority"`
	DueDate      optional.Field[string] `json:"due_date"`
	Status       optional.Field[string] `json:"status"`
}

type CompleteTaskRequest struct {
	CompletionNotes string `json:"completion_notes"`
}

type TaskDTO struct {
	TaskID          string  `json:"task_id"`
	CampaignID      string  `json:"campaign_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Instructions    string  `json:"instructions"`
	Type            string  `json:"type"`
	Assignee        string  `json:"assignee"`
	Status          string  `json:"status"`
	Priority        int     `json:"priority"`
	DueDate         *string `json:"due_date,omitempty"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	CompletionNotes string  `json:"completion_notes,omitempty"`
	DependsOn       string  `json:"depends_on,omitempty"`
	Blocked         bool    `json:"blocked"`
	CreatedAt       string  `json:"created_at"`
}

type ListTasksResponse struct {
	Items []TaskDTO `json:"items"`
}

type CompleteTaskResponse struct {
	Task           TaskDTO  `json:"task"`
	UnblockedTasks []string `json:"unblocked_tasks"`
	CampaignStatus string   `json:"campaign_status"`
	CampaignReset  bool     `json:"campaign_reset"`
	// FollowUpError is set when the campaign recount failed after the
	// completion was committed.
	FollowUpError string `json:"follow_up_error,omitempty"`
}

type CreateEscalationRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type ResolveEscalationRequest struct {
	Resolution string `json:"resolution"`
}

type EscalationDTO struct {
	EscalationID string  `json:"escalation_id"`
	CampaignID   string  `json:"campaign_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	Severity     string  `json:"severity"`
	Resolution   string  `json:"resolution,omitempty"`
	CreatedAt    string  `json:"created_at"`
	ResolvedAt   *string `json:"resolved_at,omitempty"`
}

type ListEscalationsResponse struct {
	Items []EscalationDTO `json:"items"`
}

type ActivityEntryDTO struct {
	EntryID    string         `json:"entry_id"`
	BusinessID string         `json:"business_id"`
	CampaignID string         `json:"campaign_id,omitempty"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details"`
	CreatedAt  string         `json:"created_at"`
}

type ListActivityResponse struct {
	Items []ActivityEntryDTO `json:"items"`
}
