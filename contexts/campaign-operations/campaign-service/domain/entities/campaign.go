package entities

import (
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusSetup     CampaignStatus = "setup"
	CampaignStatusApproved  CampaignStatus = "approved"
	CampaignStatusLive      CampaignStatus = "live"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type Campaign struct {
	CampaignID   string
	PlaybookID   string
	BusinessID   string
	Name         string
	Status       CampaignStatus
	ContentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LaunchedAt   *time.Time
	CompletedAt  *time.Time
}

// CampaignAction names an operator-invoked lifecycle operation.
type CampaignAction string

const (
	CampaignActionApprove  CampaignAction = "approve"
	CampaignActionLaunch   CampaignAction = "launch"
	CampaignActionPause    CampaignAction = "pause"
	CampaignActionResume   CampaignAction = "resume"
	CampaignActionComplete CampaignAction = "complete"
)

// campaignTransitions is the legal operator transition table. Anything not
// listed is rejected; completed has no outgoing edges.
var campaignTransitions = map[CampaignAction]struct {
	from []CampaignStatus
	to   CampaignStatus
}{
	CampaignActionApprove:  {from: []CampaignStatus{CampaignStatusSetup}, to: CampaignStatusApproved},
	CampaignActionLaunch:   {from: []CampaignStatus{CampaignStatusApproved, CampaignStatusSetup}, to: CampaignStatusLive},
	CampaignActionPause:    {from: []CampaignStatus{CampaignStatusLive}, to: CampaignStatusPaused},
	CampaignActionResume:   {from: []CampaignStatus{CampaignStatusPaused}, to: CampaignStatusLive},
	CampaignActionComplete: {from: []CampaignStatus{CampaignStatusLive, CampaignStatusPaused}, to: CampaignStatusCompleted},
}

// NextCampaignStatus resolves the target status of action from current.
// ok is false when the transition table rejects it.
func NextCampaignStatus(current CampaignStatus, action CampaignAction) (CampaignStatus, bool) {
	edge, exists := campaignTransitions[action]
	if !exists {
		return current, false
	}
	for _, from := range edge.from {
		if from == current {
			return edge.to, true
		}
	}
	return current, false
}

// ActivityAction is the activity log tag written for a successful transition.
func (a CampaignAction) ActivityAction() string {
	switch a {
	case CampaignActionApprove:
		return ActionCampaignApproved
	case CampaignActionLaunch:
		return ActionCampaignLaunched
	case CampaignActionPause:
		return ActionCampaignPaused
	case CampaignActionResume:
		return ActionCampaignResumed
	case CampaignActionComplete:
		return ActionCampaignCompleted
	default:
		return "campaign_" + string(a)
	}
}

// StatusAfterHumanTasksDone is the status a campaign is forced into when a
// task completion leaves it with no incomplete human tasks. The reset applies
// from every status, including live and completed.
func StatusAfterHumanTasksDone(_ CampaignStatus) CampaignStatus {
	return CampaignStatusSetup
}

func IsSupportedCampaignStatus(value CampaignStatus) bool {
	switch value {
	case CampaignStatusSetup, CampaignStatusApproved, CampaignStatusLive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

type Playbook struct {
	PlaybookID  string
	BusinessID  string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Content struct {
	ContentID  string
	CampaignID string
	Kind       string
	Body       string
	MediaURL   string
	CreatedAt  time.Time
}

func (c Campaign) ValidateBasics() bool {
	name := strings.TrimSpace(c.Name)
	return name != "" && len(name) <= 200 && strings.TrimSpace(c.PlaybookID) != ""
}
