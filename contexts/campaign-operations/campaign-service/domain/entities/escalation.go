package entities

import "time"

type EscalationStatus string
type Severity string

const (
	EscalationStatusOpen         EscalationStatus = "open"
	EscalationStatusAcknowledged EscalationStatus = "acknowledged"
	EscalationStatusResolved     EscalationStatus = "resolved"

	// EscalationStatusActive is a filter value only: open or acknowledged.
	EscalationStatusActive EscalationStatus = "active"

	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Escalation struct {
	EscalationID string
	CampaignID   string
	Title        string
	Description  string
	Status       EscalationStatus
	Severity     Severity
	Resolution   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}

// SeverityRank orders severities low < medium < high < critical. Unknown
// values rank below low.
func SeverityRank(value Severity) int {
	switch value {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func IsSupportedSeverity(value Severity) bool {
	return SeverityRank(value) > 0
}

func IsSupportedEscalationStatus(value EscalationStatus) bool {
	switch value {
	case EscalationStatusOpen, EscalationStatusAcknowledged, EscalationStatusResolved:
		return true
	default:
		return false
	}
}

// MatchesStatusFilter applies the escalation status filter; "active" is the
// compound open|acknowledged filter, anything else is an exact match.
func (e Escalation) MatchesStatusFilter(filter EscalationStatus) bool {
	switch filter {
	case "":
		return true
	case EscalationStatusActive:
		return e.Status == EscalationStatusOpen || e.Status == EscalationStatusAcknowledged
	default:
		return e.Status == filter
	}
}

// EscalationListLess orders by severity descending, then newest first.
func EscalationListLess(a Escalation, b Escalation) bool {
	if ra, rb := SeverityRank(a.Severity), SeverityRank(b.Severity); ra != rb {
		return ra > rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.EscalationID < b.EscalationID
}

// NextEscalationStatus resolves acknowledge/resolve moves.
func NextEscalationStatus(current EscalationStatus, target EscalationStatus) bool {
	switch target {
	case EscalationStatusAcknowledged:
		return current == EscalationStatusOpen
	case EscalationStatusResolved:
		return current == EscalationStatusOpen || current == EscalationStatusAcknowledged
	default:
		return false
	}
}
