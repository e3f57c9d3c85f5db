package outbox

// Outbox row statuses. Rows are written inside the same DB transaction as the
// state change and flipped to published by the relay worker.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// DefaultBatchSize bounds one relay cycle when the caller passes no limit.
const DefaultBatchSize = 100
