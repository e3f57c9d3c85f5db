package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues ids for businesses, campaigns, tasks, escalations,
// activity entries and outbox events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
