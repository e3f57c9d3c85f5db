package workers

import (
	"context"
	"log/slog"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

const lifecycleConsumerGroup = "campaign-service-lifecycle"

// LifecycleTopics are the outbox event types the consumer follows.
var LifecycleTopics = []string{
	"campaign.created",
	"campaign.approved",
	"campaign.launched",
	"campaign.paused",
	"campaign.resumed",
	"campaign.completed",
	"campaign.reset",
	"task.completed",
}

type LifecycleEventConsumer struct {
	Subscriber ports.EventSubscriber
	Counter    ports.EventCounter
	Logger     *slog.Logger
}

// Start registers one subscription per lifecycle topic.
func (c LifecycleEventConsumer) Start(ctx context.Context) error {
	for _, topic := range LifecycleTopics {
		if err := c.Subscriber.Subscribe(ctx, topic, lifecycleConsumerGroup, c.Handle); err != nil {
			return err
		}
	}
	return nil
}

func (c LifecycleEventConsumer) Handle(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Counter != nil {
		c.Counter.CountEvent(event.EventType)
	}
	logger.Info("lifecycle event consumed",
		"event", "lifecycle_event_consumed",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"campaign_id", event.PartitionKey,
	)
	return nil
}
