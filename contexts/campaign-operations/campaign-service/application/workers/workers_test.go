package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/memory"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/workers"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/messaging"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu        sync.Mutex
	topics    []string
	failAfter int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAfter > 0 && len(p.topics) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

type countingCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingCounter) CountEvent(eventType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[eventType]++
}

func (c *countingCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

func appendEvents(t *testing.T, store *memory.Store, types ...string) {
	t.Helper()
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, eventType := range types {
		envelope, err := events.New(
			"evt-"+eventType+"-"+string(rune('a'+i)),
			eventType,
			"campaign-service",
			"campaign_id",
			"camp-1",
			at.Add(time.Duration(i)*time.Second),
			map[string]any{"campaign_id": "camp-1"},
		)
		require.NoError(t, err)
		require.NoError(t, store.AppendOutbox(context.Background(), envelope))
	}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	appendEvents(t, store, "campaign.approved", "campaign.launched")
	publisher := &recordingPublisher{}

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	published, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []string{"campaign.approved", "campaign.launched"}, publisher.topics)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	published, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	appendEvents(t, store, "campaign.approved", "campaign.launched", "campaign.paused")
	publisher := &recordingPublisher{failAfter: 1}

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 10}
	published, err := relay.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, published)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestLifecycleConsumerCountsRelayedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := messaging.NewBus(nil)
	counter := &countingCounter{}

	consumer := workers.LifecycleEventConsumer{Subscriber: bus, Counter: counter}
	require.NoError(t, consumer.Start(ctx))
	for _, topic := range workers.LifecycleTopics {
		assert.Equal(t, 1, bus.SubscriberCount(topic), topic)
	}

	store := memory.NewStore()
	appendEvents(t, store, "campaign.launched", "task.completed", "campaign.completed")
	relay := workers.OutboxRelay{Outbox: store, Publisher: bus, Clock: store}
	published, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, published)

	require.Eventually(t, func() bool { return counter.total() == 3 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	bus.Wait()
	assert.Zero(t, bus.SubscriberCount("campaign.launched"))
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	appendEvents(t, store, "campaign.created")
	publisher := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- workers.OutboxRelay{Outbox: store, Publisher: publisher}.Run(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		pending, err := store.ListPendingOutbox(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
