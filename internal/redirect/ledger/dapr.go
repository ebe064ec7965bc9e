package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/usecase"

	dapr "github.com/dapr/go-sdk/client"
)

const (
	DefaultDaprPubSub = "pubsub"
	DefaultDaprTopic  = "quantum-clicks"
)

// DaprClient is the subset of the Dapr client the ledger publishes through.
type DaprClient interface {
	PublishEvent(ctx context.Context, pubsubName, topicName string, data interface{}, opts ...dapr.PublishEventOption) error
}

// DaprLedger publishes click events to a Dapr pub/sub component
type DaprLedger struct {
	client DaprClient
	pubsub string
	topic  string
	now    func() time.Time
}

// NewDaprLedger creates a ledger that publishes to pubsub/topic. Empty names fall back to
// DefaultDaprPubSub and DefaultDaprTopic.
func NewDaprLedger(client DaprClient, pubsub, topic string) *DaprLedger {
	if pubsub == "" {
		pubsub = DefaultDaprPubSub
	}
	if topic == "" {
		topic = DefaultDaprTopic
	}
	return &DaprLedger{
		client: client,
		pubsub: pubsub,
		topic:  topic,
		now:    time.Now,
	}
}

var _ usecase.ClickLedger = (*DaprLedger)(nil)

func (l *DaprLedger) RecordEvent(ctx context.Context, clickID string, state domain.State, metadata map[string]string) error {
	data, err := json.Marshal(newEvent(clickID, state, metadata, l.now()))
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	if err := l.client.PublishEvent(ctx, l.pubsub, l.topic, data, dapr.PublishEventWithContentType("application/json")); err != nil {
		return fmt.Errorf("publish click event to %s/%s: %w", l.pubsub, l.topic, err)
	}
	return nil
}
