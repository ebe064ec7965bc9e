package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/usecase"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the click event writer.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchSize    int           `yaml:"batch_size"`
	FlushEvery   time.Duration `yaml:"flush_every"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds an async writer that hashes on the message key, so every event of one
// click lands on the same partition in order.
func NewKafkaWriter(cfg KafkaConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
		Async:                  true,
		BatchTimeout:           cfg.FlushEvery,
		BatchSize:              cfg.BatchSize,
		WriteTimeout:           cfg.WriteTimeout,
	}, nil
}

// KafkaLedger writes click events keyed by click id
type KafkaLedger struct {
	w   MessageWriter
	now func() time.Time
}

func NewKafkaLedger(w MessageWriter) *KafkaLedger {
	return &KafkaLedger{w: w, now: time.Now}
}

var _ usecase.ClickLedger = (*KafkaLedger)(nil)

func (l *KafkaLedger) RecordEvent(ctx context.Context, clickID string, state domain.State, metadata map[string]string) error {
	now := l.now()
	payload, err := json.Marshal(newEvent(clickID, state, metadata, now))
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	return l.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(clickID),
		Value: payload,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "state", Value: []byte(state)},
		},
	})
}

// Close flushes pending messages.
func (l *KafkaLedger) Close() error {
	return l.w.Close()
}
