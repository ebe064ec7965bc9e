// Package ledger ships click progress events to external sinks. Every sink satisfies
// usecase.ClickLedger; callers record best effort and never block a redirect on a sink.
package ledger

import (
	"time"

	"quantum-redirect/internal/redirect/domain"
)

// Sink names accepted by configuration.
const (
	SinkSQLite = "sqlite"
	SinkDapr   = "dapr"
	SinkKafka  = "kafka"
	SinkNone   = "none"
)

var Sinks = []string{SinkSQLite, SinkDapr, SinkKafka, SinkNone}

func newEvent(clickID string, state domain.State, metadata map[string]string, now time.Time) domain.ClickEvent {
	return domain.ClickEvent{
		ClickID:    clickID,
		State:      state,
		Metadata:   metadata,
		RecordedAt: now.UTC(),
	}
}
