package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/repository/sqlite/sqlc"
	"quantum-redirect/internal/redirect/usecase"
)

// ClickLedger stores click progress events in the click_events table
type ClickLedger struct {
	queries *sqlc.Queries
	now     func() time.Time
}

// NewClickLedger creates a new SQLite-backed click ledger
func NewClickLedger(db *sql.DB) *ClickLedger {
	return &ClickLedger{
		queries: sqlc.New(db),
		now:     time.Now,
	}
}

var _ usecase.ClickLedger = (*ClickLedger)(nil)

// RecordEvent appends one event for clickID
func (l *ClickLedger) RecordEvent(ctx context.Context, clickID string, state domain.State, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode click metadata: %w", err)
	}

	return l.queries.InsertClickEvent(ctx, sqlc.InsertClickEventParams{
		ClickID:    clickID,
		Stage:      string(state),
		Metadata:   string(encoded),
		RecordedAt: l.now().UnixMilli(),
	})
}

// EventsByClickID returns the events of one click in the order they were recorded
func (l *ClickLedger) EventsByClickID(ctx context.Context, clickID string) ([]domain.ClickEvent, error) {
	rows, err := l.queries.ListClickEventsByClickID(ctx, clickID)
	if err != nil {
		return nil, err
	}

	events := make([]domain.ClickEvent, len(rows))
	for i, row := range rows {
		var metadata map[string]string
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("decode click metadata for event %d: %w", row.ID, err)
		}
		events[i] = domain.ClickEvent{
			ClickID:    row.ClickID,
			State:      domain.State(row.Stage),
			Metadata:   metadata,
			RecordedAt: time.UnixMilli(row.RecordedAt),
		}
	}
	return events, nil
}

// CountByState returns how many events reached state within [from, to]
func (l *ClickLedger) CountByState(ctx context.Context, state domain.State, from, to time.Time) (int64, error) {
	return l.queries.CountClickEventsByStage(ctx, sqlc.CountClickEventsByStageParams{
		Stage:        string(state),
		RecordedAt:   from.UnixMilli(),
		RecordedAt_2: to.UnixMilli(),
	})
}
