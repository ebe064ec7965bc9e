package domain

import "time"

// ClickEvent is one ledger entry: a click reached state at RecordedAt.
type ClickEvent struct {
	ClickID    string            `json:"click_id"`
	State      State             `json:"state"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}
