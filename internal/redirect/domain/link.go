package domain

import "time"

type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
)

// ShortLink is a short code mapped to its destination. The redirect engine only reads it.
type ShortLink struct {
	ID             int64      `json:"id"`
	ShortCode      string     `json:"short_code"`
	DestinationURL string     `json:"destination_url"`
	Status         LinkStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (l *ShortLink) IsActive() bool {
	return l.Status == LinkStatusActive
}
