package scan

import "time"

// Status is the capture outcome reported by the reader.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusError
}

// Event is one immutable badge scan.
type Event struct {
	ID        string    `json:"id"`
	BadgeCode string    `json:"badgeCode"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}
