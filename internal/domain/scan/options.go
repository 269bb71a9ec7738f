package scan

import "time"

// ListOptions filters the scan history.
type ListOptions struct {
	// BadgeCode matches as a case-insensitive substring.
	BadgeCode string
	// Day restricts results to one calendar day, formatted YYYY-MM-DD.
	Day    string
	Limit  int
	Offset int
}

// Query is the repository form of ListOptions, with the day resolved to an
// instant range [From, To).
type Query struct {
	BadgeCode string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// IngestRequest carries a raw scan as captured by a reader.
type IngestRequest struct {
	BadgeCode string
	// Timestamp accepts RFC 3339 or "YYYY-MM-DD HH:MM[:SS]" in the service
	// location. Empty means now.
	Timestamp string
	Status    Status
}
