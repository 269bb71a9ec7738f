package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestamp indicates the timestamp could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid scan timestamp")
	// ErrEmptyBadgeCode indicates a scan without a badge code.
	ErrEmptyBadgeCode = errors.New("badge code is required")
	// ErrInvalidStatus indicates an unknown capture status.
	ErrInvalidStatus = errors.New("invalid scan status")
	// ErrInvalidInput indicates malformed listing options.
	ErrInvalidInput = errors.New("invalid scan input")
)

// Rejection reasons recorded for refused scans.
const (
	ReasonInvalidTimestamp = "invalid_timestamp"
	ReasonEmptyBadgeCode   = "empty_badge_code"
	ReasonInvalidStatus    = "invalid_status"
)

// IngestionError describes a scan refused before it reached the store.
type IngestionError struct {
	BadgeCode    string
	RawTimestamp string
	Reason       string
	Err          error
}

func (e *IngestionError) Error() string {
	if e.BadgeCode == "" {
		return fmt.Sprintf("scan rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scan for %s rejected (%s): %v", e.BadgeCode, e.Reason, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
