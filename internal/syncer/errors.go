package syncer

import "errors"

var (
	// ErrNotConfigured is returned by push and pull when no endpoint is set.
	ErrNotConfigured = errors.New("sync endpoint not configured")
	// ErrInvalidConfig wraps endpoint and interval validation failures.
	ErrInvalidConfig = errors.New("invalid sync configuration")
)
