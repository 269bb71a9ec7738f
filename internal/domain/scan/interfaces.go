package scan

import (
	"context"

	"github.com/rpggio/breakwatch/internal/domain/activity"
)

// Repository provides persistence for scan events.
type Repository interface {
	Create(ctx context.Context, ev *Event) error
	List(ctx context.Context, q Query) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	Clear(ctx context.Context) (int64, error)
}

// ActivityLogger records scan lifecycle entries.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// Recorder receives ingestion counters.
type Recorder interface {
	ScanIngested()
	ScanRejected(reason string)
}
