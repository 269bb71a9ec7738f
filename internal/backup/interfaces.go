package backup

import (
	"context"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/domain/activity"
)

// Store reads and atomically replaces persisted state.
type Store interface {
	Export(ctx context.Context) (Contents, error)
	Replace(ctx context.Context, set ReplaceSet) error
}

// ReportSource runs the analysis behind report exports.
type ReportSource interface {
	Run(ctx context.Context) (*analysis.Result, error)
}

// ActivityLogger records restores.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// Recorder receives restore outcomes ("ok" or "error").
type Recorder interface {
	RestoreFinished(result string)
}
