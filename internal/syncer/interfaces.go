package syncer

import (
	"context"
	"io"

	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
)

// Backups produces and applies backup documents.
type Backups interface {
	ExportBackup(ctx context.Context) (*backup.BackupDocument, error)
	RestoreRemote(ctx context.Context, r io.Reader) (*backup.RestoreResult, error)
}

// ActivityLogger records sync lifecycle entries.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
