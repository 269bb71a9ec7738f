package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
)

// StoreRepository reads and replaces the event store, identity registry, and
// sync configuration as a unit.
type StoreRepository struct {
	db *DB
}

// NewStoreRepository creates a new StoreRepository
func NewStoreRepository(db *DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Snapshot reads events and identities in one transaction
func (r *StoreRepository) Snapshot(ctx context.Context) (analysis.Snapshot, error) {
	var snap analysis.Snapshot
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Events, err = listAllScans(ctx, tx); err != nil {
			return err
		}
		snap.Identities, err = queryIdentities(ctx, tx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at, id`)
		return err
	})
	if err != nil {
		return analysis.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

// Export reads every section of a backup in one transaction
func (r *StoreRepository) Export(ctx context.Context) (backup.Contents, error) {
	var contents backup.Contents
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if contents.Events, err = listAllScans(ctx, tx); err != nil {
			return err
		}
		if contents.Identities, err = queryIdentities(ctx, tx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at, id`); err != nil {
			return err
		}
		contents.SyncConfig, err = loadSyncConfig(ctx, tx)
		return err
	})
	if err != nil {
		return backup.Contents{}, fmt.Errorf("failed to export: %w", err)
	}
	return contents, nil
}

// Replace swaps in every present section of set atomically. Absent
// sections are left as they are.
func (r *StoreRepository) Replace(ctx context.Context, set backup.ReplaceSet) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if set.Events != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM scan_events"); err != nil {
				return fmt.Errorf("failed to clear scans: %w", err)
			}
			for i := range *set.Events {
				if err := insertScan(ctx, tx, &(*set.Events)[i]); err != nil {
					return err
				}
			}
		}
		if set.Identities != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM identities"); err != nil {
				return fmt.Errorf("failed to clear identities: %w", err)
			}
			for i := range *set.Identities {
				if err := insertIdentity(ctx, tx, &(*set.Identities)[i]); err != nil {
					return err
				}
			}
		}
		if set.SyncConfig != nil {
			if err := saveSyncConfig(ctx, tx, *set.SyncConfig); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *StoreRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
