package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/breakwatch/internal/domain/scan"
)

// ScanRepository implements scan.Repository for SQLite
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new ScanRepository
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create appends a scan event
func (r *ScanRepository) Create(ctx context.Context, ev *scan.Event) error {
	return insertScan(ctx, r.db, ev)
}

// List returns events matching q, newest first
func (r *ScanRepository) List(ctx context.Context, q scan.Query) ([]scan.Event, error) {
	query := `SELECT id, badge_code, timestamp, status FROM scan_events`

	var args []any
	var conditions []string
	if q.BadgeCode != "" {
		conditions = append(conditions, `badge_code LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q.BadgeCode))
	}
	if q.From != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, formatTime(*q.From))
	}
	if q.To != nil {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, formatTime(*q.To))
	}
	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	} else if q.Offset > 0 {
		query += " LIMIT -1"
	}
	if q.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, q.Offset)
	}

	return queryScans(ctx, r.db, query, args...)
}

// ListAll returns every event in insertion order
func (r *ScanRepository) ListAll(ctx context.Context) ([]scan.Event, error) {
	return listAllScans(ctx, r.db)
}

// Clear deletes every event and returns how many were removed
func (r *ScanRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scan_events")
	if err != nil {
		return 0, fmt.Errorf("failed to clear scans: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared scans: %w", err)
	}
	return n, nil
}

func insertScan(ctx context.Context, q queryer, ev *scan.Event) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO scan_events (id, badge_code, timestamp, status) VALUES (?, ?, ?, ?)`,
		ev.ID,
		ev.BadgeCode,
		formatTime(ev.Timestamp),
		string(ev.Status),
	)
	if err != nil {
		return conflictOr(err, "failed to create scan")
	}
	return nil
}

func listAllScans(ctx context.Context, q queryer) ([]scan.Event, error) {
	return queryScans(ctx, q, `SELECT id, badge_code, timestamp, status FROM scan_events ORDER BY seq`)
}

func queryScans(ctx context.Context, q queryer, query string, args ...any) ([]scan.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	events := []scan.Event{}
	for rows.Next() {
		var ev scan.Event
		var ts, status string
		if err := rows.Scan(&ev.ID, &ev.BadgeCode, &ts, &status); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		ev.Status = scan.Status(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}
	return events, nil
}
