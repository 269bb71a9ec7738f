package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/repository"
)

const identityColumns = `id, name, external_ref, badge_code, created_at, updated_at`

// IdentityRepository implements identity.Repository for SQLite
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts a new identity
func (r *IdentityRepository) Create(ctx context.Context, ident *identity.Identity) error {
	return insertIdentity(ctx, r.db, ident)
}

// Get retrieves an identity by ID
func (r *IdentityRepository) Get(ctx context.Context, id string) (*identity.Identity, error) {
	return r.getBy(ctx, "id", id)
}

// GetByBadgeCode retrieves an identity by badge code, ignoring case
func (r *IdentityRepository) GetByBadgeCode(ctx context.Context, badgeCode string) (*identity.Identity, error) {
	return r.getBy(ctx, "badge_code", badgeCode)
}

// GetByExternalRef retrieves an identity by external reference
func (r *IdentityRepository) GetByExternalRef(ctx context.Context, ref string) (*identity.Identity, error) {
	return r.getBy(ctx, "external_ref", ref)
}

func (r *IdentityRepository) getBy(ctx context.Context, column, value string) (*identity.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE `+column+` = ?`, value)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return ident, nil
}

// List returns identities whose name, reference, or badge code contains
// search, ordered by name
func (r *IdentityRepository) List(ctx context.Context, search string) ([]identity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities`
	var args []any
	if search != "" {
		pattern := likePattern(search)
		query += ` WHERE name LIKE ? ESCAPE '\' OR external_ref LIKE ? ESCAPE '\' OR badge_code LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY name COLLATE NOCASE, id`
	return queryIdentities(ctx, r.db, query, args...)
}

// Update replaces an identity's mutable fields
func (r *IdentityRepository) Update(ctx context.Context, ident *identity.Identity) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET name = ?, external_ref = ?, badge_code = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`,
		ident.Name,
		ident.ExternalRef,
		ident.BadgeCode,
		formatTime(ident.CreatedAt),
		formatTime(ident.UpdatedAt),
		ident.ID,
	)
	if err != nil {
		return conflictOr(err, "failed to update identity")
	}
	return requireAffected(result, "update identity")
}

// Delete removes an identity
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return requireAffected(result, "delete identity")
}

func requireAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insertIdentity(ctx context.Context, q queryer, ident *identity.Identity) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		ident.ID,
		ident.Name,
		ident.ExternalRef,
		ident.BadgeCode,
		formatTime(ident.CreatedAt),
		formatTime(ident.UpdatedAt),
	)
	if err != nil {
		return conflictOr(err, "failed to create identity")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*identity.Identity, error) {
	var ident identity.Identity
	var createdAt, updatedAt string
	if err := row.Scan(&ident.ID, &ident.Name, &ident.ExternalRef, &ident.BadgeCode, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if ident.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ident.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ident, nil
}

func queryIdentities(ctx context.Context, q queryer, query string, args ...any) ([]identity.Identity, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	idents := []identity.Identity{}
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity row: %w", err)
		}
		idents = append(idents, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity rows: %w", err)
	}
	return idents, nil
}
