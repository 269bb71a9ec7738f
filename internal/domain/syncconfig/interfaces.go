package syncconfig

import "context"

// Repository persists the single sync configuration row.
type Repository interface {
	Get(ctx context.Context) (Config, error)
	Save(ctx context.Context, cfg Config) error
}
