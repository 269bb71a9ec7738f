package identity

import (
	"context"

	"github.com/rpggio/breakwatch/internal/domain/activity"
)

// Repository provides persistence for identities.
type Repository interface {
	Create(ctx context.Context, ident *Identity) error
	Get(ctx context.Context, id string) (*Identity, error)
	GetByBadgeCode(ctx context.Context, badgeCode string) (*Identity, error)
	GetByExternalRef(ctx context.Context, ref string) (*Identity, error)
	List(ctx context.Context, search string) ([]Identity, error)
	Update(ctx context.Context, ident *Identity) error
	Delete(ctx context.Context, id string) error
}

// ActivityLogger records registry changes.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
