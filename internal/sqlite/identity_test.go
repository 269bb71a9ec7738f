package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/repository"
	"github.com/stretchr/testify/require"
)

func newIdentity(id, name, ref, badge string) *identity.Identity {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &identity.Identity{ID: id, Name: name, ExternalRef: ref, BadgeCode: badge, CreatedAt: ts, UpdatedAt: ts}
}

func TestIdentityRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIdentityRepository(db)

	ident := newIdentity("i1", "Ana Souza", "1001", "AB12")
	require.NoError(t, repo.Create(ctx, ident))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, ident.Name, got.Name)
	require.True(t, ident.CreatedAt.Equal(got.CreatedAt))

	byBadge, err := repo.GetByBadgeCode(ctx, "ab12")
	require.NoError(t, err)
	require.Equal(t, "i1", byBadge.ID)

	byRef, err := repo.GetByExternalRef(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, "i1", byRef.ID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIdentityRepository_UniqueConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIdentityRepository(db)

	require.NoError(t, repo.Create(ctx, newIdentity("i1", "Ana", "1001", "AB12")))
	require.ErrorIs(t, repo.Create(ctx, newIdentity("i2", "Bia", "1001", "CD34")), repository.ErrConflict)
	require.ErrorIs(t, repo.Create(ctx, newIdentity("i3", "Caio", "1002", "ab12")), repository.ErrConflict)
}

func TestIdentityRepository_ListSearch(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIdentityRepository(db)

	require.NoError(t, repo.Create(ctx, newIdentity("i1", "bruno", "2002", "ZX01")))
	require.NoError(t, repo.Create(ctx, newIdentity("i2", "Ana", "1001", "AB12")))
	require.NoError(t, repo.Create(ctx, newIdentity("i3", "Carla", "3003", "CD34")))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"Ana", "bruno", "Carla"}, []string{all[0].Name, all[1].Name, all[2].Name})

	byName, err := repo.List(ctx, "ARL")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "i3", byName[0].ID)

	byRef, err := repo.List(ctx, "200")
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	require.Equal(t, "i1", byRef[0].ID)

	byBadge, err := repo.List(ctx, "ab1")
	require.NoError(t, err)
	require.Len(t, byBadge, 1)

	none, err := repo.List(ctx, "%")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestIdentityRepository_UpdateDelete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIdentityRepository(db)

	ident := newIdentity("i1", "Ana", "1001", "AB12")
	require.NoError(t, repo.Create(ctx, ident))
	require.NoError(t, repo.Create(ctx, newIdentity("i2", "Bia", "1002", "CD34")))

	ident.Name = "Ana Lima"
	ident.UpdatedAt = ident.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, ident))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, "Ana Lima", got.Name)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))

	ident.BadgeCode = "CD34"
	require.ErrorIs(t, repo.Update(ctx, ident), repository.ErrConflict)

	require.ErrorIs(t, repo.Update(ctx, newIdentity("missing", "X", "9", "X9")), repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "i1"))
	require.ErrorIs(t, repo.Delete(ctx, "i1"), repository.ErrNotFound)
}
