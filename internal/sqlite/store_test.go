package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
	"github.com/rpggio/breakwatch/internal/repository"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	scans := NewScanRepository(db)
	require.NoError(t, scans.Create(ctx, scanAt("s1", "AB12", base)))
	require.NoError(t, scans.Create(ctx, scanAt("s2", "AB12", base.Add(50*time.Minute))))
	require.NoError(t, NewIdentityRepository(db).Create(ctx, newIdentity("i1", "Ana", "1001", "AB12")))
}

func TestSyncConfigRepository_DefaultAndSave(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSyncConfigRepository(db)

	cfg, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, syncconfig.Default(), cfg)

	last := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, syncconfig.Config{EndpointURL: "https://sync.example.com", AutoSync: true, SyncIntervalMinutes: 15, LastSync: &last}))
	cfg, err = repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, cfg.AutoSync)
	require.Equal(t, 15, cfg.SyncIntervalMinutes)
	require.True(t, last.Equal(*cfg.LastSync))

	require.NoError(t, repo.Save(ctx, syncconfig.Config{SyncIntervalMinutes: 15}))
	cfg, err = repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, cfg.Connected())
	require.Nil(t, cfg.LastSync)
}

func TestStoreRepository_SnapshotAndExport(t *testing.T) {
	db := NewTestDB(t)
	seedStore(t, db)
	store := NewStoreRepository(db)
	ctx := context.Background()

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Events, 2)
	require.Len(t, snap.Identities, 1)

	contents, err := store.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, snap.Events, contents.Events)
	require.Equal(t, syncconfig.DefaultIntervalMinutes, contents.SyncConfig.SyncIntervalMinutes)
}

func TestStoreRepository_ReplacePresentSectionsOnly(t *testing.T) {
	db := NewTestDB(t)
	seedStore(t, db)
	store := NewStoreRepository(db)
	ctx := context.Background()

	events := []scan.Event{*scanAt("n1", "ZZ99", time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))}
	require.NoError(t, store.Replace(ctx, backup.ReplaceSet{Events: &events}))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	require.Equal(t, "n1", snap.Events[0].ID)
	require.Len(t, snap.Identities, 1)

	empty := []identity.Identity{}
	cfg := syncconfig.Config{EndpointURL: "https://sync.example.com", SyncIntervalMinutes: 10}
	require.NoError(t, store.Replace(ctx, backup.ReplaceSet{Identities: &empty, SyncConfig: &cfg}))

	contents, err := store.Export(ctx)
	require.NoError(t, err)
	require.Empty(t, contents.Identities)
	require.Len(t, contents.Events, 1)
	require.Equal(t, "https://sync.example.com", contents.SyncConfig.EndpointURL)
}

func TestStoreRepository_ReplaceIsAtomic(t *testing.T) {
	db := NewTestDB(t)
	seedStore(t, db)
	store := NewStoreRepository(db)
	ctx := context.Background()

	events := []scan.Event{*scanAt("n1", "ZZ99", time.Now())}
	dupes := []identity.Identity{
		*newIdentity("a", "Ana", "1", "X1"),
		*newIdentity("b", "Bia", "1", "X2"),
	}
	err := store.Replace(ctx, backup.ReplaceSet{Events: &events, Identities: &dupes})
	require.ErrorIs(t, err, repository.ErrConflict)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Events, 2)
	require.Equal(t, "s1", snap.Events[0].ID)
	require.Equal(t, "Ana", snap.Identities[0].Name)
}
