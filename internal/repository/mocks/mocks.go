package mocks

import (
	"context"

	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/domain/syncconfig"
	"github.com/stretchr/testify/mock"
)

// ScanRepository is a mock for scan.Repository.
type ScanRepository struct {
	mock.Mock
}

func (m *ScanRepository) Create(ctx context.Context, ev *scan.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *ScanRepository) List(ctx context.Context, q scan.Query) ([]scan.Event, error) {
	args := m.Called(ctx, q)
	if list, ok := args.Get(0).([]scan.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScanRepository) ListAll(ctx context.Context) ([]scan.Event, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]scan.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScanRepository) Clear(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// IdentityRepository is a mock for identity.Repository.
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) Create(ctx context.Context, ident *identity.Identity) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *IdentityRepository) Get(ctx context.Context, id string) (*identity.Identity, error) {
	args := m.Called(ctx, id)
	if ident, ok := args.Get(0).(*identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) GetByBadgeCode(ctx context.Context, badgeCode string) (*identity.Identity, error) {
	args := m.Called(ctx, badgeCode)
	if ident, ok := args.Get(0).(*identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) GetByExternalRef(ctx context.Context, ref string) (*identity.Identity, error) {
	args := m.Called(ctx, ref)
	if ident, ok := args.Get(0).(*identity.Identity); ok {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) List(ctx context.Context, search string) ([]identity.Identity, error) {
	args := m.Called(ctx, search)
	if list, ok := args.Get(0).([]identity.Identity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) Update(ctx context.Context, ident *identity.Identity) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *IdentityRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for the activity sink used by domain services.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// SyncConfigRepository is a mock for syncconfig.Repository.
type SyncConfigRepository struct {
	mock.Mock
}

func (m *SyncConfigRepository) Get(ctx context.Context) (syncconfig.Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncconfig.Config), args.Error(1)
}

func (m *SyncConfigRepository) Save(ctx context.Context, cfg syncconfig.Config) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}
