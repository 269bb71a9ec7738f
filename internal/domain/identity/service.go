package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/repository"
)

// Service handles identity registry operations.
type Service struct {
	repo     Repository
	activity ActivityLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new identity service. activityLog may be nil.
func NewService(repo Repository, activityLog ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, activity: activityLog, logger: logger, now: time.Now}
}

// SetClock replaces the clock used for created/updated timestamps.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a new identity.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Identity, error) {
	req = normalizeCreate(req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, "", req.ExternalRef, req.BadgeCode); err != nil {
		return nil, err
	}

	now := s.now()
	ident := &Identity{
		ID:          uuid.NewString(),
		Name:        req.Name,
		ExternalRef: req.ExternalRef,
		BadgeCode:   req.BadgeCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, ident); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.conflictError(ctx, "", req.ExternalRef, req.BadgeCode)
		}
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	s.logActivity(ctx, activity.TypeIdentityCreated, ident, fmt.Sprintf("registered %s", ident.Name))
	return ident, nil
}

// Update replaces name, reference, and badge code. CreatedAt is preserved.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Identity, error) {
	norm := normalizeCreate(CreateRequest{Name: req.Name, ExternalRef: req.ExternalRef, BadgeCode: req.BadgeCode})
	req = UpdateRequest{ID: strings.TrimSpace(req.ID), Name: norm.Name, ExternalRef: norm.ExternalRef, BadgeCode: norm.BadgeCode}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, existing.ID, req.ExternalRef, req.BadgeCode); err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.ExternalRef = req.ExternalRef
	existing.BadgeCode = req.BadgeCode
	existing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrIdentityNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, s.conflictError(ctx, existing.ID, req.ExternalRef, req.BadgeCode)
		}
		return nil, fmt.Errorf("updating identity: %w", err)
	}

	s.logActivity(ctx, activity.TypeIdentityUpdated, existing, fmt.Sprintf("updated %s", existing.Name))
	return existing, nil
}

// Delete removes an identity. Past scans keep their badge code and show as
// unregistered in later analyses.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("deleting identity: %w", err)
	}
	s.logActivity(ctx, activity.TypeIdentityDeleted, existing, fmt.Sprintf("removed %s", existing.Name))
	return nil
}

// Get fetches an identity by ID.
func (s *Service) Get(ctx context.Context, id string) (*Identity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	ident, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("getting identity: %w", err)
	}
	return ident, nil
}

// FindByBadgeCode looks up an identity by badge code, ignoring case.
func (s *Service) FindByBadgeCode(ctx context.Context, code string) (*Identity, error) {
	code = NormalizeBadgeCode(code)
	if code == "" {
		return nil, ErrInvalidInput
	}
	ident, err := s.repo.GetByBadgeCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("finding identity by badge code: %w", err)
	}
	return ident, nil
}

// List returns identities whose name, reference, or badge code contains
// search, ignoring case. An empty search returns all identities.
func (s *Service) List(ctx context.Context, search string) ([]Identity, error) {
	idents, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	return idents, nil
}

func (s *Service) checkDuplicates(ctx context.Context, selfID, ref, badge string) error {
	fields := map[string]string{}
	var cause error

	if other, err := s.repo.GetByExternalRef(ctx, ref); err == nil {
		if other.ID != selfID {
			fields["external_ref"] = "is already registered"
			cause = ErrDuplicateExternalRef
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking external reference: %w", err)
	}

	if other, err := s.repo.GetByBadgeCode(ctx, badge); err == nil {
		if other.ID != selfID {
			fields["badge_code"] = "is already registered"
			if cause == nil {
				cause = ErrDuplicateBadgeCode
			}
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking badge code: %w", err)
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields, Err: cause}
}

// conflictError resolves a unique-constraint failure that raced past
// checkDuplicates into the matching duplicate error.
func (s *Service) conflictError(ctx context.Context, selfID, ref, badge string) error {
	if err := s.checkDuplicates(ctx, selfID, ref, badge); err != nil {
		return err
	}
	return &ValidationError{
		Fields: map[string]string{"badge_code": "is already registered"},
		Err:    ErrDuplicateBadgeCode,
	}
}

func (s *Service) logActivity(ctx context.Context, typ activity.ActivityType, ident *Identity, summary string) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		ActivityType: typ,
		BadgeCode:    ident.BadgeCode,
		SubjectID:    ident.ID,
		Summary:      summary,
		CreatedAt:    s.now(),
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to log identity activity", "type", typ, "error", err)
	}
}
