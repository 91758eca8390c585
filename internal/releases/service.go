package releases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
)

// maxIdentifierAttempts bounds how often UniqueISRC/UniqueUPC regenerate a
// colliding candidate before settling for the last one.
const maxIdentifierAttempts = 5

// IdentifierGenerator produces ISRC and UPC candidates.
type IdentifierGenerator interface {
	ISRC() string
	UPC() string
}

// Service exposes the release store to the wizard, review and HTTP layers.
type Service interface {
	Create(ctx context.Context, rel *models.Release) (*models.Release, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Release, error)
	List(ctx context.Context) ([]models.Release, error)
	Search(ctx context.Context, filter Filter) ([]models.Release, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Release, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (Stats, error)
	UniqueISRC(ctx context.Context) (string, error)
	UniqueUPC(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type service struct {
	repo    Repository
	gen     IdentifierGenerator
	logg    *logger.Logger
	metrics *metrics.ReleaseMetrics
	now     func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithMetrics counts status transitions.
func WithMetrics(m *metrics.ReleaseMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the release service.
func NewService(repo Repository, gen IdentifierGenerator, logg *logger.Logger, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("release repository required")
	}
	if gen == nil {
		return nil, fmt.Errorf("identifier generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		repo: repo,
		gen:  gen,
		logg: logg,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Create(ctx context.Context, rel *models.Release) (*models.Release, error) {
	if rel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release required")
	}
	record := rel.Clone()
	now := s.now().UTC()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = enums.ReleaseStatusDraft
	}
	if !record.Status.IsValid() {
		return nil, pkgerrors.Validation("status", fmt.Sprintf("invalid status %q", record.Status))
	}
	if record.AlbumType == "" {
		record.AlbumType = enums.AlbumTypeSingle
	}
	if !record.AlbumType.IsValid() {
		return nil, pkgerrors.Validation("album_type", fmt.Sprintf("invalid album type %q", record.AlbumType))
	}
	if record.Status == enums.ReleaseStatusRejected && strings.TrimSpace(record.RejectionReason) == "" {
		return nil, pkgerrors.Validation("rejection_reason", "Please provide a rejection reason")
	}
	if record.Status != enums.ReleaseStatusRejected {
		record.RejectionReason = ""
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.Version = 1

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "release id already exists").
				WithDetails(map[string]any{"release_id": record.ID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create release")
	}

	s.logg.Info(s.releaseCtx(ctx, record.ID, map[string]any{"status": record.Status.String()}), "release created")
	return record, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Release, error) {
	rel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(ctx, id, err, "get release")
	}
	return rel, nil
}

func (s *service) List(ctx context.Context) ([]models.Release, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list releases")
	}
	return list, nil
}

func (s *service) Search(ctx context.Context, filter Filter) ([]models.Release, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(list, filter), nil
}

// Update merges patch into the stored release, refreshes UpdatedAt and bumps
// the version. The read-modify-write is atomic with respect to other writers.
func (s *service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Release, error) {
	if patch.AlbumType != nil && !patch.AlbumType.IsValid() {
		return nil, pkgerrors.Validation("album_type", fmt.Sprintf("invalid album type %q", *patch.AlbumType))
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, pkgerrors.Validation("status", fmt.Sprintf("invalid status %q", *patch.Status))
	}

	var from enums.ReleaseStatus
	updated, err := s.repo.Update(ctx, id, func(rel *models.Release) error {
		from = rel.Status
		return s.applyPatch(rel, patch)
	})
	if err != nil {
		return nil, s.mapRepoError(ctx, id, err, "update release")
	}

	if from != updated.Status {
		s.metrics.IncTransition(from.String(), updated.Status.String())
		s.logg.Info(s.releaseCtx(ctx, id, map[string]any{
			"from": from.String(),
			"to":   updated.Status.String(),
		}), "release status changed")
	}
	return updated, nil
}

func (s *service) applyPatch(rel *models.Release, patch Patch) error {
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != rel.Version {
		return pkgerrors.New(pkgerrors.CodeConflict, "release was modified by another request").
			WithDetails(map[string]any{"expected_version": *patch.ExpectedVersion, "current_version": rel.Version})
	}
	if patch.FromStatus != nil && rel.Status != *patch.FromStatus {
		return stateConflict(rel.Status, *patch.FromStatus)
	}
	if patch.touchesContent() && rel.Status != enums.ReleaseStatusDraft && rel.Status != enums.ReleaseStatusUnderReview {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("a release that is %s can no longer be edited", rel.Status)).
			WithDetails(map[string]any{"status": rel.Status})
	}

	next := rel.Status
	if patch.Status != nil {
		next = *patch.Status
		if !rel.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move release from %s to %s", rel.Status, next)).
				WithDetails(map[string]any{"from": rel.Status, "to": next})
		}
	}
	if next == enums.ReleaseStatusRejected {
		reason := rel.RejectionReason
		if patch.RejectionReason != nil {
			reason = strings.TrimSpace(*patch.RejectionReason)
		}
		if reason == "" {
			return pkgerrors.Validation("reason", "Please provide a rejection reason")
		}
		rel.RejectionReason = reason
	}

	patch.applyContent(rel)
	rel.Status = next
	rel.UpdatedAt = s.now().UTC()
	rel.Version++
	return nil
}

func stateConflict(current, required enums.ReleaseStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("release is %s, expected %s", current, required)).
		WithDetails(map[string]any{"status": current, "required_status": required})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(ctx, id, err, "delete release")
	}
	s.logg.Info(s.releaseCtx(ctx, id, nil), "release deleted")
	return nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

func (s *service) UniqueISRC(ctx context.Context) (string, error) {
	return s.uniqueIdentifier(ctx, enums.IdentifierKindISRC, s.gen.ISRC)
}

func (s *service) UniqueUPC(ctx context.Context) (string, error) {
	return s.uniqueIdentifier(ctx, enums.IdentifierKindUPC, s.gen.UPC)
}

func (s *service) uniqueIdentifier(ctx context.Context, kind enums.IdentifierKind, next func() string) (string, error) {
	var candidate string
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate = next()
		inUse, err := s.repo.IdentifierInUse(ctx, kind, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check identifier")
		}
		if !inUse {
			return candidate, nil
		}
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"kind":     string(kind),
		"value":    candidate,
		"attempts": maxIdentifierAttempts,
	}), "identifier collision persisted, using last candidate")
	return candidate, nil
}

func (s *service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *service) mapRepoError(ctx context.Context, id uuid.UUID, err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		s.logg.Warn(s.releaseCtx(ctx, id, map[string]any{"op": op}), "release not found")
		return pkgerrors.New(pkgerrors.CodeNotFound, "release not found").
			WithDetails(map[string]any{"release_id": id.String()})
	}
	if errors.Is(err, errStaleWrite) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "release was modified by another request")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func (s *service) releaseCtx(ctx context.Context, id uuid.UUID, fields map[string]any) context.Context {
	ctx = s.logg.WithReleaseID(ctx, id.String())
	if len(fields) > 0 {
		ctx = s.logg.WithFields(ctx, fields)
	}
	return ctx
}
