package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
)

const msgReasonRequired = "Please provide a rejection reason"

type releaseStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Release, error)
	Update(ctx context.Context, id uuid.UUID, patch releases.Patch) (*models.Release, error)
	UniqueISRC(ctx context.Context) (string, error)
}

// Service moves submitted releases through approval, rejection and
// distribution. Every operation requires an admin actor.
type Service interface {
	Approve(ctx context.Context, actor users.Profile, id uuid.UUID, expectedVersion *int64) (*models.Release, error)
	Reject(ctx context.Context, actor users.Profile, id uuid.UUID, reason string, expectedVersion *int64) (*models.Release, error)
	MarkDistributed(ctx context.Context, actor users.Profile, id uuid.UUID, expectedVersion *int64) (*models.Release, error)
}

type service struct {
	releases releaseStore
	logg     *logger.Logger
}

// NewService constructs the review service.
func NewService(store releaseStore, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("release store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{releases: store, logg: logg}, nil
}

// Approve accepts a release under review and assigns an ISRC when it has none.
func (s *service) Approve(ctx context.Context, actor users.Profile, id uuid.UUID, expectedVersion *int64) (*models.Release, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	current, err := s.releases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != enums.ReleaseStatusUnderReview {
		return nil, wrongSource(current.Status, enums.ReleaseStatusUnderReview, "approve")
	}

	patch := transition(enums.ReleaseStatusUnderReview, enums.ReleaseStatusApproved, expectedVersion)
	if strings.TrimSpace(current.ISRC) == "" {
		code, err := s.releases.UniqueISRC(ctx)
		if err != nil {
			return nil, err
		}
		patch.FillISRC = &code
	}
	return s.apply(ctx, actor, id, "approve", patch)
}

// Reject sends a release under review back with a reason.
func (s *service) Reject(ctx context.Context, actor users.Profile, id uuid.UUID, reason string, expectedVersion *int64) (*models.Release, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.Validation("reason", msgReasonRequired)
	}
	patch := transition(enums.ReleaseStatusUnderReview, enums.ReleaseStatusRejected, expectedVersion)
	patch.RejectionReason = &reason
	return s.apply(ctx, actor, id, "reject", patch)
}

// MarkDistributed records that an approved release was delivered.
func (s *service) MarkDistributed(ctx context.Context, actor users.Profile, id uuid.UUID, expectedVersion *int64) (*models.Release, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	patch := transition(enums.ReleaseStatusApproved, enums.ReleaseStatusDistributed, expectedVersion)
	return s.apply(ctx, actor, id, "distribute", patch)
}

func (s *service) apply(ctx context.Context, actor users.Profile, id uuid.UUID, action string, patch releases.Patch) (*models.Release, error) {
	updated, err := s.releases.Update(ctx, id, patch)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s release: %s", action, typed.Message())).
				WithDetails(typed.Details())
		}
		return nil, err
	}

	logCtx := s.logg.WithReleaseID(s.logg.WithUserID(ctx, actor.ID), id.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"action": action,
		"status": updated.Status.String(),
	}), "release reviewed")
	return updated, nil
}

func transition(from, to enums.ReleaseStatus, expectedVersion *int64) releases.Patch {
	return releases.Patch{
		FromStatus:      &from,
		Status:          &to,
		ExpectedVersion: expectedVersion,
	}
}

func requireAdmin(actor users.Profile) error {
	if actor.IsAdmin() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "review requires the admin role").
		WithDetails(map[string]any{"role": actor.Role})
}

func wrongSource(current, required enums.ReleaseStatus, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s release: release is %s, expected %s", action, current, required)).
		WithDetails(map[string]any{"status": current, "required_status": required})
}
