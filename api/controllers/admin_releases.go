package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/api/middleware"
	"github.com/angelmondragon/releasedesk/api/responses"
	"github.com/angelmondragon/releasedesk/api/validators"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/internal/review"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/types"
)

// AdminQueueDefaultStatus is the status the review queue shows when none is requested.
const AdminQueueDefaultStatus = string(enums.ReleaseStatusUnderReview)

type reviewRequest struct {
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
}

type rejectRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
}

// AdminListReleases is the review queue; ?status= defaults to under_review
// and accepts "all".
func AdminListReleases(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		list, err := svc.Search(r.Context(), releaseFilter(r, AdminQueueDefaultStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(list))
	}
}

func AdminReleaseStats(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats.Review())
	}
}

func AdminApproveRelease(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewHandler(svc, logg, func(r *http.Request, actor users.Profile, id uuid.UUID) (*models.Release, error) {
		var req reviewRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Approve(r.Context(), actor, id, req.ExpectedVersion)
	})
}

func AdminRejectRelease(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewHandler(svc, logg, func(r *http.Request, actor users.Profile, id uuid.UUID) (*models.Release, error) {
		var req rejectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Reject(r.Context(), actor, id, req.Reason, req.ExpectedVersion)
	})
}

func AdminDistributeRelease(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewHandler(svc, logg, func(r *http.Request, actor users.Profile, id uuid.UUID) (*models.Release, error) {
		var req reviewRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.MarkDistributed(r.Context(), actor, id, req.ExpectedVersion)
	})
}

type reviewAction func(r *http.Request, actor users.Profile, id uuid.UUID) (*models.Release, error)

func reviewHandler(svc review.Service, logg *logger.Logger, action reviewAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}
		actor, ok := middleware.ProfileFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "user context missing"))
			return
		}
		id, err := validators.ParseUUIDParam(r, releaseIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rel, err := action(r, actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rel)
	}
}
