package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/releasedesk/api/responses"
	"github.com/angelmondragon/releasedesk/api/validators"
	"github.com/angelmondragon/releasedesk/internal/export"
	"github.com/angelmondragon/releasedesk/internal/releases"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/types"
)

const (
	releaseIDParam   = "releaseId"
	maxSearchLength  = 200
	maxStatusLength  = 32
	maxFormatLength  = 16
	searchQueryParam = "search"
	statusQueryParam = "status"
	formatQueryParam = "format"
)

func releaseFilter(r *http.Request, defaultStatus string) releases.Filter {
	f := releases.Filter{
		SearchTerm: validators.QueryString(r, searchQueryParam, maxSearchLength),
		Status:     validators.QueryString(r, statusQueryParam, maxStatusLength),
	}
	if f.Status == "" {
		f.Status = defaultStatus
	}
	return f
}

// ListReleases returns the dashboard list filtered by ?search= and ?status=.
func ListReleases(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		list, err := svc.Search(r.Context(), releaseFilter(r, ""))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(list))
	}
}

func ReleaseStats(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, stats)
	}
}

func GetRelease(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, releaseIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rel, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rel)
	}
}

func DeleteRelease(svc releases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, releaseIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ExportOptions configures an export endpoint.
type ExportOptions struct {
	FieldSet      export.FieldSet
	Location      *time.Location
	DefaultStatus string
	Now           func() time.Time
}

// ExportReleases streams the filtered list as a CSV or text table download.
func ExportReleases(svc releases.Service, opts ExportOptions, logg *logger.Logger) http.HandlerFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "release service unavailable"))
			return
		}
		sink, err := export.SinkFor(validators.QueryString(r, formatQueryParam, maxFormatLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid export format").
				WithDetails(pkgerrors.FieldErrors{formatQueryParam: "must be one of: csv table"}))
			return
		}
		list, err := svc.Search(r.Context(), releaseFilter(r, opts.DefaultStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := export.Filename(opts.FieldSet, sink, opts.Now())
		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"field_set": string(opts.FieldSet),
				"rows":      len(list),
				"file_name": filename,
			}), "releases exported")
		}
		responses.WriteAttachment(r.Context(), logg, w, filename, sink.ContentType(), func(out io.Writer) error {
			return export.Render(out, list, opts.FieldSet, opts.Location, sink)
		})
	}
}
