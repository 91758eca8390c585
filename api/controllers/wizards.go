package controllers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/api/middleware"
	"github.com/angelmondragon/releasedesk/api/responses"
	"github.com/angelmondragon/releasedesk/api/validators"
	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/submission"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
)

const (
	wizardIDParam       = "wizardId"
	identifierKindParam = "kind"
	uploadFormField     = "file"
	multipartMemory     = 8 << 20
	multipartOverhead   = 1 << 20
)

type startWizardRequest struct {
	ReleaseID *string `json:"release_id,omitempty"`
}

type candidateRequest struct {
	FileName  string `json:"file_name" validate:"required,max=255"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"min=0"`
	Width     int    `json:"width" validate:"min=0"`
	Height    int    `json:"height" validate:"min=0"`
}

func (c candidateRequest) toCandidate() intake.Candidate {
	return intake.Candidate{
		FileName:  c.FileName,
		MimeType:  c.MimeType,
		SizeBytes: c.SizeBytes,
		Width:     c.Width,
		Height:    c.Height,
	}
}

type commitRequest struct {
	Action string `json:"action" validate:"required,oneof=save_draft submit_for_review"`
}

// StartWizard opens a submission session. A release_id in the body opens it
// in edit mode for that release.
func StartWizard(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard service unavailable"))
			return
		}

		var req startWizardRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var editID *uuid.UUID
		if req.ReleaseID != nil && strings.TrimSpace(*req.ReleaseID) != "" {
			id, err := uuid.Parse(strings.TrimSpace(*req.ReleaseID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid release_id").
					WithDetails(pkgerrors.FieldErrors{"release_id": "must be a valid UUID"}))
				return
			}
			editID = &id
		}

		state, err := svc.Start(r.Context(), middleware.UserIDFromContext(r.Context()), editID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, state)
	}
}

func GetWizard(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return wizardHandler(svc, logg, func(r *http.Request, id uuid.UUID) (submission.State, error) {
		return svc.State(r.Context(), id)
	})
}

func DiscardWizard(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, wizardIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Discard(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AttachWizardAsset accepts either a JSON file description or a multipart
// upload in the "file" field. Uploads are sniffed for their real content
// type and artwork uploads are decoded for their pixel size.
func AttachWizardAsset(svc submission.Service, kind enums.AssetKind, limits intake.Limits, logg *logger.Logger) http.HandlerFunc {
	maxBytes := limits.MaxAudioBytes
	if kind == enums.AssetKindArtwork {
		maxBytes = limits.MaxArtworkBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, wizardIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidate, cleanup, err := readCandidate(w, r, kind, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// After a probe timeout the decode goroutine may still be reading
		// candidate.Source; closing the file here ends that read early with
		// an error, which nothing waits on.
		defer cleanup()

		var state submission.State
		switch kind {
		case enums.AssetKindArtwork:
			state, err = svc.AttachArtwork(r.Context(), id, candidate)
		default:
			state, err = svc.AttachAudio(r.Context(), id, candidate)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func readCandidate(w http.ResponseWriter, r *http.Request, kind enums.AssetKind, maxBytes int64) (intake.Candidate, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req candidateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return intake.Candidate{}, noop, err
		}
		return req.toCandidate(), noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return intake.Candidate{}, noop, pkgerrors.Validation(kind.String(), intake.SizeLimitMessage(maxBytes))
		}
		return intake.Candidate{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload")
	}
	cleanupForm := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		cleanupForm()
		return intake.Candidate{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload is missing").
			WithDetails(pkgerrors.FieldErrors{uploadFormField: "is required"})
	}
	cleanup := func() {
		_ = file.Close()
		cleanupForm()
	}

	mimeType, err := uploadMimeType(file, header)
	if err != nil {
		cleanup()
		return intake.Candidate{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload")
	}

	return intake.Candidate{
		FileName:  header.Filename,
		MimeType:  mimeType,
		SizeBytes: header.Size,
		Source:    file,
	}, cleanup, nil
}

// uploadMimeType prefers the sniffed type and only trusts the declared part
// header when the content itself is not recognisable.
func uploadMimeType(file multipart.File, header *multipart.FileHeader) (string, error) {
	sniffed, err := intake.SniffMimeType(file)
	if err != nil {
		return "", err
	}
	if sniffed != "" && sniffed != "application/octet-stream" && sniffed != "text/plain" {
		return sniffed, nil
	}
	if declared := header.Header.Get("Content-Type"); declared != "" {
		return declared, nil
	}
	return sniffed, nil
}

// SetWizardMetadata replaces the step-two form. Field rules are enforced when
// the wizard advances, so an incomplete form is accepted here.
func SetWizardMetadata(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return wizardHandler(svc, logg, func(r *http.Request, id uuid.UUID) (submission.State, error) {
		var md submission.Metadata
		if err := validators.DecodeJSON(r, &md); err != nil {
			return submission.State{}, err
		}
		return svc.SetMetadata(r.Context(), id, md)
	})
}

func GenerateWizardIdentifier(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return wizardHandler(svc, logg, func(r *http.Request, id uuid.UUID) (submission.State, error) {
		kind, err := enums.ParseIdentifierKind(validators.SanitizeString(chi.URLParam(r, identifierKindParam), 8))
		if err != nil {
			return submission.State{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier kind").
				WithDetails(pkgerrors.FieldErrors{identifierKindParam: "must be one of: isrc upc"})
		}
		return svc.GenerateIdentifier(r.Context(), id, kind)
	})
}

func NextWizardStep(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return wizardHandler(svc, logg, func(r *http.Request, id uuid.UUID) (submission.State, error) {
		return svc.Next(r.Context(), id)
	})
}

func PreviousWizardStep(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return wizardHandler(svc, logg, func(r *http.Request, id uuid.UUID) (submission.State, error) {
		return svc.Back(r.Context(), id)
	})
}

// CommitWizard saves the release as a draft or submits it for review.
func CommitWizard(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, wizardIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req commitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseCommitAction(req.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}
		result, err := svc.Commit(r.Context(), id, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type wizardAction func(r *http.Request, id uuid.UUID) (submission.State, error)

func wizardHandler(svc submission.Service, logg *logger.Logger, action wizardAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wizard service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, wizardIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWizardID(ctx, id.String())
		}
		state, err := action(r.WithContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}
