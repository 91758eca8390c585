package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
)

const (
	msgAudioRequired   = "Audio file is required"
	msgArtworkRequired = "Artwork is required"
)

// Intake validates candidate files.
type Intake interface {
	ValidateAudio(c intake.Candidate) error
	ValidateArtwork(ctx context.Context, c intake.Candidate) (intake.Dimensions, error)
}

// ReleaseStore is the slice of releases.Service a commit needs.
type ReleaseStore interface {
	Create(ctx context.Context, rel *models.Release) (*models.Release, error)
	Update(ctx context.Context, id uuid.UUID, patch releases.Patch) (*models.Release, error)
	UniqueISRC(ctx context.Context) (string, error)
	UniqueUPC(ctx context.Context) (string, error)
}

// Deps are the collaborators shared by every wizard.
type Deps struct {
	Intake   Intake
	Releases ReleaseStore
	Logger   *logger.Logger
	Metrics  *metrics.ReleaseMetrics
	Now      func() time.Time
}

func (d Deps) validate() error {
	if d.Intake == nil {
		return fmt.Errorf("intake validator required")
	}
	if d.Releases == nil {
		return fmt.Errorf("release store required")
	}
	if d.Logger == nil {
		return fmt.Errorf("logger required")
	}
	return nil
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Wizard walks one submission through files, metadata and review before
// committing it to the release store. A Wizard is not safe for concurrent use.
type Wizard struct {
	id       uuid.UUID
	deps     Deps
	owner    string
	step     enums.WizardStep
	audio    *models.AssetRef
	artwork  *models.AssetRef
	metadata Metadata
	errors   pkgerrors.FieldErrors
	editing  *models.Release
}

// NewWizard starts an empty submission on behalf of owner.
func NewWizard(deps Deps, owner string) (*Wizard, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	w := &Wizard{id: uuid.New(), deps: deps, owner: owner}
	w.reset()
	return w, nil
}

// NewEditWizard starts a wizard prefilled from rel. Approved, rejected and
// distributed releases cannot be edited.
func NewEditWizard(deps Deps, owner string, rel *models.Release) (*Wizard, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release required")
	}
	if rel.Status != enums.ReleaseStatusDraft && rel.Status != enums.ReleaseStatusUnderReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("a release that is %s can no longer be edited", rel.Status)).
			WithDetails(map[string]any{"release_id": rel.ID.String(), "status": rel.Status})
	}
	w := &Wizard{id: uuid.New(), deps: deps, owner: owner}
	w.reset()
	w.editing = rel.Clone()
	w.audio = rel.AudioAsset.Clone()
	w.artwork = rel.ArtworkAsset.Clone()
	w.metadata = metadataFromRelease(rel, deps.now())
	return w, nil
}

func (w *Wizard) reset() {
	w.step = enums.WizardStepFiles
	w.audio = nil
	w.artwork = nil
	w.metadata = blankMetadata(w.deps.now())
	w.errors = pkgerrors.FieldErrors{}
	w.editing = nil
}

// ID identifies the wizard session.
func (w *Wizard) ID() uuid.UUID {
	return w.id
}

// Step returns the current step.
func (w *Wizard) Step() enums.WizardStep {
	return w.step
}

func (w *Wizard) logCtx(ctx context.Context) context.Context {
	ctx = w.deps.Logger.WithWizardID(ctx, w.id.String())
	if w.editing != nil {
		ctx = w.deps.Logger.WithReleaseID(ctx, w.editing.ID.String())
	}
	return ctx
}

func (w *Wizard) requireStep(action string, allowed ...enums.WizardStep) error {
	for _, step := range allowed {
		if w.step == step {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while %s", action, w.step)).
		WithDetails(map[string]any{"step": w.step.String()})
}

// AttachAudio validates and accepts an audio file. A rejected candidate sets
// the audio field error and keeps the previously accepted file.
func (w *Wizard) AttachAudio(ctx context.Context, c intake.Candidate) (*models.AssetRef, error) {
	if err := w.requireStep("attach audio", enums.WizardStepFiles); err != nil {
		return nil, err
	}
	if err := w.deps.Intake.ValidateAudio(c); err != nil {
		w.recordFieldErrors(err, "audio")
		return nil, err
	}
	w.audio = newAssetRef(c, intake.Dimensions{})
	delete(w.errors, "audio")
	w.deps.Logger.Debug(w.logCtx(ctx), "audio accepted")
	return w.audio.Clone(), nil
}

// AttachArtwork validates and accepts an artwork file, probing its pixel size.
func (w *Wizard) AttachArtwork(ctx context.Context, c intake.Candidate) (*models.AssetRef, error) {
	if err := w.requireStep("attach artwork", enums.WizardStepFiles); err != nil {
		return nil, err
	}
	dims, err := w.deps.Intake.ValidateArtwork(ctx, c)
	if err != nil {
		w.recordFieldErrors(err, "artwork")
		return nil, err
	}
	w.artwork = newAssetRef(c, dims)
	delete(w.errors, "artwork")
	w.deps.Logger.Debug(w.logCtx(ctx), "artwork accepted")
	return w.artwork.Clone(), nil
}

func newAssetRef(c intake.Candidate, dims intake.Dimensions) *models.AssetRef {
	return &models.AssetRef{
		ID:        uuid.New(),
		FileName:  c.FileName,
		MimeType:  strings.ToLower(strings.TrimSpace(c.MimeType)),
		SizeBytes: c.SizeBytes,
		Width:     dims.Width,
		Height:    dims.Height,
	}
}

func (w *Wizard) recordFieldErrors(err error, fallbackField string) {
	fields := pkgerrors.FieldsOf(err)
	if len(fields) == 0 {
		if typed := pkgerrors.As(err); typed != nil {
			w.errors[fallbackField] = typed.Message()
		} else {
			w.errors[fallbackField] = err.Error()
		}
		return
	}
	for field, reason := range fields {
		w.errors[field] = reason
	}
}

// SetMetadata replaces the form. Identifiers are normalized and blank album
// type, copyright year and territories fall back to their defaults.
func (w *Wizard) SetMetadata(md Metadata) error {
	if err := w.requireStep("edit metadata", enums.WizardStepFiles, enums.WizardStepMetadata); err != nil {
		return err
	}
	w.metadata = md.normalized().withDefaults(w.deps.now())
	return nil
}

// Metadata returns the current form.
func (w *Wizard) Metadata() Metadata {
	return w.metadata
}

// GenerateIdentifier fills the ISRC or UPC form field with a fresh code.
func (w *Wizard) GenerateIdentifier(ctx context.Context, kind enums.IdentifierKind) (string, error) {
	if err := w.requireStep("generate identifiers", enums.WizardStepFiles, enums.WizardStepMetadata); err != nil {
		return "", err
	}
	switch kind {
	case enums.IdentifierKindISRC:
		code, err := w.deps.Releases.UniqueISRC(ctx)
		if err != nil {
			return "", err
		}
		w.metadata.ISRC = code
		delete(w.errors, "isrc")
		return code, nil
	case enums.IdentifierKindUPC:
		code, err := w.deps.Releases.UniqueUPC(ctx)
		if err != nil {
			return "", err
		}
		w.metadata.UPC = code
		delete(w.errors, "upc")
		return code, nil
	}
	return "", pkgerrors.Validation("kind", fmt.Sprintf("unknown identifier kind %q", kind))
}

// Next advances one step when the current step validates. Failures are
// recorded as field errors and returned as a validation error.
func (w *Wizard) Next() error {
	switch w.step {
	case enums.WizardStepFiles:
		fields := pkgerrors.FieldErrors{}
		if w.editing == nil {
			if w.audio == nil {
				fields["audio"] = msgAudioRequired
			}
			if w.artwork == nil {
				fields["artwork"] = msgArtworkRequired
			}
		}
		w.errors = fields
		if len(fields) > 0 {
			return pkgerrors.ValidationFields(cloneFields(fields))
		}
		w.step = enums.WizardStepMetadata
		return nil
	case enums.WizardStepMetadata:
		if fields := w.metadata.validate(); fields != nil {
			w.errors = fields
			return pkgerrors.ValidationFields(cloneFields(fields))
		}
		w.errors = pkgerrors.FieldErrors{}
		w.step = enums.WizardStepReview
		return nil
	}
	return w.requireStep("advance", enums.WizardStepFiles, enums.WizardStepMetadata)
}

// Back returns to the previous step without discarding anything. It is a
// no-op on the first step.
func (w *Wizard) Back() {
	if w.step > enums.WizardStepFiles {
		w.step--
	}
}

// Commit writes the submission to the store as a draft or for review, then
// resets the wizard to an empty form.
func (w *Wizard) Commit(ctx context.Context, action enums.CommitAction) (*models.Release, error) {
	if err := w.requireStep("commit", enums.WizardStepReview); err != nil {
		return nil, err
	}
	if _, err := enums.ParseCommitAction(string(action)); err != nil {
		return nil, pkgerrors.Validation("action", err.Error())
	}
	if fields := w.metadata.validate(); fields != nil {
		w.errors = fields
		return nil, pkgerrors.ValidationFields(cloneFields(fields))
	}

	rel, err := w.buildRelease(ctx, action)
	if err != nil {
		return nil, err
	}

	var committed *models.Release
	if w.editing != nil {
		patch := releases.PatchFromRelease(rel)
		status := rel.Status
		version := w.editing.Version
		patch.Status = &status
		patch.ExpectedVersion = &version
		committed, err = w.deps.Releases.Update(ctx, w.editing.ID, patch)
	} else {
		committed, err = w.deps.Releases.Create(ctx, rel)
	}
	if err != nil {
		return nil, err
	}

	w.deps.Metrics.IncCommit(action.String())
	logCtx := w.deps.Logger.WithFields(w.logCtx(ctx), map[string]any{
		"action":  action.String(),
		"status":  committed.Status.String(),
		"editing": w.editing != nil,
	})
	w.deps.Logger.Info(w.deps.Logger.WithReleaseID(logCtx, committed.ID.String()), "submission committed")

	w.reset()
	return committed, nil
}

func (w *Wizard) buildRelease(ctx context.Context, action enums.CommitAction) (*models.Release, error) {
	md := w.metadata
	rel := &models.Release{
		ID:           uuid.New(),
		Status:       action.TargetStatus(),
		AudioAsset:   w.audio.Clone(),
		ArtworkAsset: w.artwork.Clone(),
		CreatedBy:    w.owner,
	}
	if w.editing != nil {
		rel.ID = w.editing.ID
		rel.CreatedAt = w.editing.CreatedAt
		rel.CreatedBy = w.editing.CreatedBy
		if rel.AudioAsset == nil {
			rel.AudioAsset = w.editing.AudioAsset.Clone()
		}
		if rel.ArtworkAsset == nil {
			rel.ArtworkAsset = w.editing.ArtworkAsset.Clone()
		}
	}
	md.apply(rel)

	rel.ISRC = md.ISRC
	if rel.ISRC == "" {
		code, err := w.deps.Releases.UniqueISRC(ctx)
		if err != nil {
			return nil, err
		}
		rel.ISRC = code
	}
	rel.UPC = md.UPC
	if rel.UPC == "" && md.AlbumType.RequiresUPC() {
		code, err := w.deps.Releases.UniqueUPC(ctx)
		if err != nil {
			return nil, err
		}
		rel.UPC = code
	}
	return rel, nil
}

func cloneFields(fields pkgerrors.FieldErrors) pkgerrors.FieldErrors {
	out := make(pkgerrors.FieldErrors, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
