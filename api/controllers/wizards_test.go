package controllers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/api/middleware"
	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/submission"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
)

type stubWizardService struct {
	submission.Service
	owner     string
	editID    *uuid.UUID
	candidate intake.Candidate
	header    []byte
	metadata  submission.Metadata
	kind      enums.IdentifierKind
	action    enums.CommitAction
	err       error
}

func (s *stubWizardService) Start(_ context.Context, owner string, editID *uuid.UUID) (submission.State, error) {
	s.owner = owner
	s.editID = editID
	return submission.State{ID: uuid.New(), Step: enums.WizardStepFiles.String(), StepNumber: 1}, s.err
}

func (s *stubWizardService) capture(c intake.Candidate) (submission.State, error) {
	s.candidate = c
	if c.Source != nil {
		buf := make([]byte, 8)
		n, _ := io.ReadFull(c.Source, buf)
		s.header = buf[:n]
	}
	return submission.State{}, s.err
}

func (s *stubWizardService) AttachAudio(_ context.Context, _ uuid.UUID, c intake.Candidate) (submission.State, error) {
	return s.capture(c)
}

func (s *stubWizardService) AttachArtwork(_ context.Context, _ uuid.UUID, c intake.Candidate) (submission.State, error) {
	return s.capture(c)
}

func (s *stubWizardService) SetMetadata(_ context.Context, _ uuid.UUID, md submission.Metadata) (submission.State, error) {
	s.metadata = md
	return submission.State{Metadata: md}, s.err
}

func (s *stubWizardService) GenerateIdentifier(_ context.Context, _ uuid.UUID, kind enums.IdentifierKind) (submission.State, error) {
	s.kind = kind
	return submission.State{}, s.err
}

func (s *stubWizardService) Commit(_ context.Context, _ uuid.UUID, action enums.CommitAction) (submission.CommitResult, error) {
	s.action = action
	return submission.CommitResult{Step: "committed"}, s.err
}

func wizardRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if params == nil {
		params = map[string]string{}
	}
	if _, ok := params[wizardIDParam]; !ok {
		params[wizardIDParam] = uuid.NewString()
	}
	return withURLParams(req, params)
}

func TestStartWizardUsesCurrentUser(t *testing.T) {
	svc := &stubWizardService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizards", nil)
	req = req.WithContext(middleware.WithProfile(req.Context(), users.DefaultProfile()))
	rec := httptest.NewRecorder()
	StartWizard(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.owner != users.DefaultProfile().ID || svc.editID != nil {
		t.Fatalf("unexpected start owner=%q edit=%v", svc.owner, svc.editID)
	}
}

func TestStartWizardEditMode(t *testing.T) {
	svc := &stubWizardService{}
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizards", strings.NewReader(`{"release_id":"`+id.String()+`"}`))
	rec := httptest.NewRecorder()
	StartWizard(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.editID == nil || *svc.editID != id {
		t.Fatalf("expected edit id %s got %v", id, svc.editID)
	}

	rec = httptest.NewRecorder()
	StartWizard(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/wizards", strings.NewReader(`{"release_id":"x"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAttachAssetJSONCandidate(t *testing.T) {
	svc := &stubWizardService{}
	body := `{"file_name":"cover.png","mime_type":"image/png","size_bytes":2048,"width":3000,"height":3000}`
	rec := httptest.NewRecorder()
	AttachWizardAsset(svc, enums.AssetKindArtwork, intake.DefaultLimits(), nil).
		ServeHTTP(rec, wizardRequest(http.MethodPost, "/artwork", strings.NewReader(body), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	want := intake.Candidate{FileName: "cover.png", MimeType: "image/png", SizeBytes: 2048, Width: 3000, Height: 3000}
	if svc.candidate != want {
		t.Fatalf("unexpected candidate %+v", svc.candidate)
	}
}

func TestAttachAssetJSONRequiresFileName(t *testing.T) {
	rec := httptest.NewRecorder()
	AttachWizardAsset(&stubWizardService{}, enums.AssetKindAudio, intake.DefaultLimits(), nil).
		ServeHTTP(rec, wizardRequest(http.MethodPost, "/audio", strings.NewReader(`{"mime_type":"audio/wav"}`), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Details["file_name"] == nil {
		t.Fatalf("expected file_name detail got %+v", env.Error.Details)
	}
}

func multipartBody(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadFormField, fileName)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAttachAssetMultipartSniffsAndRewinds(t *testing.T) {
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	body, contentType := multipartBody(t, "cover.jpg", img.Bytes())
	req := wizardRequest(http.MethodPost, "/artwork", body, nil)
	req.Header.Set("Content-Type", contentType)

	svc := &stubWizardService{}
	rec := httptest.NewRecorder()
	AttachWizardAsset(svc, enums.AssetKindArtwork, intake.DefaultLimits(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.candidate.MimeType != "image/png" {
		t.Fatalf("expected sniffed image/png got %q", svc.candidate.MimeType)
	}
	if svc.candidate.SizeBytes != int64(img.Len()) || svc.candidate.FileName != "cover.jpg" {
		t.Fatalf("unexpected candidate %+v", svc.candidate)
	}
	if !bytes.Equal(svc.header, img.Bytes()[:8]) {
		t.Fatalf("source was not rewound after sniffing")
	}
}

func TestAttachAssetMultipartTooLarge(t *testing.T) {
	limits := intake.DefaultLimits()
	limits.MaxAudioBytes = 1
	body, contentType := multipartBody(t, "master.wav", bytes.Repeat([]byte{0}, multipartOverhead+1024))
	req := wizardRequest(http.MethodPost, "/audio", body, nil)
	req.Header.Set("Content-Type", contentType)

	svc := &stubWizardService{}
	rec := httptest.NewRecorder()
	AttachWizardAsset(svc, enums.AssetKindAudio, limits, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Details["audio"] != intake.SizeLimitMessage(1) {
		t.Fatalf("unexpected details %+v", env.Error.Details)
	}
	if svc.candidate.FileName != "" {
		t.Fatalf("service should not see oversized uploads")
	}
}

func TestAttachAssetMultipartMissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no file")
	_ = mw.Close()
	req := wizardRequest(http.MethodPost, "/audio", &buf, nil)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	AttachWizardAsset(&stubWizardService{}, enums.AssetKindAudio, intake.DefaultLimits(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSetWizardMetadataAcceptsPartialForm(t *testing.T) {
	svc := &stubWizardService{}
	rec := httptest.NewRecorder()
	SetWizardMetadata(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPut, "/metadata", strings.NewReader(`{"track_title":"Ocean Drive"}`), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.metadata.TrackTitle != "Ocean Drive" {
		t.Fatalf("unexpected metadata %+v", svc.metadata)
	}
}

func TestGenerateWizardIdentifierKinds(t *testing.T) {
	svc := &stubWizardService{}
	rec := httptest.NewRecorder()
	GenerateWizardIdentifier(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPost, "/identifiers/upc", nil, map[string]string{identifierKindParam: "upc"}))
	if rec.Code != http.StatusOK || svc.kind != enums.IdentifierKindUPC {
		t.Fatalf("expected upc generation got %d kind=%q", rec.Code, svc.kind)
	}

	rec = httptest.NewRecorder()
	GenerateWizardIdentifier(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPost, "/identifiers/grid", nil, map[string]string{identifierKindParam: "grid"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCommitWizardActions(t *testing.T) {
	svc := &stubWizardService{}
	rec := httptest.NewRecorder()
	CommitWizard(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPost, "/commit", strings.NewReader(`{"action":"submit_for_review"}`), nil))
	if rec.Code != http.StatusOK || svc.action != enums.CommitActionSubmitForReview {
		t.Fatalf("expected submit got %d action=%q", rec.Code, svc.action)
	}

	rec = httptest.NewRecorder()
	CommitWizard(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPost, "/commit", strings.NewReader(`{"action":"publish"}`), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCommitWizardIncompleteForm(t *testing.T) {
	svc := &stubWizardService{err: pkgerrors.ValidationFields(pkgerrors.FieldErrors{"track_title": "Track title is required"})}
	rec := httptest.NewRecorder()
	CommitWizard(svc, nil).ServeHTTP(rec, wizardRequest(http.MethodPost, "/commit", strings.NewReader(`{"action":"save_draft"}`), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Details["track_title"] != "Track title is required" {
		t.Fatalf("unexpected details %+v", env.Error.Details)
	}
}
