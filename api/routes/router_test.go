package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/releasedesk/api/controllers"
	"github.com/angelmondragon/releasedesk/internal/identifiers"
	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/internal/review"
	"github.com/angelmondragon/releasedesk/internal/submission"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/config"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type testServer struct {
	handler  http.Handler
	releases releases.Service
}

type serverOptions struct {
	timezone  string
	logOutput io.Writer
}

func newTestServer(t *testing.T, readiness map[string]controllers.Pinger) testServer {
	t.Helper()
	return newTestServerWith(t, readiness, serverOptions{})
}

func newTestServerWith(t *testing.T, readiness map[string]controllers.Pinger, opts serverOptions) testServer {
	t.Helper()
	if opts.timezone == "" {
		opts.timezone = "UTC"
	}
	if opts.logOutput == nil {
		opts.logOutput = io.Discard
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: opts.logOutput})
	cfg := &config.Config{
		App:         config.AppConfig{Env: config.AppEnvDev, CORSOrigins: []string{"http://localhost:3000"}},
		Identifiers: config.IdentifiersConfig{CountryCode: "US", RegistrantCode: "XXX"},
		Export:      config.ExportConfig{Timezone: opts.timezone},
	}

	reg := prometheus.NewRegistry()
	releaseMetrics := metrics.NewReleaseMetrics(reg)

	releaseSvc, err := releases.NewService(releases.NewMemoryRepository(), identifiers.NewGenerator(cfg.Identifiers), logg,
		releases.WithMetrics(releaseMetrics))
	require.NoError(t, err)

	limits := intake.Limits{MinArtworkPx: 16}
	validator := intake.NewValidator(limits, intake.WithMetrics(releaseMetrics), intake.WithLogger(logg))
	wizardSvc, err := submission.NewService(submission.Deps{
		Intake:   validator,
		Releases: releaseSvc,
		Logger:   logg,
		Metrics:  releaseMetrics,
	}, releaseSvc, submission.NewSessionStore(time.Hour, nil))
	require.NoError(t, err)

	reviewSvc, err := review.NewService(releaseSvc, logg)
	require.NoError(t, err)

	if readiness == nil {
		readiness = map[string]controllers.Pinger{"store": releaseSvc}
	}
	handler := NewRouter(cfg, logg, reg, metrics.NewHTTPMetrics(reg), readiness, nil,
		users.NewStore(users.DefaultProfile(), logg), releaseSvc, wizardSvc, reviewSvc, validator.Limits())
	return testServer{handler: handler, releases: releaseSvc}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

type wizardState struct {
	ID         string            `json:"id"`
	Step       string            `json:"step"`
	StepNumber int               `json:"step_number"`
	Errors     map[string]string `json:"errors"`
}

type releaseBody struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	ISRC    string `json:"isrc"`
	UPC     string `json:"upc"`
	Version int64  `json:"version"`
}

func submitRelease(t *testing.T, s testServer, action string) releaseBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/wizards", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var state wizardState
	decodeData(t, rec, &state)
	require.Equal(t, 1, state.StepNumber)
	base := "/api/v1/wizards/" + state.ID

	rec = s.do(t, http.MethodPost, base+"/audio", map[string]any{
		"file_name": "master.wav", "mime_type": "audio/wav", "size_bytes": 1024,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, base+"/artwork", map[string]any{
		"file_name": "cover.png", "mime_type": "image/png", "size_bytes": 2048, "width": 3000, "height": 3000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, base+"/metadata", map[string]any{
		"track_title":    "Ocean Drive",
		"primary_artist": "Luna",
		"album_title":    "Tides, Vol. 1",
		"album_type":     "ep",
		"primary_genre":  "Pop",
		"language":       "English",
		"release_date":   "2025-03-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &state)
	require.Equal(t, 3, state.StepNumber)

	rec = s.do(t, http.MethodPost, base+"/commit", map[string]string{"action": action})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Step    string      `json:"step"`
		Release releaseBody `json:"release"`
	}
	decodeData(t, rec, &result)
	require.Equal(t, "committed", result.Step)
	return result.Release
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, config.AppEnvDev, rec.Header().Get("X-Releasedesk-Env"))

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	failing := newTestServer(t, map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("down")}})
	rec = failing.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "DEPENDENCY_ERROR", errorCode(t, rec))
}

func TestCatalogOptions(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/catalog/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opts releases.CatalogOptions
	decodeData(t, rec, &opts)
	require.Contains(t, opts.Genres, "Hip-Hop")
	require.Len(t, opts.AlbumTypes, 3)
}

func TestSubmissionReviewAndExportFlow(t *testing.T) {
	s := newTestServer(t, nil)

	submitted := submitRelease(t, s, "submit_for_review")
	require.Equal(t, "under_review", submitted.Status)
	require.Regexp(t, `^USXXX\d{7}$`, submitted.ISRC)
	require.Len(t, submitted.UPC, 12)

	draft := submitRelease(t, s, "save_draft")
	require.Equal(t, "draft", draft.Status)

	rec := s.do(t, http.MethodGet, "/api/v1/releases?status=under_review", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []releaseBody `json:"items"`
		Total int           `json:"total"`
	}
	decodeData(t, rec, &list)
	require.Equal(t, 1, list.Total)
	require.Equal(t, submitted.ID, list.Items[0].ID)

	rec = s.do(t, http.MethodGet, "/api/v1/releases?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The default profile is an artist.
	rec = s.do(t, http.MethodPost, "/api/admin/v1/releases/"+submitted.ID+"/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/settings/profile", map[string]string{
		"name": "Reviewer", "email": "ops@demo.com", "role": "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/admin/v1/releases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &list)
	require.Equal(t, 1, list.Total, "queue defaults to under_review")

	rec = s.do(t, http.MethodPost, "/api/admin/v1/releases/"+draft.ID+"/reject", map[string]string{"reason": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/v1/releases/"+draft.ID+"/approve", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "STATE_CONFLICT", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/admin/v1/releases/"+submitted.ID+"/approve", map[string]int64{"expected_version": submitted.Version})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved releaseBody
	decodeData(t, rec, &approved)
	require.Equal(t, "approved", approved.Status)
	require.Equal(t, submitted.ISRC, approved.ISRC)

	rec = s.do(t, http.MethodPost, "/api/admin/v1/releases/"+submitted.ID+"/distribute", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/admin/v1/releases/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviewStats releases.ReviewStats
	decodeData(t, rec, &reviewStats)
	require.Equal(t, 1, reviewStats.Distributed)
	require.Equal(t, 0, reviewStats.Pending)

	rec = s.do(t, http.MethodGet, "/api/v1/releases/export?search=ocean", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Regexp(t, `attachment; filename="releases-\d+\.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], `"Tides, Vol. 1"`)

	rec = s.do(t, http.MethodGet, "/api/admin/v1/releases/export?status=all&format=table", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Regexp(t, `admin-releases-\d+\.txt`, rec.Header().Get("Content-Disposition"))
	require.Contains(t, rec.Body.String(), "Rejection Reason")

	rec = s.do(t, http.MethodGet, "/api/v1/releases/export?format=xlsx", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/releases/"+draft.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/releases/"+draft.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/releases/stats", nil)
	var stats releases.Stats
	decodeData(t, rec, &stats)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.Distributed)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "releasedesk_release_transitions_total")
	require.Contains(t, rec.Body.String(), "releasedesk_http_request_duration_seconds")
}

func TestUnknownExportTimezoneIsLoggedAndFallsBackToUTC(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServerWith(t, nil, serverOptions{timezone: "Mars/Base", logOutput: &logs})

	require.Contains(t, logs.String(), "export timezone unresolved")
	require.Contains(t, logs.String(), `"timezone":"Mars/Base"`)
	require.Contains(t, logs.String(), `"level":"warn"`)

	rec := s.do(t, http.MethodGet, "/api/v1/releases/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestWizardStepGuards(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/wizards", nil)
	var state wizardState
	decodeData(t, rec, &state)
	base := "/api/v1/wizards/" + state.ID

	rec = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/audio", map[string]any{
		"file_name": "song.ogg", "mime_type": "audio/ogg", "size_bytes": 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, base, nil)
	decodeData(t, rec, &state)
	require.Equal(t, intake.MsgInvalidAudioType, state.Errors["audio"])

	rec = s.do(t, http.MethodPost, base+"/commit", map[string]string{"action": "save_draft"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/identifiers/isrc", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var withISRC struct {
		Metadata struct {
			ISRC string `json:"isrc"`
		} `json:"metadata"`
	}
	decodeData(t, rec, &withISRC)
	require.Regexp(t, `^USXXX\d{7}$`, withISRC.Metadata.ISRC)

	rec = s.do(t, http.MethodPost, base+"/identifiers/ean", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/wizards/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditWizardUpdatesExistingRelease(t *testing.T) {
	s := newTestServer(t, nil)
	draft := submitRelease(t, s, "save_draft")

	rec := s.do(t, http.MethodPost, "/api/v1/wizards", map[string]string{"release_id": draft.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var state wizardState
	decodeData(t, rec, &state)
	base := "/api/v1/wizards/" + state.ID

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, base+"/commit", map[string]string{"action": "submit_for_review"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/releases", nil)
	var list struct {
		Items []releaseBody `json:"items"`
		Total int           `json:"total"`
	}
	decodeData(t, rec, &list)
	require.Equal(t, 1, list.Total)
	require.Equal(t, draft.ID, list.Items[0].ID)
	require.Equal(t, "under_review", list.Items[0].Status)
	require.Equal(t, draft.ISRC, list.Items[0].ISRC)
}

func multipartUpload(t *testing.T, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func wavHeader() []byte {
	b := make([]byte, 44)
	copy(b[0:], "RIFF")
	copy(b[8:], "WAVEfmt ")
	copy(b[36:], "data")
	return b
}

func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, size, size))))
	return buf.Bytes()
}

func TestMultipartUploads(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/wizards", nil)
	var state wizardState
	decodeData(t, rec, &state)
	base := "/api/v1/wizards/" + state.ID

	upload := func(path, fileName, declared string, content []byte) *httptest.ResponseRecorder {
		body, contentType := multipartUpload(t, fileName, declared, content)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		out := httptest.NewRecorder()
		s.handler.ServeHTTP(out, req)
		return out
	}

	rec = upload(base+"/audio", "master.wav", "application/octet-stream", wavHeader())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = upload(base+"/artwork", "small.png", "image/png", pngBytes(t, 8))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, base, nil)
	decodeData(t, rec, &state)
	require.Equal(t, "Image must be at least 16x16 pixels.", state.Errors["artwork"])

	rec = upload(base+"/artwork", "cover.jpg", "image/jpeg", pngBytes(t, 32))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted struct {
		Artwork struct {
			MimeType string `json:"mime_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
		} `json:"artwork"`
	}
	decodeData(t, rec, &accepted)
	require.Equal(t, "image/png", accepted.Artwork.MimeType, "sniffed type wins over the declared one")
	require.Equal(t, 32, accepted.Artwork.Width)
}
