package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
)

// stubReleaseService implements the read paths used by the controllers.
// Unused methods panic through the nil embedded interface.
type stubReleaseService struct {
	releases.Service
	list      []models.Release
	rel       *models.Release
	stats     releases.Stats
	err       error
	gotFilter releases.Filter
	deleted   uuid.UUID
}

func (s *stubReleaseService) Search(_ context.Context, f releases.Filter) ([]models.Release, error) {
	s.gotFilter = f
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func (s *stubReleaseService) Get(_ context.Context, id uuid.UUID) (*models.Release, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rel, nil
}

func (s *stubReleaseService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func (s *stubReleaseService) Stats(context.Context) (releases.Stats, error) {
	return s.stats, s.err
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, rec.Body.String())
	}
	return env
}
