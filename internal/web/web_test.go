package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/config"
	"weekgrid/internal/engine"
	"weekgrid/internal/ics"
	"weekgrid/internal/model"
	"weekgrid/internal/store"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) Refresh(context.Context) ics.SyncReport {
	f.calls++
	return ics.SyncReport{Sources: 2, Events: 7, Errors: []error{errors.New("b: 404 Not Found")}}
}

func newTestServer(t *testing.T, mode string) (*Server, *store.Memory, *fakeRefresher) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.PreviewPath = t.TempDir() + "/missing.png"

	opts, err := engine.OptionsFromConfig(cfg)
	require.NoError(t, err)
	opts.Now = func() time.Time { return monday.Add(12 * time.Hour) }

	st := store.NewMemory()
	st.Replace("test", []model.CalendarEvent{
		{ID: "a", Title: "Planning", Start: monday.Add(9 * time.Hour), End: monday.Add(10 * time.Hour)},
	})
	ref := &fakeRefresher{}
	return NewServer(cfg, engine.New(opts, st), ref), st, ref
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestWeek(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodGet, "/api/week?date=2026-03-04", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp weekResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-W10", resp.Label)
	assert.Len(t, resp.Days, 7)
	require.Len(t, resp.Boxes, 1)
	assert.Equal(t, "a", resp.Boxes[0].Event.ID)
	assert.Equal(t, "legacy", resp.Mode)

	rec = do(t, s.Handler(), http.MethodGet, "/api/week?date=03/04/2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/api/week", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCalendarHTML(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodGet, "/calendar?date=2026-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-ready="true"`)
	assert.Contains(t, rec.Body.String(), "Planning")
}

func TestPreviewMissing(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodGet, "/preview.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGesture(t *testing.T) {
	s, st, _ := newTestServer(t, "legacy")
	// Default grid: 40px per 30 minutes, so +80px is one hour.
	body := `{"kind":"resize","event_id":"a","date":"2026-03-02","points":[{"x":100,"y":100},{"x":100,"y":180}]}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/gesture", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res engine.ReplayResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "committed", res.State)

	got, err := st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, monday.Add(11*time.Hour), got.End)
}

func TestGestureErrors(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	h := s.Handler()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown field", `{"kind":"move","bogus":1}`, http.StatusBadRequest},
		{"bad kind", `{"kind":"spin","event_id":"a","date":"2026-03-02"}`, http.StatusBadRequest},
		{"unknown event", `{"kind":"click","event_id":"nope","date":"2026-03-02"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/gesture", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestSlot(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodPost, "/api/slot", `{"date":"2026-03-02","day":1,"y":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var sel engine.SlotSelection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.True(t, sel.Selected)
	assert.True(t, sel.Start.Equal(monday.AddDate(0, 0, 1).Add(8*time.Hour+30*time.Minute)))

	rec = do(t, s.Handler(), http.MethodPost, "/api/slot", `{"date":"2026-03-02","day":9,"y":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRangesLegacyConflict(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	rec := do(t, s.Handler(), http.MethodPut, "/api/ranges", `{"ranges":[]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRangesControlled(t *testing.T) {
	s, _, _ := newTestServer(t, "controlled")
	h := s.Handler()

	body := `{"ranges":[{"start_date":"2026-03-02T09:00:00Z","end_date":"2026-03-02T10:00:00Z"}]}`
	rec := do(t, h, http.MethodPut, "/api/ranges", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var put rangesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &put))
	require.Len(t, put.Ranges, 1)
	assert.False(t, put.Ranges[0].ID.IsZero())

	rec = do(t, h, http.MethodGet, "/api/ranges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got rangesPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, put.Ranges[0].ID, got.Ranges[0].ID)

	rec = do(t, h, http.MethodPut, "/api/ranges",
		`{"ranges":[{"start_date":"2026-03-02T10:00:00Z","end_date":"2026-03-02T09:00:00Z"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRateLimited(t *testing.T) {
	s, _, ref := newTestServer(t, "legacy")
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Events)
	assert.Len(t, resp.Errors, 1)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/refresh", "").Code)
	rec = do(t, h, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, ref.calls)
}

func TestBasicAuth(t *testing.T) {
	s, _, _ := newTestServer(t, "legacy")
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/week", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/week", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteEngineError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEngineError(rec, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	writeEngineError(rec, engine.ErrNotControlled)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
