package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"weekgrid/internal/calnav"
	"weekgrid/internal/config"
	"weekgrid/internal/engine"
	"weekgrid/internal/ics"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/render"
	"weekgrid/internal/store"
)

// Refresher re-reads the ICS feeds into the event store.
type Refresher interface {
	Refresh(ctx context.Context) ics.SyncReport
}

// Server provides the HTML week view and the JSON API driving the engine.
type Server struct {
	cfg    *config.Config
	eng    *engine.Engine
	ref    Refresher
	router *mux.Router

	// refreshLimit bounds manual refreshes; each one hits every feed.
	refreshLimit *rate.Limiter
}

// NewServer constructs a new Server. ref may be nil when no feeds are
// configured.
func NewServer(cfg *config.Config, eng *engine.Engine, ref Refresher) *Server {
	s := &Server{
		cfg:          cfg,
		eng:          eng,
		ref:          ref,
		router:       mux.NewRouter(),
		refreshLimit: rate.NewLimiter(rate.Every(30*time.Second), 2),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than lock everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs an HTTP server on cfg.Listen until ctx is cancelled, then shuts
// it down gracefully.
func Serve(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	r.HandleFunc("/preview.png", s.handlePreview).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/week", s.handleWeek).Methods(http.MethodGet)
	api.HandleFunc("/gesture", s.handleGesture).Methods(http.MethodPost)
	api.HandleFunc("/slot", s.handleSlot).Methods(http.MethodPost)
	api.HandleFunc("/ranges", s.handleGetRanges).Methods(http.MethodGet)
	api.HandleFunc("/ranges", s.handlePutRanges).Methods(http.MethodPut)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// anchor resolves the week anchor from a "date" value. Empty means today.
func (s *Server) anchor(date string) (time.Time, error) {
	return calnav.ParseDate(date, s.eng.Location(), s.eng.Now())
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	Label       string       `json:"label"`
	Days        []time.Time  `json:"days"`
	Boxes       []render.Box `json:"boxes"`
	WindowStart int          `json:"window_start"`
	WindowEnd   int          `json:"window_end"`
	SlotMinutes int          `json:"slot_minutes"`
	Mode        string       `json:"mode"`
	Timezone    string       `json:"timezone"`
}

// handleWeek returns the positioned boxes of one week.
//
// GET /api/week?date=2026-03-04
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	at, err := s.anchor(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := s.eng.Week(at)
	boxes := v.Boxes
	if boxes == nil {
		boxes = []render.Box{}
	}
	g := s.eng.Grid()
	writeJSON(w, http.StatusOK, weekResponse{
		Label:       v.Label,
		Days:        v.Days,
		Boxes:       boxes,
		WindowStart: g.WindowStart,
		WindowEnd:   g.WindowEnd,
		SlotMinutes: g.SlotMinutes,
		Mode:        s.eng.Mode().String(),
		Timezone:    s.eng.Location().String(),
	})
}

// handleCalendar renders the HTML week view; the capture command
// screenshots this page.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	at, err := s.anchor(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteHTML(w, s.eng.Week(at)); err != nil {
		appLog.Error("calendar render failed", err)
	}
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.PreviewPath)
}

// gestureRequest is a gesture script with an optional "date" shortcut for
// the week anchor.
type gestureRequest struct {
	engine.GestureScript
	Date string `json:"date"`
}

// handleGesture replays a pointer sequence against one event.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	script := req.GestureScript
	if req.Date != "" || script.Week.IsZero() {
		at, err := s.anchor(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		script.Week = at
	}

	res, err := s.eng.Replay(script)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	appLog.Info("gesture replayed", "kind", script.Kind, "event", script.EventID, "state", res.State)
	writeJSON(w, http.StatusOK, res)
}

type slotRequest struct {
	Date string  `json:"date"`
	Day  int     `json:"day"`
	Y    float64 `json:"y"`
}

// handleSlot resolves a click on empty grid space to a creation range.
func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, err := s.anchor(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sel, err := s.eng.SelectSlot(at, req.Day, req.Y)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

type rangesPayload struct {
	Ranges []model.DateRange `json:"ranges"`
}

func (s *Server) handleGetRanges(w http.ResponseWriter, _ *http.Request) {
	ranges := s.eng.ControlledRanges()
	if ranges == nil {
		ranges = []model.DateRange{}
	}
	writeJSON(w, http.StatusOK, rangesPayload{Ranges: ranges})
}

// handlePutRanges replaces the controlled range list wholesale.
func (s *Server) handlePutRanges(w http.ResponseWriter, r *http.Request) {
	var req rangesPayload
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ranges, err := s.eng.SetControlledRanges(req.Ranges)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if ranges == nil {
		ranges = []model.DateRange{}
	}
	writeJSON(w, http.StatusOK, rangesPayload{Ranges: ranges})
}

type refreshResponse struct {
	Sources   int      `json:"sources"`
	Events    int      `json:"events"`
	FromCache int      `json:"from_cache"`
	Errors    []string `json:"errors,omitempty"`
}

// handleRefresh re-reads every feed now. It is rate limited.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.ref == nil {
		writeError(w, http.StatusServiceUnavailable, "no feeds configured")
		return
	}
	if !s.refreshLimit.Allow() {
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "refresh rate limited")
		return
	}

	rep := s.ref.Refresh(r.Context())
	resp := refreshResponse{Sources: rep.Sources, Events: rep.Events, FromCache: rep.FromCache}
	for _, err := range rep.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrEventNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotControlled):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrBadScript),
		errors.Is(err, engine.ErrBadDay),
		errors.Is(err, store.ErrInvalidRange):
		status = http.StatusBadRequest
	default:
		appLog.Error("engine request failed", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
