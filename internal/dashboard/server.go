// Package dashboard serves the reconciled view and refresh controls over HTTP.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"StrikeSentinel/internal/model"
	"StrikeSentinel/internal/reconcile"
	"StrikeSentinel/internal/recorder"
	"StrikeSentinel/internal/scheduler"
	"StrikeSentinel/internal/session"
	"StrikeSentinel/internal/strikes"
)

// Server is the dashboard HTTP server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	sched     *scheduler.Scheduler
	sess      *session.Session
	rec       recorder.Recorder
	addr      string
	authToken string
}

// Config sets the listen address and the optional access token.
type Config struct {
	Addr      string
	AuthToken string
}

// StatusView is the /api/status response.
type StatusView struct {
	State       model.RefreshState  `json:"state"`
	Status      model.RefreshStatus `json:"status"`
	LastOutcome *model.FetchOutcome `json:"last_outcome,omitempty"`
	Strikes     StrikesView         `json:"strikes"`
}

// StrikesView describes the loaded strike lists.
type StrikesView struct {
	Loaded bool   `json:"loaded"`
	Source string `json:"source,omitempty"`
	CE     int    `json:"ce"`
	PE     int    `json:"pe"`
}

// RowsView is the /api/rows response.
type RowsView struct {
	reconcile.Result
	Summary   reconcile.Summary `json:"summary"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// NewServer builds the router and the http.Server. rec may be nil.
func NewServer(cfg Config, sched *scheduler.Scheduler, sess *session.Session, rec recorder.Recorder) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		router:    chi.NewRouter(),
		sched:     sched,
		sess:      sess,
		rec:       rec,
		addr:      cfg.Addr,
		authToken: cfg.AuthToken,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/rows", s.handleRows)
		r.Get("/report", s.handleReport)
		r.Get("/history", s.handleHistory)
		r.Get("/expiries", s.handleListExpiries)
		r.Post("/expiry", s.handleSelectExpiry)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/auto", s.handleAuto)
		r.Post("/strikes", s.handleLoadStrikes)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// Start serves until Shutdown is called. It returns nil at once if
// Shutdown ran first.
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("starting dashboard server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.sched.State()
	ce, pe := s.sess.Strikes()
	view := StatusView{
		State:  st,
		Status: s.sched.Status(),
		Strikes: StrikesView{
			Loaded: s.sess.StrikesLoaded(),
			Source: s.sess.Source(),
			CE:     len(ce),
			PE:     len(pe),
		},
	}
	if o, ok := s.sched.LastOutcome(); ok {
		view.LastOutcome = &o
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRows(w http.ResponseWriter, _ *http.Request) {
	if !s.sess.StrikesLoaded() {
		writeError(w, http.StatusPreconditionFailed, scheduler.ErrNotReady)
		return
	}
	ce, pe := s.sess.Strikes()
	snap := s.sess.Snapshot()
	res := reconcile.Assemble(ce, pe, snap)
	writeJSON(w, http.StatusOK, RowsView{
		Result:    res,
		Summary:   reconcile.Summarize(res),
		FetchedAt: snap.FetchedAt,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.sched.Report()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	outcomes, err := s.rec.RecentFetches(limit)
	if err != nil {
		log.Error().Err(err).Msg("read fetch history")
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}
	if outcomes == nil {
		outcomes = []model.FetchOutcome{}
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	// The fetch outlives the request; only shutdown cancels it.
	out, err := s.sched.TriggerManual(s.sched.Ctx)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type autoRequest struct {
	Enabled         *bool `json:"enabled"`
	IntervalSeconds int   `json:"interval_seconds"`
}

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	var req autoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.IntervalSeconds != 0 {
		if err := s.sched.SetInterval(req.IntervalSeconds); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Enabled != nil {
		s.sched.SetAutoRefresh(*req.Enabled)
	}
	writeJSON(w, http.StatusOK, s.sched.State())
}

const maxStrikesBody = 1 << 20

// handleLoadStrikes accepts the strikes text as the body, or a JSON
// {"path": ...} naming a file to read ("" for the configured one).
func (s *Server) handleLoadStrikes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStrikesBody)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Path string `json:"path"`
		}
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			writeError(w, http.StatusBadRequest, derr)
			return
		}
		err = s.sched.ReloadStrikes(req.Path)
	} else {
		body, rerr := io.ReadAll(r.Body)
		if rerr != nil {
			writeError(w, http.StatusBadRequest, rerr)
			return
		}
		err = s.sched.LoadStrikes(string(body), "upload")
	}

	var perr *strikes.ParseError
	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": err.Error(),
			"sides": perr.Sides,
		})
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ce, pe := s.sess.Strikes()
	writeJSON(w, http.StatusOK, StrikesView{
		Loaded: true,
		Source: s.sess.Source(),
		CE:     len(ce),
		PE:     len(pe),
	})
}

func (s *Server) handleListExpiries(w http.ResponseWriter, r *http.Request) {
	expiries, err := s.sched.ListExpiries(s.sched.Ctx)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expiries": expiries,
		"selected": s.sched.State().Expiry,
	})
}

func (s *Server) handleSelectExpiry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expiry string `json:"expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.sched.SelectExpiry(req.Expiry); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.sched.State())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrNotReady):
		return http.StatusPreconditionFailed
	case errors.Is(err, scheduler.ErrFetchInProgress):
		return http.StatusConflict
	case errors.Is(err, scheduler.ErrUnknownExpiry):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
