package web

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"mic-check/internal/domain"
	"mic-check/internal/logging"
	"mic-check/internal/usecase"
)

// Server is a primary adapter that exposes HTTP API + UI.
// It depends on the use cases (primary ports).
type Server struct {
	volume      usecase.VolumeUseCase
	scheduler   usecase.SchedulerUseCase
	hub         *Hub
	unsubscribe func()
	server      *http.Server
}

// NewServer creates the HTTP server bound to addr.
func NewServer(volume usecase.VolumeUseCase, scheduler usecase.SchedulerUseCase, addr string) *Server {
	srv := &Server{volume: volume, scheduler: scheduler, hub: NewHub()}
	srv.unsubscribe = volume.Subscribe(srv.hub.Publish)
	srv.hub.Publish(volume.State())

	srv.server = &http.Server{
		Addr:    addr,
		Handler: loggingMiddleware(srv.Handler()),
	}
	return srv
}

// Handler returns the route table without middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/apply", s.handleApply)
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, stateToView(s.volume.State()))
	case http.MethodPut:
		var req statePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Volume == nil || math.IsNaN(*req.Volume) {
			http.Error(w, "volume is required", http.StatusBadRequest)
			return
		}
		respondJSON(w, http.StatusOK, stateToView(s.volume.SetVolume(*req.Volume)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, stateToView(s.volume.Refresh()))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, snapshotToView(s.scheduler.GetSnapshot()))
	case http.MethodPut:
		var req updatePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		config := s.scheduler.GetSnapshot().Config

		if req.TargetVolume != nil {
			config.TargetVolume = *req.TargetVolume
		}
		if req.IntervalSeconds != nil {
			config.Interval = time.Duration(*req.IntervalSeconds * float64(time.Second))
		}
		if req.Enabled != nil {
			config.Enabled = *req.Enabled
		}

		if err := s.scheduler.UpdateConfig(config, req.ApplyNow); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		respondJSON(w, http.StatusOK, snapshotToView(s.scheduler.GetSnapshot()))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.scheduler.ApplyNow(); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, snapshotToView(s.scheduler.GetSnapshot()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidVolume), errors.Is(err, domain.ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAdjustable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func stateToView(st domain.State) map[string]any {
	return map[string]any{
		"volume":     st.Volume,
		"percent":    st.Percent(),
		"adjustable": st.Adjustable,
		"icon":       st.Icon(),
	}
}

func snapshotToView(snap domain.Snapshot) map[string]any {
	var nextRun *time.Time
	if !snap.ScheduleState.NextRun.IsZero() {
		nr := snap.ScheduleState.NextRun
		nextRun = &nr
	}

	cfg := map[string]any{
		"targetVolume":    snap.Config.TargetVolume,
		"intervalSeconds": snap.Config.Interval.Seconds(),
		"enabled":         snap.Config.Enabled,
		"lastApplyStatus": snap.ScheduleState.LastApplyStatus.String(),
	}

	if snap.ScheduleState.LastError != nil {
		cfg["lastError"] = snap.ScheduleState.LastError.Error()
	}
	if !snap.ScheduleState.LastApplied.IsZero() {
		cfg["lastApplied"] = snap.ScheduleState.LastApplied
	}

	return map[string]any{
		"config":  cfg,
		"device":  stateToView(snap.Device),
		"nextRun": nextRun,
		"idle":    !snap.ScheduleState.IsRunning,
	}
}

type statePayload struct {
	Volume *float64 `json:"volume"`
}

type updatePayload struct {
	TargetVolume    *float64 `json:"targetVolume"`
	IntervalSeconds *float64 `json:"intervalSeconds"`
	Enabled         *bool    `json:"enabled"`
	ApplyNow        bool     `json:"applyNow"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warnw("encode JSON failed", "error", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Infow("http request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
