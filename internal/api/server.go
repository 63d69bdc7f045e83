// Package api implements the scanner's admin HTTP surface: triggering
// scans, reporting scan status, and health/readiness probes. Grounded on
// the teacher's internal/api/v1.Server mux-registration and
// writeJSON/writeError conventions.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kyoo-project/scanner/internal/scanner"
)

// ScanStatus reports the outcome of the last triggered scan.
type ScanStatus struct {
	Running   bool      `json:"running"`
	LastStart time.Time `json:"lastStart,omitempty"`
	LastEnd   time.Time `json:"lastEnd,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Server is the scanner's admin HTTP API.
type Server struct {
	scanner *scanner.Scanner
	auth    *Authenticator
	log     *slog.Logger

	mu     sync.Mutex
	status ScanStatus
}

func New(s *scanner.Scanner, auth *Authenticator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{scanner: s, auth: auth, log: log.With("component", "api")}
}

// RegisterRoutes wires the admin surface onto mux (spec.md §5).
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.HandleFunc("PUT /scan", s.requireAuth(s.triggerScan))
	mux.HandleFunc("GET /scan", s.requireAuth(s.scanStatus))
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next(w, r)
			return
		}
		if _, err := s.auth.Authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next(w, r)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeError(w, http.StatusNotImplemented, "NOT_MASTER", "this replica did not win the scan election")
		return
	}
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "SCAN_IN_PROGRESS", "a scan is already running")
		return
	}
	s.status = ScanStatus{Running: true, LastStart: time.Now()}
	s.mu.Unlock()

	removeDeleted := r.URL.Query().Get("removeDeleted") != "false"

	go func() {
		err := s.scanner.Scan(context.Background(), removeDeleted)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.status.Running = false
		s.status.LastEnd = time.Now()
		if err != nil {
			s.status.LastError = err.Error()
			s.log.Error("scan failed", "error", err)
		} else {
			s.status.LastError = ""
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) scanStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
