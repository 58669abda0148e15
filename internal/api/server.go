// Package api serves the simulation over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints mutate the model; when an admin key is configured they
// require a bearer token.
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/landlease/internal/engine"
	"github.com/talgya/landlease/internal/persistence"
	"github.com/talgya/landlease/internal/scenario"
)

// maxStepsPerRequest caps how far one POST /step may advance the model.
const maxStepsPerRequest = 10000

// Server owns one simulation session. There is no process-wide model:
// every Server carries its own, guarded by a mutex so HTTP callers never
// step the pipeline concurrently.
type Server struct {
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POSTs open (dev mode).
	DB       *persistence.DB

	mu         sync.Mutex
	model      *engine.Model
	scenarioID string // preset id of the live model, "" for custom params
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "runs_db", s.DB != nil)

	go func() {
		handler := corsMiddleware(s.routes())
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// routes builds the endpoint mux (separate from Start for tests).
func (s *Server) routes() *http.ServeMux {
	mutateLimiter := NewRateLimiter(240, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/scenarios", s.handleScenarios)
	mux.HandleFunc("/api/v1/defaults", s.handleDefaults)
	mux.HandleFunc("/api/v1/parcel/", s.handleParcel)
	mux.HandleFunc("/api/v1/export/csv", s.handleExportCSV)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunDetail)

	// Mutating endpoints (POST, bearer token when configured).
	mux.HandleFunc("/api/v1/init", RateLimitMiddleware(mutateLimiter, s.adminOnly(s.handleInit)))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/step", RateLimitMiddleware(mutateLimiter, s.adminOnly(s.handleStep)))
	mux.HandleFunc("/api/v1/scenario", s.adminOnly(s.handleScenario))

	return mux
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires a bearer token on POST requests when an admin key is
// configured. With no key the endpoint stays open — single-user dev mode.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// getModel returns the live model, constructing the default one on first
// touch. Caller must hold s.mu.
func (s *Server) getModel() *engine.Model {
	if s.model == nil {
		m, err := engine.NewModel(engine.DefaultParams())
		if err != nil {
			// Defaults always validate.
			panic(err)
		}
		s.model = m
	}
	return s.model
}

// saveRunIfWorthwhile archives the live model before it is replaced, if it
// has completed at least one round and a store is attached.
func (s *Server) saveRunIfWorthwhile() {
	if s.DB == nil || s.model == nil || s.model.Round == 0 {
		return
	}
	id := s.scenarioID
	if id == "" {
		id = "custom"
	}
	rec := persistence.NewRunRecord(id, scenario.TitleFor(s.scenarioID), s.model)
	if err := s.DB.SaveRun(rec); err != nil {
		slog.Error("run save failed", "error", err)
	}
}

// resetModel archives the current run and installs a fresh model.
// Caller must hold s.mu.
func (s *Server) resetModel(p engine.Params, scenarioID string) (*engine.Model, error) {
	m, err := engine.NewModel(p)
	if err != nil {
		return nil, err
	}
	s.saveRunIfWorthwhile()
	s.model = m
	s.scenarioID = scenarioID
	return m, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeParams reads request params layered over the defaults: fields the
// body omits keep their default values; an empty body means all defaults.
func decodeParams(r *http.Request) (engine.Params, error) {
	p := engine.DefaultParams()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, err
	}
	return p, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.getModel()

	writeJSON(w, map[string]any{
		"name":     "landlease",
		"round":    m.Round,
		"scenario": s.scenarioID,
		"seed":     m.Seed,
		"housed":   len(m.Housed),
		"unhoused": len(m.Unhoused),
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	p, err := decodeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.resetModel(p, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"status": "initialized", "state": m.State()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p, err := decodeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.resetModel(p, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"status": "reset", "state": m.State()})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Steps int `json:"steps"`
	}{Steps: 1}
	// Empty body means one step.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Steps < 1 {
		req.Steps = 1
	}
	if req.Steps > maxStepsPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("steps must be <= %d", maxStepsPerRequest))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.getModel()
	m.StepN(req.Steps)
	writeJSON(w, m.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.getModel().State())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.getModel().HistorySeries())
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	req := struct {
		ID string `json:"id"`
	}{ID: "balanced"}
	_ = json.NewDecoder(r.Body).Decode(&req)

	sc, err := scenario.Lookup(req.ID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":     err.Error(),
			"available": scenario.Names(),
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.resetModel(sc.Params, sc.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"scenario":    sc.ID,
		"title":       sc.Title,
		"description": sc.Description,
		"state":       m.State(),
	})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, scenario.All)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, engine.DefaultParams())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	h := s.getModel().HistorySeries()
	s.mu.Unlock()

	if h.Len() == 0 {
		writeError(w, http.StatusBadRequest, "no data yet — run some steps first")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=landlease_timeseries.csv")
	cw := csv.NewWriter(w)
	cw.WriteAll(h.CSVRecords(4))
	cw.Flush()
}

func (s *Server) handleParcel(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/parcel/")
	idx, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parcel id must be an integer 0-99")
		return
	}

	s.mu.Lock()
	detail, err := s.getModel().ParcelDetail(idx)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not available")
		return
	}
	runs, err := s.DB.ListRuns()
	if err != nil {
		slog.Error("run listing failed", "error", err)
		writeJSON(w, []persistence.RunSummary{})
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not available")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	run, err := s.DB.GetRun(id)
	if errors.Is(err, persistence.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		slog.Error("run fetch failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "run fetch failed")
		return
	}
	writeJSON(w, run)
}

// SaveCurrentRun archives the live model (shutdown hook).
func (s *Server) SaveCurrentRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveRunIfWorthwhile()
}
