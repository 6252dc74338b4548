package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peter-kozarec/rewind/pkg/common"
	"github.com/peter-kozarec/rewind/pkg/ledger"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/utility"
)

// ResultStore looks up the ledger of a finished run. It returns simulation.ErrRunNotFound for
// unknown runs.
type ResultStore interface {
	Results(ctx context.Context, runID uuid.UUID) ([]common.OrderResult, error)
}

// Server exposes finished runs read only.
type Server struct {
	logger *zap.Logger
	store  ResultStore
	router *mux.Router
}

func NewServer(logger *zap.Logger, store ResultStore, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		logger: logger,
		store:  store,
		router: mux.NewRouter(),
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/runs/{run_id}/results", s.handleResults).Methods(http.MethodGet)
	api.HandleFunc("/runs/{run_id}/summary", s.handleSummary).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleResults handles GET /api/v1/runs/{run_id}/results
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	records, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// handleSummary handles GET /api/v1/runs/{run_id}/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, ok := s.lookup(w, r)
	if !ok {
		return
	}

	l := ledger.New("")
	for _, record := range records {
		if _, err := l.Apply(record); err != nil {
			s.logger.Warn("stored ledger does not replay", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "stored ledger is inconsistent")
			return
		}
	}
	respondJSON(w, http.StatusOK, simulation.Summarize(records, l.Position()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) ([]common.OrderResult, bool) {
	runID, err := utility.ParseRunID(mux.Vars(r)["run_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return nil, false
	}

	records, err := s.store.Results(r.Context(), runID)
	if errors.Is(err, simulation.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("unable to load results", zap.Stringer("run_id", runID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to load results")
		return nil, false
	}
	return records, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Runs keeps finished results in memory.
type Runs struct {
	mu   sync.RWMutex
	runs map[uuid.UUID][]common.OrderResult
}

func NewRuns() *Runs {
	return &Runs{runs: make(map[uuid.UUID][]common.OrderResult)}
}

func (r *Runs) Put(result *simulation.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[result.RunID] = result.Records
}

func (r *Runs) Results(_ context.Context, runID uuid.UUID) ([]common.OrderResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records, ok := r.runs[runID]
	if !ok {
		return nil, simulation.ErrRunNotFound
	}
	return records, nil
}
