// Package http serves the monitoring and edit surface: health, prometheus
// metrics, read-only forecast snapshots and the user-edit endpoints.
package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/persistence"
	"github.com/fundscope/navcast/internal/snapshotcache"
	"github.com/fundscope/navcast/internal/store"
)

// Server exposes the monitor endpoints. Forecast responses come from the
// store's published snapshot table, never the live records the engine is
// mutating.
type Server struct {
	store    *store.Store
	registry *prometheus.Registry
	edits    *persistence.EditService
	lastRun  func() time.Time
	log      zerolog.Logger
}

// NewServer builds the monitor server. edits may be nil, which disables
// the write endpoints; lastRun may be nil when no calculation loop runs
// in this process.
func NewServer(st *store.Store, registry *prometheus.Registry, edits *persistence.EditService, lastRun func() time.Time, log zerolog.Logger) *Server {
	return &Server{
		store:    st,
		registry: registry,
		edits:    edits,
		lastRun:  lastRun,
		log:      log.With().Str("component", "monitor").Logger(),
	}
}

// Router wires the endpoint set.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/forecasts", s.handleForecasts).Methods(http.MethodGet)
	r.HandleFunc("/forecasts/{ticker}", s.handleForecast).Methods(http.MethodGet)

	if s.edits != nil {
		r.HandleFunc("/securities/{ticker}/nav-override", s.handleNavOverride).Methods(http.MethodPut)
		r.HandleFunc("/securities/{ticker}/nav-adjustment", s.handleNavAdjustment).Methods(http.MethodPut)
		r.HandleFunc("/securities/{ticker}/formulas/{kind}", s.handleFormula).Methods(http.MethodPut)
		r.HandleFunc("/offers/rights/{ticker}", s.handleRightsOffer).Methods(http.MethodPut)
		r.HandleFunc("/offers/rights/{ticker}", s.handleClearRightsOffer).Methods(http.MethodDelete)
		r.HandleFunc("/offers/tender/{ticker}", s.handleTenderOffer).Methods(http.MethodPut)
		r.HandleFunc("/offers/tender/{ticker}", s.handleClearTenderOffer).Methods(http.MethodDelete)
	}
	return r
}

// ListenAndServe runs the server until it fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("monitor server listening")
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]interface{}{
		"status":     "ok",
		"securities": s.store.Securities.Len(),
		"forecasts":  s.store.Snapshots.Len(),
		"timestamp":  time.Now().UTC(),
	}
	if s.lastRun != nil {
		if t := s.lastRun(); !t.IsZero() {
			body["last_run"] = t.UTC()
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleForecasts(w http.ResponseWriter, _ *http.Request) {
	var out []snapshotcache.Snapshot
	s.store.Snapshots.ForEach(func(_ string, f *domain.Forecast) {
		out = append(out, snapshotcache.FromForecast(f))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	f, ok := s.store.Snapshots.Get(ticker)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown ticker " + ticker})
		return
	}
	writeJSON(w, http.StatusOK, snapshotcache.FromForecast(f))
}

// valueBody carries an optional float edit; a null value clears the field.
type valueBody struct {
	Value *float64 `json:"value"`
}

func (s *Server) handleNavOverride(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.edits.SetUserNavOverride(r.Context(), ticker, body.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNavAdjustment(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.edits.SetNavAdjustment(r.Context(), ticker, body.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFormula(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := domain.ProxyKind(vars["kind"])
	switch kind {
	case domain.ProxyPrimary, domain.ProxyAlt, domain.ProxyPortFI:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown formula kind " + vars["kind"]})
		return
	}
	var body struct {
		Formula string `json:"formula"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.edits.SetProxyFormula(r.Context(), vars["ticker"], kind, body.Formula); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRightsOffer(w http.ResponseWriter, r *http.Request) {
	var offer domain.RightsOffer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	offer.Ticker = mux.Vars(r)["ticker"]
	if err := s.edits.SetRightsOffer(r.Context(), offer); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearRightsOffer(w http.ResponseWriter, r *http.Request) {
	if err := s.edits.ClearRightsOffer(r.Context(), mux.Vars(r)["ticker"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTenderOffer(w http.ResponseWriter, r *http.Request) {
	var offer domain.TenderOffer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	offer.Ticker = mux.Vars(r)["ticker"]
	if err := s.edits.SetTenderOffer(r.Context(), offer); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearTenderOffer(w http.ResponseWriter, r *http.Request) {
	if err := s.edits.ClearTenderOffer(r.Context(), mux.Vars(r)["ticker"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("edit request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
