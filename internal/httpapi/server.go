package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"backtestvault/internal/domain"
	"backtestvault/internal/engine"
	"backtestvault/internal/live"
	"backtestvault/internal/store"
)

// Server serves the run catalog over HTTP.
type Server struct {
	catalog store.BacktestStore
	engine  *engine.Service
	events  *live.Hub
	log     *slog.Logger
}

// NewServer creates a new HTTP API server. A nil events hub disables the
// event stream.
func NewServer(catalog store.BacktestStore, eng *engine.Service, events *live.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{catalog: catalog, engine: eng, events: events, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/backtests", s.handleList)
	mux.HandleFunc("GET /api/backtests/{name}", s.handleDetail)
	mux.HandleFunc("GET /api/backtests/{name}/charts", s.handleCharts)
	mux.HandleFunc("GET /api/backtests/{name}/logs", s.handleLogs)
	mux.HandleFunc("GET /api/backtests/{name}/symbols.csv", s.handleSymbolsCSV)
	mux.HandleFunc("DELETE /api/backtests/{name}", s.handleDelete)
	mux.HandleFunc("GET /api/events", s.handleEvents)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	runs, err := s.catalog.ListBacktests(r.Context())
	if err != nil {
		s.log.Error("listing backtests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backtests")
		return
	}
	out := make([]RunJSON, len(runs))
	for i := range runs {
		out[i] = runToJSON(&runs[i])
	}
	writeJSON(w, out)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	bt, v, ok := s.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, DetailJSON{
		Run:        runToJSON(bt),
		Statistics: v.Statistics,
		Holdings:   holdingsToJSON(v.Holdings),
		Symbols:    symbolsToJSON(v.Symbols),
		Trades:     len(v.Trades),
		LogLines:   v.LogLines,
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	_, v, ok := s.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, chartsToJSON(v.Charts))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	_, v, ok := s.open(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, v.Logs)
}

func (s *Server) handleSymbolsCSV(w http.ResponseWriter, r *http.Request) {
	bt, v, ok := s.open(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bt.Name+"-symbols.csv"))
	if err := store.WriteSymbolsCSV(w, v.Symbols); err != nil {
		s.log.Error("writing symbols csv", "name", bt.Name, "error", err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	bt, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.engine.Delete(r.Context(), bt); err != nil {
		s.log.Error("deleting backtest", "name", bt.Name, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete %s", bt.Name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Backtest, bool) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return nil, false
	}
	bt, err := s.catalog.GetBacktestByName(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("backtest %s not found", name))
		return nil, false
	}
	if err != nil {
		s.log.Error("catalog lookup", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog lookup failed")
		return nil, false
	}
	return bt, true
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) (*domain.Backtest, *engine.View, bool) {
	bt, ok := s.lookup(w, r)
	if !ok {
		return nil, nil, false
	}
	v, err := s.engine.Open(r.Context(), bt)
	if err != nil {
		s.log.Error("opening backtest", "name", bt.Name, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to open %s", bt.Name))
		return nil, nil, false
	}
	return bt, v, true
}

// handleEvents streams catalog events as server-sent events, starting with
// a snapshot of every cataloged run.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotImplemented, "events are not served")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	subID, ch := s.events.Subscribe(256)
	defer s.events.Unsubscribe(subID)

	runs, err := s.catalog.ListBacktests(r.Context())
	if err != nil {
		s.log.Error("listing backtests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backtests")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for i := range runs {
		if err := writeEvent(w, live.NewEvent(live.EventSnapshot, &runs[i])); err != nil {
			return
		}
	}
	flusher.Flush()

	s.log.Info("sse client subscribed", "subID", subID)
	for {
		select {
		case <-r.Context().Done():
			s.log.Info("sse client disconnected", "subID", subID)
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e live.Event) error {
	data, err := json.Marshal(eventToJSON(e))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}
