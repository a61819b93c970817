// Package httpapi serves the read API over the equipment store: equipment
// listings with aggregate totals, per-equipment usage logs, fleet-wide
// analytics, and single usage-log creation.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

// Server exposes the read API.
type Server struct {
	store  *store.Store
	logger *slog.Logger
}

// NewServer creates a Server. A nil logger falls back to slog.Default.
func NewServer(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, logger: logger}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/equipment", s.handleListEquipment)
	r.Get("/equipment/{id}", s.handleGetEquipment)
	r.Get("/analytics/summary", s.handleSummary)
	r.Post("/usage_logs", s.handleCreateUsageLog)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Equipment Tracker API!",
		"status":  "running",
	})
}

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	aggs, err := s.store.EquipmentAggregates(r.Context())
	if err != nil {
		s.internalError(w, "list equipment", err)
		return
	}
	if aggs == nil {
		aggs = []store.EquipmentAggregate{}
	}
	writeJSON(w, http.StatusOK, aggs)
}

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	eq, err := s.store.GetEquipment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Equipment not found")
		return
	}
	if err != nil {
		s.internalError(w, "get equipment", err)
		return
	}

	logs, err := s.store.ListUsageLogs(r.Context(), id)
	if err != nil {
		s.internalError(w, "list usage logs", err)
		return
	}
	if logs == nil {
		logs = []store.StoredUsageLog{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"equipment":  eq,
		"usage_logs": logs,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.SummaryTotals(r.Context())
	if err != nil {
		s.internalError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

type createLogRequest struct {
	EquipmentID int64           `json:"equipment_id"`
	Date        string          `json:"date"`
	Hours       decimal.Decimal `json:"hours"`
	Cost        decimal.Decimal `json:"cost"`
	Revenue     decimal.Decimal `json:"revenue"`
}

func (s *Server) handleCreateUsageLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Hours.IsNegative() || req.Cost.IsNegative() || req.Revenue.IsNegative() {
		writeError(w, http.StatusBadRequest, "hours, cost and revenue must be non-negative")
		return
	}

	log, err := s.store.CreateUsageLog(r.Context(), req.EquipmentID, req.Date, req.Hours, req.Cost, req.Revenue)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Equipment not found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "usage log already exists")
	case err != nil:
		s.internalError(w, "create usage log", err)
	default:
		writeJSON(w, http.StatusCreated, log)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
