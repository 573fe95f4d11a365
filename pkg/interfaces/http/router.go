// Package http serves a read-only JSON view of the plan for dashboards.
// Handlers read the store on every request and never write to it.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vsinha/quiltplan/pkg/application/services/scheduling"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/metrics"
	"github.com/vsinha/quiltplan/pkg/interfaces/cli/output"
)

// Server holds the handler dependencies
type Server struct {
	planner *scheduling.Planner
	metrics *metrics.Collector
	unit    entities.PeriodUnit
	logger  *slog.Logger
}

// NewServer creates a server; collector may be nil, which disables /metrics
func NewServer(planner *scheduling.Planner, collector *metrics.Collector, unit entities.PeriodUnit, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{planner: planner, metrics: collector, unit: unit, logger: logger}
}

// Router builds the chi router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/overview", s.handleOverview)
	r.Get("/projection", s.handleProjection)
	r.Get("/schedule/{period}", s.handleSchedule)
	r.Get("/stock", s.handleStockHistory)
	r.Get("/stock/chart.svg", s.handleStockChart)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

type overviewResponse struct {
	Label          string                         `json:"label"`
	Today          entities.Period                `json:"today"`
	Stock          entities.StockSnapshot         `json:"stock"`
	Finished       entities.FinishedGoodsSnapshot `json:"finished"`
	TodayDemand    *entities.DemandRecord         `json:"today_demand,omitempty"`
	TomorrowDemand *entities.DemandRecord         `json:"tomorrow_demand,omitempty"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stock, err := s.planner.LatestStock(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	overview, err := s.planner.Overview(ctx, stock.Period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SetCurrentPeriod(overview.Today)
		s.metrics.SetStock(overview.Stock.Materials)
		s.metrics.SetFinished(overview.Finished.Units)
	}
	writeJSON(w, http.StatusOK, overviewResponse{
		Label:          s.unit.Label(overview.Today),
		Today:          overview.Today,
		Stock:          overview.Stock,
		Finished:       overview.Finished,
		TodayDemand:    overview.TodayDemand,
		TomorrowDemand: overview.TomorrowDemand,
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stock, err := s.planner.LatestStock(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	projection, err := s.planner.Project(ctx, stock.Period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

// handleSchedule plans period against the finished goods recorded for the period before it
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "period"))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period must be a non-negative integer"})
		return
	}
	period := entities.Period(n)

	var onHand entities.VariantQuantities
	if period > 0 {
		finished, err := s.planner.LatestFinished(r.Context(), period-1)
		if err != nil {
			s.writeError(w, err)
			return
		}
		onHand = finished.Units
	}

	schedule, err := s.planner.Schedule(r.Context(), period, onHand)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.planner.StockHistory(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if history == nil {
		history = []entities.StockSnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request) {
	history, err := s.planner.StockHistory(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg := output.NewStockChart(s.unit, len(history)).GenerateSVG(history)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var history *planning.InsufficientHistoryError
	switch {
	case errors.As(err, &history):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": err.Error(),
			"have":  history.Have,
			"need":  history.Need,
		})
	case errors.Is(err, repositories.ErrNoSnapshot):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stock recorded yet"})
	case errors.Is(err, repositories.ErrStoreUnavailable):
		s.logger.Warn("store unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
