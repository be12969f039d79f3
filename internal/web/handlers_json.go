package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	open, err := s.positionRepo.ListOpenPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to list open positions", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"open_positions": len(open),
		"active_alerts":  len(s.tracker.ActiveAlerts()),
		"time":           time.Now().UTC(),
	})
}

// positionView is a position snapshot decorated with its live valuation.
type positionView struct {
	ID              string                `json:"id"`
	Pair            string                `json:"pair"`
	Side            domain.Side           `json:"side"`
	EntryPrice      float64               `json:"entry_price"`
	CurrentPrice    float64               `json:"current_price"`
	Leverage        int                   `json:"leverage"`
	MarginAmount    float64               `json:"margin_amount"`
	TakeProfitPrice *float64              `json:"take_profit_price,omitempty"`
	StopLossPrice   *float64              `json:"stop_loss_price,omitempty"`
	Status          domain.PositionStatus `json:"status"`
	CreatedAt       time.Time             `json:"created_at"`
	ClosedAt        *time.Time            `json:"closed_at,omitempty"`
	PnlPct          float64               `json:"pnl_pct"`
	PnlUsd          float64               `json:"pnl_usd"`
}

func (s *Server) positionToView(pos *domain.Position) positionView {
	view := positionView{
		ID:              pos.ID,
		Pair:            pos.Pair,
		Side:            pos.Side,
		EntryPrice:      pos.EntryPrice,
		CurrentPrice:    pos.CurrentPrice,
		Leverage:        pos.Leverage,
		MarginAmount:    pos.MarginAmount,
		TakeProfitPrice: pos.TakeProfitPrice,
		StopLossPrice:   pos.StopLossPrice,
		Status:          pos.Status,
		CreatedAt:       pos.CreatedAt,
		ClosedAt:        pos.ClosedAt,
		PnlPct:          pos.RealizedPnlPct,
		PnlUsd:          pos.RealizedPnlUsd,
	}
	if pos.IsOpen() {
		price := s.tracker.LatestPrice(pos.Pair)
		if price == 0 {
			price = pos.CurrentPrice
		}
		view.CurrentPrice = price
		val := s.valuator.ValuatePosition(pos, price)
		view.PnlPct = val.PnlPct
		view.PnlUsd = val.PnlUsd
	}
	return view
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.positionRepo.ListOpenPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to list positions", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	views := make([]positionView, 0, len(positions))
	for _, pos := range positions {
		views = append(views, s.positionToView(pos))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListClosedPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.positionRepo.ListClosedPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to list closed positions", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	views := make([]positionView, 0, len(positions))
	for _, pos := range positions {
		views = append(views, s.positionToView(pos))
	}
	s.writeJSON(w, http.StatusOK, views)
}

type alertView struct {
	ID          string            `json:"id"`
	PositionID  string            `json:"position_id"`
	Pair        string            `json:"pair"`
	Side        domain.Side       `json:"side"`
	ProgressPct float64           `json:"progress_pct"`
	PnlPct      float64           `json:"pnl_pct"`
	PnlUsd      float64           `json:"pnl_usd"`
	State       domain.AlertState `json:"state"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

func alertToView(record domain.AlertRecord) alertView {
	return alertView{
		ID:          record.ID,
		PositionID:  record.PositionID,
		Pair:        record.Pair,
		Side:        record.Side,
		ProgressPct: record.ProgressPct,
		PnlPct:      record.PnlPct,
		PnlUsd:      record.PnlUsd,
		State:       record.State,
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   record.ExpiresAt,
	}
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	records := s.tracker.ActiveAlerts()
	views := make([]alertView, 0, len(records))
	for _, record := range records {
		views = append(views, alertToView(record))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.alertRepo.ListAlerts(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list alert history", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list alert history")
		return
	}

	views := make([]alertView, 0, len(records))
	for _, record := range records {
		views = append(views, alertToView(*record))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	positionID := mux.Vars(r)["positionID"]
	if err := s.tracker.Dismiss(r.Context(), positionID); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "dismissed"})
}

func (s *Server) handleCloseAlert(w http.ResponseWriter, r *http.Request) {
	positionID := mux.Vars(r)["positionID"]
	closed, err := s.tracker.Act(r.Context(), positionID)
	if err != nil {
		s.logger.Error("Failed to close position via alert",
			zap.String("position_id", positionID), zap.Error(err))
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.positionToView(closed))
}

func (s *Server) handlePeriodStats(w http.ResponseWriter, r *http.Request) {
	period := mux.Vars(r)["period"]

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	trades, err := s.positionRepo.ListClosedPositions(r.Context())
	if err != nil {
		s.logger.Error("Failed to list closed positions", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	var bucket domain.PeriodBucket
	switch period {
	case "day":
		bucket = s.aggregator.ComputeDayStats(trades, date)
	case "month":
		bucket = s.aggregator.ComputeMonthStats(trades, date)
	case "year":
		bucket = s.aggregator.ComputeYearStats(trades, date)
	default:
		s.writeError(w, http.StatusBadRequest, "period must be day, month or year")
		return
	}

	s.writeJSON(w, http.StatusOK, bucket)
}

func (s *Server) handleTargetPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	price, err := strconv.ParseFloat(q.Get("price"), 64)
	if err != nil || price <= 0 {
		s.writeError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}
	pct, err := strconv.ParseFloat(q.Get("pct"), 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "pct must be a number")
		return
	}
	side := domain.Side(q.Get("side"))
	if side != domain.SideLong && side != domain.SideShort {
		s.writeError(w, http.StatusBadRequest, "side must be LONG or SHORT")
		return
	}

	target := s.mapper.MapTarget(price, side, pct)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_price": price,
		"side":          side,
		"pct":           pct,
		"target_price":  target,
	})
}
