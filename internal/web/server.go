package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vitos/leverage_dashboard/internal/domain"
	"github.com/vitos/leverage_dashboard/internal/usecase"
)

type Server struct {
	router       *mux.Router
	server       *http.Server
	positionRepo domain.PositionRepository
	alertRepo    domain.AlertHistoryRepository
	tracker      *usecase.AlertTracker
	aggregator   *usecase.PeriodAggregator
	valuator     *usecase.PositionValuator
	mapper       *usecase.TargetPriceMapper
	logger       *zap.Logger
}

func NewServer(
	port int,
	positionRepo domain.PositionRepository,
	alertRepo domain.AlertHistoryRepository,
	tracker *usecase.AlertTracker,
	aggregator *usecase.PeriodAggregator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		positionRepo: positionRepo,
		alertRepo:    alertRepo,
		tracker:      tracker,
		aggregator:   aggregator,
		valuator:     usecase.NewPositionValuator(),
		mapper:       usecase.NewTargetPriceMapper(),
		logger:       logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Positions
	api.HandleFunc("/positions", s.handleListPositions).Methods("GET")
	api.HandleFunc("/positions/closed", s.handleListClosedPositions).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", s.handleActiveAlerts).Methods("GET")
	api.HandleFunc("/alerts/history", s.handleAlertHistory).Methods("GET")
	api.HandleFunc("/alerts/{positionID}/dismiss", s.handleDismissAlert).Methods("POST")
	api.HandleFunc("/alerts/{positionID}/close", s.handleCloseAlert).Methods("POST")

	// Period stats
	api.HandleFunc("/stats/{period}", s.handlePeriodStats).Methods("GET")

	// Target price preview
	api.HandleFunc("/target-price", s.handleTargetPrice).Methods("GET")
}

func (s *Server) Start() error {
	s.logger.Info("Dashboard API listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
