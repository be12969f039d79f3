package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/leverage_dashboard/internal/infrastructure/logger"
	"github.com/vitos/leverage_dashboard/internal/infrastructure/notify"
	"github.com/vitos/leverage_dashboard/internal/infrastructure/pricefeed"
	"github.com/vitos/leverage_dashboard/internal/infrastructure/storage"
	"github.com/vitos/leverage_dashboard/internal/usecase"
	"github.com/vitos/leverage_dashboard/internal/web"
)

type Config struct {
	Feed struct {
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"feed"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Account struct {
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"account"`
	Alerts struct {
		ProgressThreshold float64 `yaml:"progress_threshold"`
		TTLSeconds        int     `yaml:"ttl_seconds"`
	} `yaml:"alerts"`
	Polling struct {
		PositionsReloadMs int `yaml:"positions_reload_ms"`
	} `yaml:"polling"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// Local overrides for development, ignored when absent
	_ = godotenv.Load()

	configPath := os.Getenv("DASHBOARD_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// 1. Load Config
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "dashboard.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Price Feed
	feed := pricefeed.NewBybitFeed(cfg.Feed.RESTEndpoint, cfg.Feed.WSEndpoint, log)
	defer feed.Close()

	// 5. Init Services
	notifier := notify.NewLogNotifier(log)
	tracker := usecase.NewAlertTracker(store, store, notifier, log, usecase.AlertTrackerConfig{
		ProgressThreshold: cfg.Alerts.ProgressThreshold,
		AlertTTL:          time.Duration(cfg.Alerts.TTLSeconds) * time.Second,
	})
	aggregator := usecase.NewPeriodAggregator(cfg.Account.InitialBalance)

	if err := tracker.RefreshPositions(context.Background()); err != nil {
		log.Error("Failed to load open positions", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 6. Connect ticks to the tracker
	feed.OnPriceUpdate(func(pair string, price float64) {
		tracker.ProcessTick(context.Background(), pair, price)
	})

	// Positions reload loop: refresh the cache and subscribe new pairs
	reloadMs := cfg.Polling.PositionsReloadMs
	if reloadMs == 0 {
		reloadMs = 5000
	}
	go func() {
		ticker := time.NewTicker(time.Duration(reloadMs) * time.Millisecond)
		defer ticker.Stop()

		activePairs := make(map[string]bool)

		for {
			ctx := context.Background()

			if err := tracker.RefreshPositions(ctx); err != nil {
				log.Error("Failed to refresh positions", zap.Error(err))
			}

			positions, err := store.ListOpenPositions(ctx)
			if err != nil {
				log.Error("Failed to list open positions", zap.Error(err))
			} else {
				var toSubscribe []string
				for _, pos := range positions {
					if !activePairs[pos.Pair] {
						toSubscribe = append(toSubscribe, pos.Pair)
						activePairs[pos.Pair] = true
					}
				}

				if len(toSubscribe) > 0 {
					log.Info("Subscribing to new pairs", zap.Strings("pairs", toSubscribe))
					for _, pair := range toSubscribe {
						if _, err := feed.FetchPrice(ctx, pair); err != nil {
							log.Warn("Failed to prime price", zap.String("pair", pair), zap.Error(err))
						}
					}
					if err := feed.Subscribe(toSubscribe); err != nil {
						log.Error("Failed to subscribe", zap.Error(err))
					}
				}
			}

			select {
			case <-ticker.C:
				continue
			case <-stop:
				return
			}
		}
	}()

	// 7. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, store, store, tracker, aggregator, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 8. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}
