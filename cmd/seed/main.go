package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vitos/leverage_dashboard/internal/domain"
	"github.com/vitos/leverage_dashboard/internal/infrastructure/storage"
)

func ptr(v float64) *float64 { return &v }

func main() {
	store, err := storage.NewSQLiteStore("dashboard.db")
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Open BTC long with both targets set so alerts have something to
	// measure against
	long := &domain.Position{
		ID:              uuid.NewString(),
		Pair:            "BTCUSDT",
		Side:            domain.SideLong,
		EntryPrice:      65234.50,
		CurrentPrice:    65234.50,
		Leverage:        10,
		MarginAmount:    100,
		TakeProfitPrice: ptr(71757.95), // +10%
		StopLossPrice:   ptr(61972.78), // -5%
		Status:          domain.StatusActive,
		CreatedAt:       time.Now(),
	}
	if err := store.SavePosition(ctx, long); err != nil {
		log.Fatalf("Failed to save position: %v", err)
	}
	fmt.Printf("Seeded open LONG %s at %.2f (id %s)\n", long.Pair, long.EntryPrice, long.ID)

	// A few closed trades across three days for the period stats
	closes := []struct {
		pnlUsd  float64
		daysAgo int
	}{
		{50, 3},
		{-20, 2},
		{30, 1},
	}
	for _, c := range closes {
		closedAt := time.Now().AddDate(0, 0, -c.daysAgo)
		pos := &domain.Position{
			ID:             uuid.NewString(),
			Pair:           "ETHUSDT",
			Side:           domain.SideShort,
			EntryPrice:     3000,
			CurrentPrice:   3000,
			Leverage:       5,
			MarginAmount:   200,
			Status:         domain.StatusClosed,
			CreatedAt:      closedAt.Add(-6 * time.Hour),
			ClosedAt:       &closedAt,
			RealizedPnlUsd: c.pnlUsd,
			RealizedPnlPct: c.pnlUsd / (200 * 5) * 100,
		}
		if err := store.SavePosition(ctx, pos); err != nil {
			log.Fatalf("Failed to save closed position: %v", err)
		}
		fmt.Printf("Seeded closed trade pnl %.2f closed %s\n", c.pnlUsd, closedAt.Format("2006-01-02"))
	}
}
