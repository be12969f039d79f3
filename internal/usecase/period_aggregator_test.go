package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/leverage_dashboard/internal/domain"
	"github.com/vitos/leverage_dashboard/internal/usecase"
)

func closedTrade(id string, pnlUsd float64, closedAt time.Time) *domain.Position {
	return &domain.Position{
		ID:             id,
		Pair:           "BTCUSDT",
		Side:           domain.SideLong,
		EntryPrice:     100,
		Status:         domain.StatusClosed,
		CreatedAt:      closedAt.Add(-2 * time.Hour),
		ClosedAt:       &closedAt,
		RealizedPnlUsd: pnlUsd,
	}
}

func TestPeriodAggregator_DayChaining(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	// Noon closes so the -3h adjustment stays inside the same day.
	day1 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	trades := []*domain.Position{
		closedTrade("t1", 50, day1),
		closedTrade("t2", -20, day2),
		closedTrade("t3", 30, day3),
	}

	b1 := agg.ComputeDayStats(trades, day1)
	assert.InDelta(t, 1000, b1.StartingBalance, 1e-9)
	assert.InDelta(t, 1050, b1.EndingBalance, 1e-9)
	assert.InDelta(t, 5.0, b1.PnlPct, 1e-9)
	assert.Equal(t, 1, b1.Wins)
	assert.Equal(t, 0, b1.Losses)
	assert.Equal(t, []string{"t1"}, b1.TradeIDs)

	b2 := agg.ComputeDayStats(trades, day2)
	assert.InDelta(t, 1050, b2.StartingBalance, 1e-9)
	assert.InDelta(t, 1030, b2.EndingBalance, 1e-9)
	assert.InDelta(t, -1.905, b2.PnlPct, 0.001)
	assert.Equal(t, 0, b2.Wins)
	assert.Equal(t, 1, b2.Losses)

	b3 := agg.ComputeDayStats(trades, day3)
	assert.InDelta(t, 1030, b3.StartingBalance, 1e-9)
	assert.InDelta(t, 1060, b3.EndingBalance, 1e-9)
	assert.InDelta(t, 2.913, b3.PnlPct, 0.001)
}

func TestPeriodAggregator_MonthAgainstInitialBalance(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	day1 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	trades := []*domain.Position{
		closedTrade("t1", 50, day1),
		closedTrade("t2", -20, day1.AddDate(0, 0, 1)),
		closedTrade("t3", 30, day1.AddDate(0, 0, 2)),
	}

	month := agg.ComputeMonthStats(trades, day1)
	assert.InDelta(t, 60, month.PnlUsd, 1e-9)
	// Month percentage runs against the fixed initial balance.
	assert.InDelta(t, 6.0, month.PnlPct, 1e-9)
	assert.Equal(t, 2, month.Wins)
	assert.Equal(t, 1, month.Losses)
	require.Len(t, month.TradeIDs, 3)

	year := agg.ComputeYearStats(trades, day1)
	assert.InDelta(t, 60, year.PnlUsd, 1e-9)
	assert.InDelta(t, 6.0, year.PnlPct, 1e-9)
}

func TestPeriodAggregator_AdjustedInstantShiftsEarlyCloses(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	// Closed 01:00 June 3rd: adjusted instant is 22:00 June 2nd.
	early := closedTrade("t1", 40, time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC))
	trades := []*domain.Position{early}

	june2 := agg.ComputeDayStats(trades, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 40, june2.PnlUsd, 1e-9)

	june3 := agg.ComputeDayStats(trades, time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC))
	assert.Zero(t, june3.PnlUsd)
	assert.InDelta(t, 1040, june3.StartingBalance, 1e-9)
}

func TestPeriodAggregator_TPHitBucketsByCreation(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	created := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	closedAt := created.AddDate(0, 0, 3)
	tpHit := &domain.Position{
		ID:             "t1",
		Pair:           "ETHUSDT",
		Side:           domain.SideShort,
		EntryPrice:     3000,
		Status:         domain.StatusTPHit,
		CreatedAt:      created,
		ClosedAt:       &closedAt,
		RealizedPnlUsd: 25,
	}

	// Only the creation day sees the trade.
	bucket := agg.ComputeDayStats([]*domain.Position{tpHit}, created)
	assert.InDelta(t, 25, bucket.PnlUsd, 1e-9)

	later := agg.ComputeDayStats([]*domain.Position{tpHit}, closedAt)
	assert.Zero(t, later.PnlUsd)
}

func TestPeriodAggregator_EmptyWindow(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	bucket := agg.ComputeDayStats(nil, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, 1000, bucket.StartingBalance, 1e-9)
	assert.InDelta(t, 1000, bucket.EndingBalance, 1e-9)
	assert.Zero(t, bucket.PnlUsd)
	assert.Zero(t, bucket.PnlPct)
	assert.Zero(t, bucket.Wins)
	assert.Zero(t, bucket.Losses)
	assert.Empty(t, bucket.TradeIDs)
}

func TestPeriodAggregator_OpenPositionsIgnored(t *testing.T) {
	agg := usecase.NewPeriodAggregator(1000)

	day := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	open := &domain.Position{
		ID:         "o1",
		Status:     domain.StatusActive,
		CreatedAt:  day,
		EntryPrice: 100,
	}
	trades := []*domain.Position{open, closedTrade("t1", 10, day)}

	bucket := agg.ComputeDayStats(trades, day)
	assert.InDelta(t, 10, bucket.PnlUsd, 1e-9)
	assert.Equal(t, []string{"t1"}, bucket.TradeIDs)
}

func TestPeriodAggregator_ZeroInitialBalancePct(t *testing.T) {
	agg := usecase.NewPeriodAggregator(0)

	day := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	trades := []*domain.Position{closedTrade("t1", 10, day)}

	bucket := agg.ComputeDayStats(trades, day)
	assert.InDelta(t, 10, bucket.PnlUsd, 1e-9)
	// No meaningful base: percentage stays zero instead of dividing by zero.
	assert.Zero(t, bucket.PnlPct)
}
