package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/leverage_dashboard/internal/domain"
	"github.com/vitos/leverage_dashboard/internal/infrastructure/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func tpPtr(v float64) *float64 { return &v }

func TestSQLiteStore_PositionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pos := &domain.Position{
		ID:              "pos-1",
		Pair:            "BTCUSDT",
		Side:            domain.SideLong,
		EntryPrice:      65234.50,
		CurrentPrice:    65234.50,
		Leverage:        10,
		MarginAmount:    100,
		TakeProfitPrice: tpPtr(70000),
		Status:          domain.StatusActive,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SavePosition(ctx, pos))

	got, err := store.GetPosition(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, pos.Pair, got.Pair)
	assert.Equal(t, pos.Side, got.Side)
	require.NotNil(t, got.TakeProfitPrice)
	assert.InDelta(t, 70000, *got.TakeProfitPrice, 1e-9)
	assert.Nil(t, got.StopLossPrice)
	assert.Nil(t, got.ClosedAt)

	open, err := store.ListOpenPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestSQLiteStore_ClosePositionTransition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pos := &domain.Position{
		ID:         "pos-1",
		Pair:       "BTCUSDT",
		Side:       domain.SideLong,
		EntryPrice: 100,
		Leverage:   5,
		Status:     domain.StatusActive,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.SavePosition(ctx, pos))

	closed, err := store.ClosePosition(ctx, "pos-1", domain.CloseRequest{
		Price:  106.5,
		PnlPct: 6.5,
		PnlUsd: 32.5,
		Status: domain.StatusClosed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)
	assert.InDelta(t, 6.5, closed.RealizedPnlPct, 1e-9)
	assert.InDelta(t, 32.5, closed.RealizedPnlUsd, 1e-9)
	assert.NotNil(t, closed.ClosedAt)

	// Closing twice fails: the position is no longer open.
	_, err = store.ClosePosition(ctx, "pos-1", domain.CloseRequest{Price: 107})
	assert.Error(t, err)

	open, err := store.ListOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	closedList, err := store.ListClosedPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, closedList, 1)
}

func TestSQLiteStore_AlertHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	record := &domain.AlertRecord{
		ID:          "alert-1",
		PositionID:  "pos-1",
		Pair:        "ETHUSDT",
		Side:        domain.SideShort,
		ProgressPct: 65,
		PnlPct:      6.5,
		PnlUsd:      65,
		State:       domain.AlertDismissed,
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Second),
	}
	require.NoError(t, store.SaveAlert(ctx, record))

	records, err := store.ListAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.AlertDismissed, records[0].State)
	assert.InDelta(t, 65, records[0].ProgressPct, 1e-9)
}
