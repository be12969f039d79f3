package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

const (
	defaultProgressThreshold = 60.0
	defaultAlertTTL          = 30 * time.Second
)

type AlertTrackerConfig struct {
	ProgressThreshold float64       // percent of the way to TP/SL that raises an alert
	AlertTTL          time.Duration // how long an unanswered alert lives
}

// activeAlert pairs a raised record with its cancellable expiry timer.
type activeAlert struct {
	record domain.AlertRecord
	timer  *time.Timer
}

// AlertTracker watches open positions against live prices and raises
// deduplicated, auto-expiring alerts when progress toward a target
// crosses the threshold.
//
// All runtime state (active alerts, suppression set, last prices,
// position cache) is owned by one tracker instance; create one per
// session and discard it on teardown.
type AlertTracker struct {
	repo     domain.PositionRepository
	history  domain.AlertHistoryRepository // optional
	notifier domain.Notifier
	valuator *PositionValuator
	logger   *zap.Logger
	cfg      AlertTrackerConfig

	mu         sync.RWMutex
	lastPrices map[string]float64          // pair -> latest price
	positions  map[string]*domain.Position // position id -> open snapshot
	active     map[string]*activeAlert     // position id -> raised alert
	suppressed map[string]bool             // position id -> muted for the session
}

func NewAlertTracker(
	repo domain.PositionRepository,
	history domain.AlertHistoryRepository,
	notifier domain.Notifier,
	logger *zap.Logger,
	cfg AlertTrackerConfig,
) *AlertTracker {
	if cfg.ProgressThreshold <= 0 {
		cfg.ProgressThreshold = defaultProgressThreshold
	}
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = defaultAlertTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertTracker{
		repo:       repo,
		history:    history,
		notifier:   notifier,
		valuator:   NewPositionValuator(),
		logger:     logger,
		cfg:        cfg,
		lastPrices: make(map[string]float64),
		positions:  make(map[string]*domain.Position),
		active:     make(map[string]*activeAlert),
		suppressed: make(map[string]bool),
	}
}

// LatestPrice returns the last known price for a pair, zero if none seen.
func (t *AlertTracker) LatestPrice(pair string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastPrices[pair]
}

// ActiveAlerts returns the currently raised alerts, oldest first.
func (t *AlertTracker) ActiveAlerts() []domain.AlertRecord {
	t.mu.RLock()
	records := make([]domain.AlertRecord, 0, len(t.active))
	for _, a := range t.active {
		records = append(records, a.record)
	}
	t.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

// RefreshPositions reloads the open-position cache from the repository
// and drops alerts whose position has disappeared.
func (t *AlertTracker) RefreshPositions(ctx context.Context) error {
	positions, err := t.repo.ListOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open positions: %w", err)
	}
	t.setPositions(ctx, positions)
	return nil
}

// ProcessSnapshot re-evaluates every open position against a fresh price
// snapshot. The host calls this on both external triggers: a price-feed
// update and a positions-list refresh.
func (t *AlertTracker) ProcessSnapshot(ctx context.Context, positions []*domain.Position, prices domain.PriceSnapshot) {
	t.setPositions(ctx, positions)

	t.mu.Lock()
	for pair, quote := range prices {
		t.lastPrices[pair] = quote.Price
	}
	t.mu.Unlock()

	for _, pos := range positions {
		if price := t.LatestPrice(pos.Pair); price > 0 {
			t.evaluate(ctx, pos, price)
		}
	}
}

// ProcessTick handles a single price update for a pair, evaluating the
// cached open positions on that pair.
func (t *AlertTracker) ProcessTick(ctx context.Context, pair string, price float64) {
	t.mu.Lock()
	t.lastPrices[pair] = price
	var relevant []*domain.Position
	for _, pos := range t.positions {
		if pos.Pair == pair {
			relevant = append(relevant, pos)
		}
	}
	t.mu.Unlock()

	for _, pos := range relevant {
		t.evaluate(ctx, pos, price)
	}
}

// Dismiss resolves an alert as acknowledged-but-kept-open. The expiry
// timer is cancelled and the position stays muted for the session.
func (t *AlertTracker) Dismiss(ctx context.Context, positionID string) error {
	record, err := t.resolve(positionID, domain.AlertDismissed)
	if err != nil {
		return err
	}
	t.recordHistory(ctx, record)
	t.logger.Info("Alert dismissed",
		zap.String("position_id", positionID),
		zap.String("pair", record.Pair))
	return nil
}

// Act closes the position behind an alert at the latest price and
// resolves the alert. The repository close happens first; if it fails
// the alert stays ALERTED so the user can retry before expiry.
func (t *AlertTracker) Act(ctx context.Context, positionID string) (*domain.Position, error) {
	t.mu.RLock()
	_, ok := t.active[positionID]
	pos := t.positions[positionID]
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no active alert for position %s", positionID)
	}
	if pos == nil {
		fetched, err := t.repo.GetPosition(ctx, positionID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch position %s: %w", positionID, err)
		}
		pos = fetched
	}

	price := t.LatestPrice(pos.Pair)
	if price == 0 {
		price = pos.CurrentPrice
	}
	val := t.valuator.ValuatePosition(pos, price)

	closed, err := t.repo.ClosePosition(ctx, positionID, domain.CloseRequest{
		Price:  price,
		PnlPct: val.PnlPct,
		PnlUsd: val.PnlUsd,
		Status: domain.StatusClosed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to close position %s: %w", positionID, err)
	}

	record, err := t.resolve(positionID, domain.AlertActed)
	if err != nil {
		// The alert raced to expiry between the check above and the
		// repository round-trip. The close already happened, report it.
		t.logger.Warn("Alert resolved concurrently during close",
			zap.String("position_id", positionID), zap.Error(err))
		return closed, nil
	}
	t.recordHistory(ctx, record)

	t.mu.Lock()
	delete(t.positions, positionID)
	t.mu.Unlock()

	t.logger.Info("Alert acted, position closed",
		zap.String("position_id", positionID),
		zap.String("pair", closed.Pair),
		zap.Float64("pnl_usd", val.PnlUsd))
	return closed, nil
}

// setPositions replaces the open-position cache and cancels alerts whose
// position vanished (closed externally without going through Act).
func (t *AlertTracker) setPositions(ctx context.Context, positions []*domain.Position) {
	fresh := make(map[string]*domain.Position, len(positions))
	for _, pos := range positions {
		if pos.IsOpen() {
			fresh[pos.ID] = pos
		}
	}

	t.mu.Lock()
	var orphaned []string
	for id := range t.active {
		if _, ok := fresh[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	t.positions = fresh
	t.mu.Unlock()

	for _, id := range orphaned {
		record, err := t.resolve(id, domain.AlertExpired)
		if err != nil {
			continue
		}
		t.recordHistory(ctx, record)
		t.logger.Info("Alert dropped, position no longer open",
			zap.String("position_id", id))
	}
}

func (t *AlertTracker) evaluate(ctx context.Context, pos *domain.Position, price float64) {
	t.mu.RLock()
	_, alerted := t.active[pos.ID]
	muted := t.suppressed[pos.ID]
	t.mu.RUnlock()

	if alerted || muted || !pos.IsOpen() {
		return
	}

	val := t.valuator.ValuatePosition(pos, price)
	progress := t.targetProgress(pos, val.PnlPct)
	if progress < t.cfg.ProgressThreshold {
		return
	}

	t.raise(ctx, pos, val, progress)
}

// targetProgress computes how far current P/L has travelled toward the
// configured TP (when in profit) or SL (when in loss), as a percentage.
// Missing targets contribute zero, never a phantom 100%.
func (t *AlertTracker) targetProgress(pos *domain.Position, pnlPct float64) float64 {
	if pos.EntryPrice <= 0 {
		return 0
	}

	progress := 0.0
	if pnlPct > 0 && pos.TakeProfitPrice != nil {
		tp := *pos.TakeProfitPrice
		var maxGain float64
		if pos.Side == domain.SideShort {
			maxGain = (pos.EntryPrice - tp) / pos.EntryPrice * 100
		} else {
			maxGain = (tp - pos.EntryPrice) / pos.EntryPrice * 100
		}
		if maxGain > 0 {
			progress = pnlPct / maxGain * 100
		}
	}
	if pnlPct < 0 && pos.StopLossPrice != nil {
		sl := *pos.StopLossPrice
		var maxLoss float64
		if pos.Side == domain.SideShort {
			maxLoss = (pos.EntryPrice - sl) / pos.EntryPrice * 100
		} else {
			maxLoss = (sl - pos.EntryPrice) / pos.EntryPrice * 100
		}
		if maxLoss < 0 {
			if p := pnlPct / maxLoss * 100; p > progress {
				progress = p
			}
		}
	}
	return progress
}

func (t *AlertTracker) raise(ctx context.Context, pos *domain.Position, val Valuation, progress float64) {
	now := time.Now()
	record := domain.AlertRecord{
		ID:          uuid.NewString(),
		PositionID:  pos.ID,
		Pair:        pos.Pair,
		Side:        pos.Side,
		ProgressPct: progress,
		PnlPct:      val.PnlPct,
		PnlUsd:      val.PnlUsd,
		State:       domain.AlertAlerted,
		CreatedAt:   now,
		ExpiresAt:   now.Add(t.cfg.AlertTTL),
	}

	t.mu.Lock()
	if _, exists := t.active[pos.ID]; exists || t.suppressed[pos.ID] {
		// Raced with a concurrent tick for the same position.
		t.mu.Unlock()
		return
	}
	alert := &activeAlert{record: record}
	alert.timer = time.AfterFunc(t.cfg.AlertTTL, func() {
		t.expire(pos.ID)
	})
	t.active[pos.ID] = alert
	t.mu.Unlock()

	t.logger.Info("Threshold alert raised",
		zap.String("position_id", pos.ID),
		zap.String("pair", pos.Pair),
		zap.String("side", string(pos.Side)),
		zap.Float64("progress_pct", progress),
		zap.Float64("pnl_pct", val.PnlPct))

	if t.notifier == nil {
		return
	}

	payload := domain.AlertPayload{
		PositionID:  pos.ID,
		Pair:        pos.Pair,
		Side:        pos.Side,
		Leverage:    pos.Leverage,
		PnlPct:      val.PnlPct,
		PnlUsd:      val.PnlUsd,
		ProgressPct: progress,
	}
	if err := t.notifier.SendAlert(ctx, payload); err != nil {
		// Side-channel failure only. The alert stays raised.
		t.logger.Warn("Failed to deliver alert notification",
			zap.String("position_id", pos.ID), zap.Error(err))
	}
	title := fmt.Sprintf("%s %s near target", pos.Pair, pos.Side)
	body := fmt.Sprintf("%.1f%% of the way to target (P/L %.2f%%)", progress, val.PnlPct)
	if err := t.notifier.SendSystem(ctx, title, body, "alert-"+pos.ID); err != nil {
		t.logger.Warn("Failed to deliver system notification",
			zap.String("position_id", pos.ID), zap.Error(err))
	}
}

func (t *AlertTracker) expire(positionID string) {
	record, err := t.resolve(positionID, domain.AlertExpired)
	if err != nil {
		return
	}
	t.recordHistory(context.Background(), record)
	t.logger.Info("Alert expired",
		zap.String("position_id", positionID),
		zap.String("pair", record.Pair))
}

// resolve transitions an active alert into a terminal state, cancels its
// timer and adds the position to the session suppression set.
func (t *AlertTracker) resolve(positionID string, state domain.AlertState) (domain.AlertRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	alert, ok := t.active[positionID]
	if !ok {
		return domain.AlertRecord{}, fmt.Errorf("no active alert for position %s", positionID)
	}
	if alert.timer != nil {
		alert.timer.Stop()
	}
	delete(t.active, positionID)
	t.suppressed[positionID] = true

	alert.record.State = state
	return alert.record, nil
}

func (t *AlertTracker) recordHistory(ctx context.Context, record domain.AlertRecord) {
	if t.history == nil {
		return
	}
	if err := t.history.SaveAlert(ctx, &record); err != nil {
		t.logger.Warn("Failed to save alert history",
			zap.String("position_id", record.PositionID), zap.Error(err))
	}
}
