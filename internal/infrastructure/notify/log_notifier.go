package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

// LogNotifier renders alerts into the structured log. It stands in for a
// real display channel when none is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendAlert(ctx context.Context, payload domain.AlertPayload) error {
	n.logger.Info("ALERT",
		zap.String("position_id", payload.PositionID),
		zap.String("pair", payload.Pair),
		zap.String("side", string(payload.Side)),
		zap.Int("leverage", payload.Leverage),
		zap.Float64("pnl_pct", payload.PnlPct),
		zap.Float64("pnl_usd", payload.PnlUsd),
		zap.Float64("progress_pct", payload.ProgressPct))
	return nil
}

func (n *LogNotifier) SendSystem(ctx context.Context, title, body, tag string) error {
	n.logger.Info("NOTIFY",
		zap.String("title", title),
		zap.String("body", body),
		zap.String("tag", tag))
	return nil
}
