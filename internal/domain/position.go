package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

type PositionStatus string

const (
	StatusActive PositionStatus = "ACTIVE"
	StatusClosed PositionStatus = "CLOSED"
	StatusTPHit  PositionStatus = "TP_HIT"
	StatusSLHit  PositionStatus = "SL_HIT"
)

// Position represents a leveraged position tracked by the dashboard.
// TakeProfitPrice and StopLossPrice are nil when no target is configured;
// a zero target would otherwise read as a spurious 100%+ progress.
type Position struct {
	ID              string
	Pair            string
	Side            Side
	EntryPrice      float64
	CurrentPrice    float64
	Leverage        int
	MarginAmount    float64
	TakeProfitPrice *float64
	StopLossPrice   *float64
	Status          PositionStatus
	CreatedAt       time.Time
	ClosedAt        *time.Time
	RealizedPnlUsd  float64
	RealizedPnlPct  float64
}

// IsOpen reports whether the position is still live.
func (p *Position) IsOpen() bool {
	return p.Status == StatusActive
}

// CloseRequest carries the realized values the repository should persist
// when a position is closed through the alert "act" path.
type CloseRequest struct {
	Price  float64
	PnlPct float64
	PnlUsd float64
	Status PositionStatus
}
