package usecase

import "github.com/vitos/leverage_dashboard/internal/domain"

// Valuation is the unrealized P/L of a position at a given price.
type Valuation struct {
	PnlPct float64
	PnlUsd float64
}

type PositionValuator struct{}

func NewPositionValuator() *PositionValuator {
	return &PositionValuator{}
}

// Valuate computes unrealized P/L from entry/current price, side,
// leverage and margin. Total over its domain: a non-positive entry price
// yields a zero valuation, missing leverage/margin fall back to 1 and 0.
func (v *PositionValuator) Valuate(entryPrice, currentPrice float64, side domain.Side, leverage int, marginAmount float64) Valuation {
	if entryPrice <= 0 {
		return Valuation{}
	}
	if leverage < 1 {
		leverage = 1
	}
	if marginAmount < 0 {
		marginAmount = 0
	}

	var pnlPct float64
	if side == domain.SideShort {
		pnlPct = (entryPrice - currentPrice) / entryPrice * 100
	} else {
		pnlPct = (currentPrice - entryPrice) / entryPrice * 100
	}

	return Valuation{
		PnlPct: pnlPct,
		PnlUsd: pnlPct / 100 * marginAmount * float64(leverage),
	}
}

// ValuatePosition is Valuate applied to a position snapshot at the given
// market price.
func (v *PositionValuator) ValuatePosition(pos *domain.Position, currentPrice float64) Valuation {
	return v.Valuate(pos.EntryPrice, currentPrice, pos.Side, pos.Leverage, pos.MarginAmount)
}
