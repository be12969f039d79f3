package usecase

import (
	"time"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

// closeInstantOffset shifts close timestamps into the dashboard's local
// bookkeeping day. Applied uniformly as policy, not derived from zones.
const closeInstantOffset = -3 * time.Hour

// PeriodAggregator buckets closed trades into calendar windows.
//
// Day buckets chain: a day's starting balance is the initial balance plus
// all realized P/L before that day. Month and year percentages are
// computed against the fixed initial balance instead, matching the
// dashboard's historical behavior.
type PeriodAggregator struct {
	initialBalance float64
}

func NewPeriodAggregator(initialBalance float64) *PeriodAggregator {
	return &PeriodAggregator{initialBalance: initialBalance}
}

// AdjustedCloseTime returns the instant a trade is bucketed under.
// Positions closed through the normal path use their close timestamp;
// TP/SL-terminated ones fall back to creation time.
func (a *PeriodAggregator) AdjustedCloseTime(pos *domain.Position) time.Time {
	ts := pos.CreatedAt
	if pos.Status == domain.StatusClosed && pos.ClosedAt != nil {
		ts = *pos.ClosedAt
	}
	return ts.Add(closeInstantOffset)
}

// ComputeDayStats aggregates the calendar day containing date.
func (a *PeriodAggregator) ComputeDayStats(trades []*domain.Position, date time.Time) domain.PeriodBucket {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)

	bucket := domain.PeriodBucket{
		PeriodType: domain.PeriodDay,
		Start:      start,
		End:        end,
	}

	starting := a.initialBalance
	for _, pos := range trades {
		if pos.IsOpen() {
			continue
		}
		ts := a.AdjustedCloseTime(pos)
		if ts.Before(start) {
			starting += pos.RealizedPnlUsd
			continue
		}
		if ts.Before(end) {
			bucket.PnlUsd += pos.RealizedPnlUsd
			bucket.TradeIDs = append(bucket.TradeIDs, pos.ID)
			if pos.RealizedPnlUsd > 0 {
				bucket.Wins++
			} else {
				bucket.Losses++
			}
		}
	}

	bucket.StartingBalance = starting
	bucket.EndingBalance = starting + bucket.PnlUsd
	if starting > 0 {
		bucket.PnlPct = bucket.PnlUsd / starting * 100
	}
	return bucket
}

// ComputeMonthStats aggregates the calendar month containing date.
func (a *PeriodAggregator) ComputeMonthStats(trades []*domain.Position, date time.Time) domain.PeriodBucket {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return a.computeFixedBase(trades, domain.PeriodMonth, start, start.AddDate(0, 1, 0))
}

// ComputeYearStats aggregates the calendar year containing date.
func (a *PeriodAggregator) ComputeYearStats(trades []*domain.Position, date time.Time) domain.PeriodBucket {
	start := time.Date(date.Year(), 1, 1, 0, 0, 0, 0, date.Location())
	return a.computeFixedBase(trades, domain.PeriodYear, start, start.AddDate(1, 0, 0))
}

// computeFixedBase sums trades inside [start, end) with the percentage
// taken against the fixed initial balance.
func (a *PeriodAggregator) computeFixedBase(trades []*domain.Position, period domain.PeriodType, start, end time.Time) domain.PeriodBucket {
	bucket := domain.PeriodBucket{
		PeriodType:      period,
		Start:           start,
		End:             end,
		StartingBalance: a.initialBalance,
	}

	for _, pos := range trades {
		if pos.IsOpen() {
			continue
		}
		ts := a.AdjustedCloseTime(pos)
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		bucket.PnlUsd += pos.RealizedPnlUsd
		bucket.TradeIDs = append(bucket.TradeIDs, pos.ID)
		if pos.RealizedPnlUsd > 0 {
			bucket.Wins++
		} else {
			bucket.Losses++
		}
	}

	bucket.EndingBalance = bucket.StartingBalance + bucket.PnlUsd
	if a.initialBalance > 0 {
		bucket.PnlPct = bucket.PnlUsd / a.initialBalance * 100
	}
	return bucket
}
