package domain

import "time"

type PeriodType string

const (
	PeriodDay   PeriodType = "DAY"
	PeriodMonth PeriodType = "MONTH"
	PeriodYear  PeriodType = "YEAR"
)

// PeriodBucket aggregates realized P/L over a calendar window.
type PeriodBucket struct {
	PeriodType      PeriodType `json:"period_type"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	StartingBalance float64    `json:"starting_balance"`
	EndingBalance   float64    `json:"ending_balance"`
	PnlUsd          float64    `json:"pnl_usd"`
	PnlPct          float64    `json:"pnl_pct"`
	Wins            int        `json:"wins"`
	Losses          int        `json:"losses"`
	TradeIDs        []string   `json:"trade_ids"`
}
