package domain

import "time"

type AlertState string

const (
	AlertAlerted   AlertState = "ALERTED"
	AlertDismissed AlertState = "DISMISSED"
	AlertExpired   AlertState = "EXPIRED"
	AlertActed     AlertState = "ACTED"
)

// IsTerminal reports whether the alert can no longer transition.
func (s AlertState) IsTerminal() bool {
	return s == AlertDismissed || s == AlertExpired || s == AlertActed
}

// AlertRecord is a threshold alert raised for a position. At most one
// non-terminal record exists per position at any time.
type AlertRecord struct {
	ID          string
	PositionID  string
	Pair        string
	Side        Side
	ProgressPct float64
	PnlPct      float64
	PnlUsd      float64
	State       AlertState
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// AlertPayload is what gets pushed to the notification channel when an
// alert fires.
type AlertPayload struct {
	PositionID  string  `json:"position_id"`
	Pair        string  `json:"pair"`
	Side        Side    `json:"side"`
	Leverage    int     `json:"leverage"`
	PnlPct      float64 `json:"pnl_pct"`
	PnlUsd      float64 `json:"pnl_usd"`
	ProgressPct float64 `json:"progress_pct"`
}
