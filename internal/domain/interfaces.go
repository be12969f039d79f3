package domain

import "context"

// PositionRepository defines storage operations for positions. The core
// only reads snapshots and requests close transitions; create/update is
// owned by the surrounding dashboard CRUD.
type PositionRepository interface {
	SavePosition(ctx context.Context, pos *Position) error
	GetPosition(ctx context.Context, id string) (*Position, error)
	ListPositions(ctx context.Context) ([]*Position, error)
	ListOpenPositions(ctx context.Context) ([]*Position, error)
	ListClosedPositions(ctx context.Context) ([]*Position, error)
	ClosePosition(ctx context.Context, id string, req CloseRequest) (*Position, error)
}

// AlertHistoryRepository records resolved alerts for the dashboard's
// history view. The tracker state machine does not depend on it.
type AlertHistoryRepository interface {
	SaveAlert(ctx context.Context, record *AlertRecord) error
	ListAlerts(ctx context.Context, limit int) ([]*AlertRecord, error)
}

// Notifier is the display/notification channel. Delivery failures must
// never unwind core state transitions.
type Notifier interface {
	SendAlert(ctx context.Context, payload AlertPayload) error
	SendSystem(ctx context.Context, title, body, tag string) error
}

// PriceFeed delivers per-pair price updates from the exchange.
type PriceFeed interface {
	OnPriceUpdate(callback func(pair string, price float64))
	Subscribe(pairs []string) error
	Close() error
}
