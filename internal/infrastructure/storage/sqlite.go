package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/leverage_dashboard/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			pair TEXT NOT NULL,
			side TEXT NOT NULL,
			entry_price REAL NOT NULL,
			current_price REAL NOT NULL DEFAULT 0,
			leverage INTEGER NOT NULL DEFAULT 1,
			margin_amount REAL NOT NULL DEFAULT 0,
			take_profit_price REAL,
			stop_loss_price REAL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at DATETIME NOT NULL,
			closed_at DATETIME,
			realized_pnl_usd REAL NOT NULL DEFAULT 0,
			realized_pnl_pct REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_pair ON positions(pair);`,
		`CREATE TABLE IF NOT EXISTS alert_history (
			id TEXT PRIMARY KEY,
			position_id TEXT NOT NULL,
			pair TEXT NOT NULL,
			side TEXT NOT NULL,
			progress_pct REAL NOT NULL,
			pnl_pct REAL NOT NULL,
			pnl_usd REAL NOT NULL,
			state TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_position ON alert_history(position_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PositionRepository Implementation

const positionColumns = `id, pair, side, entry_price, current_price, leverage, margin_amount,
	take_profit_price, stop_loss_price, status, created_at, closed_at, realized_pnl_usd, realized_pnl_pct`

func (s *SQLiteStore) SavePosition(ctx context.Context, pos *domain.Position) error {
	query := `INSERT INTO positions (` + positionColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  pair=excluded.pair,
			  side=excluded.side,
			  entry_price=excluded.entry_price,
			  current_price=excluded.current_price,
			  leverage=excluded.leverage,
			  margin_amount=excluded.margin_amount,
			  take_profit_price=excluded.take_profit_price,
			  stop_loss_price=excluded.stop_loss_price,
			  status=excluded.status,
			  closed_at=excluded.closed_at,
			  realized_pnl_usd=excluded.realized_pnl_usd,
			  realized_pnl_pct=excluded.realized_pnl_pct`
	_, err := s.db.ExecContext(ctx, query,
		pos.ID, pos.Pair, pos.Side, pos.EntryPrice, pos.CurrentPrice, pos.Leverage, pos.MarginAmount,
		nullableFloat(pos.TakeProfitPrice), nullableFloat(pos.StopLossPrice), pos.Status,
		pos.CreatedAt, nullableTime(pos.ClosedAt), pos.RealizedPnlUsd, pos.RealizedPnlPct)
	return err
}

func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = ?`
	return scanPosition(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStore) ListPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions ORDER BY created_at DESC`
	return s.queryPositions(ctx, query)
}

func (s *SQLiteStore) ListOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE status = ? ORDER BY created_at DESC`
	return s.queryPositions(ctx, query, domain.StatusActive)
}

func (s *SQLiteStore) ListClosedPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE status != ? ORDER BY closed_at DESC`
	return s.queryPositions(ctx, query, domain.StatusActive)
}

// ClosePosition transitions a position out of ACTIVE and persists the
// realized values computed at close time.
func (s *SQLiteStore) ClosePosition(ctx context.Context, id string, req domain.CloseRequest) (*domain.Position, error) {
	status := req.Status
	if status == "" || status == domain.StatusActive {
		status = domain.StatusClosed
	}

	query := `UPDATE positions
			  SET status = ?, current_price = ?, closed_at = CURRENT_TIMESTAMP,
			      realized_pnl_usd = ?, realized_pnl_pct = ?
			  WHERE id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, query,
		status, req.Price, req.PnlUsd, req.PnlPct, id, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("position %s is not open", id)
	}

	return s.GetPosition(ctx, id)
}

func (s *SQLiteStore) queryPositions(ctx context.Context, query string, args ...any) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var p domain.Position
	var tp, sl sql.NullFloat64
	var closedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Pair, &p.Side, &p.EntryPrice, &p.CurrentPrice, &p.Leverage, &p.MarginAmount,
		&tp, &sl, &p.Status, &p.CreatedAt, &closedAt, &p.RealizedPnlUsd, &p.RealizedPnlPct)
	if err != nil {
		return nil, err
	}

	if tp.Valid {
		v := tp.Float64
		p.TakeProfitPrice = &v
	}
	if sl.Valid {
		v := sl.Float64
		p.StopLossPrice = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}
	return &p, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

// AlertHistoryRepository Implementation

func (s *SQLiteStore) SaveAlert(ctx context.Context, record *domain.AlertRecord) error {
	query := `INSERT INTO alert_history (id, position_id, pair, side, progress_pct, pnl_pct, pnl_usd, state, created_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.PositionID, record.Pair, record.Side, record.ProgressPct,
		record.PnlPct, record.PnlUsd, record.State, record.CreatedAt, record.ExpiresAt)
	return err
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	query := `SELECT id, position_id, pair, side, progress_pct, pnl_pct, pnl_usd, state, created_at, expires_at
			  FROM alert_history ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AlertRecord
	for rows.Next() {
		var r domain.AlertRecord
		if err := rows.Scan(&r.ID, &r.PositionID, &r.Pair, &r.Side, &r.ProgressPct,
			&r.PnlPct, &r.PnlUsd, &r.State, &r.CreatedAt, &r.ExpiresAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
