package storage

// sqlite.go — trade ledger on SQLite (pure Go driver, no CGo).
//
//   - `trades`: one append-only row per execution attempt. Never updated.
//   - `daily_summaries`: one row per (session, day), upserted by the risk loop.
//   - `circuit_breaker`: single row, upserted so restarts keep cooldowns.
//
// Old daily summaries are pruned on startup (90 days).

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id               TEXT PRIMARY KEY,
    opportunity_id   TEXT NOT NULL,
    session_id       TEXT NOT NULL,
    wallet_ref       TEXT NOT NULL,
    position_id      TEXT,
    strategy         TEXT NOT NULL,
    token            TEXT NOT NULL,
    network          TEXT NOT NULL,
    side             TEXT NOT NULL,
    input_amount     REAL NOT NULL DEFAULT 0,
    output_amount    REAL NOT NULL DEFAULT 0,
    realized_price   REAL NOT NULL DEFAULT 0,
    gas_cost_usd     REAL NOT NULL DEFAULT 0,
    realized_pnl_usd REAL NOT NULL DEFAULT 0,
    success          INTEGER NOT NULL DEFAULT 0,
    error            TEXT NOT NULL DEFAULT '',
    executed_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_summaries (
    date             DATETIME NOT NULL,
    session_id       TEXT NOT NULL,
    trades           INTEGER NOT NULL DEFAULT 0,
    wins             INTEGER NOT NULL DEFAULT 0,
    losses           INTEGER NOT NULL DEFAULT 0,
    realized_pnl_usd REAL NOT NULL DEFAULT 0,
    gas_cost_usd     REAL NOT NULL DEFAULT 0,
    open_positions   INTEGER NOT NULL DEFAULT 0,
    capital_deployed REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (date, session_id)
);

CREATE TABLE IF NOT EXISTS circuit_breaker (
    id                 INTEGER PRIMARY KEY CHECK (id = 1),
    consecutive_losses INTEGER NOT NULL DEFAULT 0,
    max_losses         INTEGER NOT NULL DEFAULT 0,
    cooldown_until     DATETIME NOT NULL,
    cooldown_s         INTEGER NOT NULL DEFAULT 0,
    total_pnl          REAL NOT NULL DEFAULT 0,
    max_drawdown       REAL NOT NULL DEFAULT 0,
    triggered          INTEGER NOT NULL DEFAULT 0,
    triggered_reason   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_wallet   ON trades(wallet_ref, executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_session  ON trades(session_id);
CREATE INDEX IF NOT EXISTS idx_daily_session   ON daily_summaries(session_id, date DESC);
`

const retentionSummaries = 90 * 24 * time.Hour

// SQLiteStore implements ports.TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveTrade appends one trade record.
func (s *SQLiteStore) SaveTrade(ctx context.Context, rec domain.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (
			id, opportunity_id, session_id, wallet_ref, position_id,
			strategy, token, network, side,
			input_amount, output_amount, realized_price,
			gas_cost_usd, realized_pnl_usd, success, error, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OpportunityID, rec.SessionID, rec.WalletRef, rec.PositionID,
		string(rec.Strategy), rec.Token, rec.Network, rec.Side,
		rec.InputAmount, rec.OutputAmount, rec.RealizedPrice,
		rec.GasCostUSD, rec.RealizedPnLUSD, boolToInt(rec.Success), rec.Error,
		rec.ExecutedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: insert %s: %w", rec.ID, err)
	}
	return nil
}

// History returns the newest trades for a wallet, most recent first.
func (s *SQLiteStore) History(ctx context.Context, walletRef string, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, opportunity_id, session_id, wallet_ref, position_id,
		       strategy, token, network, side,
		       input_amount, output_amount, realized_price,
		       gas_cost_usd, realized_pnl_usd, success, error, executed_at
		FROM trades
		WHERE wallet_ref = ?
		ORDER BY executed_at DESC
		LIMIT ?`, walletRef, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.History: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var strategy string
		var success int
		if err := rows.Scan(
			&rec.ID, &rec.OpportunityID, &rec.SessionID, &rec.WalletRef, &rec.PositionID,
			&strategy, &rec.Token, &rec.Network, &rec.Side,
			&rec.InputAmount, &rec.OutputAmount, &rec.RealizedPrice,
			&rec.GasCostUSD, &rec.RealizedPnLUSD, &success, &rec.Error, &rec.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.History: scan: %w", err)
		}
		rec.Strategy = domain.StrategyKind(strategy)
		rec.Success = success == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveDailySummary upserts the per-day ledger row.
func (s *SQLiteStore) SaveDailySummary(ctx context.Context, d domain.DailySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (
			date, session_id, trades, wins, losses,
			realized_pnl_usd, gas_cost_usd, open_positions, capital_deployed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, session_id) DO UPDATE SET
			trades           = excluded.trades,
			wins             = excluded.wins,
			losses           = excluded.losses,
			realized_pnl_usd = excluded.realized_pnl_usd,
			gas_cost_usd     = excluded.gas_cost_usd,
			open_positions   = excluded.open_positions,
			capital_deployed = excluded.capital_deployed`,
		d.Date.UTC(), d.SessionID, d.Trades, d.Wins, d.Losses,
		d.RealizedPnLUSD, d.GasCostUSD, d.OpenPositions, d.CapitalDeployed,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveDailySummary: upsert: %w", err)
	}
	return nil
}

// GetDailySummaries returns ledger rows for the session in [from, to].
func (s *SQLiteStore) GetDailySummaries(ctx context.Context, sessionID string, from, to time.Time) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, session_id, trades, wins, losses,
		       realized_pnl_usd, gas_cost_usd, open_positions, capital_deployed
		FROM daily_summaries
		WHERE session_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`, sessionID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailySummaries: query: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(
			&d.Date, &d.SessionID, &d.Trades, &d.Wins, &d.Losses,
			&d.RealizedPnLUSD, &d.GasCostUSD, &d.OpenPositions, &d.CapitalDeployed,
		); err != nil {
			return nil, fmt.Errorf("storage.GetDailySummaries: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveCircuitBreaker persists the breaker so restarts keep cooldowns.
func (s *SQLiteStore) SaveCircuitBreaker(ctx context.Context, cb domain.CircuitBreaker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO circuit_breaker (
			id, consecutive_losses, max_losses, cooldown_until, cooldown_s,
			total_pnl, max_drawdown, triggered, triggered_reason
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			consecutive_losses = excluded.consecutive_losses,
			max_losses         = excluded.max_losses,
			cooldown_until     = excluded.cooldown_until,
			cooldown_s         = excluded.cooldown_s,
			total_pnl          = excluded.total_pnl,
			max_drawdown       = excluded.max_drawdown,
			triggered          = excluded.triggered,
			triggered_reason   = excluded.triggered_reason`,
		cb.ConsecutiveLosses, cb.MaxLosses, cb.CooldownUntil.UTC(),
		int(cb.CooldownDuration.Seconds()), cb.TotalPnL, cb.MaxDrawdown,
		boolToInt(cb.Triggered), cb.TriggeredReason,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCircuitBreaker: upsert: %w", err)
	}
	return nil
}

// LoadCircuitBreaker restores the last saved breaker state. A missing row
// returns the zero value, not an error.
func (s *SQLiteStore) LoadCircuitBreaker(ctx context.Context) (domain.CircuitBreaker, error) {
	var cb domain.CircuitBreaker
	var triggered, cooldownS int
	err := s.db.QueryRowContext(ctx, `
		SELECT consecutive_losses, max_losses, cooldown_until, cooldown_s,
		       total_pnl, max_drawdown, triggered, triggered_reason
		FROM circuit_breaker WHERE id = 1`).
		Scan(&cb.ConsecutiveLosses, &cb.MaxLosses, &cb.CooldownUntil, &cooldownS,
			&cb.TotalPnL, &cb.MaxDrawdown, &triggered, &cb.TriggeredReason)
	if err == sql.ErrNoRows {
		return domain.CircuitBreaker{}, nil
	}
	if err != nil {
		return domain.CircuitBreaker{}, fmt.Errorf("storage.LoadCircuitBreaker: query: %w", err)
	}
	cb.CooldownDuration = time.Duration(cooldownS) * time.Second
	cb.Triggered = triggered == 1
	return cb, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld drops daily summaries beyond retention. Trades are kept forever;
// they are the audit trail.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSummaries)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM daily_summaries WHERE date < ?`, cutoff); err != nil {
		slog.Warn("failed to prune old daily summaries", "cutoff", cutoff, "err", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
