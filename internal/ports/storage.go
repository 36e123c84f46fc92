package ports

import (
	"context"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// TradeStore persists trade records and session-level summaries.
type TradeStore interface {
	// SaveTrade appends one execution record. Records are never updated.
	SaveTrade(ctx context.Context, rec domain.TradeRecord) error

	// History returns the most recent trades for a wallet, newest first.
	History(ctx context.Context, walletRef string, limit int) ([]domain.TradeRecord, error)

	// SaveDailySummary upserts the per-day ledger row for a session.
	SaveDailySummary(ctx context.Context, s domain.DailySummary) error

	// GetDailySummaries returns ledger rows in the given date range.
	GetDailySummaries(ctx context.Context, sessionID string, from, to time.Time) ([]domain.DailySummary, error)

	// SaveCircuitBreaker persists breaker state so a restart keeps cooldowns.
	SaveCircuitBreaker(ctx context.Context, cb domain.CircuitBreaker) error

	// LoadCircuitBreaker restores the last saved breaker state.
	LoadCircuitBreaker(ctx context.Context) (domain.CircuitBreaker, error)

	// Close releases the underlying database handle.
	Close() error
}
