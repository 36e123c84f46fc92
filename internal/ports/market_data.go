package ports

import (
	"context"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// MarketData supplies the snapshots the strategy evaluators consume. The
// engine never generates market data itself; scan and position loops pull
// through this port, so tests and simulation inject canned snapshots.
type MarketData interface {
	// Snapshots returns the current view of every monitored token on the
	// given network.
	Snapshots(ctx context.Context, network string) ([]domain.MarketSnapshot, error)
}
