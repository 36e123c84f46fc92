package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// closedHistoryCap bounds the in-memory archive; the full record lives in
// the trade store.
const closedHistoryCap = 256

// PositionManager owns the open-position map. Writers are the execution
// coordinator and the position loop; the risk loop and status reporting only
// read, so the map sits behind an RWMutex and callers always get copies.
type PositionManager struct {
	mu      sync.RWMutex
	open    map[string]domain.Position
	closed  []domain.ClosedPosition
	timeout time.Duration
}

// NewPositionManager creates a manager; timeout is how long a position may
// stay open before the exit check flags it (0 = never).
func NewPositionManager(timeout time.Duration) *PositionManager {
	return &PositionManager{
		open:    make(map[string]domain.Position),
		timeout: timeout,
	}
}

// Open creates a position from an executed opportunity and trade record.
func (pm *PositionManager) Open(opp domain.Opportunity, rec domain.TradeRecord, now time.Time) domain.Position {
	pos := domain.Position{
		ID:              uuid.New().String(),
		OpportunityID:   opp.ID,
		SessionID:       rec.SessionID,
		Strategy:        opp.Strategy,
		Token:           opp.Token,
		Network:         opp.Network,
		EntryPrice:      rec.RealizedPrice,
		CurrentPrice:    rec.RealizedPrice,
		Size:            rec.OutputAmount,
		InvestedUSD:     rec.InputAmount,
		StopLossPrice:   opp.StopPrice,
		TakeProfitPrice: opp.TargetPrice,
		OpenedAt:        now,
		LastUpdated:     now,
	}

	pm.mu.Lock()
	pm.open[pos.ID] = pos
	pm.mu.Unlock()
	return pos
}

// Reprice updates the current price and unrealized P&L of one position and
// returns the updated copy.
func (pm *PositionManager) Reprice(id string, price float64, now time.Time) (domain.Position, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pos, ok := pm.open[id]
	if !ok {
		return domain.Position{}, fmt.Errorf("positions.Reprice: %s: %w", id, domain.ErrPositionNotFound)
	}
	pos = pos.Reprice(price, now)
	pm.open[id] = pos
	return pos, nil
}

// CheckExit returns the exit reason a position has hit, if any. Order:
// stop-loss, take-profit, timeout. Pure against the passed copy.
func (pm *PositionManager) CheckExit(pos domain.Position, now time.Time) (domain.ExitReason, bool) {
	long := pos.TakeProfitPrice == 0 || pos.TakeProfitPrice >= pos.EntryPrice

	if pos.StopLossPrice > 0 {
		if (long && pos.CurrentPrice <= pos.StopLossPrice) ||
			(!long && pos.CurrentPrice >= pos.StopLossPrice) {
			return domain.ExitStopLoss, true
		}
	}
	if pos.TakeProfitPrice > 0 {
		if (long && pos.CurrentPrice >= pos.TakeProfitPrice) ||
			(!long && pos.CurrentPrice <= pos.TakeProfitPrice) {
			return domain.ExitTakeProfit, true
		}
	}
	if pm.timeout > 0 && pos.Age(now) > pm.timeout {
		return domain.ExitTimeout, true
	}
	return "", false
}

// Close removes the position from the open set and archives it. Closing an
// id that is not open is a programming error and fails loudly with
// ErrPositionClosed rather than being swallowed.
func (pm *PositionManager) Close(id string, reason domain.ExitReason, exitPrice float64, now time.Time) (domain.ClosedPosition, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pos, ok := pm.open[id]
	if !ok {
		return domain.ClosedPosition{}, fmt.Errorf("positions.Close: %s: %w", id, domain.ErrPositionClosed)
	}
	delete(pm.open, id)

	closed := domain.ClosedPosition{
		Position:    pos.Reprice(exitPrice, now),
		ExitReason:  reason,
		ExitPrice:   exitPrice,
		RealizedPnL: (exitPrice - pos.EntryPrice) * pos.Size,
		ClosedAt:    now,
	}
	pm.closed = append(pm.closed, closed)
	if len(pm.closed) > closedHistoryCap {
		pm.closed = pm.closed[len(pm.closed)-closedHistoryCap:]
	}
	return closed, nil
}

// Get returns a copy of one open position.
func (pm *PositionManager) Get(id string) (domain.Position, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	pos, ok := pm.open[id]
	return pos, ok
}

// Snapshot returns copies of all open positions, oldest first.
func (pm *PositionManager) Snapshot() []domain.Position {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]domain.Position, 0, len(pm.open))
	for _, pos := range pm.open {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

// Count returns the number of open positions.
func (pm *PositionManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.open)
}

// TotalInvested sums the USD invested across open positions.
func (pm *PositionManager) TotalInvested() float64 {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	total := 0.0
	for _, pos := range pm.open {
		total += pos.InvestedUSD
	}
	return total
}

// UnrealizedPnL sums unrealized P&L across open positions.
func (pm *PositionManager) UnrealizedPnL() float64 {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	total := 0.0
	for _, pos := range pm.open {
		total += pos.UnrealizedPnL
	}
	return total
}

// ClosedHistory returns the in-memory archive of recent closes, oldest first.
func (pm *PositionManager) ClosedHistory() []domain.ClosedPosition {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]domain.ClosedPosition, len(pm.closed))
	copy(out, pm.closed)
	return out
}
