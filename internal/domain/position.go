package domain

import "time"

// ExitReason explains why a position was (or should be) closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitTimeout    ExitReason = "TIMEOUT"
	ExitManual     ExitReason = "MANUAL"
	ExitShutdown   ExitReason = "SHUTDOWN"
)

// Position is an open, live exposure resulting from an executed opportunity.
// Owned exclusively by the position manager; callers get copies.
type Position struct {
	ID            string
	OpportunityID string
	SessionID     string
	Strategy      StrategyKind
	Token         string
	Network       string

	EntryPrice   float64
	CurrentPrice float64
	Size         float64 // token units
	InvestedUSD  float64

	UnrealizedPnL float64 // USD
	PnLPercent    float64

	StopLossPrice   float64 // 0 = none
	TakeProfitPrice float64 // 0 = none

	OpenedAt    time.Time
	LastUpdated time.Time
}

// Reprice returns a copy updated to the given market price.
func (p Position) Reprice(price float64, now time.Time) Position {
	p.CurrentPrice = price
	p.UnrealizedPnL = (price - p.EntryPrice) * p.Size
	if p.InvestedUSD > 0 {
		p.PnLPercent = p.UnrealizedPnL / p.InvestedUSD * 100
	}
	p.LastUpdated = now
	return p
}

// Age returns how long the position has been open.
func (p Position) Age(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// ClosedPosition archives a position at the moment it was closed.
type ClosedPosition struct {
	Position
	ExitReason  ExitReason
	ExitPrice   float64
	RealizedPnL float64 // USD
	ClosedAt    time.Time
}
