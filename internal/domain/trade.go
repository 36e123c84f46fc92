package domain

import "time"

// TradeRecord is the append-only record of one completed execution attempt.
// Written exactly once, never mutated.
type TradeRecord struct {
	ID            string
	OpportunityID string
	SessionID     string
	WalletRef     string
	PositionID    string
	Strategy      StrategyKind
	Token         string
	Network       string

	Side           string // "BUY" or "SELL"
	InputAmount    float64
	OutputAmount   float64
	RealizedPrice  float64
	GasCostUSD     float64
	RealizedPnLUSD float64 // 0 on entry trades, set on exits

	Success    bool
	Error      string
	ExecutedAt time.Time
}

// DailySummary is one row of the per-day performance ledger.
type DailySummary struct {
	Date            time.Time
	SessionID       string
	Trades          int
	Wins            int
	Losses          int
	RealizedPnLUSD  float64
	GasCostUSD      float64
	OpenPositions   int
	CapitalDeployed float64
}
