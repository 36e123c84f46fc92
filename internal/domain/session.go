package domain

import "time"

// ExecutionMode controls how aggressively the engine acts on opportunities.
type ExecutionMode string

const (
	ModeSimulation   ExecutionMode = "simulation"
	ModePaperTrading ExecutionMode = "paperTrading"
	ModeCautious     ExecutionMode = "cautious"
	ModeAggressive   ExecutionMode = "aggressive"
	ModeLiveTrading  ExecutionMode = "liveTrading"
)

// Valid reports whether m is a recognized execution mode.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeSimulation, ModePaperTrading, ModeCautious, ModeAggressive, ModeLiveTrading:
		return true
	}
	return false
}

// AutoExecutes reports whether the scan loop may execute trades on its own.
// Cautious mode records opportunities but leaves execution to the operator.
func (m ExecutionMode) AutoExecutes() bool {
	return m == ModeSimulation || m == ModePaperTrading || m == ModeAggressive || m == ModeLiveTrading
}

// RiskLevel is the operator's declared risk appetite.
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskModerate     RiskLevel = "moderate"
	RiskAggressive   RiskLevel = "aggressive"
	RiskExtreme      RiskLevel = "extreme"
)

// Valid reports whether r is a recognized risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive, RiskExtreme:
		return true
	}
	return false
}

// RiskLimits is the immutable risk configuration bound to a session.
type RiskLimits struct {
	MaxPositionSizePct     float64 // single position as % of portfolio
	MaxSingleTradeUSD      float64
	MaxDailyLossUSD        float64
	MaxDrawdownPct         float64
	MaxConcentrationPct    float64
	MinLiquidityUSD        float64
	MaxVolatilityPct       float64
	ConfidenceThreshold    float64
	MaxConcurrentPositions int
}

// TradingSession holds a wallet binding, risk configuration, and cumulative
// counters. All mutation happens inside the session manager under lock;
// consumers only ever see value copies.
type TradingSession struct {
	ID        string
	WalletRef string
	Mode      ExecutionMode
	RiskLevel RiskLevel
	Limits    RiskLimits

	PortfolioValueUSD float64

	TotalTrades      int
	SuccessfulTrades int
	FailedTrades     int
	TotalPnLUSD      float64
	LargestWinUSD    float64
	LargestLossUSD   float64 // stored as a positive magnitude

	DailyLossUSD  float64
	DailyTrades   int
	LastResetDate time.Time // midnight UTC of the day the daily counters cover

	IsActive  bool
	StartedAt time.Time
	StoppedAt time.Time
}

// CanTradeToday reports whether the daily loss cap still has headroom.
// A session whose counters belong to a previous day can always trade; the
// manager rolls the counters before recording anything.
func (s TradingSession) CanTradeToday(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if dateOf(now).After(s.LastResetDate) {
		return true
	}
	return s.DailyLossUSD < s.Limits.MaxDailyLossUSD
}

// WinRate returns the fraction of successful trades, 0 when none completed.
func (s TradingSession) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.SuccessfulTrades) / float64(s.TotalTrades)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to midnight UTC. Daily counters key on this.
func DateOf(t time.Time) time.Time { return dateOf(t) }
