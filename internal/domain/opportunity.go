package domain

import "time"

// StrategyKind identifies which evaluator produced an opportunity.
type StrategyKind string

const (
	StrategyGrid          StrategyKind = "grid"
	StrategyArbitrage     StrategyKind = "arbitrage"
	StrategyMomentum      StrategyKind = "momentum"
	StrategyMeanReversion StrategyKind = "mean_reversion"
)

// Valid reports whether k is one of the known strategy kinds.
func (k StrategyKind) Valid() bool {
	switch k {
	case StrategyGrid, StrategyArbitrage, StrategyMomentum, StrategyMeanReversion:
		return true
	}
	return false
}

// Signal is the directional strength of an opportunity.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalWeakBuy    Signal = "WEAK_BUY"
	SignalNeutral    Signal = "NEUTRAL"
	SignalWeakSell   Signal = "WEAK_SELL"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// IsBuy reports whether the signal points long.
func (s Signal) IsBuy() bool {
	return s == SignalStrongBuy || s == SignalBuy || s == SignalWeakBuy
}

// Opportunity is a time-boxed, scored candidate trade produced by a strategy
// evaluator. Immutable after creation; claim state lives in the store, not here.
type Opportunity struct {
	ID       string
	Strategy StrategyKind
	Token    string
	Network  string

	Signal         Signal
	Confidence     float64 // [0,1]
	ExpectedProfit float64 // percent
	RiskScore      float64 // [0,1], higher = riskier
	VolatilityPct  float64 // |24h price change| of the underlying at evaluation time
	Reasoning      string

	EntryPrice   float64
	TargetPrice  float64
	StopPrice    float64
	Size         float64 // recommended size in USD
	LiquidityUSD float64 // liquidity backing the route, for risk checks

	// Arbitrage-only routing hints.
	BuyDEX  string
	SellDEX string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Score ranks opportunities for execution: confidence-weighted expected profit.
func (o Opportunity) Score() float64 {
	return o.Confidence * o.ExpectedProfit
}

// IsExpired reports whether the opportunity is past its expiry at the given time.
func (o Opportunity) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// TTL returns the remaining lifetime at the given time, never negative.
func (o Opportunity) TTL(now time.Time) time.Duration {
	if o.IsExpired(now) {
		return 0
	}
	return o.ExpiresAt.Sub(now)
}
