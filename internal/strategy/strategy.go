package strategy

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// Evaluator turns a market snapshot into a scored opportunity. Implementations
// are pure: no I/O, no clocks beyond the snapshot timestamp, deterministic
// given identical inputs.
type Evaluator interface {
	Kind() domain.StrategyKind
	Evaluate(snap domain.MarketSnapshot) (domain.Opportunity, bool)
}

// Config carries the knobs shared by all evaluators plus per-strategy tuning.
type Config struct {
	MinLiquidityUSD     float64
	ConfidenceThreshold float64
	OrderSizeUSD        float64
	TakeProfitPct       float64 // percent, e.g. 10 = +10%
	StopLossPct         float64 // percent
	OpportunityTTL      time.Duration

	Grid          GridConfig
	Arbitrage     ArbitrageConfig
	Momentum      MomentumConfig
	MeanReversion MeanReversionConfig
}

// GridConfig tunes the grid evaluator.
type GridConfig struct {
	Levels        int     // buy levels below and sell levels above the price
	SpacingPct    float64 // fraction, e.g. 0.02 = 2% between levels
	DampingFactor float64 // fraction of theoretical grid profit assumed realizable
	MaxProfitPct  float64 // percent cap on the expected-profit estimate
}

// ArbitrageConfig tunes the cross-DEX evaluator.
type ArbitrageConfig struct {
	MinPriceDifference  float64 // fraction, e.g. 0.015 = 1.5%
	GasCostThresholdUSD float64
	MinNetProfitPct     float64 // percent floor after gas
}

// MomentumConfig tunes the momentum evaluator.
type MomentumConfig struct {
	VolumeSurgeThreshold float64 // current/average volume ratio
	MinScore             float64 // 0–100; candidates below are rejected
}

// MeanReversionConfig tunes the mean-reversion evaluator.
type MeanReversionConfig struct {
	BandWidth float64 // stdev multiplier for the Bollinger bands
	MinScore  float64 // 0–100
}

// DefaultConfig returns production-sane evaluator settings.
func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD:     50_000,
		ConfidenceThreshold: 0.5,
		OrderSizeUSD:        100,
		TakeProfitPct:       10,
		StopLossPct:         5,
		OpportunityTTL:      5 * time.Minute,
		Grid: GridConfig{
			Levels:        10,
			SpacingPct:    0.02,
			DampingFactor: 0.6,
			MaxProfitPct:  25,
		},
		Arbitrage: ArbitrageConfig{
			MinPriceDifference:  0.015,
			GasCostThresholdUSD: 15,
			MinNetProfitPct:     0.5,
		},
		Momentum: MomentumConfig{
			VolumeSurgeThreshold: 2.0,
			MinScore:             40,
		},
		MeanReversion: MeanReversionConfig{
			BandWidth: 2.0,
			MinScore:  50,
		},
	}
}

// All returns one evaluator per strategy kind. The scheduler iterates this
// table; adding a strategy means adding a variant here, not editing a
// dispatcher.
func All(cfg Config) []Evaluator {
	return []Evaluator{
		NewGrid(cfg),
		NewArbitrage(cfg),
		NewMomentum(cfg),
		NewMeanReversion(cfg),
	}
}

// ForKinds filters All down to the enabled strategy kinds, preserving order.
func ForKinds(cfg Config, kinds []domain.StrategyKind) []Evaluator {
	enabled := make(map[domain.StrategyKind]bool, len(kinds))
	for _, k := range kinds {
		enabled[k] = true
	}
	var out []Evaluator
	for _, ev := range All(cfg) {
		if enabled[ev.Kind()] {
			out = append(out, ev)
		}
	}
	return out
}

// newOpportunity fills the fields every evaluator mints the same way.
func newOpportunity(kind domain.StrategyKind, snap domain.MarketSnapshot, ttl time.Duration) domain.Opportunity {
	created := snap.CapturedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return domain.Opportunity{
		ID:            uuid.New().String(),
		Strategy:      kind,
		Token:         snap.Token,
		Network:       snap.Network,
		VolatilityPct: math.Abs(snap.PriceChange24h),
		CreatedAt:     created,
		ExpiresAt:     created.Add(ttl),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
