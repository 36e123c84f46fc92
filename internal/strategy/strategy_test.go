package strategy

import (
	"testing"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var capturedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func baseSnapshot() domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Token:           "WETH",
		Network:         "ethereum",
		Price:           100,
		LiquidityUSD:    500_000,
		Volume24h:       1_000_000,
		AvgVolume24h:    1_000_000,
		EstimatedGasUSD: 2,
		CapturedAt:      capturedAt,
	}
}

// risingHistory returns n closes climbing stepPct per step, ending at end.
func risingHistory(n int, end, stepPct float64) []float64 {
	out := make([]float64, n)
	p := end
	for i := n - 1; i >= 0; i-- {
		out[i] = p
		p /= 1 + stepPct
	}
	return out
}

// noisyFlatHistory returns n closes alternating around level by ±noise.
func noisyFlatHistory(n int, level, noise float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = level + noise
		} else {
			out[i] = level - noise
		}
	}
	return out
}

func TestArbitrage_AcceptsProfitableGap(t *testing.T) {
	snap := baseSnapshot()
	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 102.5}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 60_000}
	snap.EstimatedGasUSD = 8.50

	opp, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	assert.Equal(t, domain.StrategyArbitrage, opp.Strategy)
	assert.Equal(t, "uniswap", opp.BuyDEX)
	assert.Equal(t, "sushiswap", opp.SellDEX)
	assert.InDelta(t, 0.75, opp.Confidence, 0.001) // 0.7 + 2×2.5%
	assert.Greater(t, opp.ExpectedProfit, 0.5)     // 2.5% gross minus diluted gas
	assert.Equal(t, 100.0, opp.EntryPrice)
	assert.Equal(t, 102.5, opp.TargetPrice)
	assert.Equal(t, 60_000.0, opp.LiquidityUSD)
}

func TestArbitrage_RejectionBoundary(t *testing.T) {
	cfg := DefaultConfig() // min difference 1.5%
	eval := NewArbitrage(cfg)

	snap := baseSnapshot()
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 60_000}
	snap.EstimatedGasUSD = 1

	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 101.4999}
	_, ok := eval.Evaluate(snap)
	assert.False(t, ok, "gap just under the minimum must be rejected")

	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 101.5001}
	_, ok = eval.Evaluate(snap)
	assert.True(t, ok, "gap just over the minimum must be accepted")
}

func TestArbitrage_RejectsThinVenue(t *testing.T) {
	snap := baseSnapshot()
	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 103}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 10_000}

	_, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok, "the thin side of the route gates the trade")
}

func TestArbitrage_RejectsExpensiveGas(t *testing.T) {
	snap := baseSnapshot()
	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 102.5}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 60_000}
	snap.EstimatedGasUSD = 20 // over the $15 threshold

	_, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestArbitrage_RejectsSingleVenue(t *testing.T) {
	snap := baseSnapshot()
	snap.DEXPrices = map[string]float64{"uniswap": 100}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000}

	_, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestGrid_DeepMarketScoresMaxConfidence(t *testing.T) {
	snap := baseSnapshot()
	snap.Price = 1.0
	snap.LiquidityUSD = 500_000

	opp, ok := NewGrid(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	// 0.5 base + 0.2 liquidity + 0.1 levels + 0.15 spacing, capped at 0.95
	assert.InDelta(t, 0.95, opp.Confidence, 0.001)
	assert.LessOrEqual(t, opp.ExpectedProfit, 25.0)
	assert.InDelta(t, 0.8, opp.StopPrice, 1e-9)   // 10 levels × 2% below
	assert.InDelta(t, 1.2, opp.TargetPrice, 1e-9) // 10 levels × 2% above
	assert.Equal(t, domain.SignalBuy, opp.Signal)
}

func TestGrid_RejectsThinLiquidity(t *testing.T) {
	snap := baseSnapshot()
	snap.LiquidityUSD = 10_000

	_, ok := NewGrid(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestGrid_RejectsGridBelowZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Levels = 60 // 60 × 2% pushes the lowest buy negative

	snap := baseSnapshot()
	_, ok := NewGrid(cfg).Evaluate(snap)
	assert.False(t, ok)
}

func TestMomentum_StrongUptrendAccepted(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceChange24h = 8
	snap.Volume24h = 2_500_000 // 2.5x surge
	snap.PriceHistory = risingHistory(60, snap.Price, 0.005)

	opp, ok := NewMomentum(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	// 24 move pts + 20 surge + 15 MACD + 15 trend = 74 (RSI pegged at 100
	// counts as exhaustion, not confirmation)
	assert.Equal(t, domain.SignalBuy, opp.Signal)
	assert.InDelta(t, 0.74, opp.Confidence, 0.02)
	assert.Greater(t, opp.TargetPrice, opp.EntryPrice)
	assert.Less(t, opp.StopPrice, opp.EntryPrice)
}

func TestMomentum_DowntrendSignalsShort(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceChange24h = -8
	snap.Volume24h = 2_500_000
	hist := risingHistory(60, 200, 0.005)
	// mirror into a falling series ending at snap.Price
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}
	snap.PriceHistory = hist
	snap.Price = hist[len(hist)-1]

	opp, ok := NewMomentum(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	assert.False(t, opp.Signal.IsBuy())
	assert.Less(t, opp.TargetPrice, opp.EntryPrice)
	assert.Greater(t, opp.StopPrice, opp.EntryPrice)
}

func TestMomentum_FlatMarketRejected(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceChange24h = 0.5
	snap.PriceHistory = noisyFlatHistory(60, snap.Price, 0.05)

	_, ok := NewMomentum(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestMeanReversion_OversoldBuysTowardMean(t *testing.T) {
	snap := baseSnapshot()
	hist := noisyFlatHistory(29, 100, 0.5)
	hist = append(hist, 90) // hard dump on the last close
	snap.PriceHistory = hist
	snap.Price = 90
	snap.Volume24h = 1_600_000 // 1.6x volume confirmation

	opp, ok := NewMeanReversion(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	assert.Equal(t, domain.SignalBuy, opp.Signal)
	assert.Greater(t, opp.TargetPrice, 95.0, "target is the SMA(20) mean")
	assert.Less(t, opp.TargetPrice, 101.0)
	assert.Less(t, opp.StopPrice, opp.EntryPrice)
	assert.GreaterOrEqual(t, opp.Confidence, 0.5)
}

func TestMeanReversion_NearMeanRejected(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceHistory = noisyFlatHistory(30, 100, 0.5)
	snap.Price = 100.2

	_, ok := NewMeanReversion(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestMeanReversion_ShortHistoryRejected(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceHistory = noisyFlatHistory(10, 100, 0.5)
	snap.Price = 90

	_, ok := NewMeanReversion(DefaultConfig()).Evaluate(snap)
	assert.False(t, ok)
}

func TestForKinds_FiltersAndPreservesOrder(t *testing.T) {
	evals := ForKinds(DefaultConfig(), []domain.StrategyKind{
		domain.StrategyMomentum, domain.StrategyGrid,
	})
	require.Len(t, evals, 2)
	assert.Equal(t, domain.StrategyGrid, evals[0].Kind())
	assert.Equal(t, domain.StrategyMomentum, evals[1].Kind())
}

func TestNewOpportunity_TTLFromSnapshotClock(t *testing.T) {
	snap := baseSnapshot()
	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 102.5}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 60_000}

	opp, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)

	assert.Equal(t, capturedAt, opp.CreatedAt)
	assert.Equal(t, capturedAt.Add(5*time.Minute), opp.ExpiresAt)
	assert.NotEmpty(t, opp.ID)
}

func TestNewOpportunity_CarriesVolatilityForTheRiskGate(t *testing.T) {
	snap := baseSnapshot()
	snap.PriceChange24h = -12.5
	snap.DEXPrices = map[string]float64{"uniswap": 100, "sushiswap": 102.5}
	snap.DEXLiquidity = map[string]float64{"uniswap": 60_000, "sushiswap": 60_000}

	opp, ok := NewArbitrage(DefaultConfig()).Evaluate(snap)
	require.True(t, ok)
	assert.InDelta(t, 12.5, opp.VolatilityPct, 1e-9, "volatility is the swing magnitude, sign dropped")
}
