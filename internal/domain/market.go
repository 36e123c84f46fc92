package domain

import "time"

// MarketSnapshot is the point-in-time market state a strategy evaluates.
// Snapshots are always injected by the caller — evaluators never fetch or
// invent data, which keeps them deterministic and testable with fixtures.
type MarketSnapshot struct {
	Token   string
	Network string

	Price          float64
	PriceChange24h float64 // percent, signed
	Volume24h      float64 // USD
	AvgVolume24h   float64 // USD, trailing average for surge detection
	LiquidityUSD   float64

	// Per-DEX view for cross-exchange strategies.
	DEXPrices    map[string]float64 // dex name → price
	DEXLiquidity map[string]float64 // dex name → liquidity USD

	// Recent closing prices, oldest first. Indicator math needs >= 50 points
	// for the SMA(50) trend confirmation; shorter series degrade gracefully.
	PriceHistory []float64

	EstimatedGasUSD float64
	CapturedAt      time.Time
}

// VolumeSurge returns the ratio of current to trailing average volume.
func (m MarketSnapshot) VolumeSurge() float64 {
	if m.AvgVolume24h <= 0 {
		return 0
	}
	return m.Volume24h / m.AvgVolume24h
}

// BestArbitrageRoute returns the lowest-priced (buy) and highest-priced (sell)
// DEX for the token, or ok=false when fewer than two venues quote it.
func (m MarketSnapshot) BestArbitrageRoute() (buyDEX, sellDEX string, buyPrice, sellPrice float64, ok bool) {
	if len(m.DEXPrices) < 2 {
		return "", "", 0, 0, false
	}
	for dex, price := range m.DEXPrices {
		if price <= 0 {
			continue
		}
		if buyDEX == "" || price < buyPrice {
			buyDEX, buyPrice = dex, price
		}
		if sellDEX == "" || price > sellPrice {
			sellDEX, sellPrice = dex, price
		}
	}
	if buyDEX == "" || sellDEX == "" || buyDEX == sellDEX {
		return "", "", 0, 0, false
	}
	return buyDEX, sellDEX, buyPrice, sellPrice, true
}
