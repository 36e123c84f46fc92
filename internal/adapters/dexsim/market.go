package dexsim

// market.go — synthetic market data for simulation and paper trading.
//
// Each network carries a small token universe. Prices follow a seeded random
// walk so runs are reproducible; per-DEX prices jitter around the mid so the
// arbitrage evaluator occasionally finds a spread worth taking.

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

const (
	historyLen     = 120  // closing prices kept per token
	walkVolatility = 0.01 // stddev of one step, fraction of price
	dexJitter      = 0.008
)

type simToken struct {
	symbol    string
	price     float64
	liquidity float64
	volume    float64
	avgVolume float64
	history   []float64
	dayOpen   float64
}

// Market implements ports.MarketData with a seeded random walk.
type Market struct {
	mu       sync.Mutex
	rng      *rand.Rand
	networks map[string][]*simToken
	dexes    []string
	gasUSD   float64
}

// NewMarket builds a simulated universe for the given networks. The same
// seed always produces the same price paths.
func NewMarket(seed int64, networks []string) *Market {
	rng := rand.New(rand.NewSource(seed))
	m := &Market{
		rng:      rng,
		networks: make(map[string][]*simToken, len(networks)),
		dexes:    []string{"uniswap", "sushiswap", "curve"},
		gasUSD:   2.5,
	}
	universe := []struct {
		symbol string
		price  float64
		liq    float64
		vol    float64
	}{
		{"WETH", 2400, 800_000, 1_200_000},
		{"WBTC", 64000, 600_000, 900_000},
		{"LINK", 14.5, 250_000, 400_000},
		{"UNI", 7.8, 120_000, 180_000},
		{"PEPE", 0.000011, 60_000, 350_000},
	}
	for _, net := range networks {
		tokens := make([]*simToken, 0, len(universe))
		for _, u := range universe {
			t := &simToken{
				symbol:    u.symbol,
				price:     u.price,
				liquidity: u.liq,
				volume:    u.vol,
				avgVolume: u.vol,
				dayOpen:   u.price,
			}
			// pre-roll enough closes for SMA(50) and Bollinger math
			for i := 0; i < historyLen; i++ {
				m.step(t)
			}
			t.dayOpen = t.history[0]
			tokens = append(tokens, t)
		}
		m.networks[net] = tokens
	}
	return m
}

// Snapshots advances every token one step and returns the current view.
func (m *Market) Snapshots(ctx context.Context, network string) ([]domain.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, ok := m.networks[network]
	if !ok {
		return nil, &domain.NetworkError{Op: "snapshots", Err: fmt.Errorf("unknown simulated network %q", network)}
	}

	now := time.Now()
	out := make([]domain.MarketSnapshot, 0, len(tokens))
	for _, t := range tokens {
		m.step(t)

		dexPrices := make(map[string]float64, len(m.dexes))
		dexLiq := make(map[string]float64, len(m.dexes))
		for _, dex := range m.dexes {
			dexPrices[dex] = t.price * (1 + m.rng.NormFloat64()*dexJitter)
			dexLiq[dex] = t.liquidity * (0.5 + m.rng.Float64())
		}

		hist := make([]float64, len(t.history))
		copy(hist, t.history)

		out = append(out, domain.MarketSnapshot{
			Token:           t.symbol,
			Network:         network,
			Price:           t.price,
			PriceChange24h:  (t.price - t.dayOpen) / t.dayOpen * 100,
			Volume24h:       t.volume,
			AvgVolume24h:    t.avgVolume,
			LiquidityUSD:    t.liquidity,
			DEXPrices:       dexPrices,
			DEXLiquidity:    dexLiq,
			PriceHistory:    hist,
			EstimatedGasUSD: m.gasUSD,
			CapturedAt:      now,
		})
	}
	return out, nil
}

// CurrentPrice returns the latest mid price for a token, 0 when unknown.
// The executor quotes off this so fills track the walk.
func (m *Market) CurrentPrice(network, token string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.networks[network] {
		if t.symbol == token {
			return t.price
		}
	}
	return 0
}

// Liquidity returns the pooled liquidity for a token, 0 when unknown.
func (m *Market) Liquidity(network, token string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.networks[network] {
		if t.symbol == token {
			return t.liquidity
		}
	}
	return 0
}

func (m *Market) step(t *simToken) {
	t.price *= math.Exp(m.rng.NormFloat64() * walkVolatility)
	t.volume = maxPositive(t.volume*(1+m.rng.NormFloat64()*0.08), t.avgVolume*0.2)
	t.avgVolume = t.avgVolume*0.95 + t.volume*0.05
	t.history = append(t.history, t.price)
	if len(t.history) > historyLen {
		t.history = t.history[1:]
	}
}

func maxPositive(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}
